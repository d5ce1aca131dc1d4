// Package handler 提供 HTTP 请求处理器
package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"fab-equip-ai-api/internal/application/policy"
	"fab-equip-ai-api/internal/interfaces/http/dto"
)

// PolicyHandler 策略快照管理处理器
type PolicyHandler struct {
	cache *policy.Cache
}

// NewPolicyHandler 创建策略处理器
func NewPolicyHandler(cache *policy.Cache) *PolicyHandler {
	return &PolicyHandler{cache: cache}
}

// Status 策略快照状态
// @Summary 策略快照状态
// @Description 返回当前策略快照的加载时间与规则统计
// @Tags Policy
// @Produce json
// @Success 200 {object} dto.Response[dto.PolicyStatusResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/policy/status [get]
func (h *PolicyHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	rules := h.cache.Current()
	if rules == nil {
		var err error
		rules, err = h.cache.Snapshot(ctx)
		if err != nil {
			respondError(ctx, c, err, "policy snapshot unavailable")
			return
		}
	}

	dto.Success(c, dto.PolicyStatusResponse{
		LoadedAt:           rules.LoadedAt.Format(time.RFC3339),
		AgeSeconds:         rules.Age().Seconds(),
		InstitutionCount:   len(rules.Priorities),
		MappingCount:       len(rules.Mappings),
		MaintenanceExclude: rules.Settings.MaintenanceExclude,
		ExternalVisible:    rules.Settings.ExternalVisible,
		MinRagScore:        rules.Settings.MinRagScore,
		MaxRecommendations: rules.Settings.MaxRecommendations,
	})
}

// Reload 强制重载策略快照
// @Summary 强制重载策略快照
// @Description 绕过 TTL 立即从数据库重新加载三张规则表
// @Tags Policy
// @Produce json
// @Success 200 {object} dto.Response[dto.PolicyReloadResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/policy/reload [post]
func (h *PolicyHandler) Reload(c *gin.Context) {
	ctx := c.Request.Context()

	rules, err := h.cache.ForceReload(ctx)
	if err != nil {
		respondError(ctx, c, err, "policy reload failed")
		return
	}

	dto.Success(c, dto.PolicyReloadResponse{
		LoadedAt:         rules.LoadedAt.Format(time.RFC3339),
		InstitutionCount: len(rules.Priorities),
		MappingCount:     len(rules.Mappings),
	})
}

// Mappings 工艺关键词映射列表
// @Summary 工艺关键词映射列表
// @Description 返回当前快照中的关键词到设备类别映射
// @Tags Policy
// @Produce json
// @Success 200 {object} dto.Response[dto.ProcessMappingResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/policy/mappings [get]
func (h *PolicyHandler) Mappings(c *gin.Context) {
	ctx := c.Request.Context()

	rules, err := h.cache.Snapshot(ctx)
	if err != nil {
		respondError(ctx, c, err, "policy snapshot unavailable")
		return
	}

	items := make([]dto.ProcessMappingItem, 0, len(rules.Mappings))
	for _, m := range rules.Mappings {
		items = append(items, dto.ProcessMappingItem{
			Keyword:    m.Keyword,
			Categories: m.Categories,
			Priority:   m.Priority,
			Exact:      m.Exact,
		})
	}

	dto.Success(c, dto.ProcessMappingResponse{Mappings: items})
}
