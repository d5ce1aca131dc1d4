// Package handler 提供 HTTP 请求处理器
package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appretrieval "fab-equip-ai-api/internal/application/retrieval"
	"fab-equip-ai-api/internal/domain/repository"
	"fab-equip-ai-api/internal/infrastructure/lexical"
	"fab-equip-ai-api/internal/infrastructure/messaging"
	"fab-equip-ai-api/internal/interfaces/http/dto"
	"fab-equip-ai-api/pkg/logger"
)

// EquipmentHandler 设备目录处理器
type EquipmentHandler struct {
	repo     repository.EquipmentRepository
	index    *lexical.Index
	indexer  *appretrieval.Indexer
	producer *messaging.Producer
}

// NewEquipmentHandler 创建设备目录处理器
func NewEquipmentHandler(
	repo repository.EquipmentRepository,
	index *lexical.Index,
	indexer *appretrieval.Indexer,
	producer *messaging.Producer,
) *EquipmentHandler {
	return &EquipmentHandler{
		repo:     repo,
		index:    index,
		indexer:  indexer,
		producer: producer,
	}
}

// List 分页列出设备目录
// @Summary 分页列出设备目录
// @Tags Equipments
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} dto.Response[dto.EquipmentListResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/equipments [get]
func (h *EquipmentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	page := dto.BindPage(c)

	result, err := h.repo.List(ctx, repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		respondError(ctx, c, err, "failed to list equipments")
		return
	}

	items := make([]*dto.EquipmentResponse, 0, len(result.Items))
	for _, e := range result.Items {
		items = append(items, dto.NewEquipmentResponse(e))
	}

	dto.SuccessWithPage(c, dto.EquipmentListResponse{Equipments: items},
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}

// Get 获取设备详情
// @Summary 获取设备详情
// @Tags Equipments
// @Produce json
// @Param eid path string true "设备 ID"
// @Success 200 {object} dto.Response[dto.EquipmentResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/equipments/{eid} [get]
func (h *EquipmentHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	id := dto.BindEquipmentID(c)

	equipment, err := h.repo.GetByID(ctx, id)
	if err != nil {
		respondError(ctx, c, err, "failed to get equipment")
		return
	}
	if equipment == nil {
		dto.NotFound(c, "equipment not found")
		return
	}

	dto.Success(c, dto.NewEquipmentResponse(equipment))
}

// Count 设备与索引统计
// @Summary 设备与索引统计
// @Tags Equipments
// @Produce json
// @Success 200 {object} dto.Response[dto.EquipmentCountResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/equipments/count [get]
func (h *EquipmentHandler) Count(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.repo.Count(ctx)
	if err != nil {
		respondError(ctx, c, err, "failed to count equipments")
		return
	}

	dto.Success(c, dto.EquipmentCountResponse{
		Total:        total,
		IndexedDocs:  h.index.DocCount(),
		LexicalReady: h.index.Ready(),
	})
}

// Reindex 重建检索索引
// @Summary 重建检索索引
// @Description 同步重建，或在 async=true 时投递到重建流由 index-worker 处理
// @Tags Equipments
// @Accept json
// @Produce json
// @Param body body dto.ReindexRequest false "重建请求"
// @Success 200 {object} dto.Response[dto.ReindexResponse]
// @Success 202 {object} dto.Response[dto.ReindexResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/equipments/reindex [post]
func (h *EquipmentHandler) Reindex(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ReindexRequest
	// 空请求体按全量同步重建处理
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.Scope) == "" {
		req.Scope = "full"
	}

	if req.Async {
		if h.producer == nil {
			dto.ServiceUnavailable(c, "reindex queue not configured")
			return
		}
		jobID := uuid.NewString()
		if _, err := h.producer.PublishReindexJob(ctx, &messaging.ReindexJobMessage{
			JobID:        jobID,
			Scope:        req.Scope,
			EquipmentIDs: req.EquipmentIDs,
			Reason:       req.Reason,
			RequestID:    c.GetString("request_id"),
		}); err != nil {
			respondError(ctx, c, err, "failed to enqueue reindex job")
			return
		}
		dto.Accepted(c, dto.ReindexResponse{JobID: jobID, Queued: true})
		return
	}

	indexed, err := h.indexer.ReindexAll(ctx)
	if err != nil {
		respondError(ctx, c, err, "reindex failed")
		return
	}

	logger.Info(ctx, "catalog reindexed", "indexed", indexed)
	dto.Success(c, dto.ReindexResponse{Indexed: indexed, Queued: false})
}
