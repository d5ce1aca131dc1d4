// Package handler 提供 HTTP 请求处理器
package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"fab-equip-ai-api/internal/application/recommend"
	"fab-equip-ai-api/internal/interfaces/http/dto"
)

// ChatHandler 自然语言推荐处理器
type ChatHandler struct {
	svc *recommend.Service
}

// NewChatHandler 创建推荐处理器
func NewChatHandler(svc *recommend.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat 自然语言设备推荐
// @Summary 自然语言设备推荐
// @Description 解析自然语言查询并返回按策略排序的设备推荐
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.ChatRequest true "推荐请求"
// @Success 200 {object} dto.Response[dto.ChatResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		dto.BadRequest(c, "query is required")
		return
	}

	out, err := h.svc.Chat(ctx, recommend.ChatInput{
		Query:           req.Query,
		SessionID:       req.SessionID,
		UserInstitution: req.UserInstitution,
		TopK:            req.TopK,
	})
	if err != nil {
		respondError(ctx, c, err, "recommendation failed")
		return
	}

	dto.Success(c, dto.ChatResponse{
		SessionID:        out.SessionID,
		TurnCount:        out.TurnCount,
		TurnKind:         string(out.TurnKind),
		Recommendations:  dto.NewRecommendationItems(out.Recommendations),
		Explanation:      out.Explanation,
		Retryable:        out.Retryable,
		ProcessingTimeMs: out.ProcessingTime.Milliseconds(),
		FilterDropped:    out.FilterDropped,
	})
}
