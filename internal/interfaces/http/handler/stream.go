// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"fab-equip-ai-api/internal/application/recommend"
	"fab-equip-ai-api/internal/interfaces/http/dto"
	"fab-equip-ai-api/pkg/logger"
)

// StreamHandler SSE 流式推荐处理器
type StreamHandler struct {
	svc *recommend.Service
}

// NewStreamHandler 创建流式推荐处理器
func NewStreamHandler(svc *recommend.Service) *StreamHandler {
	return &StreamHandler{svc: svc}
}

// ChatStream 流式设备推荐
// @Summary 流式设备推荐
// @Description 先推送推荐列表，再通过 SSE 流式推送解释文本
// @Tags Chat
// @Accept json
// @Produce text/event-stream
// @Param body body dto.ChatRequest true "推荐请求"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/chat/stream [post]
func (h *StreamHandler) ChatStream(c *gin.Context) {
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

	// 推荐管线同步执行，解释走 token 流
	out, err := h.svc.Chat(ctx, recommend.ChatInput{
		Query:           req.Query,
		SessionID:       req.SessionID,
		UserInstitution: req.UserInstitution,
		TopK:            req.TopK,
		SkipExplanation: true,
	})
	if err != nil {
		respondError(ctx, c, err, "recommendation failed")
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("recommendations", dto.ChatResponse{
		SessionID:        out.SessionID,
		TurnCount:        out.TurnCount,
		TurnKind:         string(out.TurnKind),
		Recommendations:  dto.NewRecommendationItems(out.Recommendations),
		ProcessingTimeMs: out.ProcessingTime.Milliseconds(),
		FilterDropped:    out.FilterDropped,
	})
	c.Writer.Flush()

	if len(out.Recommendations) == 0 {
		c.SSEvent("done", gin.H{"session_id": out.SessionID})
		return
	}

	reader, err := h.svc.StreamExplanation(ctx, out.Query, out.Recommendations)
	if err != nil {
		logger.Warn(ctx, "explanation stream unavailable", "error", err.Error())
		c.SSEvent("error", gin.H{"message": "explanation unavailable", "retryable": true})
		return
	}
	defer reader.Close()

	index := 0
	c.Stream(func(w io.Writer) bool {
		msg, recvErr := reader.Recv()
		if recvErr != nil {
			if !errors.Is(recvErr, io.EOF) {
				logger.Warn(ctx, "explanation stream interrupted", "error", recvErr.Error())
				c.SSEvent("error", gin.H{"message": "explanation interrupted", "retryable": true})
				return false
			}
			c.SSEvent("done", gin.H{"session_id": out.SessionID})
			return false
		}
		if msg == nil || msg.Content == "" {
			return true
		}
		c.SSEvent("content", gin.H{
			"chunk": msg.Content,
			"index": index,
		})
		index++
		return true
	})
}
