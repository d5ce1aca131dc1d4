// Package recommend 编排设备推荐管线
package recommend

import (
	"time"

	"fab-equip-ai-api/internal/domain/entity"
)

// ChatInput 一轮推荐请求
type ChatInput struct {
	Query           string
	SessionID       string
	UserInstitution string
	TopK            int

	// SkipExplanation 流式端点自行拉取解释 token 流时置位
	SkipExplanation bool
}

// ChatOutput 一轮推荐结果
type ChatOutput struct {
	Query           string
	Recommendations []entity.Recommendation
	Explanation     string
	Retryable       bool
	SessionID       string
	TurnCount       int
	TurnKind        entity.TurnKind
	ProcessingTime  time.Duration
	FilterDropped   map[string]int
}
