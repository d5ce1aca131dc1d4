package entity

import (
	"time"
)

// SessionState 会话状态
type SessionState string

const (
	SessionStateNew     SessionState = "new"
	SessionStateActive  SessionState = "active"
	SessionStateExpired SessionState = "expired"
)

// TurnKind 对话轮次的合并方式
type TurnKind string

const (
	// TurnFresh 全新查询，丢弃累积上下文
	TurnFresh TurnKind = "fresh"
	// TurnReplace 条件替换，仅覆盖本轮重新指定的硬性属性
	TurnReplace TurnKind = "replace"
	// TurnCarryOver 追问，沿用累积查询
	TurnCarryOver TurnKind = "carry_over"
)

// SessionTurn 会话内单轮记录
type SessionTurn struct {
	Query          string    `json:"query"`
	Kind           TurnKind  `json:"kind"`
	RecommendedIDs []string  `json:"recommended_ids,omitempty"`
	At             time.Time `json:"at"`
}

// Session 多轮对话会话。快照存储于会话仓储，按 TTL 过期。
type Session struct {
	ID              string           `json:"id"`
	UserInstitution string           `json:"user_institution,omitempty"`
	Accumulated     *StructuredQuery `json:"accumulated,omitempty"`
	Turns           []SessionTurn    `json:"turns"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewSession 创建新会话
func NewSession(id, userInstitution string) *Session {
	now := time.Now()
	return &Session{
		ID:              id,
		UserInstitution: userInstitution,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// StateAt 按 TTL 推导会话状态
func (s *Session) StateAt(now time.Time, ttl time.Duration) SessionState {
	if s == nil {
		return SessionStateNew
	}
	if now.Sub(s.UpdatedAt) > ttl {
		return SessionStateExpired
	}
	return SessionStateActive
}

// TurnCount 已处理的轮次数
func (s *Session) TurnCount() int {
	if s == nil {
		return 0
	}
	return len(s.Turns)
}

// LastRecommendedIDs 上一轮推荐的设备 ID
func (s *Session) LastRecommendedIDs() []string {
	if s == nil || len(s.Turns) == 0 {
		return nil
	}
	return s.Turns[len(s.Turns)-1].RecommendedIDs
}

// AppendTurn 记录一轮并刷新时间戳
func (s *Session) AppendTurn(turn SessionTurn) {
	s.Turns = append(s.Turns, turn)
	s.UpdatedAt = turn.At
}
