package query

import (
	"context"
	"regexp"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/pkg/logger"
)

// IntentParser 结构化意图解析 port，由 LLM 基础设施实现
type IntentParser interface {
	Parse(ctx context.Context, text string) (*entity.IntentFlags, error)
}

// 规则预检模式：只有疑似否定/复合/抽象的查询才会调用 LLM
var (
	negativeRe = regexp.MustCompile(`제외|빼고|말고|없이|아닌|안\s*되|except|without|\bnot?\b`)
	compoundRe = regexp.MustCompile(`또는|이나|혹은|\bor\b|/`)
	abstractRe = regexp.MustCompile(`좋은|적합한|알맞은|괜찮은|추천|어울리|best|suitable|recommend`)
)

// Classifier 意图分类器。
// LLM 解析失败时降级为零值标记，绝不向管线返回错误。
type Classifier struct {
	parser IntentParser
}

func NewClassifier(parser IntentParser) *Classifier {
	return &Classifier{parser: parser}
}

// Classify 返回查询的意图标记
func (c *Classifier) Classify(ctx context.Context, text string) *entity.IntentFlags {
	if !needsLLM(text) {
		return &entity.IntentFlags{}
	}
	if c == nil || c.parser == nil {
		return &entity.IntentFlags{}
	}

	flags, err := c.parser.Parse(ctx, text)
	if err != nil || flags == nil {
		logger.Warn(ctx, "intent parse degraded to zero flags", "error", errString(err))
		return &entity.IntentFlags{}
	}
	return flags
}

func needsLLM(text string) bool {
	return negativeRe.MatchString(text) || compoundRe.MatchString(text) || abstractRe.MatchString(text)
}

func errString(err error) string {
	if err == nil {
		return "nil flags"
	}
	return err.Error()
}
