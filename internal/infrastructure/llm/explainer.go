package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/internal/domain/service"
	"fab-equip-ai-api/internal/infrastructure/llm/prompt"
	pkgerrors "fab-equip-ai-api/pkg/errors"
)

// ExplanationClient 基于 LLM 的推荐解释生成器
type ExplanationClient struct {
	factory  *EinoFactory
	registry *prompt.Registry
	provider string
}

func NewExplanationClient(factory *EinoFactory, registry *prompt.Registry, provider string) *ExplanationClient {
	return &ExplanationClient{
		factory:  factory,
		registry: registry,
		provider: strings.TrimSpace(provider),
	}
}

// Generate 生成推荐解释文本
func (c *ExplanationClient) Generate(ctx context.Context, query string, recs []entity.Recommendation) (string, error) {
	if c == nil || c.factory == nil {
		return "", fmt.Errorf("llm factory not configured")
	}

	ctx = service.WithWorkflowProvider(ctx, "explanation", c.provider)

	chatModel, err := c.factory.Get(ctx, c.provider)
	if err != nil {
		return "", pkgerrors.Wrap(err, pkgerrors.CodeLLMCallFailed, "failed to get chat model")
	}

	msgs, err := c.formatMessages(ctx, query, recs)
	if err != nil {
		return "", err
	}

	outMsg, err := chatModel.Generate(ctx, msgs)
	if err != nil {
		return "", pkgerrors.Wrap(err, pkgerrors.CodeExplanationFailed, "explanation llm call failed")
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return "", pkgerrors.New(pkgerrors.CodeExplanationFailed, "empty explanation response")
	}
	return strings.TrimSpace(outMsg.Content), nil
}

// GenerateStream 返回 Eino StreamReader；调用方负责 Close()。
func (c *ExplanationClient) GenerateStream(ctx context.Context, query string, recs []entity.Recommendation) (*schema.StreamReader[*schema.Message], error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}

	ctx = service.WithWorkflowProvider(ctx, "explanation_stream", c.provider)

	chatModel, err := c.factory.Get(ctx, c.provider)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeLLMCallFailed, "failed to get chat model")
	}

	msgs, err := c.formatMessages(ctx, query, recs)
	if err != nil {
		return nil, err
	}
	return chatModel.Stream(ctx, msgs)
}

func (c *ExplanationClient) formatMessages(ctx context.Context, query string, recs []entity.Recommendation) ([]*schema.Message, error) {
	tpl, err := c.registry.ChatTemplate(prompt.PromptExplanationV1)
	if err != nil {
		return nil, err
	}

	msgs, err := tpl.Format(ctx, map[string]any{
		"query":           query,
		"recommendations": formatRecommendations(recs),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format explanation prompt: %w", err)
	}
	return msgs, nil
}

func formatRecommendations(recs []entity.Recommendation) string {
	var b strings.Builder
	for i, rec := range recs {
		fmt.Fprintf(&b, "%d. %s (카테고리: %s", i+1, rec.Name, rec.Category)
		if rec.Institution != "" {
			fmt.Fprintf(&b, ", 기관: %s", rec.Institution)
		}
		if len(rec.WaferSizes) > 0 {
			sizes := make([]string, 0, len(rec.WaferSizes))
			for _, s := range rec.WaferSizes {
				sizes = append(sizes, fmt.Sprintf("%d인치", s))
			}
			fmt.Fprintf(&b, ", 웨이퍼: %s", strings.Join(sizes, "/"))
		}
		if len(rec.Materials) > 0 {
			fmt.Fprintf(&b, ", 재료: %s", strings.Join(rec.Materials, ", "))
		}
		b.WriteString(")")
		if rec.Reason != "" {
			fmt.Fprintf(&b, " - %s", rec.Reason)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
