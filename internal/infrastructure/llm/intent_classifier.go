package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/internal/domain/service"
	"fab-equip-ai-api/internal/infrastructure/llm/prompt"
	pkgerrors "fab-equip-ai-api/pkg/errors"
)

// IntentClassifier 基于 LLM 的查询意图解析器
type IntentClassifier struct {
	factory  *EinoFactory
	registry *prompt.Registry
	provider string
}

func NewIntentClassifier(factory *EinoFactory, registry *prompt.Registry, provider string) *IntentClassifier {
	return &IntentClassifier{
		factory:  factory,
		registry: registry,
		provider: strings.TrimSpace(provider),
	}
}

// intentResult 模型输出的 JSON 契约
type intentResult struct {
	NegatedTerms       []string `json:"negated_terms"`
	ExcludedCategories []string `json:"excluded_categories"`
	ExcludedMaterials  []string `json:"excluded_materials"`
	ExcludeTempMin     *float64 `json:"exclude_temp_min"`
	ExcludeTempMax     *float64 `json:"exclude_temp_max"`
	IsCompoundOR       bool     `json:"is_compound_or"`
	IsAbstract         bool     `json:"is_abstract"`
	RefinedQuery       string   `json:"refined_query"`
}

// Parse 解析查询意图标记
func (c *IntentClassifier) Parse(ctx context.Context, text string) (*entity.IntentFlags, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if strings.TrimSpace(text) == "" {
		return &entity.IntentFlags{}, nil
	}

	ctx = service.WithWorkflowProvider(ctx, "intent_parse", c.provider)

	chatModel, err := c.factory.Get(ctx, c.provider)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeLLMCallFailed, "failed to get chat model")
	}

	tpl, err := c.registry.ChatTemplate(prompt.PromptIntentParseV1)
	if err != nil {
		return nil, err
	}
	msgs, err := tpl.Format(ctx, map[string]any{"query": text})
	if err != nil {
		return nil, fmt.Errorf("failed to format intent prompt: %w", err)
	}

	outMsg, err := chatModel.Generate(ctx, msgs)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeIntentParseFailed, "intent parse llm call failed")
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeIntentParseFailed, "empty intent parse response")
	}

	jsonText := extractJSONObject(outMsg.Content)
	var result intentResult
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeIntentParseFailed, "failed to parse intent json")
	}

	return &entity.IntentFlags{
		NegatedTerms:       result.NegatedTerms,
		ExcludedCategories: result.ExcludedCategories,
		ExcludedMaterials:  result.ExcludedMaterials,
		ExcludeTempMin:     result.ExcludeTempMin,
		ExcludeTempMax:     result.ExcludeTempMax,
		IsCompoundOR:       result.IsCompoundOR,
		IsAbstract:         result.IsAbstract,
		RefinedQuery:       strings.TrimSpace(result.RefinedQuery),
	}, nil
}
