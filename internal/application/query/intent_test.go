package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"fab-equip-ai-api/internal/domain/entity"
)

type stubParser struct {
	flags  *entity.IntentFlags
	err    error
	called int
}

func (s *stubParser) Parse(ctx context.Context, text string) (*entity.IntentFlags, error) {
	s.called++
	return s.flags, s.err
}

func TestNeedsLLM(t *testing.T) {
	t.Run("부정 표현", func(t *testing.T) {
		assert.True(t, needsLLM("ALD 제외하고 증착 장비"))
		assert.True(t, needsLLM("sputter 말고 다른 거"))
	})

	t.Run("복합 OR 표현", func(t *testing.T) {
		assert.True(t, needsLLM("MOCVD 또는 MBE"))
		assert.True(t, needsLLM("PECVD/ALD"))
	})

	t.Run("추상 표현", func(t *testing.T) {
		assert.True(t, needsLLM("GaN에 적합한 장비"))
	})

	t.Run("단순 질의는 LLM 불필요", func(t *testing.T) {
		assert.False(t, needsLLM("6인치 GaN 에피 성장 장비"))
	})
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	t.Run("단순 질의는 파서를 호출하지 않는다", func(t *testing.T) {
		parser := &stubParser{flags: &entity.IntentFlags{NegatedTerms: []string{"ALD"}}}
		c := NewClassifier(parser)

		flags := c.Classify(ctx, "6인치 식각 장비")
		assert.True(t, flags.IsZero())
		assert.Zero(t, parser.called)
	})

	t.Run("의심 질의는 파서 결과 사용", func(t *testing.T) {
		parser := &stubParser{flags: &entity.IntentFlags{
			NegatedTerms:       []string{"ALD"},
			ExcludedCategories: []string{"ALD"},
		}}
		c := NewClassifier(parser)

		flags := c.Classify(ctx, "ALD 제외하고 증착 장비")
		assert.False(t, flags.IsZero())
		assert.Equal(t, []string{"ALD"}, flags.NegatedTerms)
		assert.Equal(t, 1, parser.called)
	})

	t.Run("파서 실패 시 영 플래그로 강등", func(t *testing.T) {
		parser := &stubParser{err: errors.New("llm unavailable")}
		c := NewClassifier(parser)

		flags := c.Classify(ctx, "ALD 제외하고 증착 장비")
		assert.True(t, flags.IsZero())
	})

	t.Run("파서 미주입", func(t *testing.T) {
		c := NewClassifier(nil)
		flags := c.Classify(ctx, "MOCVD 또는 MBE")
		assert.True(t, flags.IsZero())
	})
}
