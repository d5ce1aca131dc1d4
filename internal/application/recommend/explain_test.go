package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"fab-equip-ai-api/internal/domain/entity"
)

type stubGenerator struct {
	text   string
	errs   []error // 호출 순서대로 반환, 소진되면 nil
	called int
}

func (g *stubGenerator) Generate(ctx context.Context, query string, recs []entity.Recommendation) (string, error) {
	g.called++
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return g.text, nil
}

func (g *stubGenerator) GenerateStream(ctx context.Context, query string, recs []entity.Recommendation) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func sampleRecs() []entity.Recommendation {
	return []entity.Recommendation{
		{EquipmentID: "EQ002", Name: "MOCVD System"},
		{EquipmentID: "EQ009", Name: "MBE System"},
	}
}

func TestExplain(t *testing.T) {
	ctx := context.Background()

	t.Run("정상 생성", func(t *testing.T) {
		gen := &stubGenerator{text: "GaN 에피 성장에는 MOCVD가 적합합니다."}
		e := NewExplainer(gen, nil, time.Second, time.Minute)

		text, retryable := e.Explain(ctx, "에피 성장 장비", sampleRecs())
		assert.Equal(t, gen.text, text)
		assert.False(t, retryable)
	})

	t.Run("실패 시 빈 해설과 재시도 표시", func(t *testing.T) {
		gen := &stubGenerator{errs: []error{errors.New("provider error")}}
		e := NewExplainer(gen, nil, time.Second, time.Minute)

		text, retryable := e.Explain(ctx, "에피 성장 장비", sampleRecs())
		assert.Empty(t, text)
		assert.True(t, retryable)
		assert.Equal(t, 1, gen.called)
	})

	t.Run("타임아웃은 한 번 재시도", func(t *testing.T) {
		gen := &stubGenerator{
			text: "재시도 성공",
			errs: []error{context.DeadlineExceeded},
		}
		e := NewExplainer(gen, nil, time.Second, time.Minute)

		text, retryable := e.Explain(ctx, "에피 성장 장비", sampleRecs())
		assert.Equal(t, "재시도 성공", text)
		assert.False(t, retryable)
		assert.Equal(t, 2, gen.called)
	})

	t.Run("추천 없으면 생성 생략", func(t *testing.T) {
		gen := &stubGenerator{text: "x"}
		e := NewExplainer(gen, nil, time.Second, time.Minute)

		text, retryable := e.Explain(ctx, "장비", nil)
		assert.Empty(t, text)
		assert.False(t, retryable)
		assert.Zero(t, gen.called)
	})

	t.Run("nil 수신자 안전", func(t *testing.T) {
		var e *Explainer
		text, retryable := e.Explain(ctx, "장비", sampleRecs())
		assert.Empty(t, text)
		assert.False(t, retryable)
	})
}

func TestExplanationKey(t *testing.T) {
	recs := sampleRecs()
	reversed := []entity.Recommendation{recs[1], recs[0]}

	// 추천 순서와 무관하게 같은 키
	assert.Equal(t, explanationKey("질의", recs), explanationKey("질의", reversed))
	assert.NotEqual(t, explanationKey("질의", recs), explanationKey("다른 질의", recs))
}
