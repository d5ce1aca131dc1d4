package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	t.Run("순수 JSON은 그대로", func(t *testing.T) {
		in := `{"negated_terms":["ALD"]}`
		assert.Equal(t, in, extractJSONObject(in))
	})

	t.Run("코드 펜스 제거", func(t *testing.T) {
		in := "```json\n{\"is_compound_or\": true}\n```"
		out := extractJSONObject(in)

		var parsed map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &parsed))
		assert.Equal(t, true, parsed["is_compound_or"])
	})

	t.Run("전후 설명 텍스트 제거", func(t *testing.T) {
		in := `분석 결과는 다음과 같습니다: {"excluded_categories":["ALD"]} 이상입니다.`
		out := extractJSONObject(in)

		var parsed map[string][]string
		require.NoError(t, json.Unmarshal([]byte(out), &parsed))
		assert.Equal(t, []string{"ALD"}, parsed["excluded_categories"])
	})

	t.Run("배열 응답", func(t *testing.T) {
		in := "결과: [1, 2, 3]"
		assert.Equal(t, "[1, 2, 3]", extractJSONObject(in))
	})

	t.Run("빈 입력", func(t *testing.T) {
		assert.Empty(t, extractJSONObject("   "))
	})
}
