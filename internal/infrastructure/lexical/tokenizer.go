// Package lexical 提供进程内 BM25 词法索引
package lexical

import (
	"regexp"
	"strings"
	"unicode"
)

// 数值+单位 token 不拆分，归一化后整体保留（6인치 -> 6inch）
var numberUnitRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(인치|inch|"|mm|밀리|도|℃|°c)`)

// 韩语助词/停用词
var stopwords = map[string]bool{
	"은": true, "는": true, "이": true, "가": true, "을": true, "를": true,
	"에": true, "에서": true, "의": true, "로": true, "으로": true,
	"와": true, "과": true, "도": true, "만": true, "좀": true,
	"장비": true, "가능한": true, "가능": true, "해줘": true, "알려줘": true,
	"추천": true, "추천해줘": true, "찾아줘": true, "있는": true, "되는": true,
	"the": true, "a": true, "an": true, "for": true, "with": true, "and": true,
}

func normalizeUnit(unit string) string {
	switch unit {
	case "인치", "inch", `"`:
		return "inch"
	case "mm", "밀리":
		return "mm"
	case "도", "℃", "°c":
		return "c"
	}
	return unit
}

// Tokenize 切分查询/文档为检索词元。
// 数字+单位作为单一词元保留，其余按字母/数字/谚文连续段切分，去停用词。
func Tokenize(text string) []string {
	lower := strings.ToLower(text)

	// 先抽取数值+单位 token
	var tokens []string
	lower = numberUnitRe.ReplaceAllStringFunc(lower, func(m string) string {
		sub := numberUnitRe.FindStringSubmatch(m)
		tokens = append(tokens, sub[1]+normalizeUnit(sub[2]))
		return " "
	})

	var sb strings.Builder
	flush := func() {
		if sb.Len() == 0 {
			return
		}
		tok := sb.String()
		sb.Reset()
		if len([]rune(tok)) < 2 && !isDigits(tok) {
			return
		}
		if stopwords[tok] {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return tokens
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
