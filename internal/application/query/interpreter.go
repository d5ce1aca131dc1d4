// Package query 提供自然语言查询的结构化解析与意图分类
package query

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"fab-equip-ai-api/internal/domain/entity"
)

const maxMappedCategories = 3

// 高温/低温等模糊表述对应的温度阈值（摄氏度）
const (
	highTempThreshold = 400.0
	lowTempThreshold  = 200.0
)

var (
	waferInchRe = regexp.MustCompile(`(\d+)\s*(?:인치|inch|")`)
	waferMMRe   = regexp.MustCompile(`(\d+)\s*(?:mm|밀리)`)

	tempRangeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:도|℃|°C)?\s*[~〜\-]\s*(\d+(?:\.\d+)?)\s*(?:도|℃|°C)`)
	tempMinRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:도|℃|°C)\s*이상`)
	tempMaxRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:도|℃|°C)\s*이하`)
	highTempRe  = regexp.MustCompile(`고온`)
	lowTempRe   = regexp.MustCompile(`저온`)
)

// mm 标注的晶圆直径换算为英寸
var mmToInch = map[int]int{
	100: 4,
	125: 5,
	150: 6,
	200: 8,
	300: 12,
	450: 18,
}

// 默认材料词典，长 token 优先匹配
var defaultMaterials = []string{
	"Si3N4", "SiO2", "GaAs", "GaN", "SiC", "AlN", "InP",
	"사파이어", "sapphire", "Si",
}

// Interpreter 将自然语言查询解析为结构化查询。
// 解析是纯规则的：正则抽取硬性属性，再按规则快照的映射表推导设备类别。
type Interpreter struct {
	materials []string
}

func NewInterpreter() *Interpreter {
	return &Interpreter{materials: defaultMaterials}
}

// Interpret 同一查询与同一快照下解析结果恒定
func (it *Interpreter) Interpret(text string, rules *entity.RuleSet) *entity.StructuredQuery {
	q := &entity.StructuredQuery{RawText: text}
	lower := strings.ToLower(text)

	q.WaferSizes = extractWaferSizes(lower)
	q.TempMin, q.TempMax = extractTempBounds(text)
	q.Materials = it.extractMaterials(text)

	if rules != nil {
		q.MappedCategories = MapCategories(lower, rules.Mappings)
		q.Institutions = extractInstitutions(lower, rules.Priorities)
	}

	return q
}

func extractWaferSizes(lower string) []int {
	seen := map[int]bool{}
	var sizes []int

	for _, m := range waferInchRe.FindAllStringSubmatch(lower, -1) {
		if inch, err := strconv.Atoi(m[1]); err == nil && !seen[inch] {
			seen[inch] = true
			sizes = append(sizes, inch)
		}
	}
	for _, m := range waferMMRe.FindAllStringSubmatch(lower, -1) {
		mm, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if inch, ok := mmToInch[mm]; ok && !seen[inch] {
			seen[inch] = true
			sizes = append(sizes, inch)
		}
	}
	sort.Ints(sizes)
	return sizes
}

func extractTempBounds(text string) (*float64, *float64) {
	if m := tempRangeRe.FindStringSubmatch(text); m != nil {
		min, err1 := strconv.ParseFloat(m[1], 64)
		max, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			if min > max {
				min, max = max, min
			}
			return &min, &max
		}
	}

	var minVal, maxVal *float64
	if m := tempMinRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			minVal = &v
		}
	}
	if m := tempMaxRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			maxVal = &v
		}
	}

	if minVal == nil && highTempRe.MatchString(text) {
		v := highTempThreshold
		minVal = &v
	}
	if maxVal == nil && lowTempRe.MatchString(text) {
		v := lowTempThreshold
		maxVal = &v
	}
	return minVal, maxVal
}

func (it *Interpreter) extractMaterials(text string) []string {
	var found []string
	remaining := text
	for _, mat := range it.materials {
		re, err := materialPattern(mat)
		if err != nil {
			continue
		}
		if re.MatchString(remaining) {
			found = append(found, mat)
			// 命中后从剩余文本移除，避免 SiC 里的 Si 重复匹配
			remaining = re.ReplaceAllString(remaining, " ")
		}
	}
	return found
}

func materialPattern(material string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(material)
	if isASCII(material) {
		return regexp.Compile(`(?i)\b` + quoted + `\b`)
	}
	return regexp.Compile(quoted)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}

// MapCategories 按映射规则推导设备类别。
// 精确规则比较整串，普通规则做子串匹配；
// 命中按 (精确优先, priority 升序, keyword 升序) 排序后去重，取前 3 个类别。
func MapCategories(lowerQuery string, mappings []entity.ProcessMappingRule) []string {
	trimmed := strings.TrimSpace(lowerQuery)

	var hits []entity.ProcessMappingRule
	for _, rule := range mappings {
		keyword := strings.ToLower(strings.TrimSpace(rule.Keyword))
		if keyword == "" {
			continue
		}
		if rule.Exact {
			if trimmed == keyword {
				hits = append(hits, rule)
			}
			continue
		}
		if strings.Contains(lowerQuery, keyword) {
			hits = append(hits, rule)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Exact != hits[j].Exact {
			return hits[i].Exact
		}
		if hits[i].Priority != hits[j].Priority {
			return hits[i].Priority < hits[j].Priority
		}
		return hits[i].Keyword < hits[j].Keyword
	})

	seen := map[string]bool{}
	var categories []string
	for _, rule := range hits {
		for _, cat := range rule.Categories {
			if seen[cat] {
				continue
			}
			seen[cat] = true
			categories = append(categories, cat)
			if len(categories) >= maxMappedCategories {
				return categories
			}
		}
	}
	return categories
}

func extractInstitutions(lowerQuery string, priorities map[string]int) []string {
	var found []string
	for inst := range priorities {
		if inst != "" && strings.Contains(lowerQuery, inst) {
			found = append(found, inst)
		}
	}
	sort.Strings(found)
	return found
}
