package entity

// StructuredQuery 自然语言查询的结构化解析结果
type StructuredQuery struct {
	RawText          string   `json:"raw_text"`
	WaferSizes       []int    `json:"wafer_sizes,omitempty"`
	TempMin          *float64 `json:"temp_min,omitempty"`
	TempMax          *float64 `json:"temp_max,omitempty"`
	Materials        []string `json:"materials,omitempty"`
	Institutions     []string `json:"institutions,omitempty"`
	MappedCategories []string `json:"mapped_categories,omitempty"`
	PreferLowCost    bool     `json:"prefer_low_cost,omitempty"`
}

// Clone 返回深拷贝，会话合并时避免共享切片
func (q *StructuredQuery) Clone() *StructuredQuery {
	if q == nil {
		return nil
	}
	out := *q
	out.WaferSizes = append([]int(nil), q.WaferSizes...)
	out.Materials = append([]string(nil), q.Materials...)
	out.Institutions = append([]string(nil), q.Institutions...)
	out.MappedCategories = append([]string(nil), q.MappedCategories...)
	if q.TempMin != nil {
		v := *q.TempMin
		out.TempMin = &v
	}
	if q.TempMax != nil {
		v := *q.TempMax
		out.TempMax = &v
	}
	return &out
}

// HasHardAttributes 是否携带任一硬性属性约束
func (q *StructuredQuery) HasHardAttributes() bool {
	return len(q.WaferSizes) > 0 || q.TempMin != nil || q.TempMax != nil ||
		len(q.Materials) > 0 || len(q.Institutions) > 0
}

// IntentFlags 意图分类结果。
// 分类失败时返回零值，检索按原始查询继续。
type IntentFlags struct {
	NegatedTerms       []string `json:"negated_terms,omitempty"`
	ExcludedCategories []string `json:"excluded_categories,omitempty"`
	ExcludedMaterials  []string `json:"excluded_materials,omitempty"`
	ExcludeTempMin     *float64 `json:"exclude_temp_min,omitempty"`
	ExcludeTempMax     *float64 `json:"exclude_temp_max,omitempty"`
	IsCompoundOR       bool     `json:"is_compound_or,omitempty"`
	IsAbstract         bool     `json:"is_abstract,omitempty"`
	RefinedQuery       string   `json:"refined_query,omitempty"`
}

// IsZero 意图分类是否未产生任何标记
func (f *IntentFlags) IsZero() bool {
	return len(f.NegatedTerms) == 0 && len(f.ExcludedCategories) == 0 &&
		len(f.ExcludedMaterials) == 0 && f.ExcludeTempMin == nil &&
		f.ExcludeTempMax == nil && !f.IsCompoundOR && !f.IsAbstract &&
		f.RefinedQuery == ""
}
