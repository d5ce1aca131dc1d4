package entity

// Candidate 检索融合产出的候选设备，随管线逐步补全评分
type Candidate struct {
	Equipment *Equipment `json:"equipment"`

	// 检索阶段
	LexicalScore    float64 `json:"lexical_score"`
	SemanticScore   float64 `json:"semantic_score"`
	FusedScore      float64 `json:"fused_score"`
	CategoryBoosted bool    `json:"category_boosted"`

	// 属性匹配阶段
	MatchScore    float64  `json:"match_score"`
	CombinedScore float64  `json:"combined_score"`
	MatchReasons  []string `json:"match_reasons,omitempty"`

	// 排序阶段
	PriorityScore int     `json:"priority_score"`
	FinalScore    float64 `json:"final_score"`
}

// ID 候选设备标识
func (c *Candidate) ID() string {
	if c.Equipment == nil {
		return ""
	}
	return c.Equipment.ID
}

// Recommendation 对外响应中的单条推荐
type Recommendation struct {
	EquipmentID string   `json:"equipment_id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Score       float64  `json:"score"`
	Reason      string   `json:"reason,omitempty"`
	Institution string   `json:"institution,omitempty"`
	WaferSizes  []int    `json:"wafer_sizes,omitempty"`
	Materials   []string `json:"materials,omitempty"`
}
