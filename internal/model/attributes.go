package model

// Category 球衣类别
type Category string

const (
	CategoryHome    Category = "home"
	CategoryAway    Category = "away"
	CategoryThird   Category = "third"
	CategoryKeeper  Category = "keeper"
	CategorySpecial Category = "special"
	CategoryVintage Category = "vintage"
)

// Valid 判断类别是否属于已知枚举
func (c Category) Valid() bool {
	switch c {
	case CategoryHome, CategoryAway, CategoryThird, CategoryKeeper, CategorySpecial, CategoryVintage:
		return true
	}
	return false
}

// ParsedAttributes 标题解析结果，只由原始标题推导
type ParsedAttributes struct {
	SeasonFull         string   `json:"season_full,omitempty"`  // 2024-2025 或 2024
	SeasonShort        string   `json:"season_short,omitempty"` // 24/25
	Team               string   `json:"team"`                   // 未识别时为默认球队
	TeamDetected       bool     `json:"team_detected"`          // 球队是否来自词典命中
	Category           Category `json:"category"`
	Size               string   `json:"size,omitempty"`
	Colors             []string `json:"colors,omitempty"`
	TranslatedTitle    string   `json:"translated_title"`
	ExpectedImageCount *int     `json:"expected_image_count,omitempty"`
}

// Season 用于签名与比较的赛季值
func (p ParsedAttributes) Season() string {
	return p.SeasonFull
}
