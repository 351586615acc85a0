// Package model 定义餐厨垃圾分析引擎的核心数据模型
package model

// CompletenessMode 班次记录完整性的判定模式
type CompletenessMode string

const (
	// ModeFlag 按记录上的 COMPLETE 标记判定（切换日之后的数据）
	ModeFlag CompletenessMode = "flag"
	// ModeLegacy 旧判定：客流数非空、无有效闭店记录、且开放模式确认该班次营业
	ModeLegacy CompletenessMode = "legacy"
	// ModeSplit 跨越切换日的查询：切换日前按旧判定、之后按标记判定，结果重新汇总
	ModeSplit CompletenessMode = "split"
)

// Valid 检查判定模式是否合法
func (m CompletenessMode) Valid() bool {
	switch m {
	case ModeFlag, ModeLegacy, ModeSplit:
		return true
	}
	return false
}

// AttributionMode 节约量计算中交易归属基线期的方式
type AttributionMode string

const (
	// AttributionFirst 始终相对最早的基线期计算
	AttributionFirst AttributionMode = "first"
	// AttributionMulti 归属到结束日不晚于交易日的最近一次基线期
	AttributionMulti AttributionMode = "multi"
)

// Valid 检查归属模式是否合法
func (m AttributionMode) Valid() bool {
	return m == AttributionFirst || m == AttributionMulti
}

// ConsistencyRecord 记录一致性（DCON）输出行
type ConsistencyRecord struct {
	CompanyName  string  `json:"company_name"`
	KitchenName  string  `json:"kitchen_name,omitempty"` // per-hotel 汇总时为空
	Bucket       string  `json:"bucket,omitempty"`       // 时间桶键，overall 分组时为空
	Consistency  float64 `json:"consistency"`
	TotalShifts  int     `json:"total_shifts"`
	CompShifts   int     `json:"comp_shifts"`
	ClosedShifts int     `json:"closed_shifts"`
	StartDate    string  `json:"start_date,omitempty"` // 仅 overall 分组填充
	EndDate      string  `json:"end_date,omitempty"`
}

// SavingsRecord 节约量输出行
type SavingsRecord struct {
	CompanyName          string  `json:"company_name"`
	KitchenName          string  `json:"kitchen_name"`
	BaselineGPerCover    float64 `json:"baseline_g_per_cover"`
	BaselineStartDate    string  `json:"baseline_start_date"`
	BaselineEndDate      string  `json:"baseline_end_date"`
	PostGPerCover        float64 `json:"post_g_per_cover"`
	PostStartDate        string  `json:"post_start_date"`
	PostEndDate          string  `json:"post_end_date"`
	VariationPct         float64 `json:"variation_pct"`
	KgSavedFirstBaseline float64 `json:"kg_saved_first_baseline"`
	KgSavedMultiBaseline float64 `json:"kg_saved_multi_baseline"`
	DailyKgWasted        float64 `json:"daily_kg_wasted"`
	TotalKgWasted        float64 `json:"total_kg_wasted"`
	TotalCovers          float64 `json:"total_covers"`
}

// GCoverRecord 克/客流比输出行
type GCoverRecord struct {
	CompanyName    string  `json:"company_name"`
	KitchenName    string  `json:"kitchen_name"`
	Bucket         string  `json:"bucket,omitempty"`
	TotalWasteGram float64 `json:"total_food_waste_grams"`
	TotalCovers    float64 `json:"total_covers"`
	GPerCover      float64 `json:"g_per_cover"`
}

// SkippedKitchen 被跳过的厨房及原因（诊断用）
type SkippedKitchen struct {
	CompanyName string `json:"company_name"`
	KitchenName string `json:"kitchen_name"`
	Reason      string `json:"reason"`
}
