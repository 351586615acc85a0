// Package stats 提供餐厨垃圾记录的统计分析功能
package stats

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/lightblue/foodwaste/pkg/calendar"
	apperrors "github.com/lightblue/foodwaste/pkg/errors"
	"github.com/lightblue/foodwaste/pkg/model"
)

// Round2 四舍五入到两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round3 四舍五入到三位小数
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Consistency 求记录一致性比率：完整班次 / (总班次 - 闭店班次)。
// 分母不为正、或比率为负时返回 0，保证输出始终落在 [0, 1]。
func Consistency(comp, total, closed int) float64 {
	denom := total - closed
	if denom <= 0 {
		return 0
	}
	v := float64(comp) / float64(denom)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return Round2(v)
}

// ConsistencyConfig 一致性分析配置
type ConsistencyConfig struct {
	Grouping  model.Grouping         `json:"grouping"`
	Mode      model.CompletenessMode `json:"mode"`
	Cutover   time.Time              `json:"cutover"`    // split 模式的判定切换日
	WeekStart time.Weekday           `json:"week_start"` // 周分桶的起始日
	PerHotel  bool                   `json:"per_hotel"`  // 按公司汇总（先加总计数再求比率）
}

// ConsistencyInput 一致性分析输入
type ConsistencyInput struct {
	Scheduled         []calendar.ScheduledShift
	Entries           []model.WasteEntry
	RealClosures      []model.ShiftClosure
	RedundantClosures []model.ShiftClosure
	Patterns          []model.OpeningPattern
	FirstDates        map[model.KitchenKey]time.Time // 各厨房最早基线期的结束日
	Range             model.DateRange
}

// ConsistencyAnalyzer 记录一致性分析器
type ConsistencyAnalyzer struct {
	cfg ConsistencyConfig
}

// NewConsistencyAnalyzer 创建记录一致性分析器
func NewConsistencyAnalyzer(cfg ConsistencyConfig) *ConsistencyAnalyzer {
	if cfg.Grouping == "" {
		cfg.Grouping = model.GroupOverall
	}
	if cfg.Mode == "" {
		cfg.Mode = model.ModeSplit
	}
	return &ConsistencyAnalyzer{cfg: cfg}
}

// instanceKey 班次实例键（厨房 × 日期 × 班次）
type instanceKey struct {
	key   model.KitchenKey
	date  string
	shift model.ShiftID
}

// instanceState 单个班次实例的观测状态
type instanceState struct {
	date         time.Time
	hasCovers    bool // 存在客流数非空的记录
	flagComplete bool // 存在标记为完整的记录
}

// counter 单个输出行的计数器
type counter struct {
	total  int
	comp   int
	closed int
}

// recordKey 输出行键；per-hotel 汇总时 kitchen 为空
type recordKey struct {
	company string
	kitchen string
	bucket  string
}

// Compute 计算各厨房（或各公司）在各时间桶内的记录一致性。
// 班次实例取排班日历与实际记录的并集；早于等于首个基线期
// 结束日的实例不参与统计。范围内既无排班也无记录时返回
// NO_DATA，与一致性为零的有效记录区分开。
func (a *ConsistencyAnalyzer) Compute(ctx context.Context, in ConsistencyInput) ([]model.ConsistencyRecord, error) {
	if !a.cfg.Grouping.Valid() {
		return nil, apperrors.New(apperrors.CodeInvalidGrouping, "分桶方式无效: "+string(a.cfg.Grouping))
	}
	if !a.cfg.Mode.Valid() {
		return nil, apperrors.InvalidInput("mode", "未知的完整性判定模式 "+string(a.cfg.Mode))
	}
	start, end, err := in.Range.Dates()
	if err != nil || end.Before(start) {
		return nil, apperrors.InvalidTimeRange(in.Range.StartDate, in.Range.EndDate)
	}

	// 实例并集：排班日历 ∪ 实际记录
	instances := make(map[instanceKey]*instanceState)
	touch := func(key model.KitchenKey, d time.Time, shift model.ShiftID) *instanceState {
		ik := instanceKey{key: key, date: model.FormatDate(d), shift: shift}
		st, ok := instances[ik]
		if !ok {
			st = &instanceState{date: d}
			instances[ik] = st
		}
		return st
	}
	for _, s := range in.Scheduled {
		if s.Date.Before(start) || s.Date.After(end) {
			continue
		}
		touch(s.Key(), s.Date, s.Shift)
	}
	for _, e := range in.Entries {
		if e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		st := touch(e.Key(), e.Date, e.Shift)
		if e.Covers != nil {
			st.hasCovers = true
		}
		if e.Complete {
			st.flagComplete = true
		}
	}

	if len(instances) == 0 {
		return nil, apperrors.ErrNoData
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCancelled, "一致性计算被取消")
	}

	closed := make(map[instanceKey]struct{})
	for _, c := range in.RealClosures {
		closed[instanceKey{key: c.Key(), date: model.FormatDate(c.Date), shift: c.Shift}] = struct{}{}
	}
	redundant := make(map[instanceKey]struct{})
	for _, c := range in.RedundantClosures {
		redundant[instanceKey{key: c.Key(), date: model.FormatDate(c.Date), shift: c.Shift}] = struct{}{}
	}

	patterns := indexPatterns(in.Patterns)

	counters := make(map[recordKey]*counter)
	for ik, st := range instances {
		// 基线测量期内及之前的数据不参与一致性统计
		if first, ok := in.FirstDates[ik.key]; ok && !st.date.After(first) {
			continue
		}

		rk := recordKey{
			company: ik.key.CompanyName,
			bucket:  model.BucketKey(a.cfg.Grouping, st.date, a.cfg.WeekStart),
		}
		if !a.cfg.PerHotel {
			rk.kitchen = ik.key.KitchenName
		}
		cnt, ok := counters[rk]
		if !ok {
			cnt = &counter{}
			counters[rk] = cnt
		}

		cnt.total++
		if _, isClosed := closed[ik]; isClosed {
			cnt.closed++
			continue
		}
		if a.complete(ik, st, patterns, redundant) {
			cnt.comp++
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCancelled, "一致性计算被取消")
	}

	records := make([]model.ConsistencyRecord, 0, len(counters))
	for rk, cnt := range counters {
		rec := model.ConsistencyRecord{
			CompanyName:  rk.company,
			KitchenName:  rk.kitchen,
			Bucket:       rk.bucket,
			Consistency:  Consistency(cnt.comp, cnt.total, cnt.closed),
			TotalShifts:  cnt.total,
			CompShifts:   cnt.comp,
			ClosedShifts: cnt.closed,
		}
		if a.cfg.Grouping == model.GroupOverall {
			rec.StartDate = in.Range.StartDate
			rec.EndDate = in.Range.EndDate
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CompanyName != records[j].CompanyName {
			return records[i].CompanyName < records[j].CompanyName
		}
		if records[i].KitchenName != records[j].KitchenName {
			return records[i].KitchenName < records[j].KitchenName
		}
		return records[i].Bucket < records[j].Bucket
	})
	return records, nil
}

// complete 判定单个未闭店实例是否记录完整
func (a *ConsistencyAnalyzer) complete(ik instanceKey, st *instanceState, patterns map[patternKey][]model.OpeningPattern, redundant map[instanceKey]struct{}) bool {
	mode := a.cfg.Mode
	if mode == model.ModeSplit {
		if st.date.Before(a.cfg.Cutover) {
			mode = model.ModeLegacy
		} else {
			mode = model.ModeFlag
		}
	}
	if mode == model.ModeFlag {
		return st.flagComplete
	}

	// 旧判定：客流非空、无冗余闭店、且开放模式确认该班次营业
	if !st.hasCovers {
		return false
	}
	if _, ok := redundant[ik]; ok {
		return false
	}
	return patternOpen(patterns, ik.key, st.date, ik.shift)
}

// patternKey 模式行索引键
type patternKey struct {
	key model.KitchenKey
	day string
}

func indexPatterns(patterns []model.OpeningPattern) map[patternKey][]model.OpeningPattern {
	index := make(map[patternKey][]model.OpeningPattern)
	for _, p := range patterns {
		k := patternKey{key: p.Key(), day: strings.ToUpper(strings.TrimSpace(p.DayOfWeek))}
		index[k] = append(index[k], p)
	}
	return index
}

// patternOpen 检查开放模式是否确认该日该班次营业；任一行标记 Y 即视为营业
func patternOpen(index map[patternKey][]model.OpeningPattern, key model.KitchenKey, d time.Time, shift model.ShiftID) bool {
	for _, p := range index[patternKey{key: key, day: model.DayName(d)}] {
		if p.Runs(shift) {
			return true
		}
	}
	return false
}
