package stats

import (
	"context"
	"sort"
	"time"

	"github.com/lightblue/foodwaste/pkg/baseline"
	apperrors "github.com/lightblue/foodwaste/pkg/errors"
	"github.com/lightblue/foodwaste/pkg/model"
)

// MergedLabel 合并行的占位名
const MergedLabel = "Merged"

// SavingsConfig 节约量分析配置
type SavingsConfig struct {
	MergeKitchen bool   `json:"merge_kitchen"` // 同一公司下的厨房合并为一行
	MergeComp    bool   `json:"merge_comp"`    // 全部公司合并为一行
	CompanyLabel string `json:"company_label"` // MergeComp 时输出行的公司名
}

// SavingsInput 节约量分析输入。
// Entries 必须携带完整历史（至少覆盖各基线期），基线比率
// 取自基线期内的记录，与请求的日期范围无关。
type SavingsInput struct {
	Entries []model.WasteEntry
	Windows []model.BaselineWindow
	Range   model.DateRange
}

// SavingsResult 节约量分析输出
type SavingsResult struct {
	Records []model.SavingsRecord  `json:"records"`
	Skipped []model.SkippedKitchen `json:"skipped,omitempty"`
}

// SavingsAnalyzer 节约量分析器
type SavingsAnalyzer struct {
	cfg SavingsConfig
}

// NewSavingsAnalyzer 创建节约量分析器
func NewSavingsAnalyzer(cfg SavingsConfig) *SavingsAnalyzer {
	return &SavingsAnalyzer{cfg: cfg}
}

// shiftRow 同日同班次的聚合行：克数累加，客流取该班次录入的最大值
type shiftRow struct {
	date   time.Time
	shift  model.ShiftID
	grams  float64
	covers float64
}

// rates 单个基线期的比率
type rates struct {
	overall     float64
	perShift    map[model.ShiftID]float64
	totalCovers float64
}

// rate 返回班次的克/客流比；基线期内该班次无客流时返回 0，
// 此时该班次的交易不产生节约量。
func (r rates) rate(shift model.ShiftID) float64 {
	return r.perShift[shift]
}

// mergeKey 按配置合并分组键
func (a *SavingsAnalyzer) mergeKey(key model.KitchenKey) model.KitchenKey {
	if a.cfg.MergeKitchen {
		key.KitchenName = MergedLabel
	}
	if a.cfg.MergeComp {
		if a.cfg.CompanyLabel != "" {
			key.CompanyName = a.cfg.CompanyLabel
		} else {
			key.CompanyName = MergedLabel
		}
	}
	return key
}

// Compute 计算各厨房相对基线期的节约量。
// 节约期从请求起始日（落在基线期内时顺延到基线期结束次日）起算，
// 基线期内的记录不计入节约期。节约量只累计低于基线预期的部分，
// 同时给出固定首基线与多基线归属两种口径。
func (a *SavingsAnalyzer) Compute(ctx context.Context, in SavingsInput) (*SavingsResult, error) {
	start, end, err := in.Range.Dates()
	if err != nil || end.Before(start) {
		return nil, apperrors.InvalidTimeRange(in.Range.StartDate, in.Range.EndDate)
	}

	entries := in.Entries
	windows := in.Windows
	if a.cfg.MergeKitchen || a.cfg.MergeComp {
		entries = make([]model.WasteEntry, len(in.Entries))
		copy(entries, in.Entries)
		for i := range entries {
			k := a.mergeKey(entries[i].Key())
			entries[i].CompanyName, entries[i].KitchenName = k.CompanyName, k.KitchenName
		}
		windows = make([]model.BaselineWindow, len(in.Windows))
		copy(windows, in.Windows)
		for i := range windows {
			k := a.mergeKey(windows[i].Key())
			windows[i].CompanyName, windows[i].KitchenName = k.CompanyName, k.KitchenName
		}
	}

	rowsByKitchen := aggregateRows(entries)
	if len(rowsByKitchen) == 0 {
		return nil, apperrors.ErrNoData
	}
	windowsByKitchen := baseline.ByKitchen(windows)

	keys := make([]model.KitchenKey, 0, len(rowsByKitchen))
	for k := range rowsByKitchen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CompanyName != keys[j].CompanyName {
			return keys[i].CompanyName < keys[j].CompanyName
		}
		return keys[i].KitchenName < keys[j].KitchenName
	})

	res := &SavingsResult{}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeCancelled, "节约量计算被取消")
		}

		rows := rowsByKitchen[key]
		kitchenWindows := windowsByKitchen[key]
		if len(kitchenWindows) == 0 {
			res.Skipped = append(res.Skipped, model.SkippedKitchen{
				CompanyName: key.CompanyName,
				KitchenName: key.KitchenName,
				Reason:      "无基线测量期",
			})
			continue
		}

		sorted := baseline.Sorted(kitchenWindows)
		ratesByWindow := make([]rates, len(sorted))
		for i, w := range sorted {
			ratesByWindow[i] = computeRates(rows, w)
		}
		first := ratesByWindow[0]
		if first.totalCovers == 0 {
			res.Skipped = append(res.Skipped, model.SkippedKitchen{
				CompanyName: key.CompanyName,
				KitchenName: key.KitchenName,
				Reason:      "基线期客流为零",
			})
			continue
		}

		postStart := baseline.PostStart(sorted, start)
		var (
			savedFirstG float64
			savedMultiG float64
			totalG      float64
			totalCovers float64
			dailyG      = make(map[string]float64)
		)
		for _, r := range rows {
			if r.date.Before(postStart) || r.date.After(end) {
				continue
			}
			if baseline.InBaseline(sorted, r.date) {
				continue
			}
			totalG += r.grams
			totalCovers += r.covers
			dailyG[model.FormatDate(r.date)] += r.grams

			if r.covers <= 0 {
				continue
			}
			if fr := first.rate(r.shift); fr > 0 {
				if expected := fr * r.covers; expected > r.grams {
					savedFirstG += expected - r.grams
				}
			}
			multi := first
			if len(sorted) > 1 {
				if w, ok := baseline.Resolve(sorted, r.date, model.AttributionMulti); ok {
					multi = ratesByWindow[windowIndex(sorted, w)]
				}
			}
			if mr := multi.rate(r.shift); mr > 0 {
				if expected := mr * r.covers; expected > r.grams {
					savedMultiG += expected - r.grams
				}
			}
		}

		if len(dailyG) == 0 {
			res.Skipped = append(res.Skipped, model.SkippedKitchen{
				CompanyName: key.CompanyName,
				KitchenName: key.KitchenName,
				Reason:      "节约期内无记录",
			})
			continue
		}

		postGPerCover := 0.0
		if totalCovers > 0 {
			postGPerCover = totalG / totalCovers
		}
		variation := 0.0
		if first.overall > 0 {
			variation = Round3(postGPerCover/first.overall-1) * 100
		}

		res.Records = append(res.Records, model.SavingsRecord{
			CompanyName:          key.CompanyName,
			KitchenName:          key.KitchenName,
			BaselineGPerCover:    Round2(first.overall),
			BaselineStartDate:    model.FormatDate(sorted[0].StartDate),
			BaselineEndDate:      model.FormatDate(sorted[0].EndDate),
			PostGPerCover:        Round2(postGPerCover),
			PostStartDate:        model.FormatDate(postStart),
			PostEndDate:          in.Range.EndDate,
			VariationPct:         variation,
			KgSavedFirstBaseline: Round2(savedFirstG / 1000),
			KgSavedMultiBaseline: Round2(savedMultiG / 1000),
			DailyKgWasted:        Round2(totalG / 1000 / float64(len(dailyG))),
			TotalKgWasted:        Round2(totalG / 1000),
			TotalCovers:          totalCovers,
		})
	}
	return res, nil
}

// aggregateRows 将称重明细按 (厨房, 日期, 班次) 聚合
func aggregateRows(entries []model.WasteEntry) map[model.KitchenKey][]shiftRow {
	type rowKey struct {
		key   model.KitchenKey
		date  string
		shift model.ShiftID
	}
	acc := make(map[rowKey]*shiftRow)
	var order []rowKey
	for _, e := range entries {
		rk := rowKey{key: e.Key(), date: model.FormatDate(e.Date), shift: e.Shift}
		row, ok := acc[rk]
		if !ok {
			row = &shiftRow{date: e.Date, shift: e.Shift}
			acc[rk] = row
			order = append(order, rk)
		}
		row.grams += e.AmountGrams
		// 客流按班次录入，各明细行重复携带，取最大值即为该班次客流
		if e.Covers != nil && *e.Covers > row.covers {
			row.covers = *e.Covers
		}
	}
	out := make(map[model.KitchenKey][]shiftRow)
	for _, rk := range order {
		out[rk.key] = append(out[rk.key], *acc[rk])
	}
	for k, rows := range out {
		sort.Slice(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })
		out[k] = rows
	}
	return out
}

// computeRates 求基线期内的整体与分班次克/客流比
func computeRates(rows []shiftRow, w model.BaselineWindow) rates {
	var totalG, totalCovers float64
	shiftG := make(map[model.ShiftID]float64)
	shiftCovers := make(map[model.ShiftID]float64)
	for _, r := range rows {
		if !w.Covers(r.date) {
			continue
		}
		totalG += r.grams
		totalCovers += r.covers
		shiftG[r.shift] += r.grams
		shiftCovers[r.shift] += r.covers
	}
	r := rates{perShift: make(map[model.ShiftID]float64), totalCovers: totalCovers}
	if totalCovers > 0 {
		r.overall = totalG / totalCovers
	}
	for shift, g := range shiftG {
		if c := shiftCovers[shift]; c > 0 {
			r.perShift[shift] = g / c
		}
	}
	return r
}

// windowIndex 在排序后的基线期切片中定位指定基线期
func windowIndex(windows []model.BaselineWindow, w model.BaselineWindow) int {
	for i, cand := range windows {
		if cand.StartDate.Equal(w.StartDate) && cand.EndDate.Equal(w.EndDate) {
			return i
		}
	}
	return 0
}
