package stats

import (
	"context"
	"sort"
	"time"

	apperrors "github.com/lightblue/foodwaste/pkg/errors"
	"github.com/lightblue/foodwaste/pkg/model"
)

// GCoverConfig 克/客流比分析配置
type GCoverConfig struct {
	Grouping  model.Grouping `json:"grouping"`
	WeekStart time.Weekday   `json:"week_start"`
}

// GCoverAnalyzer 克/客流比分析器
type GCoverAnalyzer struct {
	cfg GCoverConfig
}

// NewGCoverAnalyzer 创建克/客流比分析器
func NewGCoverAnalyzer(cfg GCoverConfig) *GCoverAnalyzer {
	if cfg.Grouping == "" {
		cfg.Grouping = model.GroupOverall
	}
	return &GCoverAnalyzer{cfg: cfg}
}

// Compute 计算各厨房在各时间桶内的克/客流比。
// 客流按 (日期, 班次) 聚合后求和，避免明细行重复计数；
// 桶内客流为零时比率输出 0；范围内没有记录时返回 NO_DATA。
func (a *GCoverAnalyzer) Compute(ctx context.Context, entries []model.WasteEntry, rng model.DateRange) ([]model.GCoverRecord, error) {
	if !a.cfg.Grouping.Valid() {
		return nil, apperrors.New(apperrors.CodeInvalidGrouping, "分桶方式无效: "+string(a.cfg.Grouping))
	}
	start, end, err := rng.Dates()
	if err != nil || end.Before(start) {
		return nil, apperrors.InvalidTimeRange(rng.StartDate, rng.EndDate)
	}

	var inRange []model.WasteEntry
	for _, e := range entries {
		if e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		inRange = append(inRange, e)
	}
	if len(inRange) == 0 {
		return nil, apperrors.ErrNoData
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCancelled, "克/客流比计算被取消")
	}

	type bucketAcc struct {
		grams  float64
		covers float64
	}
	buckets := make(map[recordKey]*bucketAcc)
	for key, rows := range aggregateRows(inRange) {
		for _, r := range rows {
			rk := recordKey{
				company: key.CompanyName,
				kitchen: key.KitchenName,
				bucket:  model.BucketKey(a.cfg.Grouping, r.date, a.cfg.WeekStart),
			}
			acc, ok := buckets[rk]
			if !ok {
				acc = &bucketAcc{}
				buckets[rk] = acc
			}
			acc.grams += r.grams
			acc.covers += r.covers
		}
	}

	records := make([]model.GCoverRecord, 0, len(buckets))
	for rk, acc := range buckets {
		rec := model.GCoverRecord{
			CompanyName:    rk.company,
			KitchenName:    rk.kitchen,
			Bucket:         rk.bucket,
			TotalWasteGram: Round2(acc.grams),
			TotalCovers:    acc.covers,
		}
		if acc.covers > 0 {
			rec.GPerCover = Round2(acc.grams / acc.covers)
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
