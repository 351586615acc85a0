// Package baseline 解析厨房的基线测量期与交易归属
package baseline

import (
	"sort"
	"time"

	"github.com/lightblue/foodwaste/pkg/model"
)

// Sorted 返回按结束日升序排列的副本，结束日相同时按起始日排序。
// 归属与 FirstDate 都以结束日为准，重叠的基线期也按此顺序处理。
func Sorted(windows []model.BaselineWindow) []model.BaselineWindow {
	out := make([]model.BaselineWindow, len(windows))
	copy(out, windows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EndDate.Equal(out[j].EndDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].EndDate.Before(out[j].EndDate)
	})
	return out
}

// ByKitchen 按厨房分组并排序
func ByKitchen(windows []model.BaselineWindow) map[model.KitchenKey][]model.BaselineWindow {
	grouped := make(map[model.KitchenKey][]model.BaselineWindow)
	for _, w := range windows {
		grouped[w.Key()] = append(grouped[w.Key()], w)
	}
	for k, ws := range grouped {
		grouped[k] = Sorted(ws)
	}
	return grouped
}

// FirstDate 返回最早基线期的结束日。
// 一致性统计只纳入该日之后的数据；没有基线期时返回 false。
func FirstDate(windows []model.BaselineWindow) (time.Time, bool) {
	if len(windows) == 0 {
		return time.Time{}, false
	}
	sorted := Sorted(windows)
	return sorted[0].EndDate, true
}

// Resolve 求交易日应归属的基线期。
// first 模式始终归属最早的基线期；multi 模式归属结束日不晚于
// 交易日的最近一次基线期，早于全部基线期的交易归属最早一期。
func Resolve(windows []model.BaselineWindow, date time.Time, mode model.AttributionMode) (model.BaselineWindow, bool) {
	if len(windows) == 0 {
		return model.BaselineWindow{}, false
	}
	sorted := Sorted(windows)
	if mode == model.AttributionFirst {
		return sorted[0], true
	}
	chosen := sorted[0]
	for _, w := range sorted {
		if w.EndDate.After(date) {
			break
		}
		chosen = w
	}
	return chosen, true
}

// PostStart 求节约期的起始日：从请求的起始日出发，
// 若落在某个基线期内（或基线期尚未结束）则推到该基线期结束的次日。
func PostStart(windows []model.BaselineWindow, requested time.Time) time.Time {
	st := requested
	for _, w := range Sorted(windows) {
		if !w.EndDate.Before(st) && !w.StartDate.After(st) {
			st = w.EndDate.AddDate(0, 0, 1)
		}
	}
	return st
}

// InBaseline 检查交易日是否落在任一基线期内
func InBaseline(windows []model.BaselineWindow, date time.Time) bool {
	for _, w := range windows {
		if w.Covers(date) {
			return true
		}
	}
	return false
}
