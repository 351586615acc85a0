// Package closure 处理闭店记录，剔除与开放模式矛盾的冗余闭店
package closure

import (
	"strings"

	"github.com/lightblue/foodwaste/pkg/model"
)

// Result 闭店过滤结果
type Result struct {
	Real      []model.ShiftClosure `json:"real"`      // 真实闭店（已去重），从预期班次总数中扣减
	Redundant []model.ShiftClosure `json:"redundant"` // 冗余闭店：该班次按模式本来就不营业，不参与扣减
}

// lookupKey 模式行索引键（厨房 × 星期名）
type lookupKey struct {
	key model.KitchenKey
	day string
}

// Filter 将闭店记录划分为真实与冗余两类。
// 模式行缺失、或同键多行对该班次的标记互相冲突时无法判定，
// 保守起见按真实闭店处理（不丢弃）。结果已按 (厨房, 日期, 班次) 去重。
func Filter(closures []model.ShiftClosure, patterns []model.OpeningPattern) Result {
	index := make(map[lookupKey][]model.OpeningPattern)
	for _, p := range patterns {
		k := lookupKey{key: p.Key(), day: strings.ToUpper(strings.TrimSpace(p.DayOfWeek))}
		index[k] = append(index[k], p)
	}

	type closureKey struct {
		key   model.KitchenKey
		date  string
		shift model.ShiftID
	}
	seen := make(map[closureKey]struct{})

	var res Result
	for _, c := range closures {
		ck := closureKey{key: c.Key(), date: model.FormatDate(c.Date), shift: c.Shift}
		if _, dup := seen[ck]; dup {
			continue
		}
		seen[ck] = struct{}{}

		rows := index[lookupKey{key: c.Key(), day: model.DayName(c.Date)}]
		if isRedundant(rows, c.Shift) {
			res.Redundant = append(res.Redundant, c)
		} else {
			res.Real = append(res.Real, c)
		}
	}
	return res
}

// isRedundant 仅当模式行存在、标记一致且不为 Y 时判定为冗余
func isRedundant(rows []model.OpeningPattern, shift model.ShiftID) bool {
	if len(rows) == 0 {
		return false
	}
	flag := rows[0].Flag(shift)
	for _, r := range rows[1:] {
		if r.Flag(shift) != flag {
			// 标记冲突，无法判定，按真实闭店处理
			return false
		}
	}
	return flag != "Y"
}
