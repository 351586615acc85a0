// Package calendar 根据每周开放模式展开应营业的班次日历
package calendar

import (
	"strings"
	"time"

	"github.com/lightblue/foodwaste/pkg/model"
)

// ScheduledShift 应营业的班次实例（厨房 × 日期 × 班次）
type ScheduledShift struct {
	CompanyName string        `json:"company_name"`
	KitchenName string        `json:"kitchen_name"`
	Date        time.Time     `json:"date"`
	Shift       model.ShiftID `json:"shift"`
}

// Key 返回复合自然键
func (s ScheduledShift) Key() model.KitchenKey {
	return model.KitchenKey{CompanyName: s.CompanyName, KitchenName: s.KitchenName}
}

// Expand 在 [start, end] 范围内展开全部应营业班次。
// 每个模式行只对星期名匹配的日期生效（不区分大小写），
// 只展开标记为 Y 的班次；同一 (厨房, 日期, 班次) 实例不会重复产出。
// 没有模式行的厨房不产出任何实例。
func Expand(patterns []model.OpeningPattern, start, end time.Time) []ScheduledShift {
	if end.Before(start) || len(patterns) == 0 {
		return nil
	}

	type instanceKey struct {
		key   model.KitchenKey
		date  string
		shift model.ShiftID
	}
	seen := make(map[instanceKey]struct{})

	var out []ScheduledShift
	for _, p := range patterns {
		day := strings.ToUpper(strings.TrimSpace(p.DayOfWeek))
		if day == "" {
			continue
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if model.DayName(d) != day {
				continue
			}
			for _, shift := range model.AllShifts {
				if !p.Runs(shift) {
					continue
				}
				ik := instanceKey{key: p.Key(), date: model.FormatDate(d), shift: shift}
				if _, dup := seen[ik]; dup {
					continue
				}
				seen[ik] = struct{}{}
				out = append(out, ScheduledShift{
					CompanyName: p.CompanyName,
					KitchenName: p.KitchenName,
					Date:        d,
					Shift:       shift,
				})
			}
		}
	}
	return out
}
