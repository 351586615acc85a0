// Package model 定义餐厨垃圾分析引擎的核心数据模型
package model

import (
	"strings"
	"time"
)

// Grouping 报表的时间分桶方式
type Grouping string

const (
	GroupDaily   Grouping = "daily"   // 按日
	GroupWeekly  Grouping = "weekly"  // 按周（以周起始日为键）
	GroupMonthly Grouping = "monthly" // 按月
	GroupYearly  Grouping = "yearly"  // 按年
	GroupOverall Grouping = "overall" // 整体（无时间维度）
)

// Valid 检查分桶方式是否合法
func (g Grouping) Valid() bool {
	switch g {
	case GroupDaily, GroupWeekly, GroupMonthly, GroupYearly, GroupOverall:
		return true
	}
	return false
}

// Bucketed 检查是否带时间维度
func (g Grouping) Bucketed() bool {
	return g.Valid() && g != GroupOverall
}

// DateLayout 日期格式 YYYY-MM-DD
const DateLayout = "2006-01-02"

// ParseDate 解析日期字符串
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate 格式化日期
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DayName 返回大写的星期名，用于匹配开放模式行
func DayName(t time.Time) string {
	return strings.ToUpper(t.Weekday().String())
}

// WeekAnchor 返回日期所在周的起始日
func WeekAnchor(t time.Time, start time.Weekday) time.Time {
	diff := (int(t.Weekday()) - int(start) + 7) % 7
	return t.AddDate(0, 0, -diff)
}

// BucketKey 求日期所属时间桶的键；overall 返回空串
func BucketKey(g Grouping, t time.Time, weekStart time.Weekday) string {
	switch g {
	case GroupDaily:
		return FormatDate(t)
	case GroupWeekly:
		return FormatDate(WeekAnchor(t, weekStart))
	case GroupMonthly:
		return t.Format("2006-01")
	case GroupYearly:
		return t.Format("2006")
	}
	return ""
}

// DateRange 日期范围（闭区间）
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Dates 解析为时间点，先返回起始日
func (r DateRange) Dates() (time.Time, time.Time, error) {
	start, err := ParseDate(r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDate(r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// Contains 检查日期是否落在范围内（含端点）
func (r DateRange) Contains(t time.Time) bool {
	start, end, err := r.Dates()
	if err != nil {
		return false
	}
	return !t.Before(start) && !t.After(end)
}

// Days 返回范围覆盖的天数
func (r DateRange) Days() int {
	start, end, err := r.Dates()
	if err != nil || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}
