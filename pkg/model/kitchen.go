// Package model 定义餐厨垃圾分析引擎的核心数据模型
package model

import "time"

// KitchenKey 厨房的复合自然键（kitchen_name 本身不全局唯一）
type KitchenKey struct {
	CompanyName string `json:"company_name"`
	KitchenName string `json:"kitchen_name"`
}

// Kitchen 厨房档案（含聚合后的许可证信息）
type Kitchen struct {
	CompanyName       string     `json:"company_name" db:"company_name"`
	KitchenName       string     `json:"kitchen_name" db:"kitchen_name"`
	LicenseStartDate  *time.Time `json:"license_start_date,omitempty" db:"license_start_date"`
	LicenseExpireDate *time.Time `json:"license_expire_date,omitempty" db:"license_expire_date"`
}

// Key 返回复合自然键
func (k Kitchen) Key() KitchenKey {
	return KitchenKey{CompanyName: k.CompanyName, KitchenName: k.KitchenName}
}

// LicenseActive 检查许可证在指定时间是否仍有效
func (k Kitchen) LicenseActive(now time.Time) bool {
	return k.LicenseExpireDate == nil || !k.LicenseExpireDate.Before(now)
}

// OpeningPattern 每周开放模式：每个星期几一行，五个班次各一个 Y/N 标记
type OpeningPattern struct {
	CompanyName  string `json:"company_name" db:"company_name"`
	KitchenName  string `json:"kitchen_name" db:"kitchen_name"`
	DayOfWeek    string `json:"day_of_week" db:"day_of_week"` // MONDAY..SUNDAY
	Breakfast    string `json:"breakfast" db:"breakfast"`
	Brunch       string `json:"brunch" db:"brunch"`
	Lunch        string `json:"lunch" db:"lunch"`
	AfternoonTea string `json:"afternoon_tea" db:"afternoon_tea"`
	Dinner       string `json:"dinner" db:"dinner"`
}

// Key 返回复合自然键
func (p OpeningPattern) Key() KitchenKey {
	return KitchenKey{CompanyName: p.CompanyName, KitchenName: p.KitchenName}
}

// Flag 返回指定班次的原始标记
func (p OpeningPattern) Flag(shift ShiftID) string {
	switch shift {
	case ShiftBreakfast:
		return p.Breakfast
	case ShiftBrunch:
		return p.Brunch
	case ShiftLunch:
		return p.Lunch
	case ShiftAfternoonTea:
		return p.AfternoonTea
	case ShiftDinner:
		return p.Dinner
	}
	return ""
}

// Runs 检查该模式行是否安排了指定班次
func (p OpeningPattern) Runs(shift ShiftID) bool {
	return p.Flag(shift) == "Y"
}

// BaselineWindow 基线测量期（闭区间）
type BaselineWindow struct {
	CompanyName string    `json:"company_name" db:"company_name"`
	KitchenName string    `json:"kitchen_name" db:"kitchen_name"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
}

// Key 返回复合自然键
func (w BaselineWindow) Key() KitchenKey {
	return KitchenKey{CompanyName: w.CompanyName, KitchenName: w.KitchenName}
}

// Covers 检查日期是否落在基线期内（含端点）
func (w BaselineWindow) Covers(t time.Time) bool {
	return !t.Before(w.StartDate) && !t.After(w.EndDate)
}

// Overlaps 检查两个基线期是否重叠
func (w BaselineWindow) Overlaps(other BaselineWindow) bool {
	return !w.StartDate.After(other.EndDate) && !other.StartDate.After(w.EndDate)
}
