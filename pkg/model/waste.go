// Package model 定义餐厨垃圾分析引擎的核心数据模型
package model

import "time"

// ShiftID 班次标识（五个正餐时段）
type ShiftID string

const (
	ShiftBreakfast    ShiftID = "BREAKFAST"
	ShiftBrunch       ShiftID = "BRUNCH"
	ShiftLunch        ShiftID = "LUNCH"
	ShiftAfternoonTea ShiftID = "AFTERNOON_TEA"
	ShiftDinner       ShiftID = "DINNER"
)

// AllShifts 全部班次，按一天内的先后顺序
var AllShifts = []ShiftID{ShiftBreakfast, ShiftBrunch, ShiftLunch, ShiftAfternoonTea, ShiftDinner}

// Valid 检查班次标识是否合法
func (s ShiftID) Valid() bool {
	switch s {
	case ShiftBreakfast, ShiftBrunch, ShiftLunch, ShiftAfternoonTea, ShiftDinner:
		return true
	}
	return false
}

// 录入端的重量单位
const (
	UnitKilogram = "KILOGRAM"
	UnitPound    = "POUND"
	UnitGram     = "GRAM"
)

// ToGrams 将录入数量换算为克；未知单位按克处理
func ToGrams(amount float64, unit string) float64 {
	switch unit {
	case UnitKilogram:
		return amount * 1000
	case UnitPound:
		return amount * 453.592
	default:
		return amount
	}
}

// WasteEntry 一条浪费称重记录（数量已换算为克）
type WasteEntry struct {
	CompanyName string    `json:"company_name" db:"company_name"`
	KitchenName string    `json:"kitchen_name" db:"kitchen_name"`
	Date        time.Time `json:"date" db:"operation_date"`
	Shift       ShiftID   `json:"shift" db:"shift_id"`
	Category    string    `json:"category,omitempty" db:"category"`
	FoodType    string    `json:"food_type,omitempty" db:"food_type"`
	AmountGrams float64   `json:"amount_grams" db:"amount_grams"`
	Covers      *float64  `json:"covers,omitempty" db:"covers"` // 同日同班次的客流数，缺失表示未录入
	Complete    bool      `json:"complete" db:"complete"`
}

// Key 返回复合自然键
func (e WasteEntry) Key() KitchenKey {
	return KitchenKey{CompanyName: e.CompanyName, KitchenName: e.KitchenName}
}

// ShiftClosure 闭店记录：某日某班次未营业
type ShiftClosure struct {
	CompanyName string    `json:"company_name" db:"company_name"`
	KitchenName string    `json:"kitchen_name" db:"kitchen_name"`
	Date        time.Time `json:"date" db:"close_date"`
	Shift       ShiftID   `json:"shift" db:"shift_id"`
}

// Key 返回复合自然键
func (c ShiftClosure) Key() KitchenKey {
	return KitchenKey{CompanyName: c.CompanyName, KitchenName: c.KitchenName}
}
