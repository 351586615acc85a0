// Package validator 提供主数据校验功能
package validator

import (
	"fmt"
	"strings"

	"github.com/lightblue/foodwaste/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictWindowOverlap  ConflictType = "window_overlap"  // 基线期重叠
	ConflictWindowInverted ConflictType = "window_inverted" // 基线期起止颠倒
	ConflictPatternFlag    ConflictType = "pattern_flag"    // 开放模式标记冲突
	ConflictPatternDay     ConflictType = "pattern_day"     // 星期名无法识别
	ConflictPatternMissing ConflictType = "pattern_missing" // 开放模式行缺失
)

// Conflict 冲突信息
type Conflict struct {
	Type        ConflictType `json:"type"`
	Severity    string       `json:"severity"` // error/warning
	CompanyName string       `json:"company_name"`
	KitchenName string       `json:"kitchen_name"`
	Message     string       `json:"message"`
}

// ConflictDetector 主数据冲突检测器
type ConflictDetector struct {
	config *DetectorConfig
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	RequireFullWeek  bool // 每个厨房是否要求七天模式行齐全
	AllowEmptyFlag   bool // 班次标记是否允许留空（按 N 处理）
	CheckWindowOrder bool // 是否检查基线期起止顺序
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		RequireFullWeek:  false,
		AllowEmptyFlag:   true,
		CheckWindowOrder: true,
	}
}

// NewConflictDetector 创建主数据冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

// weekDays 合法的星期名
var weekDays = map[string]bool{
	"MONDAY": true, "TUESDAY": true, "WEDNESDAY": true, "THURSDAY": true,
	"FRIDAY": true, "SATURDAY": true, "SUNDAY": true,
}

// DetectAll 检测全部主数据冲突
func (d *ConflictDetector) DetectAll(windows []model.BaselineWindow, patterns []model.OpeningPattern) []Conflict {
	var conflicts []Conflict
	conflicts = append(conflicts, d.detectWindowConflicts(windows)...)
	conflicts = append(conflicts, d.detectPatternConflicts(patterns)...)
	return conflicts
}

// detectWindowConflicts 检测基线期的重叠与起止颠倒
func (d *ConflictDetector) detectWindowConflicts(windows []model.BaselineWindow) []Conflict {
	var conflicts []Conflict

	byKitchen := make(map[model.KitchenKey][]model.BaselineWindow)
	for _, w := range windows {
		if d.config.CheckWindowOrder && w.EndDate.Before(w.StartDate) {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictWindowInverted,
				Severity:    "error",
				CompanyName: w.CompanyName,
				KitchenName: w.KitchenName,
				Message: fmt.Sprintf("基线期结束日 %s 早于起始日 %s",
					model.FormatDate(w.EndDate), model.FormatDate(w.StartDate)),
			})
			continue
		}
		byKitchen[w.Key()] = append(byKitchen[w.Key()], w)
	}

	for key, ws := range byKitchen {
		for i := 0; i < len(ws); i++ {
			for j := i + 1; j < len(ws); j++ {
				if ws[i].Overlaps(ws[j]) {
					conflicts = append(conflicts, Conflict{
						Type:        ConflictWindowOverlap,
						Severity:    "error",
						CompanyName: key.CompanyName,
						KitchenName: key.KitchenName,
						Message: fmt.Sprintf("基线期 %s~%s 与 %s~%s 重叠",
							model.FormatDate(ws[i].StartDate), model.FormatDate(ws[i].EndDate),
							model.FormatDate(ws[j].StartDate), model.FormatDate(ws[j].EndDate)),
					})
				}
			}
		}
	}

	return conflicts
}

// detectPatternConflicts 检测开放模式的星期名错误、标记冲突与缺行
func (d *ConflictDetector) detectPatternConflicts(patterns []model.OpeningPattern) []Conflict {
	var conflicts []Conflict

	type dayKey struct {
		key model.KitchenKey
		day string
	}
	byDay := make(map[dayKey][]model.OpeningPattern)
	daysPerKitchen := make(map[model.KitchenKey]map[string]bool)

	for _, p := range patterns {
		day := strings.ToUpper(strings.TrimSpace(p.DayOfWeek))
		if !weekDays[day] {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictPatternDay,
				Severity:    "error",
				CompanyName: p.CompanyName,
				KitchenName: p.KitchenName,
				Message:     fmt.Sprintf("无法识别的星期名 %q", p.DayOfWeek),
			})
			continue
		}
		byDay[dayKey{key: p.Key(), day: day}] = append(byDay[dayKey{key: p.Key(), day: day}], p)
		if daysPerKitchen[p.Key()] == nil {
			daysPerKitchen[p.Key()] = make(map[string]bool)
		}
		daysPerKitchen[p.Key()][day] = true
	}

	// 同键多行时检查各班次标记是否一致；一致的重复行只告警
	for dk, rows := range byDay {
		if len(rows) < 2 {
			continue
		}
		conflicting := false
		for _, shift := range model.AllShifts {
			flag := rows[0].Flag(shift)
			for _, r := range rows[1:] {
				if r.Flag(shift) != flag {
					conflicting = true
					conflicts = append(conflicts, Conflict{
						Type:        ConflictPatternFlag,
						Severity:    "error",
						CompanyName: dk.key.CompanyName,
						KitchenName: dk.key.KitchenName,
						Message:     fmt.Sprintf("%s 的 %s 班次标记冲突，相关闭店记录将按真实闭店处理", dk.day, shift),
					})
					break
				}
			}
		}
		if !conflicting {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictPatternFlag,
				Severity:    "warning",
				CompanyName: dk.key.CompanyName,
				KitchenName: dk.key.KitchenName,
				Message:     fmt.Sprintf("%s 存在 %d 条重复的模式行", dk.day, len(rows)),
			})
		}
	}

	if d.config.RequireFullWeek {
		for key, days := range daysPerKitchen {
			if len(days) >= len(weekDays) {
				continue
			}
			var missing []string
			for day := range weekDays {
				if !days[day] {
					missing = append(missing, day)
				}
			}
			conflicts = append(conflicts, Conflict{
				Type:        ConflictPatternMissing,
				Severity:    "warning",
				CompanyName: key.CompanyName,
				KitchenName: key.KitchenName,
				Message:     fmt.Sprintf("缺少 %d 天的模式行", len(missing)),
			})
		}
	}

	return conflicts
}
