// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lightblue/foodwaste/pkg/model"
)

// DB 数据库接口
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx 事务接口
type Tx interface {
	DB
	Commit() error
	Rollback() error
}

// Scanner 行扫描接口
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Exclusion 排除的厨房；厨房名不全局唯一，CompanyName 为空时
// 排除任何公司下的同名厨房。
type Exclusion struct {
	KitchenName string `json:"kitchen_name"`
	CompanyName string `json:"company_name,omitempty"`
}

// Filter 报表查询过滤器
type Filter struct {
	CompanyName string      `json:"company_name,omitempty"` // 空值表示全部公司
	KitchenName string      `json:"kitchen_name,omitempty"` // 空值表示全部厨房
	StartDate   string      `json:"start_date,omitempty"`   // YYYY-MM-DD
	EndDate     string      `json:"end_date,omitempty"`     // YYYY-MM-DD
	Exclude     []Exclusion `json:"exclude,omitempty"`      // 排除的演示/测试厨房
}

// Excluded 检查厨房是否在排除列表中
func (f Filter) Excluded(company, kitchen string) bool {
	for _, ex := range f.Exclude {
		if ex.KitchenName != kitchen {
			continue
		}
		if ex.CompanyName == "" || ex.CompanyName == company {
			return true
		}
	}
	return false
}

// ParseExclusions 解析配置中的排除项。
// 条目格式为 "kitchen_name@company_name"，省略公司时排除所有同名厨房。
func ParseExclusions(items []string) []Exclusion {
	var out []Exclusion
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		kitchen, company, _ := strings.Cut(item, "@")
		kitchen = strings.TrimSpace(kitchen)
		if kitchen == "" {
			continue
		}
		out = append(out, Exclusion{KitchenName: kitchen, CompanyName: strings.TrimSpace(company)})
	}
	return out
}

// Keyed 携带厨房复合自然键的记录
type Keyed interface {
	Key() model.KitchenKey
}

// KeepKeyed 只保留厨房键落在许可集合内的记录
func KeepKeyed[T Keyed](items []T, allowed map[model.KitchenKey]struct{}) []T {
	var out []T
	for _, item := range items {
		if _, ok := allowed[item.Key()]; ok {
			out = append(out, item)
		}
	}
	return out
}

// WithCompany 设置公司过滤
func (f Filter) WithCompany(company string) Filter {
	f.CompanyName = company
	return f
}

// WithKitchen 设置厨房过滤
func (f Filter) WithKitchen(kitchen string) Filter {
	f.KitchenName = kitchen
	return f
}

// WithDateRange 设置日期范围
func (f Filter) WithDateRange(start, end string) Filter {
	f.StartDate = start
	f.EndDate = end
	return f
}

// Provider 仓储集合
type Provider struct {
	Kitchens  *KitchenRepository
	Waste     *WasteRepository
	Schedule  *ScheduleRepository
	Baselines *BaselineRepository
}

// NewProvider 创建仓储集合
func NewProvider(db DB) *Provider {
	return &Provider{
		Kitchens:  NewKitchenRepository(db),
		Waste:     NewWasteRepository(db),
		Schedule:  NewScheduleRepository(db),
		Baselines: NewBaselineRepository(db),
	}
}
