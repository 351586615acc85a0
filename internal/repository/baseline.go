// Package repository 提供数据访问层
package repository

import (
	"context"
	"fmt"

	"github.com/lightblue/foodwaste/pkg/model"
)

// BaselineRepository 基线期仓储
type BaselineRepository struct {
	db DB
}

// NewBaselineRepository 创建基线期仓储
func NewBaselineRepository(db DB) *BaselineRepository {
	return &BaselineRepository{db: db}
}

// ListWindows 列出基线测量期，按厨房与起始日排序
func (r *BaselineRepository) ListWindows(ctx context.Context, filter Filter) ([]model.BaselineWindow, error) {
	query := `
		SELECT company_name, kitchen_name, start_date, end_date
		FROM baseline_windows
		WHERE ($1 = '' OR company_name = $1)
			AND ($2 = '' OR kitchen_name = $2)
		ORDER BY company_name, kitchen_name, start_date
	`

	rows, err := r.db.QueryContext(ctx, query, filter.CompanyName, filter.KitchenName)
	if err != nil {
		return nil, fmt.Errorf("查询基线期失败: %w", err)
	}
	defer rows.Close()

	var windows []model.BaselineWindow
	for rows.Next() {
		var w model.BaselineWindow
		if err := rows.Scan(&w.CompanyName, &w.KitchenName, &w.StartDate, &w.EndDate); err != nil {
			return nil, fmt.Errorf("扫描基线期失败: %w", err)
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历基线期失败: %w", err)
	}

	return windows, nil
}
