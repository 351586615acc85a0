// Package repository 提供数据访问层
package repository

import (
	"context"
	"fmt"

	"github.com/lightblue/foodwaste/pkg/model"
)

// ScheduleRepository 开放模式仓储
type ScheduleRepository struct {
	db DB
}

// NewScheduleRepository 创建开放模式仓储
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListPatterns 列出每周开放模式行
func (r *ScheduleRepository) ListPatterns(ctx context.Context, filter Filter) ([]model.OpeningPattern, error) {
	query := `
		SELECT company_name, kitchen_name, day_of_week,
			COALESCE(breakfast, 'N'), COALESCE(brunch, 'N'), COALESCE(lunch, 'N'),
			COALESCE(afternoon_tea, 'N'), COALESCE(dinner, 'N')
		FROM opening_patterns
		WHERE ($1 = '' OR company_name = $1)
			AND ($2 = '' OR kitchen_name = $2)
		ORDER BY company_name, kitchen_name, day_of_week
	`

	rows, err := r.db.QueryContext(ctx, query, filter.CompanyName, filter.KitchenName)
	if err != nil {
		return nil, fmt.Errorf("查询开放模式失败: %w", err)
	}
	defer rows.Close()

	var patterns []model.OpeningPattern
	for rows.Next() {
		var p model.OpeningPattern
		if err := rows.Scan(
			&p.CompanyName, &p.KitchenName, &p.DayOfWeek,
			&p.Breakfast, &p.Brunch, &p.Lunch, &p.AfternoonTea, &p.Dinner,
		); err != nil {
			return nil, fmt.Errorf("扫描开放模式失败: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历开放模式失败: %w", err)
	}

	return patterns, nil
}
