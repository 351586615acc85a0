// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lightblue/foodwaste/pkg/model"
)

// WasteRepository 浪费记录仓储
type WasteRepository struct {
	db DB
}

// NewWasteRepository 创建浪费记录仓储
func NewWasteRepository(db DB) *WasteRepository {
	return &WasteRepository{db: db}
}

// ListEntries 列出称重明细，数量在扫描时统一换算为克；
// 零数量的占位行不参与任何报表，直接过滤掉
func (r *WasteRepository) ListEntries(ctx context.Context, filter Filter) ([]model.WasteEntry, error) {
	query := `
		SELECT company_name, kitchen_name, operation_date, shift_id,
			COALESCE(category, ''), COALESCE(food_type, ''),
			quantity, COALESCE(unit, 'GRAM'), covers,
			COALESCE(complete, 'N')
		FROM waste_entries
		WHERE quantity <> 0
			AND ($1 = '' OR company_name = $1)
			AND ($2 = '' OR kitchen_name = $2)
			AND ($3 = '' OR operation_date >= $3::date)
			AND ($4 = '' OR operation_date <= $4::date)
		ORDER BY company_name, kitchen_name, operation_date, shift_id
	`

	rows, err := r.db.QueryContext(ctx, query,
		filter.CompanyName, filter.KitchenName, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, fmt.Errorf("查询称重明细失败: %w", err)
	}
	defer rows.Close()

	var entries []model.WasteEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历称重明细失败: %w", err)
	}

	return entries, nil
}

// scanEntry 扫描一条称重明细并做单位换算
func scanEntry(row Scanner) (model.WasteEntry, error) {
	var (
		e        model.WasteEntry
		shift    string
		quantity float64
		unit     string
		covers   sql.NullFloat64
		complete string
	)
	if err := row.Scan(
		&e.CompanyName, &e.KitchenName, &e.Date, &shift,
		&e.Category, &e.FoodType, &quantity, &unit, &covers, &complete,
	); err != nil {
		return model.WasteEntry{}, fmt.Errorf("扫描称重明细失败: %w", err)
	}
	e.Shift = model.ShiftID(shift)
	e.AmountGrams = model.ToGrams(quantity, unit)
	if covers.Valid {
		v := covers.Float64
		e.Covers = &v
	}
	e.Complete = complete == "Y"
	return e, nil
}

// ListClosures 列出闭店记录
func (r *WasteRepository) ListClosures(ctx context.Context, filter Filter) ([]model.ShiftClosure, error) {
	query := `
		SELECT company_name, kitchen_name, close_date, shift_id
		FROM shift_closures
		WHERE ($1 = '' OR company_name = $1)
			AND ($2 = '' OR kitchen_name = $2)
			AND ($3 = '' OR close_date >= $3::date)
			AND ($4 = '' OR close_date <= $4::date)
		ORDER BY company_name, kitchen_name, close_date, shift_id
	`

	rows, err := r.db.QueryContext(ctx, query,
		filter.CompanyName, filter.KitchenName, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, fmt.Errorf("查询闭店记录失败: %w", err)
	}
	defer rows.Close()

	var closures []model.ShiftClosure
	for rows.Next() {
		var (
			c     model.ShiftClosure
			shift string
		)
		if err := rows.Scan(&c.CompanyName, &c.KitchenName, &c.Date, &shift); err != nil {
			return nil, fmt.Errorf("扫描闭店记录失败: %w", err)
		}
		c.Shift = model.ShiftID(shift)
		closures = append(closures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历闭店记录失败: %w", err)
	}

	return closures, nil
}
