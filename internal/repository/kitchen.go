// Package repository 提供数据访问层
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/lightblue/foodwaste/pkg/model"
)

// KitchenRepository 厨房仓储
type KitchenRepository struct {
	db DB
}

// NewKitchenRepository 创建厨房仓储
func NewKitchenRepository(db DB) *KitchenRepository {
	return &KitchenRepository{db: db}
}

// List 列出厨房档案。
// 许可证按厨房聚合：起始日取最早、到期日取最晚的一张。
func (r *KitchenRepository) List(ctx context.Context, filter Filter) ([]model.Kitchen, error) {
	query := `
		SELECT k.company_name, k.kitchen_name,
			MIN(l.start_date) AS license_start_date,
			MAX(l.expire_date) AS license_expire_date
		FROM kitchens k
		LEFT JOIN kitchen_licenses l
			ON l.company_name = k.company_name AND l.kitchen_name = k.kitchen_name
		WHERE ($1 = '' OR k.company_name = $1)
			AND ($2 = '' OR k.kitchen_name = $2)
			AND NOT (k.kitchen_name || '@' || k.company_name = ANY($3))
			AND NOT (k.kitchen_name || '@' = ANY($3))
		GROUP BY k.company_name, k.kitchen_name
		ORDER BY k.company_name, k.kitchen_name
	`

	rows, err := r.db.QueryContext(ctx, query,
		filter.CompanyName, filter.KitchenName, pq.Array(excludeList(filter)))
	if err != nil {
		return nil, fmt.Errorf("查询厨房列表失败: %w", err)
	}
	defer rows.Close()

	var kitchens []model.Kitchen
	for rows.Next() {
		var k model.Kitchen
		if err := rows.Scan(&k.CompanyName, &k.KitchenName, &k.LicenseStartDate, &k.LicenseExpireDate); err != nil {
			return nil, fmt.Errorf("扫描厨房行失败: %w", err)
		}
		kitchens = append(kitchens, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历厨房列表失败: %w", err)
	}

	return kitchens, nil
}

// ListActive 列出许可证在指定时间仍有效的厨房
func (r *KitchenRepository) ListActive(ctx context.Context, filter Filter, now time.Time) ([]model.Kitchen, error) {
	all, err := r.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	var active []model.Kitchen
	for _, k := range all {
		if k.LicenseActive(now) {
			active = append(active, k)
		}
	}
	return active, nil
}

// excludeList 将排除项编码为 "kitchen@company"（不限公司时为 "kitchen@"），
// 空排除列表统一编码为空数组而非 NULL
func excludeList(filter Filter) []string {
	out := make([]string, 0, len(filter.Exclude))
	for _, ex := range filter.Exclude {
		out = append(out, ex.KitchenName+"@"+ex.CompanyName)
	}
	return out
}
