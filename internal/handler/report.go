// Package handler 提供API处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lightblue/foodwaste/internal/config"
	"github.com/lightblue/foodwaste/internal/repository"
	apperrors "github.com/lightblue/foodwaste/pkg/errors"
	"github.com/lightblue/foodwaste/pkg/logger"
	"github.com/lightblue/foodwaste/pkg/model"
	"github.com/lightblue/foodwaste/pkg/validator"
)

// ReportHandler 报表API处理器
type ReportHandler struct {
	repos *repository.Provider
	cfg   *config.Config
	log   *logger.ReportLogger
}

// NewReportHandler 创建报表处理器
func NewReportHandler(repos *repository.Provider, cfg *config.Config) *ReportHandler {
	return &ReportHandler{
		repos: repos,
		cfg:   cfg,
		log:   logger.NewReportLogger(),
	}
}

// ReportInfo 报表目录条目
type ReportInfo struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Description string   `json:"description"`
	Groupings   []string `json:"groupings,omitempty"`
}

// HandleCatalog 报表目录API
func (h *ReportHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	groupings := []string{
		string(model.GroupDaily), string(model.GroupWeekly), string(model.GroupMonthly),
		string(model.GroupYearly), string(model.GroupOverall),
	}
	catalog := []ReportInfo{
		{
			Name:        "consistency",
			Path:        "/api/v1/reports/consistency",
			Description: "各厨房的班次记录一致性比率",
			Groupings:   groupings,
		},
		{
			Name:        "savings",
			Path:        "/api/v1/reports/savings",
			Description: "相对基线期的浪费节约量",
		},
		{
			Name:        "gcover",
			Path:        "/api/v1/reports/gcover",
			Description: "克/客流比",
			Groupings:   groupings,
		},
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    catalog,
	})
}

// HandleKitchens 厨房列表API
func (h *ReportHandler) HandleKitchens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := h.baseFilter(r)
	kitchens, err := h.repos.Kitchens.ListActive(r.Context(), filter, time.Now())
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询厨房列表失败"))
		return
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    kitchens,
	})
}

// HandleValidate 主数据校验API
func (h *ReportHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := h.baseFilter(r)
	windows, err := h.repos.Baselines.ListWindows(r.Context(), filter)
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询基线期失败"))
		return
	}
	patterns, err := h.repos.Schedule.ListPatterns(r.Context(), filter)
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询开放模式失败"))
		return
	}

	detector := validator.NewConflictDetector(nil)
	conflicts := detector.DetectAll(windows, patterns)

	sendJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"conflicts": conflicts,
		"valid":     len(conflicts) == 0,
	})
}

// baseFilter 从查询参数构造仓储过滤器
func (h *ReportHandler) baseFilter(r *http.Request) repository.Filter {
	q := r.URL.Query()
	return repository.Filter{
		CompanyName: q.Get("company_name"),
		KitchenName: q.Get("kitchen_name"),
		StartDate:   q.Get("start_date"),
		EndDate:     q.Get("end_date"),
		Exclude:     repository.ParseExclusions(h.cfg.Report.ExcludedKitchens),
	}
}

// activeKeys 求许可证有效且未被排除的厨房键集合。
// 报表的全部取数都先经过该集合过滤，演示厨房和过期许可
// 的数据不会流入任何报表。
func (h *ReportHandler) activeKeys(ctx context.Context, filter repository.Filter) (map[model.KitchenKey]struct{}, error) {
	kitchens, err := h.repos.Kitchens.ListActive(ctx, filter, time.Now())
	if err != nil {
		return nil, err
	}
	keys := make(map[model.KitchenKey]struct{}, len(kitchens))
	for _, k := range kitchens {
		keys[k.Key()] = struct{}{}
	}
	return keys, nil
}

// parseRange 解析并校验日期范围参数
func parseRange(r *http.Request) (model.DateRange, *apperrors.AppError) {
	q := r.URL.Query()
	rng := model.DateRange{StartDate: q.Get("start_date"), EndDate: q.Get("end_date")}
	if rng.StartDate == "" || rng.EndDate == "" {
		return rng, apperrors.InvalidInput("start_date/end_date", "日期范围参数必填")
	}
	start, end, err := rng.Dates()
	if err != nil || end.Before(start) {
		return rng, apperrors.InvalidTimeRange(rng.StartDate, rng.EndDate)
	}
	return rng, nil
}

// parseGrouping 解析分桶参数，缺省为 overall
func parseGrouping(r *http.Request) (model.Grouping, *apperrors.AppError) {
	g := model.Grouping(r.URL.Query().Get("grouping"))
	if g == "" {
		g = model.GroupOverall
	}
	if !g.Valid() {
		return g, apperrors.New(apperrors.CodeInvalidGrouping, "分桶方式无效: "+string(g))
	}
	return g, nil
}

// sendJSON 发送JSON响应
func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// sendAppError 发送应用错误响应
func sendAppError(w http.ResponseWriter, err error) {
	status := apperrors.GetHTTPStatus(err)
	code := apperrors.GetCode(err)
	sendJSON(w, status, map[string]interface{}{
		"success": false,
		"code":    code,
		"error":   err.Error(),
	})
}

// sendJSONError 发送JSON错误响应
func sendJSONError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
