// Package handler 提供API处理器
package handler

import (
	"net/http"
	"time"

	"github.com/lightblue/foodwaste/internal/metrics"
	"github.com/lightblue/foodwaste/internal/repository"
	"github.com/lightblue/foodwaste/pkg/baseline"
	"github.com/lightblue/foodwaste/pkg/calendar"
	"github.com/lightblue/foodwaste/pkg/closure"
	apperrors "github.com/lightblue/foodwaste/pkg/errors"
	"github.com/lightblue/foodwaste/pkg/model"
	"github.com/lightblue/foodwaste/pkg/stats"
)

// ConsistencyResponse 一致性报表响应
type ConsistencyResponse struct {
	Success bool                      `json:"success"`
	Data    []model.ConsistencyRecord `json:"data,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

// HandleConsistency 记录一致性报表API
func (h *ReportHandler) HandleConsistency(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rng, appErr := parseRange(r)
	if appErr != nil {
		sendAppError(w, appErr)
		return
	}
	grouping, appErr := parseGrouping(r)
	if appErr != nil {
		sendAppError(w, appErr)
		return
	}
	mode := model.CompletenessMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = model.ModeSplit
	}
	if !mode.Valid() {
		sendAppError(w, apperrors.InvalidInput("mode", "未知的完整性判定模式 "+string(mode)))
		return
	}
	perHotel := r.URL.Query().Get("per_hotel") == "true"

	started := time.Now()
	filter := h.baseFilter(r)

	active, err := h.activeKeys(r.Context(), filter)
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询厨房列表失败"))
		return
	}
	patterns, err := h.repos.Schedule.ListPatterns(r.Context(), filter)
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询开放模式失败"))
		return
	}
	closures, err := h.repos.Waste.ListClosures(r.Context(), filter)
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询闭店记录失败"))
		return
	}
	entries, err := h.repos.Waste.ListEntries(r.Context(), filter)
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询称重明细失败"))
		return
	}
	windows, err := h.repos.Baselines.ListWindows(r.Context(), filter)
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询基线期失败"))
		return
	}
	patterns = repository.KeepKeyed(patterns, active)
	closures = repository.KeepKeyed(closures, active)
	entries = repository.KeepKeyed(entries, active)
	windows = repository.KeepKeyed(windows, active)

	h.log.StartReport("consistency", string(grouping), countKitchens(patterns))

	filtered := closure.Filter(closures, patterns)
	metrics.RecordRedundantClosures(len(filtered.Redundant))

	start, end, _ := rng.Dates()
	scheduled := calendar.Expand(patterns, start, end)

	firstDates := make(map[model.KitchenKey]time.Time)
	for key, ws := range baseline.ByKitchen(windows) {
		if fd, ok := baseline.FirstDate(ws); ok {
			firstDates[key] = fd
		}
	}

	analyzer := stats.NewConsistencyAnalyzer(stats.ConsistencyConfig{
		Grouping:  grouping,
		Mode:      mode,
		Cutover:   h.cfg.Report.CutoverDate(),
		WeekStart: h.cfg.Report.WeekStartDay(),
		PerHotel:  perHotel,
	})
	records, err := analyzer.Compute(r.Context(), stats.ConsistencyInput{
		Scheduled:         scheduled,
		Entries:           entries,
		RealClosures:      filtered.Real,
		RedundantClosures: filtered.Redundant,
		Patterns:          patterns,
		FirstDates:        firstDates,
		Range:             rng,
	})
	metrics.RecordReport("consistency", err == nil, time.Since(started))
	if err != nil {
		sendAppError(w, err)
		return
	}

	metrics.SetReportKitchens("consistency", len(records))
	h.log.ReportComplete("consistency", time.Since(started), len(records))

	sendJSON(w, http.StatusOK, ConsistencyResponse{Success: true, Data: records})
}

// countKitchens 数一数模式行覆盖的厨房数
func countKitchens(patterns []model.OpeningPattern) int {
	seen := make(map[model.KitchenKey]struct{})
	for _, p := range patterns {
		seen[p.Key()] = struct{}{}
	}
	return len(seen)
}
