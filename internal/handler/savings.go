// Package handler 提供API处理器
package handler

import (
	"net/http"
	"time"

	"github.com/lightblue/foodwaste/internal/metrics"
	"github.com/lightblue/foodwaste/internal/repository"
	apperrors "github.com/lightblue/foodwaste/pkg/errors"
	"github.com/lightblue/foodwaste/pkg/model"
	"github.com/lightblue/foodwaste/pkg/stats"
)

// SavingsResponse 节约量报表响应
type SavingsResponse struct {
	Success bool                   `json:"success"`
	Data    []model.SavingsRecord  `json:"data,omitempty"`
	Skipped []model.SkippedKitchen `json:"skipped,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// HandleSavings 节约量报表API
func (h *ReportHandler) HandleSavings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rng, appErr := parseRange(r)
	if appErr != nil {
		sendAppError(w, appErr)
		return
	}

	started := time.Now()
	filter := h.baseFilter(r)

	active, err := h.activeKeys(r.Context(), filter)
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询厨房列表失败"))
		return
	}
	// 基线比率取自基线期内的记录，称重明细必须带完整历史，
	// 只有节约期的聚合才受请求范围约束
	entries, err := h.repos.Waste.ListEntries(r.Context(), filter.WithDateRange("", ""))
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询称重明细失败"))
		return
	}
	windows, err := h.repos.Baselines.ListWindows(r.Context(), filter)
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询基线期失败"))
		return
	}
	entries = repository.KeepKeyed(entries, active)
	windows = repository.KeepKeyed(windows, active)

	h.log.StartReport("savings", string(model.GroupOverall), len(windows))

	q := r.URL.Query()
	analyzer := stats.NewSavingsAnalyzer(stats.SavingsConfig{
		MergeKitchen: q.Get("merge_kitchen") == "true",
		MergeComp:    q.Get("merge_comp") == "true",
		CompanyLabel: filter.CompanyName,
	})
	result, err := analyzer.Compute(r.Context(), stats.SavingsInput{
		Entries: entries,
		Windows: windows,
		Range:   rng,
	})
	metrics.RecordReport("savings", err == nil, time.Since(started))
	if err != nil {
		sendAppError(w, err)
		return
	}

	for _, s := range result.Skipped {
		metrics.RecordSkippedKitchen("savings", s.Reason)
		h.log.SkipKitchen(s.CompanyName, s.KitchenName, s.Reason)
	}
	metrics.SetReportKitchens("savings", len(result.Records))
	h.log.ReportComplete("savings", time.Since(started), len(result.Records))

	sendJSON(w, http.StatusOK, SavingsResponse{
		Success: true,
		Data:    result.Records,
		Skipped: result.Skipped,
	})
}

// GCoverResponse 克/客流比报表响应
type GCoverResponse struct {
	Success bool                 `json:"success"`
	Data    []model.GCoverRecord `json:"data,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// HandleGCover 克/客流比报表API
func (h *ReportHandler) HandleGCover(w http.ResponseWriter, r *http.Request) {
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

	started := time.Now()
	filter := h.baseFilter(r)

	active, err := h.activeKeys(r.Context(), filter)
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询厨房列表失败"))
		return
	}
	entries, err := h.repos.Waste.ListEntries(r.Context(), filter)
	if err != nil {
		sendAppError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询称重明细失败"))
		return
	}
	entries = repository.KeepKeyed(entries, active)

	analyzer := stats.NewGCoverAnalyzer(stats.GCoverConfig{
		Grouping:  grouping,
		WeekStart: h.cfg.Report.WeekStartDay(),
	})
	records, err := analyzer.Compute(r.Context(), entries, rng)
	metrics.RecordReport("gcover", err == nil, time.Since(started))
	if err != nil {
		sendAppError(w, err)
		return
	}

	h.log.ReportComplete("gcover", time.Since(started), len(records))

	sendJSON(w, http.StatusOK, GCoverResponse{Success: true, Data: records})
}
