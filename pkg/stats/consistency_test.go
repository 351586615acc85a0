package stats

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/lightblue/foodwaste/pkg/calendar"
	apperrors "github.com/lightblue/foodwaste/pkg/errors"
	"github.com/lightblue/foodwaste/pkg/model"
)

func date(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func covers(v float64) *float64 {
	return &v
}

// fullWeekPatterns 一周七天、早晚两个班次的开放模式
func fullWeekPatterns(company, kitchen string) []model.OpeningPattern {
	days := []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}
	patterns := make([]model.OpeningPattern, 0, len(days))
	for _, day := range days {
		patterns = append(patterns, model.OpeningPattern{
			CompanyName: company,
			KitchenName: kitchen,
			DayOfWeek:   day,
			Breakfast:   "Y",
			Dinner:      "Y",
		})
	}
	return patterns
}

func TestConsistency(t *testing.T) {
	tests := []struct {
		name     string
		comp     int
		total    int
		closed   int
		expected float64
	}{
		{"常规比率", 10, 14, 1, 0.77},
		{"全部完整", 14, 14, 0, 1},
		{"分母为零", 0, 1, 1, 0},
		{"闭店多于总数", 3, 2, 5, 0},
		{"无班次", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Consistency(tt.comp, tt.total, tt.closed); got != tt.expected {
				t.Errorf("Consistency(%d, %d, %d) = %v, expected %v",
					tt.comp, tt.total, tt.closed, got, tt.expected)
			}
		})
	}
}

func TestConsistencyAnalyzer_FlagMode(t *testing.T) {
	patterns := fullWeekPatterns("hotel-a", "main")
	rng := model.DateRange{StartDate: "2024-07-08", EndDate: "2024-07-14"}
	scheduled := calendar.Expand(patterns, date("2024-07-08"), date("2024-07-14"))
	if len(scheduled) != 14 {
		t.Fatalf("expected 14 scheduled instances, got %d", len(scheduled))
	}

	// 周一早餐闭店；其余 13 个班次中 10 个有完整记录
	closures := []model.ShiftClosure{
		{CompanyName: "hotel-a", KitchenName: "main", Date: date("2024-07-08"), Shift: model.ShiftBreakfast},
	}
	var entries []model.WasteEntry
	complete := 0
	for _, s := range scheduled {
		if s.Shift == model.ShiftBreakfast && model.FormatDate(s.Date) == "2024-07-08" {
			continue
		}
		if complete >= 10 {
			break
		}
		entries = append(entries, model.WasteEntry{
			CompanyName: s.CompanyName,
			KitchenName: s.KitchenName,
			Date:        s.Date,
			Shift:       s.Shift,
			AmountGrams: 1200,
			Covers:      covers(80),
			Complete:    true,
		})
		complete++
	}

	analyzer := NewConsistencyAnalyzer(ConsistencyConfig{
		Grouping: model.GroupOverall,
		Mode:     model.ModeFlag,
	})
	records, err := analyzer.Compute(context.Background(), ConsistencyInput{
		Scheduled:    scheduled,
		Entries:      entries,
		RealClosures: closures,
		Patterns:     patterns,
		Range:        rng,
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.TotalShifts != 14 || rec.CompShifts != 10 || rec.ClosedShifts != 1 {
		t.Errorf("counters = total %d comp %d closed %d", rec.TotalShifts, rec.CompShifts, rec.ClosedShifts)
	}
	if rec.Consistency != 0.77 {
		t.Errorf("Consistency = %v, expected 0.77", rec.Consistency)
	}
	if rec.StartDate != "2024-07-08" || rec.EndDate != "2024-07-14" {
		t.Errorf("overall record should carry the request range, got %s ~ %s", rec.StartDate, rec.EndDate)
	}
}

func TestConsistencyAnalyzer_UnionWithRecorded(t *testing.T) {
	// 没有模式行的厨房：记录本身也构成班次实例
	rng := model.DateRange{StartDate: "2024-07-08", EndDate: "2024-07-14"}
	entries := []model.WasteEntry{
		{CompanyName: "hotel-a", KitchenName: "pop-up", Date: date("2024-07-09"), Shift: model.ShiftLunch, AmountGrams: 500, Covers: covers(30), Complete: true},
		{CompanyName: "hotel-a", KitchenName: "pop-up", Date: date("2024-07-10"), Shift: model.ShiftLunch, AmountGrams: 700},
	}

	analyzer := NewConsistencyAnalyzer(ConsistencyConfig{Grouping: model.GroupOverall, Mode: model.ModeFlag})
	records, err := analyzer.Compute(context.Background(), ConsistencyInput{Entries: entries, Range: rng})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].TotalShifts != 2 || records[0].CompShifts != 1 {
		t.Errorf("union counters = total %d comp %d, expected 2/1",
			records[0].TotalShifts, records[0].CompShifts)
	}
}

func TestConsistencyAnalyzer_FirstDateExclusion(t *testing.T) {
	patterns := fullWeekPatterns("hotel-a", "main")
	rng := model.DateRange{StartDate: "2024-07-08", EndDate: "2024-07-14"}
	scheduled := calendar.Expand(patterns, date("2024-07-08"), date("2024-07-14"))

	// 基线期到周三结束：周一到周三的实例（含结束日）不参与统计
	firstDates := map[model.KitchenKey]time.Time{
		{CompanyName: "hotel-a", KitchenName: "main"}: date("2024-07-10"),
	}

	analyzer := NewConsistencyAnalyzer(ConsistencyConfig{Grouping: model.GroupOverall, Mode: model.ModeFlag})
	records, err := analyzer.Compute(context.Background(), ConsistencyInput{
		Scheduled:  scheduled,
		FirstDates: firstDates,
		Range:      rng,
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	// 七天×2班次 = 14，扣除周一/周二/周三共6个实例
	if records[0].TotalShifts != 8 {
		t.Errorf("TotalShifts = %d, expected 8 after baseline exclusion", records[0].TotalShifts)
	}
}

func TestConsistencyAnalyzer_LegacyMode(t *testing.T) {
	patterns := fullWeekPatterns("hotel-a", "main")
	rng := model.DateRange{StartDate: "2024-07-08", EndDate: "2024-07-08"}
	scheduled := calendar.Expand(patterns, date("2024-07-08"), date("2024-07-08"))

	entries := []model.WasteEntry{
		// 客流非空，旧判定下完整（COMPLETE 标记被忽略）
		{CompanyName: "hotel-a", KitchenName: "main", Date: date("2024-07-08"), Shift: model.ShiftBreakfast, AmountGrams: 900, Covers: covers(60)},
		// 客流为空，不完整
		{CompanyName: "hotel-a", KitchenName: "main", Date: date("2024-07-08"), Shift: model.ShiftDinner, AmountGrams: 400, Complete: true},
	}

	analyzer := NewConsistencyAnalyzer(ConsistencyConfig{Grouping: model.GroupOverall, Mode: model.ModeLegacy})
	records, err := analyzer.Compute(context.Background(), ConsistencyInput{
		Scheduled: scheduled,
		Entries:   entries,
		Patterns:  patterns,
		Range:     rng,
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if records[0].TotalShifts != 2 || records[0].CompShifts != 1 {
		t.Errorf("legacy counters = total %d comp %d, expected 2/1",
			records[0].TotalShifts, records[0].CompShifts)
	}
}

func TestConsistencyAnalyzer_SplitMode(t *testing.T) {
	patterns := fullWeekPatterns("hotel-a", "main")
	rng := model.DateRange{StartDate: "2024-06-30", EndDate: "2024-07-01"}
	scheduled := calendar.Expand(patterns, date("2024-06-30"), date("2024-07-01"))

	entries := []model.WasteEntry{
		// 切换日前：客流非空即完整，标记被忽略
		{CompanyName: "hotel-a", KitchenName: "main", Date: date("2024-06-30"), Shift: model.ShiftBreakfast, AmountGrams: 800, Covers: covers(50)},
		// 切换日后：只看 COMPLETE 标记
		{CompanyName: "hotel-a", KitchenName: "main", Date: date("2024-07-01"), Shift: model.ShiftBreakfast, AmountGrams: 800, Covers: covers(50)},
		{CompanyName: "hotel-a", KitchenName: "main", Date: date("2024-07-01"), Shift: model.ShiftDinner, AmountGrams: 600, Complete: true},
	}

	analyzer := NewConsistencyAnalyzer(ConsistencyConfig{
		Grouping: model.GroupOverall,
		Mode:     model.ModeSplit,
		Cutover:  date("2024-07-01"),
	})
	records, err := analyzer.Compute(context.Background(), ConsistencyInput{
		Scheduled: scheduled,
		Entries:   entries,
		Patterns:  patterns,
		Range:     rng,
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	// 4 个实例：6-30 早餐（旧判定完整）、6-30 晚餐（无记录）、
	// 7-01 早餐（有客流但无标记，不完整）、7-01 晚餐（有标记，完整）
	rec := records[0]
	if rec.TotalShifts != 4 || rec.CompShifts != 2 {
		t.Errorf("split counters = total %d comp %d, expected 4/2", rec.TotalShifts, rec.CompShifts)
	}
}

func TestConsistencyAnalyzer_PerHotel(t *testing.T) {
	rng := model.DateRange{StartDate: "2024-07-08", EndDate: "2024-07-08"}
	entries := []model.WasteEntry{
		{CompanyName: "hotel-a", KitchenName: "main", Date: date("2024-07-08"), Shift: model.ShiftLunch, AmountGrams: 100, Complete: true},
		{CompanyName: "hotel-a", KitchenName: "banquet", Date: date("2024-07-08"), Shift: model.ShiftLunch, AmountGrams: 100},
	}

	analyzer := NewConsistencyAnalyzer(ConsistencyConfig{
		Grouping: model.GroupOverall,
		Mode:     model.ModeFlag,
		PerHotel: true,
	})
	records, err := analyzer.Compute(context.Background(), ConsistencyInput{Entries: entries, Range: rng})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("per-hotel should roll kitchens into one record, got %d", len(records))
	}
	rec := records[0]
	if rec.KitchenName != "" {
		t.Errorf("per-hotel record should have empty kitchen name, got %q", rec.KitchenName)
	}
	if rec.TotalShifts != 2 || rec.CompShifts != 1 {
		t.Errorf("per-hotel counters = total %d comp %d, expected 2/1", rec.TotalShifts, rec.CompShifts)
	}
	if rec.Consistency != 0.5 {
		t.Errorf("per-hotel consistency = %v, expected 0.5", rec.Consistency)
	}
}

func TestConsistencyAnalyzer_WeeklyGrouping(t *testing.T) {
	rng := model.DateRange{StartDate: "2024-07-08", EndDate: "2024-07-21"}
	entries := []model.WasteEntry{
		{CompanyName: "hotel-a", KitchenName: "main", Date: date("2024-07-09"), Shift: model.ShiftLunch, AmountGrams: 100, Complete: true},
		{CompanyName: "hotel-a", KitchenName: "main", Date: date("2024-07-16"), Shift: model.ShiftLunch, AmountGrams: 100, Complete: true},
	}

	analyzer := NewConsistencyAnalyzer(ConsistencyConfig{
		Grouping:  model.GroupWeekly,
		Mode:      model.ModeFlag,
		WeekStart: time.Monday,
	})
	records, err := analyzer.Compute(context.Background(), ConsistencyInput{Entries: entries, Range: rng})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 weekly buckets, got %d", len(records))
	}
	if records[0].Bucket != "2024-07-08" || records[1].Bucket != "2024-07-15" {
		t.Errorf("bucket keys = %q, %q", records[0].Bucket, records[1].Bucket)
	}
}

func TestConsistencyAnalyzer_InvalidInput(t *testing.T) {
	analyzer := NewConsistencyAnalyzer(ConsistencyConfig{Grouping: "hourly", Mode: model.ModeFlag})
	_, err := analyzer.Compute(context.Background(), ConsistencyInput{
		Range: model.DateRange{StartDate: "2024-07-08", EndDate: "2024-07-14"},
	})
	if !apperrors.Is(err, apperrors.CodeInvalidGrouping) {
		t.Errorf("expected INVALID_GROUPING error, got %v", err)
	}

	analyzer = NewConsistencyAnalyzer(ConsistencyConfig{Grouping: model.GroupOverall, Mode: model.ModeFlag})
	_, err = analyzer.Compute(context.Background(), ConsistencyInput{
		Range: model.DateRange{StartDate: "2024-07-14", EndDate: "2024-07-08"},
	})
	if !apperrors.Is(err, apperrors.CodeInvalidTimeRange) {
		t.Errorf("expected INVALID_TIME_RANGE error, got %v", err)
	}
}

func TestConsistencyAnalyzer_NoData(t *testing.T) {
	// 范围内既无排班也无记录：返回 NO_DATA 而不是空结果
	analyzer := NewConsistencyAnalyzer(ConsistencyConfig{Grouping: model.GroupOverall, Mode: model.ModeFlag})
	_, err := analyzer.Compute(context.Background(), ConsistencyInput{
		Range: model.DateRange{StartDate: "2024-07-08", EndDate: "2024-07-14"},
	})
	if !apperrors.Is(err, apperrors.CodeNoData) {
		t.Errorf("expected NO_DATA error, got %v", err)
	}
}

func TestConsistencyAnalyzer_Idempotent(t *testing.T) {
	patterns := fullWeekPatterns("hotel-a", "main")
	rng := model.DateRange{StartDate: "2024-07-08", EndDate: "2024-07-14"}
	input := ConsistencyInput{
		Scheduled: calendar.Expand(patterns, date("2024-07-08"), date("2024-07-14")),
		Entries: []model.WasteEntry{
			{CompanyName: "hotel-a", KitchenName: "main", Date: date("2024-07-09"), Shift: model.ShiftBreakfast, AmountGrams: 800, Covers: covers(50), Complete: true},
		},
		Patterns: patterns,
		Range:    rng,
	}

	analyzer := NewConsistencyAnalyzer(ConsistencyConfig{Grouping: model.GroupOverall, Mode: model.ModeFlag})
	one, err := analyzer.Compute(context.Background(), input)
	if err != nil {
		t.Fatalf("first Compute failed: %v", err)
	}
	two, err := analyzer.Compute(context.Background(), input)
	if err != nil {
		t.Fatalf("second Compute failed: %v", err)
	}

	if !reflect.DeepEqual(one, two) {
		t.Errorf("repeated Compute on the same input diverged:\n%+v\n%+v", one, two)
	}
}

func TestConsistencyAnalyzer_GroupingReaggregation(t *testing.T) {
	// 日分桶的计数按月加总后，必须与月分桶的计数一致，
	// 比率也必须能从加总后的计数重新导出
	mk := func(day string, complete bool) model.WasteEntry {
		return model.WasteEntry{
			CompanyName: "hotel-a", KitchenName: "main",
			Date: date(day), Shift: model.ShiftLunch,
			AmountGrams: 500, Covers: covers(40), Complete: complete,
		}
	}
	input := ConsistencyInput{
		Entries: []model.WasteEntry{
			mk("2024-07-10", true),
			mk("2024-07-11", false),
			mk("2024-07-12", true),
			mk("2024-08-02", true),
			mk("2024-08-03", false),
		},
		Range: model.DateRange{StartDate: "2024-07-01", EndDate: "2024-08-31"},
	}

	daily := NewConsistencyAnalyzer(ConsistencyConfig{Grouping: model.GroupDaily, Mode: model.ModeFlag})
	dailyRecords, err := daily.Compute(context.Background(), input)
	if err != nil {
		t.Fatalf("daily Compute failed: %v", err)
	}
	monthly := NewConsistencyAnalyzer(ConsistencyConfig{Grouping: model.GroupMonthly, Mode: model.ModeFlag})
	monthlyRecords, err := monthly.Compute(context.Background(), input)
	if err != nil {
		t.Fatalf("monthly Compute failed: %v", err)
	}

	type sums struct{ total, comp, closed int }
	byMonth := make(map[string]*sums)
	for _, rec := range dailyRecords {
		month := rec.Bucket[:7]
		s, ok := byMonth[month]
		if !ok {
			s = &sums{}
			byMonth[month] = s
		}
		s.total += rec.TotalShifts
		s.comp += rec.CompShifts
		s.closed += rec.ClosedShifts
	}

	if len(monthlyRecords) != len(byMonth) {
		t.Fatalf("monthly buckets = %d, daily roll-up produced %d", len(monthlyRecords), len(byMonth))
	}
	for _, rec := range monthlyRecords {
		s := byMonth[rec.Bucket]
		if s == nil {
			t.Fatalf("no daily roll-up for bucket %s", rec.Bucket)
		}
		if s.total != rec.TotalShifts || s.comp != rec.CompShifts || s.closed != rec.ClosedShifts {
			t.Errorf("bucket %s: rolled-up counters %d/%d/%d != monthly %d/%d/%d",
				rec.Bucket, s.total, s.comp, s.closed, rec.TotalShifts, rec.CompShifts, rec.ClosedShifts)
		}
		if got := Consistency(s.comp, s.total, s.closed); got != rec.Consistency {
			t.Errorf("bucket %s: re-derived consistency %v != %v", rec.Bucket, got, rec.Consistency)
		}
	}
}
