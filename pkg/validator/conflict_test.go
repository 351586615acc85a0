package validator

import (
	"testing"
	"time"

	"github.com/lightblue/foodwaste/pkg/model"
)

func date(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func window(start, end string) model.BaselineWindow {
	return model.BaselineWindow{
		CompanyName: "hotel-a",
		KitchenName: "main",
		StartDate:   date(start),
		EndDate:     date(end),
	}
}

func findConflicts(conflicts []Conflict, typ ConflictType) []Conflict {
	var out []Conflict
	for _, c := range conflicts {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

func TestDetectAll_WindowOverlap(t *testing.T) {
	windows := []model.BaselineWindow{
		window("2024-01-01", "2024-01-14"),
		window("2024-01-10", "2024-01-20"),
	}

	detector := NewConflictDetector(nil)
	conflicts := detector.DetectAll(windows, nil)

	overlaps := findConflicts(conflicts, ConflictWindowOverlap)
	if len(overlaps) != 1 {
		t.Fatalf("expected 1 overlap conflict, got %d", len(overlaps))
	}
	if overlaps[0].Severity != "error" {
		t.Errorf("overlap severity = %s, expected error", overlaps[0].Severity)
	}
}

func TestDetectAll_WindowInverted(t *testing.T) {
	windows := []model.BaselineWindow{
		window("2024-01-14", "2024-01-01"),
		window("2024-01-05", "2024-01-10"),
	}

	detector := NewConflictDetector(nil)
	conflicts := detector.DetectAll(windows, nil)

	if got := findConflicts(conflicts, ConflictWindowInverted); len(got) != 1 {
		t.Fatalf("expected 1 inverted-window conflict, got %d", len(got))
	}
	// 起止颠倒的基线期不再参与重叠检查
	if got := findConflicts(conflicts, ConflictWindowOverlap); len(got) != 0 {
		t.Errorf("inverted window must not trigger overlap conflicts, got %d", len(got))
	}
}

func TestDetectAll_PatternDayName(t *testing.T) {
	patterns := []model.OpeningPattern{
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "MONDAYY", Lunch: "Y"},
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: " tuesday ", Lunch: "Y"},
	}

	detector := NewConflictDetector(nil)
	conflicts := detector.DetectAll(nil, patterns)

	got := findConflicts(conflicts, ConflictPatternDay)
	if len(got) != 1 {
		t.Fatalf("expected 1 bad day-name conflict, got %d", len(got))
	}
}

func TestDetectAll_ConflictingFlags(t *testing.T) {
	patterns := []model.OpeningPattern{
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "MONDAY", Dinner: "Y"},
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "MONDAY", Dinner: "N"},
	}

	detector := NewConflictDetector(nil)
	conflicts := detector.DetectAll(nil, patterns)

	got := findConflicts(conflicts, ConflictPatternFlag)
	if len(got) != 1 {
		t.Fatalf("expected 1 flag conflict, got %d", len(got))
	}
	if got[0].Severity != "error" {
		t.Errorf("conflicting flags severity = %s, expected error", got[0].Severity)
	}
}

func TestDetectAll_ConsistentDuplicates(t *testing.T) {
	patterns := []model.OpeningPattern{
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "MONDAY", Dinner: "N"},
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "MONDAY", Dinner: "N"},
	}

	detector := NewConflictDetector(nil)
	conflicts := detector.DetectAll(nil, patterns)

	got := findConflicts(conflicts, ConflictPatternFlag)
	if len(got) != 1 {
		t.Fatalf("expected 1 duplicate-row notice, got %d", len(got))
	}
	if got[0].Severity != "warning" {
		t.Errorf("consistent duplicates severity = %s, expected warning", got[0].Severity)
	}
}

func TestDetectAll_RequireFullWeek(t *testing.T) {
	patterns := []model.OpeningPattern{
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "MONDAY", Lunch: "Y"},
	}

	detector := NewConflictDetector(&DetectorConfig{RequireFullWeek: true, CheckWindowOrder: true})
	conflicts := detector.DetectAll(nil, patterns)

	got := findConflicts(conflicts, ConflictPatternMissing)
	if len(got) != 1 {
		t.Fatalf("expected 1 missing-days conflict, got %d", len(got))
	}

	// 默认配置不要求整周
	if got := findConflicts(NewConflictDetector(nil).DetectAll(nil, patterns), ConflictPatternMissing); len(got) != 0 {
		t.Errorf("default config must not require a full week, got %d conflicts", len(got))
	}
}

func TestDetectAll_CleanData(t *testing.T) {
	windows := []model.BaselineWindow{
		window("2024-01-01", "2024-01-14"),
		window("2024-03-01", "2024-03-14"),
	}
	patterns := []model.OpeningPattern{
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "MONDAY", Breakfast: "Y", Lunch: "Y", Dinner: "Y"},
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "TUESDAY", Lunch: "Y"},
	}

	if got := NewConflictDetector(nil).DetectAll(windows, patterns); len(got) != 0 {
		t.Errorf("clean data should produce no conflicts, got %+v", got)
	}
}
