package calendar

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

func TestExpand_SingleWeek(t *testing.T) {
	patterns := []model.OpeningPattern{
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "MONDAY", Breakfast: "Y", Lunch: "Y", Dinner: "Y"},
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "TUESDAY", Lunch: "Y"},
	}

	// 2024-07-08(周一) 到 2024-07-14(周日)
	shifts := Expand(patterns, date("2024-07-08"), date("2024-07-14"))

	if len(shifts) != 4 {
		t.Fatalf("expected 4 shift instances, got %d", len(shifts))
	}

	monday := 0
	for _, s := range shifts {
		if model.FormatDate(s.Date) == "2024-07-08" {
			monday++
		}
	}
	if monday != 3 {
		t.Errorf("expected 3 instances on Monday, got %d", monday)
	}
}

func TestExpand_MultipleWeeks(t *testing.T) {
	patterns := []model.OpeningPattern{
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "FRIDAY", Dinner: "Y"},
	}

	// 四个完整的周五
	shifts := Expand(patterns, date("2024-07-01"), date("2024-07-28"))

	if len(shifts) != 4 {
		t.Fatalf("expected 4 Friday dinners, got %d", len(shifts))
	}
	for _, s := range shifts {
		if s.Shift != model.ShiftDinner {
			t.Errorf("unexpected shift %s", s.Shift)
		}
		if s.Date.Weekday() != time.Friday {
			t.Errorf("instance on %s is not a Friday", model.FormatDate(s.Date))
		}
	}
}

func TestExpand_DuplicatePatternRows(t *testing.T) {
	patterns := []model.OpeningPattern{
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "MONDAY", Lunch: "Y"},
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "monday", Lunch: "Y"},
	}

	shifts := Expand(patterns, date("2024-07-08"), date("2024-07-08"))

	if len(shifts) != 1 {
		t.Fatalf("duplicate pattern rows must not duplicate instances, got %d", len(shifts))
	}
}

func TestExpand_CaseInsensitiveDayName(t *testing.T) {
	patterns := []model.OpeningPattern{
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: " Sunday ", Breakfast: "Y"},
	}

	shifts := Expand(patterns, date("2024-07-14"), date("2024-07-14"))

	if len(shifts) != 1 {
		t.Fatalf("expected 1 instance for mixed-case day name, got %d", len(shifts))
	}
}

func TestExpand_EmptyAndInverted(t *testing.T) {
	if got := Expand(nil, date("2024-07-08"), date("2024-07-14")); got != nil {
		t.Errorf("no patterns should produce no instances, got %d", len(got))
	}

	patterns := []model.OpeningPattern{
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "MONDAY", Lunch: "Y"},
	}
	if got := Expand(patterns, date("2024-07-14"), date("2024-07-08")); got != nil {
		t.Errorf("inverted range should produce no instances, got %d", len(got))
	}
}

func TestExpand_MultipleKitchens(t *testing.T) {
	patterns := []model.OpeningPattern{
		{CompanyName: "hotel-a", KitchenName: "main", DayOfWeek: "MONDAY", Lunch: "Y"},
		{CompanyName: "hotel-a", KitchenName: "banquet", DayOfWeek: "MONDAY", Lunch: "Y"},
		{CompanyName: "hotel-b", KitchenName: "main", DayOfWeek: "MONDAY", Lunch: "Y"},
	}

	shifts := Expand(patterns, date("2024-07-08"), date("2024-07-08"))

	if len(shifts) != 3 {
		t.Fatalf("expected one instance per kitchen, got %d", len(shifts))
	}
	seen := make(map[model.KitchenKey]bool)
	for _, s := range shifts {
		seen[s.Key()] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 distinct kitchens, got %d", len(seen))
	}
}
