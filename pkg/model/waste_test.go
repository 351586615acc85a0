package model

import (
	"math"
	"testing"
	"time"
)

func TestToGrams(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		unit     string
		expected float64
	}{
		{"千克换算", 2.5, UnitKilogram, 2500},
		{"磅换算", 1, UnitPound, 453.592},
		{"克原样", 320, UnitGram, 320},
		{"未知单位按克", 100, "OUNCE", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToGrams(tt.amount, tt.unit)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("ToGrams(%v, %s) = %v, expected %v", tt.amount, tt.unit, got, tt.expected)
			}
		})
	}
}

func TestOpeningPattern_Runs(t *testing.T) {
	p := OpeningPattern{
		DayOfWeek: "MONDAY",
		Breakfast: "Y",
		Brunch:    "N",
		Lunch:     "Y",
		Dinner:    "",
	}

	if !p.Runs(ShiftBreakfast) {
		t.Error("breakfast should run")
	}
	if p.Runs(ShiftBrunch) {
		t.Error("brunch should not run")
	}
	if p.Runs(ShiftDinner) {
		t.Error("empty flag should not run")
	}
	if p.Flag(ShiftLunch) != "Y" {
		t.Errorf("lunch flag = %q", p.Flag(ShiftLunch))
	}
}

func TestKitchen_LicenseActive(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	noLicense := Kitchen{CompanyName: "hotel-a", KitchenName: "main"}
	if !noLicense.LicenseActive(now) {
		t.Error("kitchen without expire date should be active")
	}

	expired := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	k := Kitchen{CompanyName: "hotel-a", KitchenName: "main", LicenseExpireDate: &expired}
	if k.LicenseActive(now) {
		t.Error("kitchen with past expire date should be inactive")
	}

	future := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	k.LicenseExpireDate = &future
	if !k.LicenseActive(now) {
		t.Error("kitchen with future expire date should be active")
	}
}

func TestBaselineWindow_Overlaps(t *testing.T) {
	w1 := BaselineWindow{
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
	}
	w2 := BaselineWindow{
		StartDate: time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC),
	}
	w3 := BaselineWindow{
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC),
	}

	if !w1.Overlaps(w2) {
		t.Error("windows sharing an endpoint should overlap")
	}
	if w1.Overlaps(w3) {
		t.Error("disjoint windows should not overlap")
	}
	if !w1.Covers(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)) {
		t.Error("window should cover a date inside it")
	}
}
