package repository

import (
	"testing"

	"github.com/lightblue/foodwaste/pkg/model"
)

func TestParseExclusions(t *testing.T) {
	exclusions := ParseExclusions([]string{
		"demo-kitchen@hotel-a",
		" trial-kitchen ",
		"",
		"@hotel-b",
	})

	if len(exclusions) != 2 {
		t.Fatalf("expected 2 exclusions, got %d", len(exclusions))
	}
	if exclusions[0].KitchenName != "demo-kitchen" || exclusions[0].CompanyName != "hotel-a" {
		t.Errorf("pair entry = %+v", exclusions[0])
	}
	if exclusions[1].KitchenName != "trial-kitchen" || exclusions[1].CompanyName != "" {
		t.Errorf("kitchen-only entry = %+v", exclusions[1])
	}
}

func TestFilter_Excluded(t *testing.T) {
	filter := Filter{Exclude: []Exclusion{
		{KitchenName: "demo-kitchen", CompanyName: "hotel-a"},
		{KitchenName: "trial-kitchen"},
	}}

	tests := []struct {
		name     string
		company  string
		kitchen  string
		expected bool
	}{
		{"公司厨房都匹配", "hotel-a", "demo-kitchen", true},
		{"同名厨房不同公司", "hotel-b", "demo-kitchen", false},
		{"不限公司的排除项", "hotel-b", "trial-kitchen", true},
		{"未列出的厨房", "hotel-a", "main-kitchen", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.Excluded(tt.company, tt.kitchen); got != tt.expected {
				t.Errorf("Excluded(%s, %s) = %v, expected %v", tt.company, tt.kitchen, got, tt.expected)
			}
		})
	}
}

func TestKeepKeyed(t *testing.T) {
	entries := []model.WasteEntry{
		{CompanyName: "hotel-a", KitchenName: "main"},
		{CompanyName: "hotel-a", KitchenName: "demo-kitchen"},
		{CompanyName: "hotel-b", KitchenName: "main"},
	}
	allowed := map[model.KitchenKey]struct{}{
		{CompanyName: "hotel-a", KitchenName: "main"}: {},
		{CompanyName: "hotel-b", KitchenName: "main"}: {},
	}

	kept := KeepKeyed(entries, allowed)

	if len(kept) != 2 {
		t.Fatalf("expected 2 entries kept, got %d", len(kept))
	}
	for _, e := range kept {
		if e.KitchenName == "demo-kitchen" {
			t.Error("excluded kitchen must not survive filtering")
		}
	}
}
