package domain

import "testing"

func TestEstimateResult_IsEmpty(t *testing.T) {
	var empty EstimateResult
	if !empty.IsEmpty() {
		t.Fatal("estimate with no components must be empty")
	}

	filled := EstimateResult{Components: []EstimateComponent{{Category: CategoryCPU, Name: "Ryzen 5 5600X", Price: 180000}}}
	if filled.IsEmpty() {
		t.Fatal("estimate with a component must not be empty")
	}
}

func TestEstimateResult_IsAllDefaults(t *testing.T) {
	var empty EstimateResult
	if !empty.IsAllDefaults() {
		t.Fatal("empty estimate must be all-defaults")
	}

	placeholders := EstimateResult{Components: []EstimateComponent{
		{Category: CategoryCPU, Name: "", Price: 0},
		{Category: CategoryVGA, Name: "추천 없음", Price: 0},
		{Category: CategoryRAM, Name: "N/A", Price: 0},
	}}
	if !placeholders.IsAllDefaults() {
		t.Fatal("all-placeholder estimate must be all-defaults")
	}

	real := EstimateResult{Components: []EstimateComponent{
		{Category: CategoryCPU, Name: "", Price: 0},
		{Category: CategoryVGA, Name: "RTX 4060", Price: 450000},
	}}
	if real.IsAllDefaults() {
		t.Fatal("estimate with a priced real component must not be all-defaults")
	}
}

func TestEstimateResult_ComputeTotal(t *testing.T) {
	result := EstimateResult{Components: []EstimateComponent{
		{Category: CategoryCPU, Name: "Ryzen 5 5600X", Price: 180000},
		{Category: CategoryVGA, Name: "RTX 4060", Price: 450000},
	}}
	if got := result.ComputeTotal(); got != 630000 {
		t.Fatalf("expected total 630000, got %d", got)
	}
}
