package rag

import (
	"reflect"
	"testing"

	"pcbuild_backend/internal/chat/domain"
)

func testPool() Context {
	return Context{
		Pool: map[domain.Category][]domain.CandidateProduct{
			domain.CategoryCPU: {
				{ID: "c1", Name: "AMD Ryzen 5 5600X", Price: 180000, Image: "cpu.jpg"},
				{ID: "c2", Name: "Intel Core i5-12400F", Price: 210000},
			},
			domain.CategoryVGA: {
				{ID: "v1", Name: "RTX 4060 Gaming", Price: 450000, Image: "vga.jpg"},
			},
			domain.CategoryRAM: {
				{ID: "r1", Name: "G.SKILL Ripjaws 16GB", Price: 89000},
			},
		},
		Fallback: map[domain.Category]bool{},
	}
}

func TestValidate_ExactMatchKeepsAuthoritativeValues(t *testing.T) {
	draft := domain.EstimateResult{
		Title: "게이밍 PC",
		Components: []domain.EstimateComponent{
			{Category: domain.CategoryCPU, ProposedName: "amd ryzen 5 5600x", Price: 999},
		},
	}

	validated := Validate(draft, testPool())
	if len(validated.Components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(validated.Components))
	}
	component := validated.Components[0]
	if component.Confidence != domain.MatchExact {
		t.Fatalf("case-insensitive equality must be exact, got %s", component.Confidence)
	}
	if component.Name != "AMD Ryzen 5 5600X" || component.Price != 180000 {
		t.Fatalf("candidate name and price must win over the draft, got %+v", component)
	}
	if component.Image != "cpu.jpg" {
		t.Fatalf("candidate image must be attached, got %q", component.Image)
	}
	if validated.TotalPrice != 180000 {
		t.Fatalf("total must be recomputed, got %d", validated.TotalPrice)
	}
}

func TestValidate_FuzzyMatchBySpaceStrippedContainment(t *testing.T) {
	draft := domain.EstimateResult{Components: []domain.EstimateComponent{
		{Category: domain.CategoryVGA, ProposedName: "RTX4060", Price: 1},
	}}

	validated := Validate(draft, testPool())
	component := validated.Components[0]
	if component.Confidence != domain.MatchFuzzy {
		t.Fatalf("RTX4060 must fuzzy-match RTX 4060 Gaming, got %s", component.Confidence)
	}
	if component.Name != "RTX 4060 Gaming" || component.Price != 450000 {
		t.Fatalf("unexpected reconciled component %+v", component)
	}
}

func TestValidate_UnknownNameFallsBackToFirstCandidate(t *testing.T) {
	draft := domain.EstimateResult{Components: []domain.EstimateComponent{
		{Category: domain.CategoryCPU, ProposedName: "Ryzen 9 9950X3D", Price: 700000},
	}}

	validated := Validate(draft, testPool())
	component := validated.Components[0]
	if component.Confidence != domain.MatchFallback {
		t.Fatalf("unlisted product must fall back, got %s", component.Confidence)
	}
	if component.Name != "AMD Ryzen 5 5600X" {
		t.Fatalf("fallback must substitute the first candidate, got %q", component.Name)
	}
	if component.ProposedName != "Ryzen 9 9950X3D" {
		t.Fatal("the proposed name must be preserved for auditing")
	}
}

func TestValidate_DropsCategoriesWithoutCandidates(t *testing.T) {
	draft := domain.EstimateResult{Components: []domain.EstimateComponent{
		{Category: domain.CategoryCPU, ProposedName: "AMD Ryzen 5 5600X"},
		{Category: domain.CategoryCooler, ProposedName: "Hyper 212"},
	}}

	validated := Validate(draft, testPool())
	if len(validated.Components) != 1 {
		t.Fatalf("component for an unavailable category must be dropped, got %+v", validated.Components)
	}
	if validated.Components[0].Category != domain.CategoryCPU {
		t.Fatalf("unexpected surviving component %+v", validated.Components[0])
	}
}

func TestValidate_NormalizesDraftCategories(t *testing.T) {
	draft := domain.EstimateResult{Components: []domain.EstimateComponent{
		{Category: "그래픽카드", ProposedName: "RTX 4060 Gaming"},
	}}

	validated := Validate(draft, testPool())
	if len(validated.Components) != 1 || validated.Components[0].Category != domain.CategoryVGA {
		t.Fatalf("synonym category must reconcile against the vga pool, got %+v", validated.Components)
	}
}

func TestValidate_DeduplicatesCategories(t *testing.T) {
	draft := domain.EstimateResult{Components: []domain.EstimateComponent{
		{Category: domain.CategoryRAM, ProposedName: "G.SKILL Ripjaws 16GB"},
		{Category: "메모리", ProposedName: "다른 램"},
	}}

	validated := Validate(draft, testPool())
	if len(validated.Components) != 1 {
		t.Fatalf("duplicate categories must collapse to the first, got %+v", validated.Components)
	}
}

func TestValidate_FallbackPoolTagPropagates(t *testing.T) {
	pool := testPool()
	pool.Fallback[domain.CategoryRAM] = true

	draft := domain.EstimateResult{Components: []domain.EstimateComponent{
		{Category: domain.CategoryRAM, ProposedName: "G.SKILL Ripjaws 16GB"},
	}}

	validated := Validate(draft, pool)
	if validated.Components[0].Confidence != domain.MatchFallback {
		t.Fatalf("low-confidence pool must tag the component fallback, got %s", validated.Components[0].Confidence)
	}
}

func TestValidate_NeverEmitsProductsOutsidePool(t *testing.T) {
	draft := domain.EstimateResult{Components: []domain.EstimateComponent{
		{Category: domain.CategoryCPU, ProposedName: "존재하지 않는 CPU"},
		{Category: domain.CategoryVGA, ProposedName: "환각 그래픽카드"},
		{Category: domain.CategoryRAM, ProposedName: ""},
	}}

	pool := testPool()
	known := make(map[string]bool)
	for _, candidates := range pool.Pool {
		for _, candidate := range candidates {
			known[candidate.Name] = true
		}
	}

	validated := Validate(draft, pool)
	for _, component := range validated.Components {
		if !known[component.Name] {
			t.Fatalf("validated name %q is not in the candidate pool", component.Name)
		}
	}
}

func TestValidate_IsIdempotent(t *testing.T) {
	draft := domain.EstimateResult{
		Title: "구성",
		Components: []domain.EstimateComponent{
			{Category: domain.CategoryCPU, ProposedName: "Intel Core i5-12400F", Description: "인텔 구성"},
			{Category: domain.CategoryVGA, ProposedName: "RTX4060"},
		},
	}

	pool := testPool()
	once := Validate(draft, pool)
	twice := Validate(once, pool)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("validating a validated estimate must be a no-op:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestValidate_TotalIgnoresDraftTotal(t *testing.T) {
	draft := domain.EstimateResult{
		TotalPrice: 9999999,
		Components: []domain.EstimateComponent{
			{Category: domain.CategoryCPU, ProposedName: "AMD Ryzen 5 5600X"},
			{Category: domain.CategoryVGA, ProposedName: "RTX 4060 Gaming"},
		},
	}

	validated := Validate(draft, testPool())
	if validated.TotalPrice != 630000 {
		t.Fatalf("total must be the sum of reconciled prices, got %d", validated.TotalPrice)
	}
}
