package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pcbuild_backend/internal/chat/domain"
	"pcbuild_backend/platform/logger"
	"pcbuild_backend/platform/qdrant"
)

type fakeEmbedder struct {
	err error
}

func (f fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text))}, nil
}

// fakeSearcher replays canned results keyed by query substring. Because the
// fake embedder encodes query length into the vector, stagedSearcher below
// distinguishes stages by call order instead.
type stagedSearcher struct {
	stages [][]qdrant.SearchResult
	calls  int
	err    error
}

func (s *stagedSearcher) Search(_ context.Context, _ []float32, _ int, _ *qdrant.Filter) ([]qdrant.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.calls >= len(s.stages) {
		return nil, nil
	}
	results := s.stages[s.calls]
	s.calls++
	return results, nil
}

func candidatePayload(name, category string, price int64, rank int) map[string]any {
	payload := map[string]any{
		"name":     name,
		"category": category,
		"price":    float64(price),
	}
	if rank > 0 {
		payload["popularity_rank"] = float64(rank)
	}
	return payload
}

func TestRetrieve_PrimaryStageWins(t *testing.T) {
	searcher := &stagedSearcher{stages: [][]qdrant.SearchResult{
		{
			{ID: "p1", Payload: candidatePayload("Ryzen 5 5600X", "cpu", 180000, 3)},
			{ID: "p2", Payload: candidatePayload("RTX 4060", "vga", 450000, 1)},
		},
	}}

	retriever := NewRetriever(fakeEmbedder{}, searcher, logger.New("development"))
	got := retriever.Retrieve(context.Background(), "게이밍 컴퓨터", domain.CategoryCPU)

	if got.Fallback {
		t.Fatal("primary stage result must not be tagged fallback")
	}
	if len(got.Candidates) != 1 || got.Candidates[0].Name != "Ryzen 5 5600X" {
		t.Fatalf("expected the cpu candidate only, got %+v", got.Candidates)
	}
	if searcher.calls != 1 {
		t.Fatalf("expected 1 search call, got %d", searcher.calls)
	}
}

func TestRetrieve_FallsBackToCategoryNameSearch(t *testing.T) {
	searcher := &stagedSearcher{stages: [][]qdrant.SearchResult{
		nil,
		{{ID: "p3", Payload: candidatePayload("Samsung 980 1TB", "ssd", 95000, 0)}},
	}}

	retriever := NewRetriever(fakeEmbedder{}, searcher, logger.New("development"))
	got := retriever.Retrieve(context.Background(), "사무용 pc", domain.CategorySSD)

	if got.Fallback {
		t.Fatal("second stage result must not be tagged fallback")
	}
	if len(got.Candidates) != 1 || got.Candidates[0].Name != "Samsung 980 1TB" {
		t.Fatalf("expected ssd candidate from second stage, got %+v", got.Candidates)
	}
	if searcher.calls != 2 {
		t.Fatalf("expected 2 search calls, got %d", searcher.calls)
	}
}

func TestRetrieve_WidenedStagePicksMostPopular(t *testing.T) {
	searcher := &stagedSearcher{stages: [][]qdrant.SearchResult{
		nil,
		nil,
		{
			{ID: "p4", Payload: candidatePayload("be quiet! Pure Rock 2", "cooler", 55000, 7)},
			{ID: "p5", Payload: candidatePayload("Hyper 212", "cooler", 45000, 2)},
		},
	}}

	retriever := NewRetriever(fakeEmbedder{}, searcher, logger.New("development"))
	got := retriever.Retrieve(context.Background(), "조용한 pc", domain.CategoryCooler)

	if !got.Fallback {
		t.Fatal("widened stage result must be tagged fallback")
	}
	if len(got.Candidates) != 1 || got.Candidates[0].Name != "Hyper 212" {
		t.Fatalf("expected the most popular cooler, got %+v", got.Candidates)
	}
}

func TestRetrieve_EmptyWhenNothingMatches(t *testing.T) {
	searcher := &stagedSearcher{}
	retriever := NewRetriever(fakeEmbedder{}, searcher, logger.New("development"))

	got := retriever.Retrieve(context.Background(), "입력", domain.CategoryCase)
	if len(got.Candidates) != 0 {
		t.Fatalf("expected no candidates, got %+v", got.Candidates)
	}
}

func TestRetrieve_SearchErrorYieldsEmptyResult(t *testing.T) {
	searcher := &stagedSearcher{err: errors.New("connection refused")}
	retriever := NewRetriever(fakeEmbedder{}, searcher, logger.New("development"))

	got := retriever.Retrieve(context.Background(), "입력", domain.CategoryRAM)
	if len(got.Candidates) != 0 || got.Fallback {
		t.Fatalf("search failure must yield an empty result, got %+v", got)
	}
}

func TestRetrieveAll_IsolatesCategoryFailures(t *testing.T) {
	retriever := NewRetriever(fakeEmbedder{err: errors.New("embedding service down")}, &stagedSearcher{}, logger.New("development"))

	results := retriever.RetrieveAll(context.Background(), "게이밍 pc")
	if len(results) != len(domain.Categories()) {
		t.Fatalf("expected an entry per category, got %d", len(results))
	}
	for category, entry := range results {
		if len(entry.Candidates) != 0 {
			t.Errorf("category %s should be empty when embedding fails", category)
		}
	}
}

func TestFilterCandidates(t *testing.T) {
	results := []qdrant.SearchResult{
		{ID: "1", Payload: candidatePayload("Seagate Barracuda 2TB", "hdd", 75000, 0)},
		{ID: "2", Payload: candidatePayload("WD Red NAS 4TB", "hdd", 140000, 0)},
		{ID: "3", Payload: candidatePayload("Toshiba Surveillance 1TB", "hdd", 60000, 0)},
		{ID: "4", Payload: candidatePayload("Free Drive", "hdd", 0, 0)},
		{ID: "5", Payload: candidatePayload("RTX 4060", "vga", 450000, 0)},
	}

	candidates := filterCandidates(results, domain.CategoryHDD)
	if len(candidates) != 1 {
		t.Fatalf("expected exactly the desktop hdd, got %+v", candidates)
	}
	if candidates[0].Name != "Seagate Barracuda 2TB" {
		t.Fatalf("unexpected survivor: %s", candidates[0].Name)
	}
}

func TestFilterCandidates_PricePending(t *testing.T) {
	payload := candidatePayload("Ryzen 7 5700X", "cpu", 250000, 0)
	payload["price_pending"] = true

	candidates := filterCandidates([]qdrant.SearchResult{{ID: "1", Payload: payload}}, domain.CategoryCPU)
	if len(candidates) != 0 {
		t.Fatalf("price-pending entries must be filtered, got %+v", candidates)
	}
}

func TestFilterCandidates_CrossAlias(t *testing.T) {
	results := []qdrant.SearchResult{
		{ID: "1", Payload: candidatePayload("RTX 4060 Gaming", "gpu", 450000, 0)},
	}

	candidates := filterCandidates(results, domain.CategoryVGA)
	if len(candidates) != 1 {
		t.Fatal("gpu-tagged candidate must satisfy a vga retrieval")
	}
	if candidates[0].Category != domain.CategoryVGA {
		t.Fatalf("candidate category must be rewritten to the target, got %s", candidates[0].Category)
	}
}

func TestMostPopular_NoRanksFallsBackToFirst(t *testing.T) {
	candidates := []domain.CandidateProduct{
		{Name: "First by score"},
		{Name: "Second"},
	}
	best, ok := mostPopular(candidates)
	if !ok || best.Name != "First by score" {
		t.Fatalf("expected first candidate when no ranks present, got %+v ok=%v", best, ok)
	}

	if _, ok := mostPopular(nil); ok {
		t.Fatal("empty candidate list must report not found")
	}
}

func TestDecodeCandidate_NormalizesCategory(t *testing.T) {
	result := qdrant.SearchResult{ID: 42, Payload: map[string]any{
		"name":     "G.SKILL Ripjaws 16GB",
		"category": "메모리",
		"price":    "89,000원",
	}}

	candidate := decodeCandidate(result)
	if candidate.Category != domain.CategoryRAM {
		t.Fatalf("expected ram, got %s", candidate.Category)
	}
	if candidate.Price != 89000 {
		t.Fatalf("expected coerced price 89000, got %d", candidate.Price)
	}
	if !strings.HasPrefix(candidate.ID, "42") {
		t.Fatalf("expected stringified id, got %q", candidate.ID)
	}
}
