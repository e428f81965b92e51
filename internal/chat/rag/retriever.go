// Package rag implements the retrieval-augmented estimate pipeline:
// candidate retrieval, grounding context construction, reply parsing,
// and validation of parsed estimates against the retrieved pool.
package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pcbuild_backend/internal/chat/domain"
	"pcbuild_backend/platform/logger"
	"pcbuild_backend/platform/qdrant"
)

const (
	primaryTopK  = 200
	categoryTopK = 100
	widenedTopK  = 300

	retrieveTimeout = 10 * time.Second
)

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher performs similarity search over the product collection.
// *qdrant.Client satisfies this.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, limit int, filter *qdrant.Filter) ([]qdrant.SearchResult, error)
}

// RetrievedCategory holds one category's candidates plus a low-confidence
// marker set when the candidates came from the widened popularity fallback.
type RetrievedCategory struct {
	Candidates []domain.CandidateProduct
	Fallback   bool
}

// Retriever finds real catalog candidates per category for one user turn.
type Retriever struct {
	embedder Embedder
	searcher VectorSearcher
	log      *logger.Logger
}

// NewRetriever creates a candidate retriever.
func NewRetriever(embedder Embedder, searcher VectorSearcher, log *logger.Logger) *Retriever {
	return &Retriever{embedder: embedder, searcher: searcher, log: log}
}

// RetrieveAll fans out over the canonical category set. Retrievals run
// concurrently; a single category's failure or timeout yields an empty
// result for that category only and never aborts the others.
func (r *Retriever) RetrieveAll(ctx context.Context, userInput string) map[domain.Category]RetrievedCategory {
	ctx, cancel := context.WithTimeout(ctx, retrieveTimeout)
	defer cancel()

	results := make(map[domain.Category]RetrievedCategory, len(domain.Categories()))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	for _, category := range domain.Categories() {
		group.Go(func() error {
			retrieved := r.Retrieve(groupCtx, userInput, category)
			mu.Lock()
			results[category] = retrieved
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	return results
}

// Retrieve runs the staged search for one category, stopping at the first
// stage that yields a usable candidate set:
//
//  1. similarity search on "userInput category", filtered to usable
//     candidates of the target category;
//  2. retry with the bare category name as query text;
//  3. widened global search, keeping the single most popular candidate
//     matching the category (tagged low-confidence);
//  4. empty — the caller marks the category unavailable, never fabricates.
//
// Search errors are swallowed per category: a vector-store failure for one
// category is an empty result, not a turn failure.
func (r *Retriever) Retrieve(ctx context.Context, userInput string, category domain.Category) RetrievedCategory {
	primary, err := r.search(ctx, userInput+" "+string(category), primaryTopK)
	if err != nil {
		r.log.Warn("candidate search failed", "category", category, "error", err)
		return RetrievedCategory{}
	}
	if candidates := filterCandidates(primary, category); len(candidates) > 0 {
		return RetrievedCategory{Candidates: candidates}
	}

	byName, err := r.search(ctx, string(category), categoryTopK)
	if err != nil {
		r.log.Warn("category-name search failed", "category", category, "error", err)
		return RetrievedCategory{}
	}
	if candidates := filterCandidates(byName, category); len(candidates) > 0 {
		return RetrievedCategory{Candidates: candidates}
	}

	widened, err := r.search(ctx, userInput, widenedTopK)
	if err != nil {
		r.log.Warn("widened search failed", "category", category, "error", err)
		return RetrievedCategory{}
	}
	if best, ok := mostPopular(filterCandidates(widened, category)); ok {
		return RetrievedCategory{Candidates: []domain.CandidateProduct{best}, Fallback: true}
	}

	r.log.Warn("no candidates found for category", "category", category)
	return RetrievedCategory{}
}

func (r *Retriever) search(ctx context.Context, query string, topK int) ([]qdrant.SearchResult, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := r.searcher.Search(ctx, vector, topK, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}

// filterCandidates applies the usability filters in order: priced entries
// only, the hdd denylist, then the category metadata match (with the
// vga/gpu cross-alias).
func filterCandidates(results []qdrant.SearchResult, category domain.Category) []domain.CandidateProduct {
	candidates := make([]domain.CandidateProduct, 0, len(results))
	for _, result := range results {
		candidate := decodeCandidate(result)
		if candidate.Price <= 0 || pricePending(result.Payload) {
			continue
		}
		if category == domain.CategoryHDD && domain.HDDDenied(candidate.Name) {
			continue
		}
		if !category.Matches(string(candidate.Category)) {
			continue
		}
		candidate.Category = category
		candidates = append(candidates, candidate)
	}
	return candidates
}

func mostPopular(candidates []domain.CandidateProduct) (domain.CandidateProduct, bool) {
	var best domain.CandidateProduct
	found := false
	for _, candidate := range candidates {
		if candidate.PopularityRank <= 0 {
			continue
		}
		if !found || candidate.PopularityRank < best.PopularityRank {
			best = candidate
			found = true
		}
	}
	if !found && len(candidates) > 0 {
		// No ranks in payload at all; first (highest-scoring) entry stands in.
		return candidates[0], true
	}
	return best, found
}

func decodeCandidate(result qdrant.SearchResult) domain.CandidateProduct {
	payload := result.Payload
	return domain.CandidateProduct{
		ID:             fmt.Sprintf("%v", result.ID),
		Name:           payloadString(payload, "name"),
		Category:       domain.Normalize(payloadString(payload, "category")),
		Manufacturer:   payloadString(payload, "manufacturer"),
		Price:          domain.CoercePrice(payload["price"]),
		Image:          payloadString(payload, "image"),
		PopularityRank: payloadInt(payload, "popularity_rank"),
	}
}

func payloadInt(payload map[string]any, key string) int {
	switch value := payload[key].(type) {
	case float64:
		return int(value)
	case int:
		return value
	case int64:
		return int(value)
	default:
		return 0
	}
}

func pricePending(payload map[string]any) bool {
	pending, ok := payload["price_pending"].(bool)
	return ok && pending
}

func payloadString(payload map[string]any, key string) string {
	value, ok := payload[key].(string)
	if !ok {
		return ""
	}
	return value
}
