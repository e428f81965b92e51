package domain

import "strings"

// MatchConfidence describes how a validated component was matched to a
// real catalog product.
type MatchConfidence string

const (
	// MatchExact means the proposed name equals a candidate name.
	MatchExact MatchConfidence = "exact"
	// MatchFuzzy means the proposed name matched a candidate by containment.
	MatchFuzzy MatchConfidence = "fuzzy"
	// MatchFallback means no name matched and the category's first
	// candidate was substituted.
	MatchFallback MatchConfidence = "fallback"
	// MatchUnavailable means the category had no candidates at all.
	MatchUnavailable MatchConfidence = "unavailable"
)

// CandidateProduct is a read-only snapshot of a catalog entry retrieved
// for one pipeline invocation. It is never mutated after retrieval.
type CandidateProduct struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       Category `json:"category"`
	Manufacturer   string   `json:"manufacturer,omitempty"`
	Price          int64    `json:"price"`
	Image          string   `json:"image,omitempty"`
	PopularityRank int      `json:"popularityRank,omitempty"` // lower = more popular; <= 0 means unknown
}

// EstimateComponent is one line item of an estimate.
type EstimateComponent struct {
	Category     Category        `json:"category"`
	ProposedName string          `json:"proposedName,omitempty"` // raw name from the language model
	Name         string          `json:"name"`                   // authoritative post-reconciliation name
	Price        int64           `json:"price"`
	Description  string          `json:"description,omitempty"`
	Image        string          `json:"image,omitempty"`
	Confidence   MatchConfidence `json:"confidence,omitempty"`
}

// EstimateResult is the aggregate produced by one user turn. It is created
// fresh per turn and never mutated after validation; a new instance
// supersedes the prior one.
type EstimateResult struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Components  []EstimateComponent `json:"components"`
	TotalPrice  int64               `json:"totalPrice"`
	Notes       string              `json:"notes,omitempty"`
	FollowUps   []string            `json:"followUps,omitempty"`
}

// placeholder names the language model emits when it has nothing to propose.
var placeholderNames = map[string]struct{}{
	"":       {},
	"-":      {},
	"없음":     {},
	"추천 없음":  {},
	"미정":     {},
	"n/a":    {},
	"na":     {},
	"none":   {},
	"tbd":    {},
	"unknown": {},
}

// IsEmpty reports whether the estimate has no components.
func (r EstimateResult) IsEmpty() bool {
	return len(r.Components) == 0
}

// IsAllDefaults reports whether the estimate carries no real content:
// true when empty, and true when every component has a blank or
// placeholder name and zero price. Such results are conversational
// filler, not estimates worth persisting.
func (r EstimateResult) IsAllDefaults() bool {
	for _, component := range r.Components {
		if !isPlaceholderName(component.Name) || component.Price != 0 {
			return false
		}
	}
	return true
}

// ComputeTotal sums the component prices. The total carried on a raw
// reply is never trusted; this is the only source of truth.
func (r EstimateResult) ComputeTotal() int64 {
	var total int64
	for _, component := range r.Components {
		total += component.Price
	}
	return total
}

func isPlaceholderName(name string) bool {
	_, ok := placeholderNames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
