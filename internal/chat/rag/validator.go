package rag

import (
	"strings"

	"pcbuild_backend/internal/chat/domain"
)

// Validate reconciles a parsed draft estimate against the retrieved
// candidate pool. Every component is re-anchored to a real catalog
// product: names and prices are replaced with the candidate's
// authoritative values, drafts naming products outside the pool fall
// back to the category's first candidate, and components for categories
// with no candidates are dropped. The total is always recomputed. The
// draft's descriptions survive; they are the model's contribution.
func Validate(draft domain.EstimateResult, pool Context) domain.EstimateResult {
	validated := domain.EstimateResult{
		Title:       draft.Title,
		Description: draft.Description,
		Notes:       draft.Notes,
		FollowUps:   draft.FollowUps,
	}

	seen := make(map[domain.Category]bool, len(draft.Components))
	for _, component := range draft.Components {
		category := domain.Normalize(string(component.Category))
		if seen[category] {
			continue
		}

		candidates := pool.Pool[category]
		if len(candidates) == 0 {
			continue
		}
		seen[category] = true

		candidate, confidence := matchCandidate(component.ProposedName, candidates)
		if pool.Fallback[category] && confidence != domain.MatchUnavailable {
			confidence = domain.MatchFallback
		}

		validated.Components = append(validated.Components, domain.EstimateComponent{
			Category:     category,
			ProposedName: component.ProposedName,
			Name:         candidate.Name,
			Price:        candidate.Price,
			Description:  component.Description,
			Image:        candidate.Image,
			Confidence:   confidence,
		})
	}

	validated.TotalPrice = validated.ComputeTotal()
	return validated
}

// matchCandidate finds the pool entry for a proposed name. Comparison is
// case-insensitive with spaces stripped, so "RTX4060" matches
// "RTX 4060 Gaming". Exact equality wins over containment; when nothing
// matches, the first (highest-scoring) candidate is substituted.
func matchCandidate(proposedName string, candidates []domain.CandidateProduct) (domain.CandidateProduct, domain.MatchConfidence) {
	proposed := foldName(proposedName)
	if proposed == "" {
		return candidates[0], domain.MatchFallback
	}

	for _, candidate := range candidates {
		if foldName(candidate.Name) == proposed {
			return candidate, domain.MatchExact
		}
	}

	for _, candidate := range candidates {
		folded := foldName(candidate.Name)
		if strings.Contains(folded, proposed) || strings.Contains(proposed, folded) {
			return candidate, domain.MatchFuzzy
		}
	}

	return candidates[0], domain.MatchFallback
}

func foldName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
}
