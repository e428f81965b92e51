package rag

import (
	"fmt"
	"strings"

	"pcbuild_backend/internal/chat/domain"
)

// Context is the ephemeral per-request grounding bundle: candidates grouped
// by canonical category, a rendered textual form for the language model,
// and a lookup map keyed by lowercased category for reconciliation. It is
// owned by one pipeline invocation and threaded through by value, never
// held as shared state.
type Context struct {
	Pool     map[domain.Category][]domain.CandidateProduct `json:"pool"`
	Fallback map[domain.Category]bool                      `json:"fallback,omitempty"`
	Missing  []domain.Category                             `json:"missing,omitempty"`
	Prompt   string                                        `json:"-"`
}

// Lookup returns the candidate list for a raw category label, normalizing
// it first. Used during reconciliation of parsed estimates.
func (c Context) Lookup(rawCategory string) []domain.CandidateProduct {
	return c.Pool[domain.Normalize(rawCategory)]
}

// BuildContext assembles retrieval results into the grounding payload for
// the language model: one block per canonical category, an explicit
// "no data" placeholder for empty categories, and an instruction block
// forbidding products outside the given lists. Deterministic given its
// input; no external calls.
func BuildContext(retrieved map[domain.Category]RetrievedCategory) Context {
	ragContext := Context{
		Pool:     make(map[domain.Category][]domain.CandidateProduct, len(retrieved)),
		Fallback: make(map[domain.Category]bool),
	}

	for _, category := range domain.Categories() {
		entry := retrieved[category]
		if len(entry.Candidates) == 0 {
			ragContext.Missing = append(ragContext.Missing, category)
			continue
		}
		ragContext.Pool[category] = entry.Candidates
		if entry.Fallback {
			ragContext.Fallback[category] = true
		}
	}

	ragContext.Prompt = RenderPrompt(ragContext)
	return ragContext
}

// RenderPrompt renders the pool into the textual grounding block. It is
// also used to rebuild the prompt of a pool loaded from cache, where only
// the structured fields survive serialization.
func RenderPrompt(ragContext Context) string {
	var builder strings.Builder
	builder.WriteString("다음은 카테고리별 실제 판매 중인 부품 목록입니다.\n")
	builder.WriteString("Available catalog products per category:\n\n")

	for _, category := range domain.Categories() {
		candidates := ragContext.Pool[category]
		if len(candidates) == 0 {
			fmt.Fprintf(&builder, "[%s]\n- 데이터 없음 (no data, do not recommend a %s)\n\n", category, category)
			continue
		}

		fmt.Fprintf(&builder, "[%s]\n", category)
		for _, candidate := range candidates {
			fmt.Fprintf(&builder, "- name: %s | price: %d | image: %s\n", candidate.Name, candidate.Price, candidate.Image)
		}
		builder.WriteString("\n")
	}

	builder.WriteString(contextInstructions)
	return builder.String()
}

// contextInstructions tells the model how to use the grounding lists.
// Names and prices must be copied verbatim, category tokens are the
// lowercase canonical set, and categories marked "no data" are skipped.
const contextInstructions = `RULES:
1. Recommend ONLY products from the lists above. Never invent a product.
2. Copy product names and prices verbatim from the list.
3. Use lowercase category tokens exactly as given (cpu, vga, ram, ssd, hdd, power, mainboard, cooler, case).
4. Skip every category marked "no data". Do not substitute or invent one.
5. Reply as JSON: {"title": string, "description": string, "components": [{"category": string, "name": string, "price": number, "description": string}], "notes": string, "followUps": [string]}.`
