package rag

import (
	"encoding/json"
	"regexp"
	"strings"

	"pcbuild_backend/internal/chat/domain"
)

// ReplyKind tags the parse outcome: a structured estimate or free-form
// conversation. Failure is a variant, never an error.
type ReplyKind string

const (
	// ReplyEstimate carries a structured draft estimate.
	ReplyEstimate ReplyKind = "estimate"
	// ReplyConversation carries the raw reply as a plain message.
	ReplyConversation ReplyKind = "conversation"
)

// Reply is the tagged result of parsing a language-model reply.
type Reply struct {
	Kind     ReplyKind
	Estimate domain.EstimateResult
	Message  string
}

// Conversational wraps free-form text in a Reply.
func Conversational(message string) Reply {
	return Reply{Kind: ReplyConversation, Message: message}
}

// Parse converts a raw language-model reply into a structured estimate.
// Strict JSON decoding is attempted first (accepting known field aliases),
// then a heuristic line-oriented parse. If neither yields a component the
// raw text is returned as a conversational reply. Parse never returns an
// error to the caller.
func Parse(rawReply string) (reply Reply) {
	// The model output is untrusted; a panic anywhere in parsing
	// degrades to the conversational fallback.
	defer func() {
		if r := recover(); r != nil {
			reply = Conversational(rawReply)
		}
	}()

	cleaned := stripCodeFences(rawReply)

	if estimate, ok := parseStructured(cleaned); ok {
		return Reply{Kind: ReplyEstimate, Estimate: estimate}
	}
	if estimate, ok := parseFreeform(cleaned); ok {
		return Reply{Kind: ReplyEstimate, Estimate: estimate}
	}

	return Conversational(rawReply)
}

var codeFenceRe = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")

func stripCodeFences(raw string) string {
	return strings.TrimSpace(codeFenceRe.ReplaceAllString(raw, ""))
}

// =============================================================================
// Strict structured parse
// =============================================================================

var (
	componentListAliases = []string{"components", "products", "parts", "items"}
	categoryAliases      = []string{"category", "type", "part"}
	productNameAliases   = []string{"name", "model", "product"}
	priceAliases         = []string{"price", "cost"}
	descriptionAliases   = []string{"description", "reason", "desc"}
	totalAliases         = []string{"total", "total_price", "totalPrice"}
	titleAliases         = []string{"title", "name", "build_name", "buildName"}
	notesAliases         = []string{"notes", "note", "comment"}
	followUpAliases      = []string{"followUps", "follow_ups", "questions", "suggestions"}
)

func parseStructured(cleaned string) (domain.EstimateResult, bool) {
	// The reply may wrap the JSON object in prose; decode the outermost
	// object if one is present.
	jsonText := extractJSONObject(cleaned)
	if jsonText == "" {
		return domain.EstimateResult{}, false
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return domain.EstimateResult{}, false
	}

	estimate := domain.EstimateResult{
		Title:       pickString(raw, titleAliases),
		Description: pickString(raw, descriptionAliases),
		Notes:       pickString(raw, notesAliases),
		FollowUps:   pickStringList(raw, followUpAliases),
	}

	for _, item := range pickList(raw, componentListAliases) {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		component := domain.EstimateComponent{
			Category:     domain.Normalize(pickString(entry, categoryAliases)),
			ProposedName: strings.TrimSpace(pickString(entry, productNameAliases)),
			Price:        domain.CoercePrice(pickValue(entry, priceAliases)),
			Description:  pickString(entry, descriptionAliases),
		}
		component.Name = component.ProposedName
		estimate.Components = append(estimate.Components, component)
	}

	if len(estimate.Components) == 0 {
		return domain.EstimateResult{}, false
	}

	if total := domain.CoercePrice(pickValue(raw, totalAliases)); total > 0 {
		estimate.TotalPrice = total
	} else {
		estimate.TotalPrice = estimate.ComputeTotal()
	}

	return estimate, true
}

func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func pickValue(raw map[string]any, aliases []string) any {
	for _, alias := range aliases {
		if value, ok := raw[alias]; ok && value != nil {
			return value
		}
	}
	return nil
}

func pickString(raw map[string]any, aliases []string) string {
	if value, ok := pickValue(raw, aliases).(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func pickList(raw map[string]any, aliases []string) []any {
	if value, ok := pickValue(raw, aliases).([]any); ok {
		return value
	}
	return nil
}

func pickStringList(raw map[string]any, aliases []string) []string {
	items := pickList(raw, aliases)
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text, ok := item.(string); ok && strings.TrimSpace(text) != "" {
			out = append(out, strings.TrimSpace(text))
		}
	}
	return out
}

// =============================================================================
// Heuristic free-text parse
// =============================================================================

// componentHeaderRe matches lines like "1. **CPU**: **Ryzen 5 5600X**" or
// "2) **그래픽카드** - RTX 4060". The first well-formed match wins; trailing
// text after the last component is ignored.
var componentHeaderRe = regexp.MustCompile(`^\s*\d+[.)]\s*\*\*([^*]+)\*\*\s*[:\-]?\s*(.*)$`)

var boldMarkerRe = regexp.MustCompile(`\*\*`)

func parseFreeform(cleaned string) (domain.EstimateResult, bool) {
	var estimate domain.EstimateResult
	var current *domain.EstimateComponent
	explicitTotal := int64(0)

	flush := func() {
		if current != nil {
			estimate.Components = append(estimate.Components, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(cleaned, "\n") {
		if match := componentHeaderRe.FindStringSubmatch(line); match != nil {
			flush()
			name := strings.TrimSpace(boldMarkerRe.ReplaceAllString(match[2], ""))
			current = &domain.EstimateComponent{
				Category:     domain.Normalize(match[1]),
				ProposedName: name,
				Name:         name,
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		lowered := strings.ToLower(trimmed)

		switch {
		case current != nil && (strings.Contains(trimmed, "가격") || strings.Contains(lowered, "price")):
			current.Price = domain.CoercePrice(afterMarker(trimmed))
		case current != nil && (strings.Contains(trimmed, "설명") || strings.Contains(lowered, "description")):
			current.Description = strings.TrimSpace(afterMarker(trimmed))
		case strings.Contains(trimmed, "총") || strings.Contains(lowered, "total"):
			if total := domain.CoercePrice(afterMarker(trimmed)); total > 0 {
				explicitTotal = total
			}
		}
	}
	flush()

	if len(estimate.Components) == 0 {
		return domain.EstimateResult{}, false
	}

	if explicitTotal > 0 {
		estimate.TotalPrice = explicitTotal
	} else {
		estimate.TotalPrice = estimate.ComputeTotal()
	}

	return estimate, true
}

// afterMarker returns the value part of a "label: value" line; the whole
// line when no separator is present.
func afterMarker(line string) string {
	for _, sep := range []string{":", "-", "："} {
		if idx := strings.Index(line, sep); idx >= 0 {
			return strings.TrimSpace(line[idx+len(sep):])
		}
	}
	return line
}
