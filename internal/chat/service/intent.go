package service

import "strings"

// Intent is the routing decision for one user turn.
type Intent string

const (
	// IntentConversation skips retrieval and validation; the reply passes
	// through verbatim.
	IntentConversation Intent = "conversation"
	// IntentBuildNew runs the full retrieval pipeline from scratch.
	IntentBuildNew Intent = "build_new"
	// IntentReconfigure adjusts the session's previous estimate.
	IntentReconfigure Intent = "reconfigure"
)

// Keyword tables for the intent heuristic. This is deliberately a small
// keyword match, not a classifier; edge phrasings may misroute and the
// pipeline stays correct either way.
var (
	reconfigureKeywords = []string{
		"다시", "수정", "변경", "업그레이드",
		"again", "modify", "change", "upgrade", "instead",
	}
	estimateKeywords = []string{
		"견적", "조립", "추천", "컴퓨터", "사양",
		"pc", "build", "estimate", "spec",
	}
)

// ClassifyIntent routes a user turn. Reconfiguration keywords route to
// IntentReconfigure only when the session already has an estimate;
// otherwise they count as a new build request. Text without any
// estimate-indicating keyword is plain conversation.
func ClassifyIntent(userText string, hasPriorEstimate bool) Intent {
	lowered := strings.ToLower(userText)

	if containsAny(lowered, reconfigureKeywords) {
		if hasPriorEstimate {
			return IntentReconfigure
		}
		return IntentBuildNew
	}
	if containsAny(lowered, estimateKeywords) {
		return IntentBuildNew
	}
	return IntentConversation
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
