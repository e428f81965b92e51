package domain

import (
	"strconv"
	"strings"
)

// CoercePrice converts a price value of unknown shape (number, numeric
// string, "450,000원", nil) into a non-negative integer amount in KRW.
// Unparseable or negative input coerces to 0 — the pipeline treats a
// missing price as zero rather than erroring.
func CoercePrice(value any) int64 {
	switch typed := value.(type) {
	case nil:
		return 0
	case int:
		return clampPrice(int64(typed))
	case int64:
		return clampPrice(typed)
	case float64:
		return clampPrice(int64(typed))
	case float32:
		return clampPrice(int64(typed))
	case string:
		return parsePriceString(typed)
	default:
		return 0
	}
}

func parsePriceString(raw string) int64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}

	if parsed, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return clampPrice(parsed)
	}
	if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return clampPrice(int64(parsed))
	}

	// Extract the digit run from formatted prices like "450,000원" or
	// "₩1,200,000". A leading minus still coerces to 0 via clamp.
	negative := strings.HasPrefix(trimmed, "-")
	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}

	parsed, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	if negative {
		return 0
	}
	return parsed
}

func clampPrice(price int64) int64 {
	if price < 0 {
		return 0
	}
	return price
}
