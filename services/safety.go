package services

import (
	"regexp"
	"strings"
)

// Phrases that immediately fail the content gate, matched case-insensitively
// as substrings. Grouped: synthesis/manufacturing instructions, explicit
// dosage recommendations, recreational-abuse guidance.
var dangerousPhrases = []string{
	// Synthesis & manufacturing
	"synthesize",
	"synthesis procedure",
	"lab synthesis",
	"chemical synthesis",
	"prepare in lab",
	"laboratory preparation",
	"step-by-step synthesis",
	"molecular synthesis",
	"how to make",
	"how to prepare",
	"manufacturing process",
	"production method",
	// Explicit dosage recommendations
	"take x mg",
	"mg per day",
	"mg/kg",
	"specific dosage",
	"exact dose",
	"recommended dose",
	// Abuse guidance
	"safe to abuse",
	"recreational use",
	"how to get high",
	"street value",
	"illegal use",
}

// Words that mark a quantity mention as general guidance rather than a
// concrete dosage recommendation.
var safeContextWords = []string{
	"consult",
	"healthcare",
	"professional",
	"doctor",
	"physician",
	"prescribed",
	"general",
	"information",
}

var dosagePattern = regexp.MustCompile(`(?i)\b\d+\s*(mg|g|ml|milligram|gram|milliliter)\b`)

// IsSafeContent is the best-effort keyword/pattern gate applied to every
// free-text field before persistence. It denies text containing a denylisted
// phrase, and denies numeric quantity-plus-unit mentions unless a safe-context
// word appears somewhere in the text. It is a heuristic, not semantic
// understanding; false positives and negatives are accepted.
func IsSafeContent(text string) bool {
	lower := strings.ToLower(text)

	for _, phrase := range dangerousPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}

	if dosagePattern.MatchString(text) {
		for _, word := range safeContextWords {
			if strings.Contains(lower, word) {
				return true
			}
		}
		return false
	}

	return true
}
