package sentiment

import (
	"strings"

	"replypilot/backend/internal/models"
)

// Result is the outcome of classifying one review
type Result struct {
	Label   string
	Score   float64
	Signals []string
}

var positiveKeywords = []string{
	"great", "excellent", "amazing", "wonderful", "fantastic", "love",
	"loved", "best", "friendly", "delicious", "perfect", "awesome",
	"recommend", "helpful", "clean", "fast",
}

var negativeKeywords = []string{
	"bad", "terrible", "awful", "horrible", "worst", "rude", "slow",
	"dirty", "cold", "disappointed", "disappointing", "overpriced",
	"never again", "waste", "poor", "unacceptable",
}

// escalationCategories maps a category name to the phrases that trigger it.
// Matching is substring-based over the lowercased text, same as the keyword
// scan, so multi-word phrases work.
var escalationCategories = map[string][]string{
	"health_safety": {
		"food poisoning", "sick", "allergic", "allergy",
		"hospital", "injury", "injured", "unsafe", "health code",
	},
	"legal_threat": {
		"lawyer", "attorney", "sue", "suing", "lawsuit", "legal action",
		"report you", "better business bureau", "health department",
	},
	"discrimination": {
		"discriminat", "racist", "racism", "sexist", "harass",
	},
	"refund_demand": {
		"refund", "money back", "chargeback", "charge back",
	},
	"extreme_negative": {
		"disgusting", "vile", "atrocious", "never ever", "stay away",
		"do not go", "don't go",
	},
}

const (
	textAdjustmentStep = 0.05
	maxKeywordDelta    = 4
	labelThreshold     = 0.1
)

// Classify scores a review from its star rating and text. It is
// deterministic and does no I/O, so re-running it on a retry is safe.
func Classify(rating int, text string) Result {
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}

	// Base score from the star rating, in [-1, 1].
	score := float64(rating-3) / 2

	lower := strings.ToLower(text)
	posCount := countMatches(lower, positiveKeywords)
	negCount := countMatches(lower, negativeKeywords)

	delta := posCount - negCount
	if delta > maxKeywordDelta {
		delta = maxKeywordDelta
	}
	if delta < -maxKeywordDelta {
		delta = -maxKeywordDelta
	}
	score += float64(delta) * textAdjustmentStep

	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}

	label := models.SentimentNeutral
	if score > labelThreshold {
		label = models.SentimentPositive
	} else if score < -labelThreshold {
		label = models.SentimentNegative
	}

	var signals []string
	if posCount > 0 {
		signals = append(signals, "positive_keywords")
	}
	if negCount > 0 {
		signals = append(signals, "negative_keywords")
	}

	return Result{Label: label, Score: score, Signals: signals}
}

// Escalations returns the set of sensitive categories the text touches.
// A non-empty result means the draft must be worded by a human.
func Escalations(text string) []string {
	lower := strings.ToLower(text)

	var matched []string
	for _, category := range escalationOrder {
		for _, phrase := range escalationCategories[category] {
			if strings.Contains(lower, phrase) {
				matched = append(matched, category)
				break
			}
		}
	}
	return matched
}

// escalationOrder keeps Escalations output deterministic across runs.
var escalationOrder = []string{
	"health_safety",
	"legal_threat",
	"discrimination",
	"refund_demand",
	"extreme_negative",
}

func countMatches(lower string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		count += strings.Count(lower, kw)
	}
	return count
}
