package retrieval

import "strings"

// Confidence levels assigned to a candidate answer (spec.md §4.4).
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Thresholds holds the three similarity cutoffs from spec.md §4.4, each
// independently overridable via environment variables
// (HIGH_CONFIDENCE_THRESHOLD, etc., per spec.md §6).
type Thresholds struct {
	High   float64
	Medium float64
	Low    float64
}

// DefaultThresholds matches spec.md §4.4's defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.85, Medium: 0.70, Low: 0.50}
}

// classify maps a similarity score to a confidence tier and whether the
// runtime should attempt an answer at all.
func (t Thresholds) classify(score float64) (shouldAnswer, needsClarification bool, confidence Confidence) {
	switch {
	case score >= t.High:
		return true, false, ConfidenceHigh
	case score >= t.Medium:
		return true, false, ConfidenceMedium
	case score >= t.Low:
		return false, true, ConfidenceLow
	default:
		return false, false, ConfidenceNone
	}
}

// injectionPhrases are prompt-injection attempts that trigger an unconditional refusal.
var injectionPhrases = []string{
	"ignore previous", "ignore above", "disregard instructions", "new instructions",
	"forget everything", "system prompt", "you are now", "pretend to be", "act as if",
}

// sensitiveTerms are sensitive-data asks that trigger an unconditional refusal.
var sensitiveTerms = []string{
	"password", "api key", "secret", "credentials", "internal", "employee", "salary", "personal data",
}

// stopWords are removed before computing the relevance heuristic.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "of": {}, "to": {}, "and": {},
	"for": {}, "what": {}, "do": {}, "you": {}, "does": {}, "in": {}, "on": {}, "it": {},
	"i": {}, "can": {}, "how": {}, "your": {}, "my": {}, "me": {}, "please": {}, "will": {},
}

// SafetyViolation reports the reason a question fails the safety guardrail,
// or "" if it passes.
func SafetyViolation(question string) string {
	lower := strings.ToLower(question)
	for _, phrase := range injectionPhrases {
		if strings.Contains(lower, phrase) {
			return "injection"
		}
	}
	for _, term := range sensitiveTerms {
		if strings.Contains(lower, term) {
			return "sensitive_data"
		}
	}
	return ""
}

// RelevanceRatio computes the fraction of non-stop-word question tokens that
// appear in the candidate text, used by the relevance heuristic (spec.md
// §4.4): "at least 20% must appear in the top result's text, else refuse."
func RelevanceRatio(question, candidateText string) float64 {
	tokens := significantTokens(question)
	if len(tokens) == 0 {
		return 1 // nothing to check against; do not refuse on an empty question
	}
	lowerCandidate := strings.ToLower(candidateText)
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(lowerCandidate, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

func significantTokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		if f == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

const relevanceMinRatio = 0.20
