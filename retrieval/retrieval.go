package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/taskforge-ai/dialoguebot/telemetry"
)

// canonicalPrefixes biases retrieval for intents in a known set by
// prepending a short canonical phrase to the raw user text (spec.md §4.4
// Query construction).
var canonicalPrefixes = map[string]string{
	"hours":         "business hours operating hours open close",
	"pricing":       "pricing cost price rates fees",
	"location":      "location address where directions",
	"policy":        "policy terms cancellation refund rules",
	"services":      "services offerings what we do",
	"business_info": "about us business information company",
	"faq":           "frequently asked questions help",
}

// Result is one similarity-scored retrieval hit, after distance-to-score
// conversion and threshold filtering (spec.md §4.4).
type Result struct {
	Text     string
	Source   string
	Metadata map[string]any
	Score    float64
}

// Answer is the outcome of a retrieval-answer attempt: either a grounded,
// cited answer, or a refusal/clarification signal.
type Answer struct {
	ShouldAnswer       bool
	NeedsClarification bool
	Confidence         Confidence
	Text               string
	Source             string
	Warnings           []string
	RefusalReason      string // "injection", "sensitive_data", "relevance", "not_found" (no result above the low threshold), "" (low confidence refusal has no reason string)
	Results            []Result
}

// Service implements the retrieval-answer pipeline: query construction,
// vector search, scoring, guardrails, and answer composition.
type Service struct {
	Store      VectorStore
	Collection string
	TopK       int
	Thresholds Thresholds
	bundle     telemetry.Bundle
}

// Options configures a Service.
type Options struct {
	Store      VectorStore
	Collection string
	TopK       int
	Thresholds Thresholds
	Telemetry  telemetry.Bundle
}

// New constructs a retrieval Service. Collection and Store are required.
func New(opts Options) *Service {
	topK := opts.TopK
	if topK <= 0 {
		topK = 3
	}
	thresholds := opts.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	bundle := opts.Telemetry
	if bundle.Logger == nil {
		bundle = telemetry.NewNoopBundle()
	}
	return &Service{Store: opts.Store, Collection: opts.Collection, TopK: topK, Thresholds: thresholds, bundle: bundle}
}

// Answer runs the full retrieval-answer pipeline for one question,
// optionally biased by a known intent name (spec.md §4.4).
func (s *Service) Answer(ctx context.Context, question, intent string) (Answer, error) {
	if reason := SafetyViolation(question); reason != "" {
		s.bundle.Metrics.IncCounter("retrieval_guardrail_refusal_total", 1, "reason", reason)
		return Answer{RefusalReason: reason}, nil
	}

	query := question
	if prefix, ok := canonicalPrefixes[intent]; ok {
		query = prefix + " " + question
	}

	results, err := s.search(ctx, query)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieval: vector search: %w", err)
	}
	if len(results) == 0 {
		return Answer{RefusalReason: "not_found"}, nil
	}

	top := results[0]
	shouldAnswer, needsClarification, confidence := s.Thresholds.classify(top.Score)

	// Relevance heuristic applies only to the top result (spec.md §4.4, §9
	// Open Question — this implementation preserves that scope).
	if shouldAnswer && RelevanceRatio(question, top.Text) < relevanceMinRatio {
		return Answer{RefusalReason: "relevance", Results: results}, nil
	}
	if !shouldAnswer {
		return Answer{NeedsClarification: needsClarification, Confidence: confidence, Results: results}, nil
	}

	text, warnings := composeAnswer(results, s.Thresholds)
	if confidence == ConfidenceMedium {
		warnings = append(warnings, "verify")
	}

	return Answer{
		ShouldAnswer: true,
		Confidence:   confidence,
		Text:         text,
		Source:       top.Source,
		Warnings:     warnings,
		Results:      results,
	}, nil
}

// search queries the vector store, converts distances to similarity scores,
// filters by the low threshold, sorts descending, and truncates to TopK
// (spec.md §4.4 Vector search).
func (s *Service) search(ctx context.Context, query string) ([]Result, error) {
	raw, err := s.Store.Query(ctx, s.Collection, []string{query}, s.TopK*2, nil)
	if err != nil {
		return nil, err
	}
	if len(raw.Documents) == 0 {
		return nil, nil
	}
	docs := raw.Documents[0]
	var metas []map[string]any
	if len(raw.Metadatas) > 0 {
		metas = raw.Metadatas[0]
	}
	var dists []float64
	if len(raw.Distances) > 0 {
		dists = raw.Distances[0]
	}

	results := make([]Result, 0, len(docs))
	for i, doc := range docs {
		var dist float64
		if i < len(dists) {
			dist = dists[i]
		}
		score := 1 - dist/2
		if score < s.Thresholds.Low {
			continue
		}
		var meta map[string]any
		if i < len(metas) {
			meta = metas[i]
		}
		source := ""
		if meta != nil {
			if v, ok := meta["source"].(string); ok {
				source = v
			}
		}
		results = append(results, Result{Text: doc, Source: source, Metadata: meta, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > s.TopK {
		results = results[:s.TopK]
	}
	return results, nil
}

// composeAnswer implements spec.md §4.4 Answer composition: verbatim top
// result if it is the only one or scores above high confidence; otherwise
// concatenate with the second result when it clears medium confidence and
// is not already a substring of the first. thresholds must be the same
// Thresholds classify() scored top against, or composition would diverge
// from the confidence verdict it's paired with.
func composeAnswer(results []Result, thresholds Thresholds) (string, []string) {
	top := results[0]
	if len(results) == 1 || top.Score > thresholds.High {
		return top.Text, nil
	}
	second := results[1]
	if second.Score > thresholds.Medium && !strings.Contains(top.Text, second.Text) {
		return top.Text + " " + second.Text, nil
	}
	return top.Text, nil
}

// ValidateNumericGrounding implements spec.md §4.4 Response validation for
// LLM-composed answers: any numeric token in the candidate answer not
// present in any retrieved source adds a warning; two or more downgrade the
// confidence one level.
func ValidateNumericGrounding(answerText string, sources []Result) (warnings []string, downgrade bool) {
	ungrounded := 0
	for _, tok := range numericTokens(answerText) {
		found := false
		for _, src := range sources {
			if strings.Contains(src.Text, tok) {
				found = true
				break
			}
		}
		if !found {
			ungrounded++
		}
	}
	if ungrounded > 0 {
		warnings = append(warnings, fmt.Sprintf("%d numeric value(s) not found in sources", ungrounded))
	}
	return warnings, ungrounded >= 2
}

// DowngradeConfidence returns the confidence tier one level below c, floored at none.
func DowngradeConfidence(c Confidence) Confidence {
	switch c {
	case ConfidenceHigh:
		return ConfidenceMedium
	case ConfidenceMedium:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

func numericTokens(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		if r >= '0' && r <= '9' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}
