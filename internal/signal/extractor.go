package signal

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"socratic/internal/models"
	"socratic/pkg/logger"
	"socratic/pkg/util"
)

// Extractor pulls weighted domain indicators out of raw turn text.
// Implementations must fail open: an extraction problem yields an empty
// indicator set, never a pipeline abort.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]models.Indicator, error)
}

// Indicator weights by structural shape. Rare, specific shapes score higher
// than repeated plain words.
const (
	weightAcronym    = 1.0
	weightProperName = 0.9
	weightQuoted     = 0.8
	weightCompound   = 0.7
	weightTermBase   = 0.3
	weightTermStep   = 0.15
	weightTermCap    = 0.7
)

var (
	acronymRe    = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,9}\b`)
	properNameRe = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)+\b`)
	quotedRe     = regexp.MustCompile(`"([^"]{2,80})"`)
	compoundRe   = regexp.MustCompile(`\b[a-z]+(?:-[a-z0-9]+)+\b`)
)

// stopwords are plain-language tokens that carry no domain signal.
var stopwords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "also": {}, "because": {},
	"been": {}, "before": {}, "being": {}, "between": {}, "both": {},
	"could": {}, "does": {}, "doing": {}, "down": {}, "each": {},
	"from": {}, "have": {}, "having": {}, "here": {}, "into": {},
	"just": {}, "like": {}, "make": {}, "more": {}, "most": {},
	"need": {}, "only": {}, "other": {}, "over": {}, "same": {},
	"should": {}, "some": {}, "such": {}, "than": {}, "that": {},
	"their": {}, "them": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "those": {}, "through": {}, "under": {},
	"very": {}, "want": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "while": {}, "will": {}, "with": {}, "would": {},
	"your": {},
}

// StructuralExtractor detects indicators by text shape alone: acronyms,
// capitalized multi-word phrases, quoted terms, hyphenated compounds and
// repeated content words. It holds no domain vocabulary.
type StructuralExtractor struct {
	log *logger.Logger
}

// NewStructuralExtractor creates a StructuralExtractor.
func NewStructuralExtractor(log *logger.Logger) *StructuralExtractor {
	return &StructuralExtractor{log: log}
}

// Extract returns the weighted indicators found in text. It never returns a
// non-nil error; the error is part of the Extractor contract for
// implementations that do fallible work.
func (e *StructuralExtractor) Extract(_ context.Context, text string) ([]models.Indicator, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	// Highest weight wins when the same phrase matches several shapes.
	byPhrase := make(map[string]float64)
	add := func(phrase string, weight float64) {
		key := strings.ToLower(strings.TrimSpace(phrase))
		if key == "" {
			return
		}
		if _, stop := stopwords[key]; stop {
			return
		}
		if weight > byPhrase[key] {
			byPhrase[key] = weight
		}
	}

	for _, m := range acronymRe.FindAllString(text, -1) {
		// Single-letter words like "I" and "A" are excluded by the pattern;
		// two-letter English words still slip through occasionally and are
		// cheapest to keep.
		add(m, weightAcronym)
	}
	for _, m := range properNameRe.FindAllString(text, -1) {
		add(m, weightProperName)
	}
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		add(m[1], weightQuoted)
	}
	for _, m := range compoundRe.FindAllString(strings.ToLower(text), -1) {
		add(m, weightCompound)
	}

	// Repeated content words gain weight with each repetition.
	counts := make(map[string]int)
	for _, tok := range util.Tokenize(text) {
		if len(tok) < 4 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		counts[tok]++
	}
	for tok, n := range counts {
		w := weightTermBase + weightTermStep*float64(n-1)
		if w > weightTermCap {
			w = weightTermCap
		}
		add(tok, w)
	}

	indicators := make([]models.Indicator, 0, len(byPhrase))
	for phrase, weight := range byPhrase {
		indicators = append(indicators, models.Indicator{Phrase: phrase, Weight: weight})
	}
	sort.Slice(indicators, func(i, j int) bool {
		if indicators[i].Weight != indicators[j].Weight {
			return indicators[i].Weight > indicators[j].Weight
		}
		return indicators[i].Phrase < indicators[j].Phrase
	})
	return indicators, nil
}
