package classify

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"socratic/internal/models"
	"socratic/internal/signature"
	"socratic/pkg/logger"
)

// Classifier scores extracted indicators against domain signatures and keeps
// the per-session domain belief smooth across turns. Classification is
// fail-open: no input ever produces an error, only the "general" domain.
type Classifier struct {
	provider signature.Provider
	related  signature.RelatedDomainFinder
	source   models.DomainSource

	alpha         float64 // smoothing weight of fresh evidence
	minConfidence float64 // below this the domain resolves to "general"
	log           *logger.Logger
}

// NewClassifier creates a Classifier. The source tag records whether the
// provider is conversation-only, knowledge-backed, or hybrid.
func NewClassifier(provider signature.Provider, related signature.RelatedDomainFinder, source models.DomainSource, alpha, minConfidence float64, log *logger.Logger) *Classifier {
	if related == nil {
		related = signature.NoRelatedFinder{}
	}
	return &Classifier{
		provider:      provider,
		related:       related,
		source:        source,
		alpha:         alpha,
		minConfidence: minConfidence,
		log:           log,
	}
}

// domainScore is one candidate's accumulated evidence.
type domainScore struct {
	domain    string
	raw       float64
	matched   []string
	dfSum     float64 // document frequencies of matched phrases, for tie-break
	dfMatches int
}

// Classify resolves the domain for one turn. prior is the session's previous
// snapshot, nil on the first turn. The returned snapshot always has a
// confidence in [0,1] and never carries an error: when evidence is thin the
// domain is "general".
func (c *Classifier) Classify(ctx context.Context, indicators []models.Indicator, prior *models.DomainContext) models.DomainContext {
	now := time.Now()

	corpus, err := c.provider.SignaturesFor(ctx, nil)
	if err != nil || len(corpus) == 0 {
		if err != nil {
			c.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "signature_provider_error"}).
				Warn("signature provider failed, resolving to general")
		}
		return c.generalContext(prior, now)
	}

	best := c.score(indicators, corpus)
	if best == nil || best.raw == 0 {
		return c.generalContext(prior, now)
	}

	// Bounded evidence: raw scores are unbounded sums, so squash them onto
	// [0,1) before smoothing.
	evidence := best.raw / (best.raw + 1)
	confidence := c.smooth(best.domain, evidence, prior)

	if confidence < c.minConfidence {
		return c.generalContext(prior, now)
	}

	sort.Strings(best.matched)
	return models.DomainContext{
		Domain:     best.domain,
		Confidence: clamp01(confidence),
		Indicators: best.matched,
		Related:    c.related.RelatedDomains(ctx, best.domain),
		UpdatedAt:  now,
		Source:     c.source,
	}
}

// score accumulates IDF-weighted evidence per domain and returns the winner.
// Phrases shared across many domains contribute less than phrases unique to
// one.
func (c *Classifier) score(indicators []models.Indicator, corpus map[string]signature.Weights) *domainScore {
	if len(indicators) == 0 {
		return nil
	}

	// df counts how many domain signatures contain each phrase.
	df := make(map[string]int)
	for _, weights := range corpus {
		for phrase := range weights {
			df[phrase]++
		}
	}
	totalDomains := float64(len(corpus))

	scores := make(map[string]*domainScore, len(corpus))
	for domain, weights := range corpus {
		ds := &domainScore{domain: domain}
		for _, ind := range indicators {
			phrase := strings.ToLower(ind.Phrase)
			sigWeight, ok := weights[phrase]
			if !ok {
				continue
			}
			idf := math.Log(1 + totalDomains/float64(df[phrase]))
			ds.raw += ind.Weight * sigWeight * idf
			ds.matched = append(ds.matched, phrase)
			ds.dfSum += float64(df[phrase])
			ds.dfMatches++
		}
		if ds.raw > 0 {
			scores[domain] = ds
		}
	}

	var best *domainScore
	for _, ds := range scores {
		if best == nil || better(ds, best) {
			best = ds
		}
	}
	return best
}

// better orders candidates by raw score, breaking ties toward the more
// specific signature (lower average document frequency), then by name so the
// outcome is deterministic.
func better(a, b *domainScore) bool {
	if a.raw != b.raw {
		return a.raw > b.raw
	}
	aDF := a.dfSum / math.Max(1, float64(a.dfMatches))
	bDF := b.dfSum / math.Max(1, float64(b.dfMatches))
	if aDF != bDF {
		return aDF < bDF
	}
	return a.domain < b.domain
}

// smooth blends fresh evidence with the prior belief. The first observation
// of a domain takes the evidence as-is; only subsequent turns on the same
// domain are smoothed, so a strong opening turn is not dragged down by an
// empty prior.
func (c *Classifier) smooth(domain string, evidence float64, prior *models.DomainContext) float64 {
	if prior == nil || prior.Domain != domain {
		return evidence
	}
	return c.alpha*evidence + (1-c.alpha)*prior.Confidence
}

// generalContext is the no-evidence snapshot. A prior on a concrete domain
// decays through smoothing against zero evidence rather than vanishing, so a
// single off-topic turn does not erase an established domain.
func (c *Classifier) generalContext(prior *models.DomainContext, now time.Time) models.DomainContext {
	if prior != nil && !prior.IsGeneral() {
		decayed := (1 - c.alpha) * prior.Confidence
		if decayed >= c.minConfidence {
			return models.DomainContext{
				Domain:     prior.Domain,
				Confidence: decayed,
				Indicators: prior.Indicators,
				Related:    prior.Related,
				UpdatedAt:  now,
				Source:     prior.Source,
			}
		}
	}
	return models.DomainContext{
		Domain:     models.GeneralDomain,
		Confidence: 0,
		UpdatedAt:  now,
		Source:     c.source,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
