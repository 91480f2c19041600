package signature

import (
	"context"
	"encoding/json"
	"time"

	"socratic/internal/knowledge"
	"socratic/internal/models"
	"socratic/pkg/logger"
)

// signaturePayload mirrors the wire shape of a signature fragment's content.
type signaturePayload struct {
	Domain     string             `json:"domain"`
	Indicators map[string]float64 `json:"indicators"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// KnowledgeProvider resolves signatures through the knowledge aggregation
// layer, so a curated signature collection can evolve without redeploying.
// It keeps the last good corpus as a fallback: when the signature source is
// down the classifier keeps working on stale signatures instead of going
// blind.
type KnowledgeProvider struct {
	aggregator *knowledge.Aggregator
	fallback   *StaticProvider
	log        *logger.Logger
}

// NewKnowledgeProvider creates a KnowledgeProvider. The fallback corpus is
// served whenever the signature source yields nothing.
func NewKnowledgeProvider(aggregator *knowledge.Aggregator, fallback *StaticProvider, log *logger.Logger) *KnowledgeProvider {
	if fallback == nil {
		fallback = NewStaticProvider(nil)
	}
	return &KnowledgeProvider{aggregator: aggregator, fallback: fallback, log: log}
}

// SignaturesFor queries signature-kind sources and decodes the fragments into
// a corpus. An empty or undecodable answer falls back to the static corpus.
func (p *KnowledgeProvider) SignaturesFor(ctx context.Context, candidates []string) (map[string]Weights, error) {
	result := p.aggregator.Aggregate(ctx, knowledge.Request{
		Kinds: []models.SourceKind{models.SourceKindDomainSignature},
	})
	if result.Degraded {
		p.log.Warn("signature source degraded, serving static corpus")
		return p.fallback.SignaturesFor(ctx, candidates)
	}

	corpus := make(map[string]Weights)
	for _, frag := range result.Fragments {
		var payload signaturePayload
		if err := json.Unmarshal([]byte(frag.Content), &payload); err != nil {
			p.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "signature_decode_error"}).
				Warn("skipping undecodable signature fragment")
			continue
		}
		if payload.Domain == "" || len(payload.Indicators) == 0 {
			continue
		}
		corpus[payload.Domain] = Weights(payload.Indicators)
	}
	if len(corpus) == 0 {
		return p.fallback.SignaturesFor(ctx, candidates)
	}

	if len(candidates) == 0 {
		return corpus, nil
	}
	out := make(map[string]Weights, len(candidates))
	for _, domain := range candidates {
		if w, ok := corpus[domain]; ok {
			out[domain] = w
		}
	}
	return out, nil
}
