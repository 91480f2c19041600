package knowledge

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"socratic/internal/models"
	"socratic/pkg/circuitbreaker"
	"socratic/pkg/logger"
)

// fakeSource is a scriptable knowledge source for aggregator tests.
type fakeSource struct {
	desc      models.KnowledgeSource
	fragments []models.KnowledgeFragment
	err       error
	delay     time.Duration
	ignoreCtx bool
	calls     int32
}

func (f *fakeSource) Descriptor() models.KnowledgeSource { return f.desc }

func (f *fakeSource) Query(ctx context.Context, _, _ string) ([]models.KnowledgeFragment, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		if f.ignoreCtx {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return f.fragments, f.err
}

func (f *fakeSource) callCount() int32 { return atomic.LoadInt32(&f.calls) }

func fragment(content, sourceID string, confidence float64) models.KnowledgeFragment {
	return models.KnowledgeFragment{
		Content:    content,
		SourceID:   sourceID,
		Confidence: confidence,
		FetchedAt:  time.Now(),
	}
}

func newTestAggregator(t *testing.T, sources ...Source) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(sources,
		circuitbreaker.NewSet(3, 1, time.Second),
		Options{
			MaxConcurrency:  4,
			DedupSimilarity: 0.80,
			CacheCapacity:   16,
			CacheTTL:        time.Minute,
			RecencyHalfLife: 6 * time.Hour,
			DefaultTimeout:  100 * time.Millisecond,
		},
		logger.New("AggregatorTest", ""),
	)
	if err != nil {
		t.Fatalf("NewAggregator() error = %v", err)
	}
	return agg
}

func TestAggregate_MergesHealthySources(t *testing.T) {
	a := newTestAggregator(t,
		&fakeSource{
			desc:      models.KnowledgeSource{ID: "docs", Kind: models.SourceKindStructuredDoc},
			fragments: []models.KnowledgeFragment{fragment("HIPAA requires audit controls for PHI access", "docs", 0.9)},
		},
		&fakeSource{
			desc:      models.KnowledgeSource{ID: "web", Kind: models.SourceKindWebSearch},
			fragments: []models.KnowledgeFragment{fragment("Patient intake workflows vary by state regulation", "web", 0.6)},
		},
	)

	result := a.Aggregate(context.Background(), Request{Query: "hipaa intake", Domain: "healthcare"})
	if result.Degraded {
		t.Fatal("Expected a healthy merge, got degraded")
	}
	if len(result.Fragments) != 2 {
		t.Fatalf("Expected 2 fragments, got %d", len(result.Fragments))
	}
	if len(result.Sources) != 2 {
		t.Errorf("Expected 2 contributing sources, got %d", len(result.Sources))
	}
	// Higher-confidence fragment ranks first.
	if result.Fragments[0].SourceID != "docs" {
		t.Errorf("Expected docs fragment first, got %s", result.Fragments[0].SourceID)
	}
}

func TestAggregate_HangingSourceDoesNotBlockOthers(t *testing.T) {
	hanging := &fakeSource{
		desc:      models.KnowledgeSource{ID: "slow", Kind: models.SourceKindWebSearch, Timeout: 50 * time.Millisecond},
		fragments: []models.KnowledgeFragment{fragment("too late to matter", "slow", 0.9)},
		delay:     2 * time.Second,
		ignoreCtx: true, // simulates a connector that never checks ctx
	}
	healthy := &fakeSource{
		desc:      models.KnowledgeSource{ID: "fast", Kind: models.SourceKindStructuredDoc},
		fragments: []models.KnowledgeFragment{fragment("useful content", "fast", 0.8)},
	}
	a := newTestAggregator(t, hanging, healthy)

	start := time.Now()
	result := a.Aggregate(context.Background(), Request{Query: "anything"})
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Fatalf("Aggregation blocked on a hanging source: took %v", elapsed)
	}
	if result.Degraded {
		t.Fatal("Expected the healthy source's result, got degraded")
	}
	if len(result.Fragments) != 1 || result.Fragments[0].SourceID != "fast" {
		t.Errorf("Expected only the fast source's fragment, got %+v", result.Fragments)
	}
}

func TestAggregate_TotalFailureDegrades(t *testing.T) {
	a := newTestAggregator(t,
		&fakeSource{
			desc: models.KnowledgeSource{ID: "down", Kind: models.SourceKindWebSearch},
			err:  errors.New("connection refused"),
		},
		&fakeSource{
			desc: models.KnowledgeSource{ID: "empty", Kind: models.SourceKindStructuredDoc},
			err:  ErrNoContent,
		},
	)

	result := a.Aggregate(context.Background(), Request{Query: "anything"})
	if !result.Degraded {
		t.Fatal("Expected degraded result when no source contributes")
	}
	if len(result.Fragments) != 0 {
		t.Errorf("Expected no fragments, got %d", len(result.Fragments))
	}
}

func TestAggregate_CacheShortCircuitsSecondCall(t *testing.T) {
	src := &fakeSource{
		desc:      models.KnowledgeSource{ID: "docs", Kind: models.SourceKindStructuredDoc},
		fragments: []models.KnowledgeFragment{fragment("cached content", "docs", 0.7)},
	}
	a := newTestAggregator(t, src)

	req := Request{Query: "HIPAA  Compliance", Domain: "healthcare"}
	first := a.Aggregate(context.Background(), req)

	// Same query up to normalization must hit the cache.
	second := a.Aggregate(context.Background(), Request{Query: "hipaa compliance", Domain: "healthcare"})

	if src.callCount() != 1 {
		t.Errorf("Expected exactly one source call, got %d", src.callCount())
	}
	if first != second {
		t.Error("Expected the cached result to be returned as-is")
	}
}

func TestAggregate_DeduplicatesNearIdenticalFragments(t *testing.T) {
	a := newTestAggregator(t,
		&fakeSource{
			desc:      models.KnowledgeSource{ID: "a", Kind: models.SourceKindStructuredDoc},
			fragments: []models.KnowledgeFragment{fragment("HIPAA mandates encryption of patient records at rest", "a", 0.9)},
		},
		&fakeSource{
			desc:      models.KnowledgeSource{ID: "b", Kind: models.SourceKindWebSearch},
			fragments: []models.KnowledgeFragment{fragment("HIPAA mandates encryption of patient records at rest.", "b", 0.5)},
		},
	)

	result := a.Aggregate(context.Background(), Request{Query: "encryption"})
	if len(result.Fragments) != 1 {
		t.Fatalf("Expected duplicates to merge into 1 fragment, got %d", len(result.Fragments))
	}
	// The higher-ranked copy survives.
	if result.Fragments[0].SourceID != "a" {
		t.Errorf("Expected the higher-confidence copy to survive, got %s", result.Fragments[0].SourceID)
	}
}

func TestAggregate_PriorityBreaksRankTies(t *testing.T) {
	fetched := time.Now()
	low := &fakeSource{
		desc: models.KnowledgeSource{ID: "low", Kind: models.SourceKindWebSearch, Priority: 1},
		fragments: []models.KnowledgeFragment{
			{Content: "general guidance on intake forms", SourceID: "low", Confidence: 0.8, FetchedAt: fetched},
		},
	}
	high := &fakeSource{
		desc: models.KnowledgeSource{ID: "high", Kind: models.SourceKindStructuredDoc, Priority: 5},
		fragments: []models.KnowledgeFragment{
			{Content: "HIPAA audit controls for intake systems", SourceID: "high", Confidence: 0.8, FetchedAt: fetched},
		},
	}
	a := newTestAggregator(t, low, high)

	result := a.Aggregate(context.Background(), Request{Query: "intake"})
	if len(result.Fragments) != 2 {
		t.Fatalf("Expected 2 fragments, got %d", len(result.Fragments))
	}
	if result.Fragments[0].SourceID != "high" {
		t.Errorf("Expected the higher-priority source to rank first on a tie, got %s", result.Fragments[0].SourceID)
	}
}

func TestAggregate_KindFilterRestrictsFanOut(t *testing.T) {
	docSrc := &fakeSource{
		desc:      models.KnowledgeSource{ID: "docs", Kind: models.SourceKindStructuredDoc},
		fragments: []models.KnowledgeFragment{fragment("doc content", "docs", 0.7)},
	}
	sigSrc := &fakeSource{
		desc:      models.KnowledgeSource{ID: "sigs", Kind: models.SourceKindDomainSignature},
		fragments: []models.KnowledgeFragment{fragment("signature content", "sigs", 1)},
	}
	a := newTestAggregator(t, docSrc, sigSrc)

	a.Aggregate(context.Background(), Request{Query: "q", Kinds: []models.SourceKind{models.SourceKindDomainSignature}})

	if docSrc.callCount() != 0 {
		t.Errorf("Expected doc source to be excluded by the kind filter, got %d calls", docSrc.callCount())
	}
	if sigSrc.callCount() != 1 {
		t.Errorf("Expected signature source to be queried once, got %d calls", sigSrc.callCount())
	}
}
