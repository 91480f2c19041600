package knowledge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"socratic/internal/models"
	"socratic/pkg/circuitbreaker"
	"socratic/pkg/logger"
	"socratic/pkg/util"
)

// Request describes one aggregation call.
type Request struct {
	Query  string
	Domain string
	// Kinds restricts the fan-out to sources of these kinds; empty means all.
	Kinds []models.SourceKind
}

// Options tunes an Aggregator.
type Options struct {
	MaxConcurrency  int           // fan-out bound
	DedupSimilarity float64       // fragment merge threshold
	CacheCapacity   int
	CacheTTL        time.Duration
	RecencyHalfLife time.Duration // recencyDecay half-life for ranking
	DefaultTimeout  time.Duration // per-source timeout when the descriptor has none
}

// Aggregator fans a query out to knowledge sources with bounded concurrency,
// merges and ranks the fragments, and caches merged results. It owns its
// cache instance; breakers are injected so the orchestrator can observe them.
type Aggregator struct {
	sources  []Source
	breakers *circuitbreaker.Set
	cache    *util.LRUCache[string, *models.KnowledgeResult]
	opts     Options
	log      *logger.Logger
}

// NewAggregator creates an Aggregator over the given sources.
func NewAggregator(sources []Source, breakers *circuitbreaker.Set, opts Options, log *logger.Logger) (*Aggregator, error) {
	if opts.MaxConcurrency <= 0 {
		return nil, fmt.Errorf("max concurrency must be positive")
	}
	cache, err := util.NewLRU[string, *models.KnowledgeResult](util.CacheConfig{
		Capacity: opts.CacheCapacity,
		TTL:      opts.CacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create knowledge cache: %w", err)
	}
	return &Aggregator{
		sources:  sources,
		breakers: breakers,
		cache:    cache,
		opts:     opts,
		log:      log,
	}, nil
}

// sourceReply carries one source's outcome across the fan-in channel.
type sourceReply struct {
	desc      models.KnowledgeSource
	fragments []models.KnowledgeFragment
	err       error
}

// Aggregate runs the fan-out/fan-in merge for req. It never returns an error:
// if every source fails or times out the result is the explicit
// "no external knowledge" value, which downstream components treat as a valid
// degraded input.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) *models.KnowledgeResult {
	now := time.Now()
	key := a.cacheKey(req)

	if cached, ok := a.cache.Get(key); ok {
		a.log.Debug("knowledge cache hit")
		return cached
	}

	selected := a.selectSources(req.Kinds)
	if len(selected) == 0 {
		return models.NoKnowledge(now)
	}

	replies := make(chan sourceReply, len(selected))
	sem := make(chan struct{}, a.opts.MaxConcurrency)
	var wg sync.WaitGroup

	for _, src := range selected {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			replies <- a.querySource(ctx, src, req)
		}(src)
	}
	go func() {
		wg.Wait()
		close(replies)
	}()

	var fragments []models.KnowledgeFragment
	var contributed []models.KnowledgeSource
	for reply := range replies {
		if reply.err != nil {
			a.logSourceFailure(reply.desc, reply.err)
			continue
		}
		if len(reply.fragments) == 0 {
			continue
		}
		fragments = append(fragments, reply.fragments...)
		contributed = append(contributed, reply.desc)
	}

	if len(fragments) == 0 {
		// Total failure degrades, never raises.
		return models.NoKnowledge(now)
	}

	result := a.merge(fragments, contributed, now)
	a.cache.Put(key, result)
	a.writeBack(ctx, req, result)
	return result
}

// querySource runs one source call under its own timeout and circuit breaker.
func (a *Aggregator) querySource(ctx context.Context, src Source, req Request) sourceReply {
	desc := src.Descriptor()
	timeout := desc.Timeout
	if timeout <= 0 {
		timeout = a.opts.DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type queryOutcome struct {
		frags []models.KnowledgeFragment
		err   error
	}

	res, err := a.breakers.For(desc.ID).Execute(func() (interface{}, error) {
		// The query runs in its own goroutine so a source that ignores ctx
		// cannot hold the fan-in past its timeout. The buffered channel lets
		// a late reply be dropped without leaking the goroutine forever.
		done := make(chan queryOutcome, 1)
		go func() {
			frags, qerr := src.Query(callCtx, req.Query, req.Domain)
			done <- queryOutcome{frags: frags, err: qerr}
		}()

		select {
		case out := <-done:
			if out.err != nil {
				if errors.Is(out.err, ErrNoContent) {
					// An empty answer is a successful call for breaker purposes.
					return []models.KnowledgeFragment(nil), nil
				}
				return nil, out.err
			}
			return out.frags, nil
		case <-callCtx.Done():
			return nil, fmt.Errorf("source %s: %w", desc.ID, callCtx.Err())
		}
	})
	if err != nil {
		return sourceReply{desc: desc, err: err}
	}
	fragments, _ := res.([]models.KnowledgeFragment)
	return sourceReply{desc: desc, fragments: fragments}
}

// merge deduplicates fragments by content similarity, ranks the survivors by
// sourceConfidence x recencyDecay, and folds them into one KnowledgeResult.
func (a *Aggregator) merge(fragments []models.KnowledgeFragment, contributed []models.KnowledgeSource, now time.Time) *models.KnowledgeResult {
	type ranked struct {
		frag  models.KnowledgeFragment
		score float64
	}
	priorities := make(map[string]int, len(contributed))
	for _, src := range contributed {
		priorities[src.ID] = src.Priority
	}
	rankedFrags := make([]ranked, 0, len(fragments))
	for _, f := range fragments {
		rankedFrags = append(rankedFrags, ranked{frag: f, score: f.Confidence * a.recencyDecay(f.FetchedAt, now)})
	}
	sort.SliceStable(rankedFrags, func(i, j int) bool {
		if rankedFrags[i].score != rankedFrags[j].score {
			return rankedFrags[i].score > rankedFrags[j].score
		}
		return priorities[rankedFrags[i].frag.SourceID] > priorities[rankedFrags[j].frag.SourceID]
	})

	var kept []models.KnowledgeFragment
	var attribution []string
	topScore := 0.0
	for _, rf := range rankedFrags {
		duplicate := false
		for _, k := range kept {
			if util.JaccardSimilarity(rf.frag.Content, k.Content) >= a.opts.DedupSimilarity {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, rf.frag)
		if rf.frag.Attribution != "" {
			attribution = append(attribution, rf.frag.Attribution)
		}
		if rf.score > topScore {
			topScore = rf.score
		}
	}

	contents := make([]string, 0, len(kept))
	for _, f := range kept {
		contents = append(contents, f.Content)
	}

	return &models.KnowledgeResult{
		Content:     strings.Join(contents, "\n"),
		Fragments:   kept,
		Sources:     contributed,
		Confidence:  math.Min(1, topScore),
		Attribution: attribution,
		FetchedAt:   now,
	}
}

// recencyDecay halves a fragment's rank weight every RecencyHalfLife.
func (a *Aggregator) recencyDecay(fetchedAt, now time.Time) float64 {
	if a.opts.RecencyHalfLife <= 0 || fetchedAt.IsZero() || !fetchedAt.Before(now) {
		return 1
	}
	age := now.Sub(fetchedAt)
	return math.Pow(0.5, age.Seconds()/a.opts.RecencyHalfLife.Seconds())
}

// writeBack offers the merged result to cache-kind sources, best effort.
func (a *Aggregator) writeBack(ctx context.Context, req Request, result *models.KnowledgeResult) {
	for _, src := range a.sources {
		writer, ok := src.(CacheWriter)
		if !ok {
			continue
		}
		if err := writer.Store(ctx, util.NormalizeQuery(req.Query), req.Domain, result); err != nil {
			a.logSourceFailure(src.Descriptor(), err)
		}
	}
}

func (a *Aggregator) selectSources(kinds []models.SourceKind) []Source {
	if len(kinds) == 0 {
		return a.sources
	}
	allowed := make(map[models.SourceKind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}
	var out []Source
	for _, src := range a.sources {
		if _, ok := allowed[src.Descriptor().Kind]; ok {
			out = append(out, src)
		}
	}
	return out
}

func (a *Aggregator) cacheKey(req Request) string {
	parts := []string{util.NormalizeQuery(req.Query), req.Domain}
	for _, k := range req.Kinds {
		parts = append(parts, string(k))
	}
	return strings.Join(parts, "|")
}

func (a *Aggregator) logSourceFailure(desc models.KnowledgeSource, err error) {
	a.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "knowledge_source_error"}).
		WithPayload(map[string]interface{}{"source_id": desc.ID, "kind": string(desc.Kind)}).
		Warn("knowledge source contributed nothing this call")
}

// BreakerStates exposes the per-source circuit-breaker states for diagnostics.
func (a *Aggregator) BreakerStates() map[string]circuitbreaker.State {
	return a.breakers.States()
}
