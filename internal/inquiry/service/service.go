package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"socratic/internal/classify"
	"socratic/internal/expertise"
	"socratic/internal/inquiry/publisher"
	"socratic/internal/knowledge"
	"socratic/internal/models"
	"socratic/internal/question"
	"socratic/internal/session"
	"socratic/internal/signal"
	"socratic/pkg/logger"

	"github.com/google/uuid"
)

// Options tunes the per-turn pipeline.
type Options struct {
	// TurnBudget is the end-to-end latency budget of one turn.
	TurnBudget time.Duration
	// MinKnowledgeSlice is the least remaining budget worth spending on
	// knowledge aggregation; below it the turn proceeds conversation-only.
	MinKnowledgeSlice time.Duration
	// IdleTimeout is how long a session's serialization gate outlives its last
	// turn before being swept. Zero disables sweeping.
	IdleTimeout time.Duration
}

// InquiryService orchestrates one questioning turn: signal extraction, domain
// classification, expertise tracking, knowledge aggregation and question
// generation, with session state around it all.
type InquiryService struct {
	extractor  signal.Extractor
	classifier *classify.Classifier
	tracker    *expertise.Tracker
	aggregator *knowledge.Aggregator
	generator  *question.Generator
	store      session.Store
	archiver   session.Archiver
	publisher  publisher.ArtifactPublisher
	opts       Options
	log        *logger.Logger

	// gates serializes turns per session and lets a newer turn supersede an
	// older in-flight one: map[string]*sessionGate.
	gates     sync.Map
	sweepMu   sync.Mutex
	lastSweep time.Time
}

type sessionGate struct {
	mu        sync.Mutex
	latest    uint64
	nextMu    sync.Mutex
	next      uint64
	lastClaim time.Time
}

// NewInquiryService wires the pipeline.
func NewInquiryService(
	extractor signal.Extractor,
	classifier *classify.Classifier,
	tracker *expertise.Tracker,
	aggregator *knowledge.Aggregator,
	generator *question.Generator,
	store session.Store,
	archiver session.Archiver,
	pub publisher.ArtifactPublisher,
	opts Options,
	log *logger.Logger,
) *InquiryService {
	if archiver == nil {
		archiver = session.NoArchiver{}
	}
	if pub == nil {
		pub = publisher.NoPublisher{}
	}
	return &InquiryService{
		extractor:  extractor,
		classifier: classifier,
		tracker:    tracker,
		aggregator: aggregator,
		generator:  generator,
		store:      store,
		archiver:   archiver,
		publisher:  pub,
		opts:       opts,
		log:        log,
	}
}

// ErrSuperseded reports that a newer turn for the same session arrived while
// this one was queued, and this one was discarded under latest-input-wins.
var ErrSuperseded = errors.New("turn superseded by a newer input")

// ProcessTurn runs one full turn. An empty session id starts a new session.
// The call always either returns a result carrying a question, ErrSuperseded,
// or a storage error; pipeline-stage degradation surfaces in Diagnostics.
func (s *InquiryService) ProcessTurn(ctx context.Context, req models.TurnRequest) (*models.TurnResult, error) {
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	s.sweepGates(time.Now())
	gate := s.gate(req.SessionID)
	seq := gate.claim()
	gate.mu.Lock()
	defer gate.mu.Unlock()
	// A turn that queued behind a newer one is stale before it starts.
	if gate.superseded(seq) {
		return nil, ErrSuperseded
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.TurnBudget)
	defer cancel()
	deadline, _ := ctx.Deadline()

	sess, err := s.loadOrCreate(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	log := s.log.WithSession(sess.SessionID)

	var diagnostics []string

	indicators, err := s.extractor.Extract(ctx, req.UserText)
	if err != nil {
		// Extraction is fail-open: classify on nothing rather than abort.
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "signal_extraction_error"}).
			Warn("signal extraction failed, continuing without indicators")
		diagnostics = append(diagnostics, "signal extraction failed")
		indicators = nil
	}

	var prior *models.DomainContext
	if len(sess.DomainHistory) > 0 {
		p := sess.DomainHistory[len(sess.DomainHistory)-1]
		prior = &p
	}
	domain := s.classifier.Classify(ctx, indicators, prior)

	exp := s.tracker.Observe(sess.ExpertiseHistory, req.UserText)

	know := s.gatherKnowledge(ctx, deadline, req.UserText, domain, &diagnostics, log)

	q := s.generator.Generate(sess, domain, exp, know)

	s.applyTurn(sess, req, domain, exp, q)

	// Persist only if this is still the latest turn for the session.
	if gate.superseded(seq) {
		return nil, ErrSuperseded
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	log.WithPayload(map[string]interface{}{
		"turn":       sess.Turn,
		"domain":     domain.Domain,
		"confidence": domain.Confidence,
		"level":      string(exp.Level),
		"q_type":     string(q.Type),
	}).Info("turn processed")

	return &models.TurnResult{
		SessionID:     sess.SessionID,
		DomainContext: domain,
		Expertise:     exp,
		Question:      q,
		Diagnostics:   diagnostics,
	}, nil
}

// gatherKnowledge aggregates external knowledge when budget allows and the
// domain is concrete. Every skip or degradation lands in diagnostics; none
// aborts the turn.
func (s *InquiryService) gatherKnowledge(ctx context.Context, deadline time.Time, text string, domain models.DomainContext, diagnostics *[]string, log *logger.Logger) *models.KnowledgeResult {
	if s.aggregator == nil {
		return nil
	}
	if remaining := time.Until(deadline); remaining < s.opts.MinKnowledgeSlice {
		log.Debug("turn budget too thin for knowledge aggregation")
		*diagnostics = append(*diagnostics, "knowledge skipped: turn budget exhausted")
		return nil
	}

	know := s.aggregator.Aggregate(ctx, knowledge.Request{
		Query:  text,
		Domain: domain.Domain,
		Kinds: []models.SourceKind{
			models.SourceKindCache,
			models.SourceKindStructuredDoc,
			models.SourceKindWebSearch,
		},
	})
	if know.Degraded {
		*diagnostics = append(*diagnostics, "knowledge degraded: no source contributed")
	}
	return know
}

// applyTurn folds the turn's outputs into the session.
func (s *InquiryService) applyTurn(sess *models.QuestionSession, req models.TurnRequest, domain models.DomainContext, exp models.ExpertiseState, q models.AdaptiveQuestion) {
	// A response answers the previous question; its text accumulates under
	// that question's type as raw requirement material.
	if last, ok := sess.LastQuestion(); ok {
		key := string(last.Type)
		sess.Requirements[key] = append(sess.Requirements[key], req.UserText)
	}
	sess.Responses = append(sess.Responses, req.UserText)
	sess.DomainHistory = append(sess.DomainHistory, domain)
	sess.ExpertiseHistory = append(sess.ExpertiseHistory, exp)
	sess.AskedQuestions = append(sess.AskedQuestions, q)
	sess.Turn++
	sess.LastActivityAt = time.Now()
}

// GetSession returns the live state of a session.
func (s *InquiryService) GetSession(ctx context.Context, sessionID string) (*models.QuestionSession, error) {
	return s.store.Get(ctx, sessionID)
}

// Complete closes a session: the state is archived, the artifact is handed
// off, and the live entry is removed. Archive and publish failures are
// returned so the caller can retry; the upsert-style archiver makes a retry
// safe.
func (s *InquiryService) Complete(ctx context.Context, sessionID string) (*models.SessionArtifact, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Status = models.SessionCompleted
	sess.LastActivityAt = time.Now()

	artifact := &models.SessionArtifact{
		SessionID:     sess.SessionID,
		DomainContext: sess.CurrentDomain(),
		Expertise:     sess.CurrentExpertise(),
		Requirements:  sess.Requirements,
		Responses:     sess.Responses,
		CompletedAt:   time.Now(),
	}

	if err := s.archiver.Archive(ctx, sess); err != nil {
		return nil, fmt.Errorf("archive session: %w", err)
	}
	if err := s.publisher.Publish(ctx, artifact); err != nil {
		return nil, fmt.Errorf("publish artifact: %w", err)
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("remove live session: %w", err)
	}
	s.gates.Delete(sessionID)

	s.log.WithSession(sessionID).Info("session completed")
	return artifact, nil
}

func (s *InquiryService) gate(sessionID string) *sessionGate {
	g, _ := s.gates.LoadOrStore(sessionID, &sessionGate{lastClaim: time.Now()})
	return g.(*sessionGate)
}

// sweepGates drops gates whose sessions have gone idle, so the gate map does
// not grow with every session ever seen. Runs at most once per IdleTimeout.
func (s *InquiryService) sweepGates(now time.Time) {
	if s.opts.IdleTimeout <= 0 {
		return
	}
	s.sweepMu.Lock()
	due := now.Sub(s.lastSweep) >= s.opts.IdleTimeout
	if due {
		s.lastSweep = now
	}
	s.sweepMu.Unlock()
	if !due {
		return
	}
	s.gates.Range(func(key, value interface{}) bool {
		if value.(*sessionGate).idleFor(now) > s.opts.IdleTimeout {
			s.gates.Delete(key)
		}
		return true
	})
}

// claim assigns this turn the next sequence number and marks it latest.
func (g *sessionGate) claim() uint64 {
	g.nextMu.Lock()
	defer g.nextMu.Unlock()
	g.next++
	g.latest = g.next
	g.lastClaim = time.Now()
	return g.next
}

func (g *sessionGate) superseded(seq uint64) bool {
	g.nextMu.Lock()
	defer g.nextMu.Unlock()
	return seq != g.latest
}

func (g *sessionGate) idleFor(now time.Time) time.Duration {
	g.nextMu.Lock()
	defer g.nextMu.Unlock()
	return now.Sub(g.lastClaim)
}

func (s *InquiryService) loadOrCreate(ctx context.Context, sessionID string) (*models.QuestionSession, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return models.NewQuestionSession(sessionID, time.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}
