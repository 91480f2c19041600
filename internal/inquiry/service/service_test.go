package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"socratic/internal/classify"
	"socratic/internal/expertise"
	"socratic/internal/inquiry/publisher"
	"socratic/internal/models"
	"socratic/internal/question"
	"socratic/internal/session"
	"socratic/internal/signal"
	"socratic/internal/signature"
	"socratic/pkg/logger"
)

type fakeArchiver struct {
	archived []*models.QuestionSession
}

func (f *fakeArchiver) Archive(_ context.Context, s *models.QuestionSession) error {
	f.archived = append(f.archived, s)
	return nil
}

type fakePublisher struct {
	published []*models.SessionArtifact
}

func (f *fakePublisher) Publish(_ context.Context, a *models.SessionArtifact) error {
	f.published = append(f.published, a)
	return nil
}

func newTestService(archiver session.Archiver, pub *fakePublisher) (*InquiryService, *session.MemoryStore) {
	store := session.NewMemoryStore(time.Minute)
	return newTestServiceWith(store, archiver, pub), store
}

func newTestServiceWith(store session.Store, archiver session.Archiver, pub *fakePublisher) *InquiryService {
	log := logger.New("ServiceTest", "")

	classifier := classify.NewClassifier(
		signature.NewStaticProvider(nil), signature.NoRelatedFinder{},
		models.SourceConversation, 0.40, 0.50, log,
	)
	var artifactPub publisher.ArtifactPublisher
	if pub != nil {
		artifactPub = pub
	}
	return NewInquiryService(
		signal.NewStructuralExtractor(log),
		classifier,
		expertise.NewTracker(3, 0.07, 0.03),
		nil, // no knowledge layer: the pipeline must still produce questions
		question.NewGenerator(nil, 0.80, log),
		store, archiver, artifactPub,
		Options{TurnBudget: 3 * time.Second, MinKnowledgeSlice: 500 * time.Millisecond, IdleTimeout: time.Minute},
		log,
	)
}

// blockingStore parks the first Get until released, so a test can hold one
// turn inside the pipeline while a newer turn for the same session arrives.
type blockingStore struct {
	session.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingStore) Get(ctx context.Context, id string) (*models.QuestionSession, error) {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.Store.Get(ctx, id)
}

func TestProcessTurn_AlwaysYieldsQuestion(t *testing.T) {
	svc, _ := newTestService(nil, nil)

	for _, text := range []string{
		"We need a HIPAA compliant patient intake system",
		"hmm",
		"yes",
	} {
		result, err := svc.ProcessTurn(context.Background(), models.TurnRequest{UserText: text})
		if err != nil {
			t.Fatalf("ProcessTurn(%q) error = %v", text, err)
		}
		if result.Question.Text == "" {
			t.Errorf("ProcessTurn(%q) produced no question", text)
		}
		if result.SessionID == "" {
			t.Error("Expected a generated session id")
		}
	}
}

func TestProcessTurn_DetectsDomainAndPersists(t *testing.T) {
	svc, store := newTestService(nil, nil)

	result, err := svc.ProcessTurn(context.Background(), models.TurnRequest{
		UserText: "We need a HIPAA compliant patient intake system",
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}
	if result.DomainContext.Domain != "healthcare" {
		t.Errorf("Expected healthcare, got %s", result.DomainContext.Domain)
	}
	if result.DomainContext.Confidence <= 0.7 {
		t.Errorf("Expected confident detection, got %v", result.DomainContext.Confidence)
	}

	sess, err := store.Get(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("Session not persisted: %v", err)
	}
	if sess.Turn != 1 || len(sess.DomainHistory) != 1 || len(sess.AskedQuestions) != 1 {
		t.Errorf("Session state incomplete after one turn: %+v", sess)
	}
}

func TestProcessTurn_AccumulatesRequirementsByQuestionType(t *testing.T) {
	svc, store := newTestService(nil, nil)
	ctx := context.Background()

	first, err := svc.ProcessTurn(ctx, models.TurnRequest{UserText: "We run a retail e-commerce checkout"})
	if err != nil {
		t.Fatalf("turn 1 error = %v", err)
	}

	answer := "It must settle payments within two seconds during sales events"
	if _, err := svc.ProcessTurn(ctx, models.TurnRequest{SessionID: first.SessionID, UserText: answer}); err != nil {
		t.Fatalf("turn 2 error = %v", err)
	}

	sess, err := store.Get(ctx, first.SessionID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	key := string(first.Question.Type)
	if got := sess.Requirements[key]; len(got) != 1 || got[0] != answer {
		t.Errorf("Expected the answer filed under %q, got %v", key, sess.Requirements)
	}
	if len(sess.Responses) != 2 {
		t.Errorf("Expected 2 recorded responses, got %d", len(sess.Responses))
	}
}

func TestProcessTurn_LowSignalStaysGeneral(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	ctx := context.Background()

	first, err := svc.ProcessTurn(ctx, models.TurnRequest{UserText: "hello"})
	if err != nil {
		t.Fatalf("turn 1 error = %v", err)
	}
	second, err := svc.ProcessTurn(ctx, models.TurnRequest{SessionID: first.SessionID, UserText: "ok"})
	if err != nil {
		t.Fatalf("turn 2 error = %v", err)
	}

	for i, result := range []*models.TurnResult{first, second} {
		if result.DomainContext.Domain != models.GeneralDomain {
			t.Errorf("Turn %d: expected %q, got %q", i+1, models.GeneralDomain, result.DomainContext.Domain)
		}
		if result.DomainContext.Confidence >= 0.50 {
			t.Errorf("Turn %d: low-signal input raised confidence to %v", i+1, result.DomainContext.Confidence)
		}
		if result.Question.Text == "" {
			t.Errorf("Turn %d: expected a question despite low signal", i+1)
		}
	}
}

func TestProcessTurn_NewerInputSupersedesInFlightTurn(t *testing.T) {
	store := &blockingStore{
		Store:   session.NewMemoryStore(time.Minute),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestServiceWith(store, nil, nil)
	ctx := context.Background()

	type outcome struct {
		result *models.TurnResult
		err    error
	}
	first := make(chan outcome, 1)
	go func() {
		r, err := svc.ProcessTurn(ctx, models.TurnRequest{SessionID: "s-race", UserText: "We ship industrial sensors"})
		first <- outcome{r, err}
	}()
	<-store.entered

	second := make(chan outcome, 1)
	go func() {
		r, err := svc.ProcessTurn(ctx, models.TurnRequest{SessionID: "s-race", UserText: "Actually it is about fleet telematics"})
		second <- outcome{r, err}
	}()

	// Wait until the second turn has claimed a newer sequence number, then let
	// the first one run to completion.
	g := svc.gate("s-race")
	deadline := time.Now().Add(time.Second)
	for !g.superseded(1) {
		if time.Now().After(deadline) {
			t.Fatal("Second turn never claimed the gate")
		}
		time.Sleep(time.Millisecond)
	}
	close(store.release)

	got1 := <-first
	if !errors.Is(got1.err, ErrSuperseded) {
		t.Fatalf("Expected the stale turn to be superseded, got result=%+v err=%v", got1.result, got1.err)
	}
	got2 := <-second
	if got2.err != nil {
		t.Fatalf("Latest turn error = %v", got2.err)
	}

	// Only the latest turn may persist.
	sess, err := store.Get(ctx, "s-race")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sess.Turn != 1 {
		t.Errorf("Expected exactly 1 persisted turn, got %d", sess.Turn)
	}
	if len(sess.Responses) != 1 || sess.Responses[0] != "Actually it is about fleet telematics" {
		t.Errorf("Expected only the latest input recorded, got %v", sess.Responses)
	}
}

func TestSweepGates_EvictsIdleSessionGates(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	svc.opts.IdleTimeout = 10 * time.Millisecond
	ctx := context.Background()

	first, err := svc.ProcessTurn(ctx, models.TurnRequest{UserText: "We build a warehouse picking system"})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}
	if _, ok := svc.gates.Load(first.SessionID); !ok {
		t.Fatal("Expected a gate for the active session")
	}

	time.Sleep(25 * time.Millisecond)
	if _, err := svc.ProcessTurn(ctx, models.TurnRequest{UserText: "hello"}); err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if _, ok := svc.gates.Load(first.SessionID); ok {
		t.Error("Expected the idle session's gate to be swept")
	}
}

func TestComplete_ArchivesPublishesAndRemoves(t *testing.T) {
	archiver := &fakeArchiver{}
	pub := &fakePublisher{}
	svc, store := newTestService(archiver, pub)
	ctx := context.Background()

	result, err := svc.ProcessTurn(ctx, models.TurnRequest{UserText: "We need SOX compliant trading reports"})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	artifact, err := svc.Complete(ctx, result.SessionID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if artifact.SessionID != result.SessionID {
		t.Errorf("Artifact session mismatch: %s", artifact.SessionID)
	}
	if len(archiver.archived) != 1 || archiver.archived[0].Status != models.SessionCompleted {
		t.Errorf("Expected one completed session archived, got %+v", archiver.archived)
	}
	if len(pub.published) != 1 {
		t.Errorf("Expected one artifact published, got %d", len(pub.published))
	}
	if _, err := store.Get(ctx, result.SessionID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Expected live session removed after completion, got %v", err)
	}
}

func TestComplete_UnknownSession(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	if _, err := svc.Complete(context.Background(), "missing"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}
