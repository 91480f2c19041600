package classify

import (
	"context"
	"errors"
	"testing"

	"socratic/internal/models"
	"socratic/internal/signature"
	"socratic/pkg/logger"
)

type failingProvider struct{}

func (failingProvider) SignaturesFor(context.Context, []string) (map[string]signature.Weights, error) {
	return nil, errors.New("signature backend down")
}

func newTestClassifier() *Classifier {
	return NewClassifier(
		signature.NewStaticProvider(nil),
		signature.NoRelatedFinder{},
		models.SourceConversation,
		0.40, 0.50,
		logger.New("ClassifierTest", ""),
	)
}

// healthcareIndicators mirrors what signal extraction yields for a turn like
// "We need a HIPAA compliant patient intake system".
func healthcareIndicators() []models.Indicator {
	return []models.Indicator{
		{Phrase: "hipaa", Weight: 1.0},
		{Phrase: "compliant", Weight: 0.3},
		{Phrase: "patient", Weight: 0.3},
		{Phrase: "intake", Weight: 0.3},
		{Phrase: "system", Weight: 0.3},
	}
}

func TestClassify_StrongFirstTurn(t *testing.T) {
	c := newTestClassifier()
	ctx := c.Classify(context.Background(), healthcareIndicators(), nil)

	if ctx.Domain != "healthcare" {
		t.Fatalf("Expected healthcare, got %s", ctx.Domain)
	}
	if ctx.Confidence <= 0.7 {
		t.Errorf("Expected confidence above 0.7 for a strong first turn, got %v", ctx.Confidence)
	}
	if ctx.Confidence > 1 {
		t.Errorf("Confidence out of range: %v", ctx.Confidence)
	}
	if len(ctx.Indicators) != 3 {
		t.Errorf("Expected 3 matched indicators, got %v", ctx.Indicators)
	}
}

func TestClassify_NoEvidenceIsGeneral(t *testing.T) {
	c := newTestClassifier()
	ctx := c.Classify(context.Background(), []models.Indicator{{Phrase: "banana", Weight: 0.3}}, nil)

	if !ctx.IsGeneral() {
		t.Errorf("Expected general domain, got %s", ctx.Domain)
	}
	if ctx.Confidence != 0 {
		t.Errorf("Expected zero confidence, got %v", ctx.Confidence)
	}
}

func TestClassify_SmoothingBlendsWithPrior(t *testing.T) {
	c := newTestClassifier()
	first := c.Classify(context.Background(), healthcareIndicators(), nil)

	// A weaker follow-up on the same domain should land between its own
	// evidence and the prior, not jump.
	weaker := []models.Indicator{{Phrase: "patient", Weight: 0.3}, {Phrase: "clinical", Weight: 0.3}}
	second := c.Classify(context.Background(), weaker, &first)

	if second.Domain != "healthcare" {
		t.Fatalf("Expected healthcare to persist, got %s", second.Domain)
	}
	if second.Confidence >= first.Confidence {
		t.Errorf("Expected weaker evidence to lower confidence: first=%v second=%v", first.Confidence, second.Confidence)
	}
	if second.Confidence < 0.5 {
		t.Errorf("Expected prior to hold confidence above the floor, got %v", second.Confidence)
	}
}

func TestClassify_EstablishedDomainSurvivesOffTopicTurn(t *testing.T) {
	c := newTestClassifier()
	prior := &models.DomainContext{Domain: "finance", Confidence: 0.9, Source: models.SourceConversation}

	ctx := c.Classify(context.Background(), []models.Indicator{{Phrase: "lunch", Weight: 0.3}}, prior)

	if ctx.Domain != "finance" {
		t.Fatalf("Expected finance to persist through one off-topic turn, got %s", ctx.Domain)
	}
	if ctx.Confidence >= prior.Confidence {
		t.Errorf("Expected confidence to decay, got %v", ctx.Confidence)
	}
}

func TestClassify_WeakPriorFallsBackToGeneral(t *testing.T) {
	c := newTestClassifier()
	prior := &models.DomainContext{Domain: "finance", Confidence: 0.55, Source: models.SourceConversation}

	// 0.6 * 0.55 decays below the 0.5 floor.
	ctx := c.Classify(context.Background(), nil, prior)
	if !ctx.IsGeneral() {
		t.Errorf("Expected weak prior to fall back to general, got %s at %v", ctx.Domain, ctx.Confidence)
	}
}

func TestClassify_DomainShiftTakesFreshEvidence(t *testing.T) {
	c := newTestClassifier()
	prior := &models.DomainContext{Domain: "healthcare", Confidence: 0.8, Source: models.SourceConversation}

	finance := []models.Indicator{
		{Phrase: "sox", Weight: 1.0},
		{Phrase: "kyc", Weight: 1.0},
		{Phrase: "banking", Weight: 0.3},
	}
	ctx := c.Classify(context.Background(), finance, prior)

	if ctx.Domain != "finance" {
		t.Fatalf("Expected shift to finance, got %s", ctx.Domain)
	}
	if ctx.Confidence < 0.5 || ctx.Confidence > 1 {
		t.Errorf("Confidence out of range after shift: %v", ctx.Confidence)
	}
}

func TestClassify_ProviderFailureIsGeneralNotError(t *testing.T) {
	c := NewClassifier(failingProvider{}, nil, models.SourceConversation, 0.40, 0.50, logger.New("ClassifierTest", ""))
	ctx := c.Classify(context.Background(), healthcareIndicators(), nil)
	if !ctx.IsGeneral() {
		t.Errorf("Expected general when the provider fails, got %s", ctx.Domain)
	}
}
