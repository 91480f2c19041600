package expertise

import (
	"testing"

	"socratic/internal/models"
)

const (
	simpleAnswer = "I just want it to work for my team."
	expertAnswer = "We standardized on PostgreSQL logical replication with idempotent consumers; " +
		"the reconciliation pipeline enforces exactly-once semantics, backpressure-aware batching, " +
		"and deterministic conflict resolution across partitioned event streams."
)

func newTestTracker() *Tracker {
	return NewTracker(3, 0.07, 0.03)
}

func TestScoreResponse_Range(t *testing.T) {
	for _, text := range []string{"", "ok", simpleAnswer, expertAnswer} {
		score := ScoreResponse(text)
		if score < 0 || score > 1 {
			t.Errorf("ScoreResponse(%q) = %v, out of [0,1]", text, score)
		}
	}
}

func TestScoreResponse_OrdersBySophistication(t *testing.T) {
	if ScoreResponse(simpleAnswer) >= ScoreResponse(expertAnswer) {
		t.Errorf("Expected expert answer to outscore simple answer: %v vs %v",
			ScoreResponse(simpleAnswer), ScoreResponse(expertAnswer))
	}
}

func TestObserve_FirstResponseStartsNearNovice(t *testing.T) {
	tr := newTestTracker()
	state := tr.Observe(nil, simpleAnswer)

	if state.Level != models.LevelNovice {
		t.Errorf("Expected novice for a simple first answer, got %s", state.Level)
	}
	if state.Trend != models.TrendStable {
		t.Errorf("Expected stable trend with no history, got %s", state.Trend)
	}
	if state.Sophistication < 1 || state.Sophistication > 5 {
		t.Errorf("Sophistication out of band: %d", state.Sophistication)
	}
}

func TestObserve_LevelMovesAtMostOneTierPerResponse(t *testing.T) {
	tr := newTestTracker()
	var history []models.ExpertiseState

	prev := models.LevelNovice
	for i := 0; i < 6; i++ {
		state := tr.Observe(history, expertAnswer)
		if diff := state.Level.Ordinal() - prev.Ordinal(); diff > 1 || diff < -1 {
			t.Fatalf("Level jumped %d tiers on response %d (%s -> %s)", diff, i+1, prev, state.Level)
		}
		prev = state.Level
		history = append(history, state)
	}

	// Sustained expert answers should have climbed past novice by now.
	if prev == models.LevelNovice {
		t.Errorf("Expected sustained sophisticated answers to raise the level, still %s", prev)
	}
}

func TestNextLevel_HysteresisPreventsFlapping(t *testing.T) {
	tr := newTestTracker()

	// Sitting just above the novice/intermediate boundary but inside the
	// margin must not promote.
	state := models.ExpertiseState{Level: models.LevelNovice}
	if got := tr.nextLevel(state, 0.27); got != models.LevelNovice {
		t.Errorf("Expected no promotion inside the margin, got %s", got)
	}
	// Clearly past the margin promotes.
	if got := tr.nextLevel(state, 0.35); got != models.LevelIntermediate {
		t.Errorf("Expected promotion past the margin, got %s", got)
	}

	// And once intermediate, dipping just below the boundary must not demote.
	state.Level = models.LevelIntermediate
	if got := tr.nextLevel(state, 0.23); got != models.LevelIntermediate {
		t.Errorf("Expected no demotion inside the margin, got %s", got)
	}
	if got := tr.nextLevel(state, 0.10); got != models.LevelNovice {
		t.Errorf("Expected demotion well below the margin, got %s", got)
	}
}

func TestObserve_TrendTracksSlope(t *testing.T) {
	tr := newTestTracker()
	history := []models.ExpertiseState{{
		Level: models.LevelNovice, ResponseScore: 0.1, RollingScore: 0.1,
	}}

	rising := tr.Observe(history, expertAnswer)
	if rising.Trend != models.TrendRising {
		t.Errorf("Expected rising trend, got %s", rising.Trend)
	}

	history = []models.ExpertiseState{{
		Level: models.LevelAdvanced, ResponseScore: 0.9, RollingScore: 0.9,
	}}
	falling := tr.Observe(history, simpleAnswer)
	if falling.Trend != models.TrendFalling {
		t.Errorf("Expected falling trend, got %s", falling.Trend)
	}
}
