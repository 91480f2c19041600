package expertise

import (
	"math"
	"strings"

	"socratic/internal/models"
	"socratic/pkg/util"
)

// Level boundaries on the rolling score. With hysteresis applied they become
// a Schmitt trigger: crossing up needs boundary+margin, crossing back down
// needs boundary-margin, so a score oscillating on a boundary cannot flap the
// level every turn.
var levelBoundaries = [3]float64{0.25, 0.50, 0.75}

// Tracker scores response sophistication and maintains the discrete expertise
// level across a session. It is stateless; all history lives in the snapshots
// the caller passes back in.
type Tracker struct {
	window  int     // responses in the rolling average
	margin  float64 // hysteresis margin around level boundaries
	epsilon float64 // slope below which the trend reads stable
}

// NewTracker creates a Tracker.
func NewTracker(window int, margin, epsilon float64) *Tracker {
	if window <= 0 {
		window = 1
	}
	return &Tracker{window: window, margin: margin, epsilon: epsilon}
}

// Observe folds one user response into the expertise state. history is the
// session's prior snapshots, oldest first; the newest entry is the current
// state. The returned snapshot's level moves at most one tier per response.
func (t *Tracker) Observe(history []models.ExpertiseState, responseText string) models.ExpertiseState {
	score := ScoreResponse(responseText)

	rolling := t.rollingScore(history, score)
	prev := previousState(history)

	level := t.nextLevel(prev, rolling)
	return models.ExpertiseState{
		Level:          level,
		Sophistication: sophisticationBand(rolling),
		ResponseScore:  score,
		RollingScore:   rolling,
		Trend:          t.trend(history, rolling),
	}
}

// ScoreResponse rates one response's sophistication on [0,1] from structural
// features: technical shapes, vocabulary richness, and clause complexity.
// No domain vocabulary is consulted, so the score is domain-portable.
func ScoreResponse(text string) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}

	tokens := util.Tokenize(trimmed)
	if len(tokens) == 0 {
		return 0
	}

	var acronyms, compounds, longWords int
	totalLen := 0
	unique := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		totalLen += len(tok)
		unique[tok] = struct{}{}
		if len(tok) >= 8 {
			longWords++
		}
	}
	// Tokenize strips punctuation, so acronyms and hyphenated compounds are
	// counted over the raw words.
	for _, word := range strings.Fields(trimmed) {
		w := strings.Trim(word, ".,;:!?()\"'")
		if len(w) >= 2 && w == strings.ToUpper(w) && w[0] >= 'A' && w[0] <= 'Z' {
			acronyms++
		}
		if strings.Contains(strings.Trim(w, "-"), "-") {
			compounds++
		}
	}

	n := float64(len(tokens))

	// Each feature is squashed onto [0,1] before weighting.
	termDensity := math.Min(1, float64(acronyms+compounds)/math.Max(1, n/8))
	wordLength := math.Min(1, math.Max(0, (float64(totalLen)/n-3.5)/3.5))
	richness := float64(len(unique)) / n
	depth := math.Min(1, float64(longWords)/math.Max(1, n/6))
	clauses := math.Min(1, float64(strings.Count(trimmed, ",")+strings.Count(trimmed, ";"))/4)

	score := 0.30*termDensity + 0.20*wordLength + 0.15*richness + 0.20*depth + 0.15*clauses

	// Very short answers cannot demonstrate sophistication regardless of the
	// words chosen.
	if n < 5 {
		score *= n / 5
	}
	return clamp01(score)
}

// rollingScore averages the newest score with the most recent window-1
// per-response scores.
func (t *Tracker) rollingScore(history []models.ExpertiseState, score float64) float64 {
	sum := score
	count := 1
	for i := len(history) - 1; i >= 0 && count < t.window; i-- {
		sum += history[i].ResponseScore
		count++
	}
	return sum / float64(count)
}

// nextLevel applies hysteresis boundaries and clamps movement to one tier.
func (t *Tracker) nextLevel(prev models.ExpertiseState, rolling float64) models.ExpertiseLevel {
	current := prev.Level.Ordinal()

	target := current
	// Promote only past boundary+margin, demote only below boundary-margin.
	for target < len(levelBoundaries) && rolling > levelBoundaries[target]+t.margin {
		target++
	}
	for target > 0 && rolling < levelBoundaries[target-1]-t.margin {
		target--
	}

	switch {
	case target > current:
		current++
	case target < current:
		current--
	}
	return models.LevelFromOrdinal(current)
}

// trend compares the new rolling score against the previous one.
func (t *Tracker) trend(history []models.ExpertiseState, rolling float64) models.Trend {
	if len(history) == 0 {
		return models.TrendStable
	}
	slope := rolling - history[len(history)-1].RollingScore
	switch {
	case slope > t.epsilon:
		return models.TrendRising
	case slope < -t.epsilon:
		return models.TrendFalling
	default:
		return models.TrendStable
	}
}

// sophisticationBand maps a rolling score onto the 1..5 question band.
func sophisticationBand(rolling float64) int {
	band := int(rolling*5) + 1
	if band > 5 {
		band = 5
	}
	if band < 1 {
		band = 1
	}
	return band
}

func previousState(history []models.ExpertiseState) models.ExpertiseState {
	if len(history) == 0 {
		return models.ExpertiseState{Level: models.LevelNovice, Sophistication: 1, Trend: models.TrendStable}
	}
	return history[len(history)-1]
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
