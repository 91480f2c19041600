package config

// Default tuning constants. The source material drifted between 0.65, 0.7 and
// 0.85 for what was ostensibly one confidence threshold; here every threshold
// exists exactly once.
const (
	// DefaultSmoothingAlpha is the exponential-smoothing weight of fresh
	// evidence against the prior domain belief.
	DefaultSmoothingAlpha = 0.40

	// DefaultMinConfidence is the minimum classification confidence; below it
	// the domain resolves to "general".
	DefaultMinConfidence = 0.50

	// DefaultDuplicateSimilarity rejects near-duplicate questions in a session.
	DefaultDuplicateSimilarity = 0.80

	// DefaultDedupSimilarity merges near-identical knowledge fragments.
	DefaultDedupSimilarity = 0.80

	// DefaultRollingWindow is the number of responses in the expertise rolling
	// average.
	DefaultRollingWindow = 3

	// DefaultHysteresisMargin widens level boundaries into a Schmitt trigger:
	// up-threshold = boundary+margin, down-threshold = boundary-margin.
	DefaultHysteresisMargin = 0.07

	// DefaultTrendEpsilon is the rolling-score slope under which the trend
	// reads as stable.
	DefaultTrendEpsilon = 0.03

	// DefaultMaxConcurrency bounds the aggregator fan-out.
	DefaultMaxConcurrency = 4

	// DefaultCacheCapacity caps the knowledge cache before LRU eviction.
	DefaultCacheCapacity = 256
)

// Default durations, kept as strings so YAML overrides read the same way.
const (
	DefaultTurnBudget        = "3s"
	DefaultMinKnowledgeSlice = "500ms"
	DefaultSourceTimeout     = "2s"
	DefaultCacheTTL          = "10m"
	DefaultRecencyHalfLife   = "6h"
	DefaultIdleTimeout       = "30m"
)

// ApplyDefaults fills any zero-valued engine tuning field.
func (e *EngineConfig) ApplyDefaults() {
	if e.Classifier.SmoothingAlpha == 0 {
		e.Classifier.SmoothingAlpha = DefaultSmoothingAlpha
	}
	if e.Classifier.MinConfidence == 0 {
		e.Classifier.MinConfidence = DefaultMinConfidence
	}
	if e.Expertise.RollingWindow == 0 {
		e.Expertise.RollingWindow = DefaultRollingWindow
	}
	if e.Expertise.HysteresisMargin == 0 {
		e.Expertise.HysteresisMargin = DefaultHysteresisMargin
	}
	if e.Expertise.TrendEpsilon == 0 {
		e.Expertise.TrendEpsilon = DefaultTrendEpsilon
	}
	if e.Question.DuplicateSimilarity == 0 {
		e.Question.DuplicateSimilarity = DefaultDuplicateSimilarity
	}
	if e.Knowledge.MaxConcurrency == 0 {
		e.Knowledge.MaxConcurrency = DefaultMaxConcurrency
	}
	if e.Knowledge.DedupSimilarity == 0 {
		e.Knowledge.DedupSimilarity = DefaultDedupSimilarity
	}
	if e.Knowledge.CacheCapacity == 0 {
		e.Knowledge.CacheCapacity = DefaultCacheCapacity
	}
	if e.Knowledge.CacheTTL == "" {
		e.Knowledge.CacheTTL = DefaultCacheTTL
	}
	if e.Knowledge.RecencyHalfLife == "" {
		e.Knowledge.RecencyHalfLife = DefaultRecencyHalfLife
	}
	if e.Orchestrator.TurnBudget == "" {
		e.Orchestrator.TurnBudget = DefaultTurnBudget
	}
	if e.Orchestrator.MinKnowledgeSlice == "" {
		e.Orchestrator.MinKnowledgeSlice = DefaultMinKnowledgeSlice
	}
	if e.Orchestrator.IdleTimeout == "" {
		e.Orchestrator.IdleTimeout = DefaultIdleTimeout
	}
}
