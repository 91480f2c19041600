package models

// ExpertiseLevel is the discrete tier summarizing demonstrated sophistication.
type ExpertiseLevel string

const (
	LevelNovice       ExpertiseLevel = "novice"
	LevelIntermediate ExpertiseLevel = "intermediate"
	LevelAdvanced     ExpertiseLevel = "advanced"
	LevelExpert       ExpertiseLevel = "expert"
)

// Ordinal maps a level onto 0..3 for distance arithmetic.
func (l ExpertiseLevel) Ordinal() int {
	switch l {
	case LevelIntermediate:
		return 1
	case LevelAdvanced:
		return 2
	case LevelExpert:
		return 3
	default:
		return 0
	}
}

// LevelFromOrdinal is the inverse of Ordinal, clamped to the valid range.
func LevelFromOrdinal(n int) ExpertiseLevel {
	switch {
	case n <= 0:
		return LevelNovice
	case n == 1:
		return LevelIntermediate
	case n == 2:
		return LevelAdvanced
	default:
		return LevelExpert
	}
}

// Trend describes the short-term slope of the rolling expertise score.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendStable  Trend = "stable"
	TrendFalling Trend = "falling"
)

// ExpertiseState is one snapshot of tracked user expertise.
type ExpertiseState struct {
	Level          ExpertiseLevel `json:"level" bson:"level"`
	Sophistication int            `json:"sophistication" bson:"sophistication"`   // 1..5
	ResponseScore  float64        `json:"response_score" bson:"response_score"`   // this response alone, [0,1]
	RollingScore   float64        `json:"rolling_score" bson:"rolling_score"`     // windowed average, [0,1]
	Trend          Trend          `json:"trend" bson:"trend"`
}
