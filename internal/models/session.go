package models

import "time"

// SessionStatus marks where a session is in its lifecycle.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// QuestionSession is the per-conversation accumulation of domain, expertise
// and question history. It owns its history slices exclusively; snapshots are
// appended each turn and never mutated in place.
type QuestionSession struct {
	SessionID        string                  `json:"session_id" bson:"_id"`
	Status           SessionStatus           `json:"status" bson:"status"`
	DomainHistory    []DomainContext         `json:"domain_history" bson:"domain_history"`
	ExpertiseHistory []ExpertiseState        `json:"expertise_history" bson:"expertise_history"`
	AskedQuestions   []AdaptiveQuestion      `json:"asked_questions" bson:"asked_questions"`
	Responses        []string                `json:"responses" bson:"responses"`
	Requirements     map[string][]string     `json:"requirements" bson:"requirements"` // keyed by question type
	Turn             int                     `json:"turn" bson:"turn"`
	CreatedAt        time.Time               `json:"created_at" bson:"created_at"`
	LastActivityAt   time.Time               `json:"last_activity_at" bson:"last_activity_at"`
}

// NewQuestionSession creates an empty active session.
func NewQuestionSession(sessionID string, now time.Time) *QuestionSession {
	return &QuestionSession{
		SessionID:      sessionID,
		Status:         SessionActive,
		Requirements:   make(map[string][]string),
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// CurrentDomain returns the latest domain snapshot, or a general one when the
// session has no history yet.
func (s *QuestionSession) CurrentDomain() DomainContext {
	if len(s.DomainHistory) == 0 {
		return DomainContext{Domain: GeneralDomain, Source: SourceConversation, UpdatedAt: s.CreatedAt}
	}
	return s.DomainHistory[len(s.DomainHistory)-1]
}

// CurrentExpertise returns the latest expertise snapshot, defaulting to a
// novice baseline for fresh sessions.
func (s *QuestionSession) CurrentExpertise() ExpertiseState {
	if len(s.ExpertiseHistory) == 0 {
		return ExpertiseState{Level: LevelNovice, Sophistication: 1, Trend: TrendStable}
	}
	return s.ExpertiseHistory[len(s.ExpertiseHistory)-1]
}

// LastQuestion returns the most recently asked question, if any.
func (s *QuestionSession) LastQuestion() (AdaptiveQuestion, bool) {
	if len(s.AskedQuestions) == 0 {
		return AdaptiveQuestion{}, false
	}
	return s.AskedQuestions[len(s.AskedQuestions)-1], true
}

// SessionArtifact is the hand-off payload for the artifact-generation
// collaborator once a session completes.
type SessionArtifact struct {
	SessionID     string              `json:"session_id"`
	DomainContext DomainContext       `json:"domain_context"`
	Expertise     ExpertiseState      `json:"expertise"`
	Requirements  map[string][]string `json:"requirements"`
	Responses     []string            `json:"responses"`
	CompletedAt   time.Time           `json:"completed_at"`
}
