package models

import "time"

// QuestionType is the Socratic slot a question fills within a session.
type QuestionType string

const (
	QuestionClarifying        QuestionType = "clarifying"
	QuestionExploration       QuestionType = "exploration"
	QuestionAssumptionTesting QuestionType = "assumption-testing"
	QuestionConceptValidation QuestionType = "concept-validation"
)

// QuestionTypes lists every slot in selection-priority order.
var QuestionTypes = []QuestionType{
	QuestionClarifying,
	QuestionExploration,
	QuestionAssumptionTesting,
	QuestionConceptValidation,
}

// AdaptiveQuestion is a generated question with its difficulty and context.
type AdaptiveQuestion struct {
	ID             string        `json:"id" bson:"_id"`
	Text           string        `json:"text" bson:"text"`
	Sophistication int           `json:"sophistication" bson:"sophistication"` // 1..5
	Type           QuestionType  `json:"type" bson:"type"`
	DomainContext  DomainContext `json:"domain_context" bson:"domain_context"`
	AskedAt        time.Time     `json:"asked_at" bson:"asked_at"`
}
