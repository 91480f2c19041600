package models

import "time"

// GeneralDomain is the sentinel domain used whenever classification evidence
// stays below the configured minimum confidence.
const GeneralDomain = "general"

// DomainSource identifies where a domain detection came from.
type DomainSource string

const (
	// SourceConversation means the domain was inferred from turn text alone.
	SourceConversation DomainSource = "conversation"
	// SourceKnowledge means external knowledge sources drove the detection.
	SourceKnowledge DomainSource = "knowledge"
	// SourceHybrid means conversation evidence was refined with knowledge.
	SourceHybrid DomainSource = "hybrid"
)

// Indicator is a weighted domain signal extracted from raw text.
type Indicator struct {
	Phrase string  `json:"phrase" bson:"phrase"`
	Weight float64 `json:"weight" bson:"weight"`
}

// DomainContext is one snapshot of the inferred subject-matter domain.
// Snapshots are value objects: appended to session history, never mutated.
type DomainContext struct {
	Domain     string       `json:"domain" bson:"domain"`
	Confidence float64      `json:"confidence" bson:"confidence"` // always in [0,1]
	Indicators []string     `json:"indicators" bson:"indicators"`
	Related    []string     `json:"related,omitempty" bson:"related,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at" bson:"updated_at"`
	Source     DomainSource `json:"source" bson:"source"`
}

// IsGeneral reports whether the context resolved to the sentinel domain.
func (d DomainContext) IsGeneral() bool {
	return d.Domain == GeneralDomain
}
