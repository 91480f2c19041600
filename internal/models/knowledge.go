package models

import "time"

// SourceKind classifies a knowledge source connector.
type SourceKind string

const (
	SourceKindCache           SourceKind = "cache"
	SourceKindStructuredDoc   SourceKind = "structured-doc"
	SourceKindWebSearch       SourceKind = "web-search"
	SourceKindDomainSignature SourceKind = "domain-signature"
)

// KnowledgeSource describes a connector the aggregator may fan out to.
type KnowledgeSource struct {
	ID       string        `json:"id" bson:"id"`
	Kind     SourceKind    `json:"kind" bson:"kind"`
	Timeout  time.Duration `json:"timeout" bson:"timeout"`
	Priority int           `json:"priority" bson:"priority"` // higher wins on rank ties
}

// KnowledgeFragment is a single piece of content returned by one source.
type KnowledgeFragment struct {
	Content     string    `json:"content" bson:"content"`
	SourceID    string    `json:"source_id" bson:"source_id"`
	Confidence  float64   `json:"confidence" bson:"confidence"`
	Attribution string    `json:"attribution" bson:"attribution"`
	FetchedAt   time.Time `json:"fetched_at" bson:"fetched_at"`
}

// KnowledgeResult is the merged outcome of one aggregation call. A degraded
// result (no fragments, Degraded=true) is a valid outcome, not an error.
type KnowledgeResult struct {
	Content     string              `json:"content" bson:"content"`
	Fragments   []KnowledgeFragment `json:"fragments" bson:"fragments"`
	Sources     []KnowledgeSource   `json:"sources" bson:"sources"`
	Confidence  float64             `json:"confidence" bson:"confidence"`
	Attribution []string            `json:"attribution" bson:"attribution"`
	FetchedAt   time.Time           `json:"fetched_at" bson:"fetched_at"`
	Degraded    bool                `json:"degraded" bson:"degraded"`
}

// NoKnowledge builds the explicit "no external knowledge" result returned
// when every source failed or timed out.
func NoKnowledge(now time.Time) *KnowledgeResult {
	return &KnowledgeResult{
		Fragments:   []KnowledgeFragment{},
		Sources:     []KnowledgeSource{},
		Attribution: []string{},
		FetchedAt:   now,
		Degraded:    true,
	}
}
