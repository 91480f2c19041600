package knowledge

import (
	"context"
	"errors"

	"socratic/internal/models"
)

// ErrNoContent is returned by a source that answered but had nothing relevant.
// The aggregator treats it as an empty contribution, not a failure.
var ErrNoContent = errors.New("knowledge source returned no content")

// Source is the connector contract every knowledge source implements.
// Failures are isolated: one source's error or timeout must not affect the
// others, so implementations return errors instead of panicking and honor
// ctx cancellation.
type Source interface {
	// Descriptor identifies the source and carries its timeout and priority.
	Descriptor() models.KnowledgeSource
	// Query returns content fragments relevant to the text within the domain.
	Query(ctx context.Context, text, domain string) ([]models.KnowledgeFragment, error)
}

// CacheWriter is implemented by cache-kind sources that accept write-back of
// merged results, making them useful across engine instances.
type CacheWriter interface {
	Store(ctx context.Context, query, domain string, result *models.KnowledgeResult) error
}
