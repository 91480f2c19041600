package signature

import (
	"context"

	neo4jdb "socratic/internal/database/neo4j"
	"socratic/internal/models"
	"socratic/pkg/logger"
)

const relatedDomainsCypher = `
MATCH (d:Domain {name: $domain})-[:RELATED_TO]->(r:Domain)
RETURN r.name AS name
ORDER BY name`

// RelatedDomainFinder answers "which domains border this one" from the domain
// graph, enriching classified contexts with adjacent vocabularies.
type RelatedDomainFinder interface {
	RelatedDomains(ctx context.Context, domain string) []string
}

// GraphRelatedFinder reads the RELATED_TO edges of the Neo4j domain graph.
// It fails open: an unreachable graph yields no related domains, never an
// error, so classification is unaffected by graph outages.
type GraphRelatedFinder struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

// NewGraphRelatedFinder creates a GraphRelatedFinder.
func NewGraphRelatedFinder(client *neo4jdb.Client, log *logger.Logger) *GraphRelatedFinder {
	return &GraphRelatedFinder{client: client, log: log}
}

// RelatedDomains returns the neighbors of domain in the graph.
func (f *GraphRelatedFinder) RelatedDomains(ctx context.Context, domain string) []string {
	if domain == "" || domain == models.GeneralDomain {
		return nil
	}
	records, err := f.client.ReadCypher(ctx, relatedDomainsCypher, map[string]interface{}{"domain": domain})
	if err != nil {
		f.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "domain_graph_error"}).
			Warn("domain graph unavailable, continuing without related domains")
		return nil
	}
	var related []string
	for _, record := range records {
		name, ok := record.Get("name")
		if !ok {
			continue
		}
		if s, ok := name.(string); ok && s != "" {
			related = append(related, s)
		}
	}
	return related
}

// NoRelatedFinder is the finder used when no domain graph is configured.
type NoRelatedFinder struct{}

// RelatedDomains always returns nil.
func (NoRelatedFinder) RelatedDomains(context.Context, string) []string { return nil }
