package signature

import "context"

// Weights maps indicator phrase -> weight within one domain signature.
type Weights map[string]float64

// Provider supplies domain -> indicator-weight signatures to the classifier.
// The classifier is agnostic to whether signatures come from a static corpus
// or a queried knowledge source; both variants satisfy this interface.
type Provider interface {
	// SignaturesFor returns signatures for the candidate domains, or for every
	// known domain when candidates is empty.
	SignaturesFor(ctx context.Context, candidates []string) (map[string]Weights, error)
}
