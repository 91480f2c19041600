package signature

import "context"

// StaticProvider serves signatures from an in-memory corpus. Fast and
// offline; the default when no signature knowledge source is wired.
type StaticProvider struct {
	corpus map[string]Weights
}

// NewStaticProvider creates a StaticProvider over the given corpus. A nil
// corpus falls back to the built-in default.
func NewStaticProvider(corpus map[string]Weights) *StaticProvider {
	if corpus == nil {
		corpus = DefaultCorpus()
	}
	return &StaticProvider{corpus: corpus}
}

// SignaturesFor returns the signatures of the candidate domains, or the whole
// corpus when candidates is empty.
func (p *StaticProvider) SignaturesFor(_ context.Context, candidates []string) (map[string]Weights, error) {
	if len(candidates) == 0 {
		out := make(map[string]Weights, len(p.corpus))
		for domain, w := range p.corpus {
			out[domain] = w
		}
		return out, nil
	}
	out := make(map[string]Weights, len(candidates))
	for _, domain := range candidates {
		if w, ok := p.corpus[domain]; ok {
			out[domain] = w
		}
	}
	return out, nil
}

// DefaultCorpus is the built-in signature corpus. It lives in the provider,
// not the classifier: swapping providers swaps vocabularies without touching
// classification logic.
func DefaultCorpus() map[string]Weights {
	return map[string]Weights{
		"healthcare": {
			"hipaa": 1.0, "phi": 1.0, "hitech": 0.9, "patient": 0.9,
			"clinical": 0.9, "diagnosis": 0.8, "treatment": 0.7,
			"medical": 0.8, "healthcare": 0.9, "intake": 0.6, "ehr": 0.9,
		},
		"finance": {
			"sox": 1.0, "pci": 1.0, "banking": 0.9, "payment": 0.7,
			"trading": 0.8, "investment": 0.7, "fintech": 0.9,
			"finance": 0.8, "ledger": 0.7, "settlement": 0.7, "kyc": 0.9,
		},
		"technology": {
			"api": 0.6, "graphql": 0.8, "webhook": 0.8, "database": 0.5,
			"kubernetes": 0.8, "microservice": 0.8, "serverless": 0.8,
			"oauth": 0.7, "jwt": 0.8, "encryption": 0.6, "cloud": 0.5,
		},
		"manufacturing": {
			"manufacturing": 0.9, "supply-chain": 0.9, "inventory": 0.7,
			"production": 0.6, "logistics": 0.7, "assembly": 0.7,
			"mes": 0.9, "plc": 0.9, "warehouse": 0.6,
		},
		"retail": {
			"retail": 0.9, "e-commerce": 0.9, "checkout": 0.7, "cart": 0.7,
			"sales": 0.5, "marketing": 0.5, "crm": 0.8, "pos": 0.8,
			"storefront": 0.8, "merchandising": 0.8,
		},
		"education": {
			"education": 0.9, "student": 0.8, "course": 0.6,
			"curriculum": 0.9, "assessment": 0.7, "lms": 0.9,
			"enrollment": 0.8, "grading": 0.8,
		},
		"government": {
			"government": 0.9, "citizen": 0.8, "policy": 0.6,
			"regulation": 0.7, "compliance": 0.5, "permit": 0.7,
			"procurement": 0.8, "fedramp": 1.0,
		},
		"legal": {
			"legal": 0.8, "contract": 0.6, "litigation": 0.9,
			"counsel": 0.8, "gdpr": 0.8, "discovery": 0.6,
			"paralegal": 0.9, "docket": 0.9,
		},
	}
}
