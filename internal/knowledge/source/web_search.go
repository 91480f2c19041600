package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"socratic/internal/knowledge"
	"socratic/internal/models"
	httpclient "socratic/pkg/http"
)

const webResultLimit = 3

// webSearchResponse is the wire shape returned by the search endpoint.
type webSearchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		Snippet string  `json:"snippet"`
		URL     string  `json:"url"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// WebSearchSource fetches fresh context from an external search endpoint.
// It sits behind the shared circuit-breaking HTTP client so a flaky upstream
// trips open instead of burning the turn budget.
type WebSearchSource struct {
	client   *httpclient.Client
	endpoint string
	desc     models.KnowledgeSource
}

// NewWebSearchSource creates a WebSearchSource against the given endpoint.
func NewWebSearchSource(client *httpclient.Client, endpoint string, desc models.KnowledgeSource) *WebSearchSource {
	desc.Kind = models.SourceKindWebSearch
	return &WebSearchSource{client: client, endpoint: endpoint, desc: desc}
}

// Descriptor identifies the source.
func (s *WebSearchSource) Descriptor() models.KnowledgeSource { return s.desc }

// Query issues the search and maps result snippets onto fragments.
func (s *WebSearchSource) Query(ctx context.Context, text, domain string) ([]models.KnowledgeFragment, error) {
	query := text
	if domain != "" && domain != models.GeneralDomain {
		query = domain + " " + text
	}

	reqURL := fmt.Sprintf("%s?q=%s&limit=%d", s.endpoint, url.QueryEscape(query), webResultLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	var parsed webSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	now := time.Now()
	var fragments []models.KnowledgeFragment
	for _, r := range parsed.Results {
		if r.Snippet == "" {
			continue
		}
		conf := r.Score
		if conf <= 0 || conf > 1 {
			conf = 0.5
		}
		fragments = append(fragments, models.KnowledgeFragment{
			Content:     r.Snippet,
			SourceID:    s.desc.ID,
			Confidence:  conf,
			Attribution: r.URL,
			FetchedAt:   now,
		})
	}
	if len(fragments) == 0 {
		return nil, knowledge.ErrNoContent
	}
	return fragments, nil
}
