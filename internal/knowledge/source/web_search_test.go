package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socratic/internal/config"
	"socratic/internal/knowledge"
	"socratic/internal/models"
	httpclient "socratic/pkg/http"
)

func newWebSource(endpoint string) *WebSearchSource {
	cfg := config.CircuitBreakerConfig{Enabled: true, FailureThreshold: 3, SuccessThreshold: 1, Timeout: "10s"}
	client := httpclient.NewClient(cfg, 2*time.Second)
	return NewWebSearchSource(client, endpoint, models.KnowledgeSource{ID: "web", Timeout: 2 * time.Second})
}

func TestWebSearchSource_ParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "healthcare hipaa audit" {
			t.Errorf("Unexpected query: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"title":"HIPAA Audit Guide","snippet":"Audit controls must log PHI access","url":"https://example.com/a","score":0.9},
			{"title":"Empty","snippet":"","url":"https://example.com/b","score":0.5}
		]}`))
	}))
	defer server.Close()

	src := newWebSource(server.URL)
	fragments, err := src.Query(context.Background(), "hipaa audit", "healthcare")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(fragments) != 1 {
		t.Fatalf("Expected 1 fragment (empty snippets skipped), got %d", len(fragments))
	}
	if fragments[0].Content != "Audit controls must log PHI access" {
		t.Errorf("Unexpected content: %q", fragments[0].Content)
	}
	if fragments[0].Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9, got %v", fragments[0].Confidence)
	}
	if fragments[0].Attribution != "https://example.com/a" {
		t.Errorf("Expected URL attribution, got %q", fragments[0].Attribution)
	}
}

func TestWebSearchSource_EmptyAnswerIsNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	src := newWebSource(server.URL)
	if _, err := src.Query(context.Background(), "anything", ""); !errors.Is(err, knowledge.ErrNoContent) {
		t.Errorf("Expected ErrNoContent, got %v", err)
	}
}

func TestWebSearchSource_ServerErrorsTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := config.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, SuccessThreshold: 1, Timeout: "10s"}
	client := httpclient.NewClient(cfg, 2*time.Second)
	src := NewWebSearchSource(client, server.URL, models.KnowledgeSource{ID: "web"})

	// Two failures trip the breaker; the third call is rejected client-side.
	for i := 0; i < 2; i++ {
		if _, err := src.Query(context.Background(), "q", ""); err == nil {
			t.Fatalf("Expected error on call %d", i+1)
		}
	}
	_, err := src.Query(context.Background(), "q", "")
	if err == nil {
		t.Fatal("Expected the open breaker to reject the call")
	}
}
