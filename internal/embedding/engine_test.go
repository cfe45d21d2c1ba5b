package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHashEngineDeterministic(t *testing.T) {
	e := NewHashEngine(0)
	ctx := context.Background()

	a, err := e.Embed(ctx, "password lockout threshold")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	b, _ := e.Embed(ctx, "password lockout threshold")

	if len(a) != e.Dimensions() {
		t.Fatalf("got %d dims, want %d", len(a), e.Dimensions())
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text produced different vectors")
		}
	}
}

func TestHashEngineNormalized(t *testing.T) {
	e := NewHashEngine(64)
	vec, err := e.Embed(context.Background(), "account review monitor")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm < 0.99 || norm > 1.01 {
		t.Errorf("vector norm = %f, want ~1", norm)
	}
}

func TestHashEngineEmptyText(t *testing.T) {
	e := NewHashEngine(16)
	vec, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatal("empty text should produce the zero vector")
		}
	}
}

func TestOllamaEngineEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"embedding": [0.1, 0.2, 0.3]}`))
	}))
	defer srv.Close()

	e, err := NewOllamaEngine(Config{OllamaEndpoint: srv.URL, OllamaModel: "embeddinggemma"})
	if err != nil {
		t.Fatalf("NewOllamaEngine failed: %v", err)
	}
	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("got %d values", len(vec))
	}
}

func TestOllamaEngineConfig(t *testing.T) {
	e, err := NewOllamaEngine(Config{Dimensions: 1024, Timeout: "5s"})
	if err != nil {
		t.Fatalf("NewOllamaEngine failed: %v", err)
	}
	if e.Dimensions() != 1024 {
		t.Errorf("dimensions = %d, want 1024", e.Dimensions())
	}
	if e.client.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", e.client.Timeout)
	}

	e, _ = NewOllamaEngine(Config{})
	if e.Dimensions() != 768 {
		t.Errorf("default dimensions = %d, want 768", e.Dimensions())
	}
}

func TestHTTPTimeoutFallback(t *testing.T) {
	if got := (Config{}).HTTPTimeout(); got != 30*time.Second {
		t.Errorf("unset timeout = %v, want 30s", got)
	}
	if got := (Config{Timeout: "soon"}).HTTPTimeout(); got != 30*time.Second {
		t.Errorf("bad timeout = %v, want 30s", got)
	}
	if got := (Config{Timeout: "2m"}).HTTPTimeout(); got != 2*time.Minute {
		t.Errorf("timeout = %v, want 2m", got)
	}
}

func TestNewEngineSelection(t *testing.T) {
	e, err := NewEngine(Config{Provider: "hash"})
	if err != nil {
		t.Fatalf("NewEngine(hash) failed: %v", err)
	}
	if e.Name() != "hash" {
		t.Errorf("engine name = %s", e.Name())
	}

	if _, err := NewEngine(Config{Provider: "abacus"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := NewEngine(Config{Provider: "genai"}); err == nil {
		t.Error("genai without API key should fail")
	}
}
