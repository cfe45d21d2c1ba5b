package index

import (
	"context"
	"math"
	"testing"

	"gapaudit/internal/embedding"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(":memory:", "policy.md", embedding.NewHashEngine(0))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexAddAndCount(t *testing.T) {
	idx := newTestIndex(t)
	chunks := []Chunk{
		{Source: "policy.md", LineStart: 1, LineEnd: 4, Content: "password rotation every ninety days"},
		{Source: "policy.md", LineStart: 5, LineEnd: 9, Content: "screen lock after five minutes idle"},
	}
	if err := idx.Add(context.Background(), chunks); err != nil {
		t.Fatalf("Add: %v", err)
	}
	n, err := idx.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}
}

func TestIndexSearchRanksByRelevance(t *testing.T) {
	idx := newTestIndex(t)
	chunks := []Chunk{
		{Source: "policy.md", LineStart: 1, LineEnd: 3, Content: "all accounts must use multi factor authentication"},
		{Source: "policy.md", LineStart: 4, LineEnd: 6, Content: "backups are retained for thirty days offsite"},
		{Source: "policy.md", LineStart: 7, LineEnd: 9, Content: "multi factor authentication is required for vpn access"},
	}
	if err := idx.Add(context.Background(), chunks); err != nil {
		t.Fatalf("Add: %v", err)
	}

	results, err := idx.Search(context.Background(), "multi factor authentication requirements", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Content == "backups are retained for thirty days offsite" {
			t.Errorf("irrelevant chunk ranked in top 2")
		}
	}
	if results[0].Similarity < results[1].Similarity {
		t.Errorf("results not ordered by similarity: %f then %f",
			results[0].Similarity, results[1].Similarity)
	}
	if results[0].LineStart == 0 || results[0].LineEnd == 0 {
		t.Errorf("result missing line range: %+v", results[0])
	}
}

func TestIndexSearchTopKBound(t *testing.T) {
	idx := newTestIndex(t)
	chunks := []Chunk{
		{Source: "policy.md", LineStart: 1, LineEnd: 1, Content: "alpha"},
		{Source: "policy.md", LineStart: 2, LineEnd: 2, Content: "bravo"},
		{Source: "policy.md", LineStart: 3, LineEnd: 3, Content: "charlie"},
	}
	if err := idx.Add(context.Background(), chunks); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := idx.Search(context.Background(), "alpha", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) > 2 {
		t.Fatalf("got %d results, want at most 2", len(results))
	}
}

func TestIndexSearchKeyword(t *testing.T) {
	idx := newTestIndex(t)
	chunks := []Chunk{
		{Source: "policy.md", LineStart: 1, LineEnd: 2, Content: "Account lockout threshold is five attempts"},
		{Source: "policy.md", LineStart: 3, LineEnd: 4, Content: "Visitors must sign the front desk register"},
	}
	if err := idx.Add(context.Background(), chunks); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := idx.SearchKeyword(context.Background(), "account lockout", 5)
	if err != nil {
		t.Fatalf("SearchKeyword: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].LineStart != 1 {
		t.Errorf("wrong chunk matched: %+v", results[0])
	}
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.75, 0}
	got := decodeFloat32Blob(encodeFloat32Blob(vec))
	if len(got) != len(vec) {
		t.Fatalf("length %d, want %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("index %d: %f != %f", i, got[i], vec[i])
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	if got := cosineSimilarity(a, a); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("self similarity = %f, want 1", got)
	}
	b := []float32{0, 1, 0}
	if got := cosineSimilarity(a, b); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal similarity = %f, want 0", got)
	}
	if got := cosineSimilarity(a, []float32{1, 2}); got != 0 {
		t.Errorf("mismatched length similarity = %f, want 0", got)
	}
}
