package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultHashDimensions = 256

// HashEngine is a deterministic, offline embedding engine: a normalized
// bag-of-tokens vector where each token is hashed into a fixed number of
// buckets. Retrieval quality is far below a real model, but it needs no
// endpoint and the same text always maps to the same vector, which makes it
// suitable for air-gapped runs and tests.
type HashEngine struct {
	dims int
}

// NewHashEngine creates a hash engine. dims <= 0 selects the default.
func NewHashEngine(dims int) *HashEngine {
	if dims <= 0 {
		dims = defaultHashDimensions
	}
	return &HashEngine{dims: dims}
}

// Embed generates an embedding for a single text.
func (e *HashEngine) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dims)]++
	}

	// L2-normalize so distances behave like the real engines'.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *HashEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the dimensionality of embeddings.
func (e *HashEngine) Dimensions() int { return e.dims }

// Name returns the engine name.
func (e *HashEngine) Name() string { return "hash" }
