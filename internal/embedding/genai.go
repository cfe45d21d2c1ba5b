package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGenAIModel = "gemini-embedding-001"

// GenAIEngine embeds text with the Gemini embedding API.
type GenAIEngine struct {
	client *genai.Client
	model  string
	task   string
	dims   int
}

// NewGenAIEngine builds an engine from cfg; GenAIAPIKey is required.
func NewGenAIEngine(cfg Config) (*GenAIEngine, error) {
	if cfg.GenAIAPIKey == "" {
		return nil, fmt.Errorf("genai embedding requires an API key")
	}
	model := cfg.GenAIModel
	if model == "" {
		model = defaultGenAIModel
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = defaultDimensions
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.GenAIAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIEngine{
		client: client,
		model:  model,
		task:   taskTypeFor(cfg.TaskType),
		dims:   dims,
	}, nil
}

// taskTypeFor maps the config string onto the API's task types. Document
// retrieval is the default because the indexes hold policy text.
func taskTypeFor(name string) string {
	switch name {
	case "SEMANTIC_SIMILARITY":
		return "SEMANTIC_SIMILARITY"
	case "RETRIEVAL_QUERY":
		return "RETRIEVAL_QUERY"
	default:
		return "RETRIEVAL_DOCUMENT"
	}
}

// Embed returns the vector for one text.
func (e *GenAIEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts in a single API call.
func (e *GenAIEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts)
}

func (e *GenAIEngine) embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents,
		&genai.EmbedContentConfig{TaskType: e.task})
	if err != nil {
		return nil, fmt.Errorf("genai embed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("genai returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vecs[i] = emb.Values
	}
	return vecs, nil
}

// Dimensions returns the configured vector width.
func (e *GenAIEngine) Dimensions() int { return e.dims }

// Name returns the engine name.
func (e *GenAIEngine) Name() string { return "genai:" + e.model }
