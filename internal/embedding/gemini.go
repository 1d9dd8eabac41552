package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const (
	// DefaultEmbeddingModel is the Gemini embedding model used when the
	// configuration does not name one.
	DefaultEmbeddingModel = "text-embedding-004"

	maxEmbedRetries   = 3
	embedRetryBackoff = 500 * time.Millisecond
)

// GeminiEmbedder implements Embedder on the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// NewGeminiEmbedder creates a Gemini-backed embedder. An empty API key is a
// configuration error surfaced at construction, not at first use.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, log zerolog.Logger) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiEmbedder{client: client, model: model, log: log}, nil
}

// EmbedTexts embeds a batch of texts in one API call. Transient failures are
// retried with exponential backoff; persistent failure surfaces as
// ErrBackendUnavailable so callers can degrade to exact-match comparison.
func (e *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := e.client.EmbeddingModel(e.model)
	batch := model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	var lastErr error
	backoff := embedRetryBackoff
	for attempt := 1; attempt <= maxEmbedRetries; attempt++ {
		resp, err := model.BatchEmbedContents(ctx, batch)
		if err == nil {
			return extractVectors(resp, len(texts))
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		e.log.Warn().Err(err).Int("attempt", attempt).Msg("embedding call failed")
		if attempt < maxEmbedRetries {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, ctx.Err())
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, lastErr)
}

// Close releases the underlying API client.
func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

func extractVectors(resp *genai.BatchEmbedContentsResponse, want int) ([][]float32, error) {
	if resp == nil || len(resp.Embeddings) != want {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", want, got)
	}
	vectors := make([][]float32, want)
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}
