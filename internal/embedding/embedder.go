// Package embedding turns free text into fixed-length vectors and finds the
// nearest previously-seen vector above a caller-supplied threshold. It holds
// no profile-domain state; callers rebuild the candidate set per query.
package embedding

import (
	"context"
	"errors"
)

// ErrBackendUnavailable is returned when the embedding backend cannot be
// reached after retries. Callers must treat this as "cannot determine
// duplication" and fall back to exact-text comparison, never silently skip
// deduplication.
var ErrBackendUnavailable = errors.New("embedding backend unavailable")

// Embedder produces one vector per input text. Implementations must return
// vectors in input order and exactly one vector per text.
type Embedder interface {
	// EmbedTexts embeds a batch of texts. The returned vectors are not
	// guaranteed to be normalized; the index normalizes at ingestion.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Close releases any resources held by the backend client.
	Close() error
}
