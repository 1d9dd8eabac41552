package embedding

import (
	"context"
	"fmt"
)

// OfflineEmbedder always reports the backend unavailable. Configured when no
// API key is present, it makes the merge manager degrade to exact-match
// duplicate detection instead of failing.
type OfflineEmbedder struct{}

// EmbedTexts always fails with ErrBackendUnavailable.
func (OfflineEmbedder) EmbedTexts(_ context.Context, _ []string) ([][]float32, error) {
	return nil, fmt.Errorf("%w: no embedding backend configured", ErrBackendUnavailable)
}

// Close is a no-op.
func (OfflineEmbedder) Close() error { return nil }
