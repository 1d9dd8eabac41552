package embedding

import (
	"context"
	"math"
	"strings"
)

// Match is the result of a nearest-neighbour query: the index of the best
// candidate and its cosine similarity in [0,1]. Absence of a match is
// represented by the ok return of Nearest, never by a zero-score Match.
type Match struct {
	Index int
	Score float64
}

// Index builds vectors for a candidate set and answers nearest-neighbour
// queries. Vectors are L2-normalized once at creation so similarity reduces
// to a plain inner product. Threshold enforcement belongs to the caller:
// different fragment kinds require different thresholds.
type Index struct {
	embedder Embedder
}

// NewIndex creates an index over the given embedding backend.
func NewIndex(embedder Embedder) *Index {
	return &Index{embedder: embedder}
}

// NormalizeText prepares text for embedding: trim, collapse internal
// whitespace, lowercase. Empty or whitespace-only text normalizes to the
// empty string and never matches anything.
func NormalizeText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Embed normalizes and embeds a batch of texts. Texts that normalize to
// empty yield a nil vector at their position. Backend failure surfaces as
// ErrBackendUnavailable (wrapped).
func (idx *Index) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	normalized := make([]string, len(texts))
	nonEmpty := make([]string, 0, len(texts))
	for i, t := range texts {
		normalized[i] = NormalizeText(t)
		if normalized[i] != "" {
			nonEmpty = append(nonEmpty, normalized[i])
		}
	}

	vectors := make([][]float32, len(texts))
	if len(nonEmpty) == 0 {
		return vectors, nil
	}

	embedded, err := idx.embedder.EmbedTexts(ctx, nonEmpty)
	if err != nil {
		return nil, err
	}

	j := 0
	for i := range texts {
		if normalized[i] == "" {
			continue
		}
		if j < len(embedded) {
			vectors[i] = l2Normalize(embedded[j])
			j++
		}
	}
	return vectors, nil
}

// Nearest returns the single highest-scoring candidate for the query vector.
// Nil vectors (from empty text) on either side never match. The second
// return is false when there are no scorable candidates.
func (idx *Index) Nearest(query []float32, candidates [][]float32) (Match, bool) {
	if len(query) == 0 {
		return Match{}, false
	}
	best := Match{Index: -1}
	found := false
	for i, candidate := range candidates {
		if len(candidate) != len(query) {
			continue
		}
		score := innerProduct(query, candidate)
		if !found || score > best.Score {
			best = Match{Index: i, Score: score}
			found = true
		}
	}
	if !found {
		return Match{}, false
	}
	return best, true
}

// l2Normalize scales a vector to unit length. Zero vectors are returned
// unchanged so they score zero against everything.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func innerProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
