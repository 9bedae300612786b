package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/semindex/ai"
	"github.com/poiesic/semindex/core"
)

// Searcher ranks index entries against text queries.
type Searcher struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		embedder: embedder,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns the n entries of idx most similar to query.
func (s *Searcher) Search(ctx context.Context, idx *core.Index, query string, n int) ([]core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, idx, query, n, nil)
}

// SearchWithMonitor is Search with stage callbacks.
//
// n must be positive (core.ErrInvalidParameter). An empty or nil index
// yields an empty result without embedding the query. Embedding failures
// and query vectors whose size differs from the index fail with
// core.ErrEmbedding.
func (s *Searcher) SearchWithMonitor(ctx context.Context, idx *core.Index, query string, n int, monitor SearchMonitor) ([]core.SearchResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive, got %d", core.ErrInvalidParameter, n)
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	if idx.Len() == 0 {
		results := []core.SearchResult{}
		monitor.Finish(results)
		return results, nil
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrEmbedding, err)
	}
	if len(vector) != idx.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", core.ErrEmbedding, len(vector), idx.Dimensions)
	}
	monitor.AfterQueryEmbedding(len(vector))

	results := Rank(idx, vector, n)
	monitor.AfterScoring(idx.Len())
	monitor.Finish(results)

	return results, nil
}

// Rank scores every entry of idx by cosine similarity to vector and
// returns the top n in descending score order. Ties keep corpus order.
// A zero-magnitude vector on either side scores 0. Rank performs no I/O.
func Rank(idx *core.Index, vector []float32, n int) []core.SearchResult {
	if idx.Len() == 0 || n <= 0 {
		return []core.SearchResult{}
	}

	queryNorm := core.Magnitude(vector)
	results := make([]core.SearchResult, idx.Len())
	for i, entry := range idx.Entries {
		results[i] = core.SearchResult{
			Entry: entry,
			Score: float32(cosine(vector, queryNorm, idx.Embeddings[i], idx.Norm(i))),
		}
	}

	slices.SortStableFunc(results, func(a, b core.SearchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(results) > n {
		results = results[:n]
	}
	return results
}

// cosine computes the cosine similarity of a and b given their magnitudes.
func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range min(len(a), len(b)) {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
