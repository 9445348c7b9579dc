package rag

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nikhilbhutani/docsearch/internal/embedding"
	"github.com/nikhilbhutani/docsearch/internal/models"
	"github.com/nikhilbhutani/docsearch/internal/vectorstore"
)

// Searcher answers natural-language queries against the store.
type Searcher struct {
	embedder embedding.Provider
	store    vectorstore.Store
	ids      IDGenerator
	observer Observer
}

func NewSearcher(embedder embedding.Provider, store vectorstore.Store, opts ...Option) *Searcher {
	o := buildOptions(opts)
	return &Searcher{
		embedder: embedder,
		store:    store,
		ids:      o.ids,
		observer: o.observer,
	}
}

// Search returns up to topK matches in the order the store ranked them.
// Scores are passed through unchanged. An empty slice means no matches.
func (s *Searcher) Search(ctx context.Context, query string, topK int) (results []models.SearchResult, err error) {
	if topK <= 0 {
		return nil, models.InvalidArgument("top_k must be positive, got %d", topK)
	}
	if strings.TrimSpace(query) == "" {
		return nil, models.InvalidArgument("query must not be empty")
	}
	defer func() { s.observer.Finished(ctx, "query", err) }()

	s.observer.PreEmbed(ctx, "query", len(query))
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, models.EmbeddingFailed(err)
	}
	if err := checkDimension(s.store, vec); err != nil {
		return nil, err
	}

	start := time.Now()
	results, err = s.query(ctx, vec, topK)
	s.observer.PostQuery(ctx, len(results), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Searcher) query(ctx context.Context, vec []float32, topK int) ([]models.SearchResult, error) {
	res, err := s.store.Query(ctx, vec, topK)
	if err != nil {
		if errors.Is(err, models.ErrDimensionMismatch) {
			return nil, err
		}
		return nil, models.StoreQueryFailed(err)
	}
	if err := validateShape(res); err != nil {
		return nil, err
	}
	return s.assemble(res), nil
}

func validateShape(res *models.QueryResult) error {
	switch {
	case res == nil:
		return models.StoreResponseMalformed("empty response")
	case res.Documents == nil:
		return models.StoreResponseMalformed("missing documents")
	case res.Distances == nil:
		return models.StoreResponseMalformed("missing distances")
	case len(res.Documents) != len(res.Distances):
		return models.StoreResponseMalformed("%d documents but %d distances", len(res.Documents), len(res.Distances))
	case res.IDs != nil && len(res.IDs) != len(res.Documents):
		return models.StoreResponseMalformed("%d ids but %d documents", len(res.IDs), len(res.Documents))
	}
	return nil
}

// assemble pairs documents with distances in store order, dropping entries
// that lack either half.
func (s *Searcher) assemble(res *models.QueryResult) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(res.Documents))
	for i, doc := range res.Documents {
		dist := res.Distances[i]
		if doc == "" || dist == nil {
			continue
		}
		var id string
		if res.IDs != nil {
			id = res.IDs[i]
		}
		if id == "" {
			id = s.ids.ResultID()
		}
		out = append(out, models.SearchResult{ID: id, Content: doc, Score: *dist})
	}
	return out
}
