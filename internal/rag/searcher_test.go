package rag

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/docsearch/internal/models"
)

func dist(v float64) *float64 { return models.Distance(v) }

func TestSearch_RejectsNonPositiveTopK(t *testing.T) {
	for _, k := range []int{0, -1, -100} {
		emb := &fakeEmbedder{dim: 2}
		store := &fakeStore{}
		s := NewSearcher(emb, store)

		_, err := s.Search(context.Background(), "anything", k)
		require.ErrorIs(t, err, models.ErrInvalidArgument)
		assert.Empty(t, emb.calls, "top_k=%d", k)
		assert.Zero(t, store.queries, "top_k=%d", k)
	}
}

func TestSearch_RejectsEmptyQuery(t *testing.T) {
	emb := &fakeEmbedder{dim: 2}
	s := NewSearcher(emb, &fakeStore{})

	_, err := s.Search(context.Background(), "   ", 3)
	require.ErrorIs(t, err, models.ErrInvalidArgument)
	assert.Empty(t, emb.calls)
}

func TestSearch_PreservesStoreOrderAndScores(t *testing.T) {
	store := &fakeStore{result: &models.QueryResult{
		Documents: []string{"c", "a", "b"},
		Distances: []*float64{dist(0.9), dist(0.1), dist(0.5)},
	}}
	s := NewSearcher(&fakeEmbedder{dim: 2}, store, WithIDGenerator(&fixedIDs{}))

	got, err := s.Search(context.Background(), "q", 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 5, store.lastTopK)
	assert.Equal(t, "c", got[0].Content)
	assert.Equal(t, 0.9, got[0].Score)
	assert.Equal(t, "a", got[1].Content)
	assert.Equal(t, 0.1, got[1].Score)
	assert.Equal(t, "b", got[2].Content)
	assert.Equal(t, 0.5, got[2].Score)
	assert.Equal(t, "generated-1", got[0].ID)
	assert.Equal(t, "generated-3", got[2].ID)
}

func TestSearch_KeepsStoreIDs(t *testing.T) {
	store := &fakeStore{result: &models.QueryResult{
		IDs:       []string{"doc-1", ""},
		Documents: []string{"one", "two"},
		Distances: []*float64{dist(0.2), dist(0.3)},
	}}
	s := NewSearcher(&fakeEmbedder{dim: 2}, store, WithIDGenerator(&fixedIDs{}))

	got, err := s.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "doc-1", got[0].ID)
	assert.Equal(t, "generated-1", got[1].ID)
}

func TestSearch_DropsIncompleteEntries(t *testing.T) {
	store := &fakeStore{result: &models.QueryResult{
		Documents: []string{"kept", "", "no score", "zero"},
		Distances: []*float64{dist(0.4), dist(0.1), nil, dist(0)},
	}}
	s := NewSearcher(&fakeEmbedder{dim: 2}, store)

	got, err := s.Search(context.Background(), "q", 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "kept", got[0].Content)
	assert.Equal(t, "zero", got[1].Content)
	assert.Equal(t, 0.0, got[1].Score)
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	store := &fakeStore{result: &models.QueryResult{Documents: []string{}, Distances: []*float64{}}}
	s := NewSearcher(&fakeEmbedder{dim: 2}, store)

	got, err := s.Search(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearch_MalformedResponses(t *testing.T) {
	tests := []struct {
		name   string
		result *models.QueryResult
	}{
		{"nil response", nil},
		{"missing documents", &models.QueryResult{Distances: []*float64{dist(1)}}},
		{"missing distances", &models.QueryResult{Documents: []string{"a"}}},
		{"length mismatch", &models.QueryResult{
			Documents: []string{"a", "b", "c"},
			Distances: []*float64{dist(0.1), dist(0.2)},
		}},
		{"ids length mismatch", &models.QueryResult{
			IDs:       []string{"x"},
			Documents: []string{"a", "b"},
			Distances: []*float64{dist(0.1), dist(0.2)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSearcher(&fakeEmbedder{dim: 2}, &fakeStore{result: tt.result})
			got, err := s.Search(context.Background(), "q", 3)
			require.ErrorIs(t, err, models.ErrStoreResponseMalformed)
			assert.Nil(t, got)
		})
	}
}

func TestSearch_CollaboratorFailures(t *testing.T) {
	t.Run("embedding", func(t *testing.T) {
		store := &fakeStore{}
		s := NewSearcher(&fakeEmbedder{err: errors.New("timeout")}, store)
		_, err := s.Search(context.Background(), "q", 1)
		require.ErrorIs(t, err, models.ErrEmbeddingFailed)
		assert.Zero(t, store.queries)
	})
	t.Run("store", func(t *testing.T) {
		cause := errors.New("connection reset")
		s := NewSearcher(&fakeEmbedder{dim: 2}, &fakeStore{queryErr: cause})
		_, err := s.Search(context.Background(), "q", 1)
		require.ErrorIs(t, err, models.ErrStoreQueryFailed)
		assert.ErrorIs(t, err, cause)
	})
	t.Run("dimension", func(t *testing.T) {
		store := &fakeStore{dimension: 8}
		s := NewSearcher(&fakeEmbedder{dim: 2}, store)
		_, err := s.Search(context.Background(), "q", 1)
		require.ErrorIs(t, err, models.ErrDimensionMismatch)
		assert.Zero(t, store.queries)
	})
}

func TestSearch_ObserverCheckpoints(t *testing.T) {
	obs := &recordingObserver{}
	store := &fakeStore{result: &models.QueryResult{
		Documents: []string{"a", "b"},
		Distances: []*float64{dist(0.1), dist(0.2)},
	}}
	s := NewSearcher(&fakeEmbedder{dim: 2}, store, WithObserver(Observers{obs}))

	_, err := s.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"pre-embed:query", "post-query:2", "finished:query"}, obs.events)
}

func TestSearch_ObserverCheckpointsOnFailure(t *testing.T) {
	t.Run("invalid argument", func(t *testing.T) {
		obs := &recordingObserver{}
		s := NewSearcher(&fakeEmbedder{dim: 2}, &fakeStore{}, WithObserver(obs))
		_, err := s.Search(context.Background(), " ", 1)
		require.ErrorIs(t, err, models.ErrInvalidArgument)
		assert.Empty(t, obs.events)
	})
	t.Run("embedding", func(t *testing.T) {
		obs := &recordingObserver{}
		s := NewSearcher(&fakeEmbedder{err: errors.New("timeout")}, &fakeStore{}, WithObserver(obs))
		_, err := s.Search(context.Background(), "q", 1)
		require.ErrorIs(t, err, models.ErrEmbeddingFailed)
		assert.Equal(t, []string{"pre-embed:query", "finished:query:embedding_failed"}, obs.events)
	})
	t.Run("dimension", func(t *testing.T) {
		obs := &recordingObserver{}
		s := NewSearcher(&fakeEmbedder{dim: 2}, &fakeStore{dimension: 8}, WithObserver(obs))
		_, err := s.Search(context.Background(), "q", 1)
		require.ErrorIs(t, err, models.ErrDimensionMismatch)
		assert.Equal(t, []string{"pre-embed:query", "finished:query:dimension_mismatch"}, obs.events)
	})
	t.Run("store", func(t *testing.T) {
		obs := &recordingObserver{}
		s := NewSearcher(&fakeEmbedder{dim: 2}, &fakeStore{queryErr: errors.New("reset")}, WithObserver(obs))
		_, err := s.Search(context.Background(), "q", 1)
		require.ErrorIs(t, err, models.ErrStoreQueryFailed)
		assert.Equal(t, []string{"pre-embed:query", "post-query:0:store_query_failed", "finished:query:store_query_failed"}, obs.events)
	})
}

// notes.txt / "hello world" / 0.12 end to end through both pipelines.
func TestIngestThenSearch_Scenario(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	in := NewIngestor(&fakeExtractor{text: "hello world"}, &fakeEmbedder{dim: 2}, store)

	id, err := in.Ingest(ctx, "notes.txt", []byte("hello world"))
	require.NoError(t, err)
	assert.Regexp(t, `^notes\.txt-[0-9a-f]{8}$`, id)
	require.Len(t, store.adds, 1)
	assert.Equal(t, "hello world", store.adds[0].content)

	store.result = &models.QueryResult{
		Documents: []string{"hello world"},
		Distances: []*float64{dist(0.12)},
	}
	s := NewSearcher(&fakeEmbedder{dim: 2}, store)
	got, err := s.Search(ctx, "greeting", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello world", got[0].Content)
	assert.Equal(t, 0.12, got[0].Score)

	body, err := json.Marshal(map[string]any{"documents": got})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"content":"hello world","score":0.12`)
}
