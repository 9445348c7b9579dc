package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nikhilbhutani/docsearch/internal/models"
)

// MemoryStore is a brute-force in-process store. Its dimension is fixed by
// the constructor or, when zero, by the first document added.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	docs      []models.Document
	index     map[string]struct{}
}

func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{dimension: dimension, index: make(map[string]struct{})}
}

func (s *MemoryStore) Add(_ context.Context, id string, embedding []float32, content string) error {
	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension == 0 {
		s.dimension = len(vec)
	} else if len(vec) != s.dimension {
		return models.DimensionMismatch(len(vec), s.dimension)
	}
	if _, ok := s.index[id]; ok {
		return fmt.Errorf("add %s: %w", id, ErrDuplicateID)
	}

	s.docs = append(s.docs, models.Document{ID: id, Content: content, Embedding: vec})
	s.index[id] = struct{}{}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, embedding []float32, topK int) (*models.QueryResult, error) {
	s.mu.RLock()
	dim, docs := s.dimension, s.docs // stored documents are never mutated
	s.mu.RUnlock()

	if dim != 0 && len(embedding) != dim {
		return nil, models.DimensionMismatch(len(embedding), dim)
	}
	rows := make([]scored, len(docs))
	for i, d := range docs {
		rows[i] = scored{id: d.ID, content: d.Content, distance: cosineDistance(embedding, d.Embedding)}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].distance < rows[j].distance })
	if topK > 0 && len(rows) > topK {
		rows = rows[:topK]
	}
	return toQueryResult(rows), nil
}

func (s *MemoryStore) GetAll(_ context.Context) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &models.Listing{
		IDs:       make([]string, len(s.docs)),
		Documents: make([]string, len(s.docs)),
	}
	for i, d := range s.docs {
		out.IDs[i] = d.ID
		out.Documents[i] = d.Content
	}
	return out, nil
}

func (s *MemoryStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}
