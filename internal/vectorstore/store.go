package vectorstore

import (
	"context"
	"errors"
	"math"

	"github.com/nikhilbhutani/docsearch/internal/models"
)

// Store persists (id, embedding, content) triples and answers nearest-neighbour queries.
//
// Query returns documents best-first with cosine distances (lower is closer).
// Dimension reports the fixed vector length, or 0 while the store is empty and unconstrained.
// Implementations are safe for concurrent use.
type Store interface {
	Add(ctx context.Context, id string, embedding []float32, content string) error
	Query(ctx context.Context, embedding []float32, topK int) (*models.QueryResult, error)
	GetAll(ctx context.Context) (*models.Listing, error)
	Dimension() int
}

// ErrDuplicateID is returned by Add when the id is already stored.
var ErrDuplicateID = errors.New("document id already exists")

// cosineDistance returns 1 - cos(a, b). Zero vectors are treated as maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

type scored struct {
	id       string
	content  string
	distance float64
}

// toQueryResult converts ranked rows into the store-native response.
func toQueryResult(rows []scored) *models.QueryResult {
	res := &models.QueryResult{
		IDs:       make([]string, len(rows)),
		Documents: make([]string, len(rows)),
		Distances: make([]*float64, len(rows)),
	}
	for i, r := range rows {
		res.IDs[i] = r.id
		res.Documents[i] = r.content
		res.Distances[i] = models.Distance(r.distance)
	}
	return res
}
