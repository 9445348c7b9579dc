package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/nikhilbhutani/docsearch/internal/models"
)

// PgVectorStore keeps documents in PostgreSQL and ranks them with the
// pgvector cosine distance operator. The embedding column is untyped, so
// the dimension is enforced here from configuration.
type PgVectorStore struct {
	db        *pgxpool.Pool
	dimension int
}

func NewPgVectorStore(db *pgxpool.Pool, dimension int) *PgVectorStore {
	return &PgVectorStore{db: db, dimension: dimension}
}

func (s *PgVectorStore) Add(ctx context.Context, id string, embedding []float32, content string) error {
	if s.dimension > 0 && len(embedding) != s.dimension {
		return models.DimensionMismatch(len(embedding), s.dimension)
	}

	tag, err := s.db.Exec(ctx,
		`INSERT INTO documents (id, content, embedding)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		id, content, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("add %s: %w", id, ErrDuplicateID)
	}
	return nil
}

func (s *PgVectorStore) Query(ctx context.Context, embedding []float32, topK int) (*models.QueryResult, error) {
	if s.dimension > 0 && len(embedding) != s.dimension {
		return nil, models.DimensionMismatch(len(embedding), s.dimension)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, content, embedding <=> $1 AS distance
		 FROM documents
		 ORDER BY embedding <=> $1, seq
		 LIMIT $2`,
		pgvector.NewVector(embedding), topK,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	return collectResults(rows)
}

// collectResults reads (id, content, distance) rows. No rows yields empty,
// non-nil sequences.
func collectResults(rows pgx.Rows) (*models.QueryResult, error) {
	res := &models.QueryResult{IDs: []string{}, Documents: []string{}, Distances: []*float64{}}
	for rows.Next() {
		var (
			id, content string
			distance    *float64
		)
		if err := rows.Scan(&id, &content, &distance); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.IDs = append(res.IDs, id)
		res.Documents = append(res.Documents, content)
		res.Distances = append(res.Distances, distance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return res, nil
}

func (s *PgVectorStore) GetAll(ctx context.Context) (*models.Listing, error) {
	rows, err := s.db.Query(ctx, `SELECT id, content FROM documents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := &models.Listing{IDs: []string{}, Documents: []string{}}
	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out.IDs = append(out.IDs, id)
		out.Documents = append(out.Documents, content)
	}
	return out, rows.Err()
}

func (s *PgVectorStore) Dimension() int {
	return s.dimension
}
