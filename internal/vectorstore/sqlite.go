package vectorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nikhilbhutani/docsearch/internal/models"
	"github.com/nikhilbhutani/docsearch/pkg/vecenc"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS store_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteStore persists documents in a single SQLite file and ranks them by
// brute-force cosine distance. The dimension is recorded in store_meta on
// the first add and enforced afterwards.
type SQLiteStore struct {
	db *sql.DB

	mu        sync.RWMutex
	dimension int
}

// NewSQLiteStore opens (or creates) the database at path. ":memory:" gives a
// private in-memory database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" coherent and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.loadDimension(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) loadDimension(ctx context.Context) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = 'dimension'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading dimension: %w", err)
	}
	dim, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("parsing stored dimension %q: %w", raw, err)
	}
	s.dimension = dim
	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, id string, embedding []float32, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension != 0 && len(embedding) != s.dimension {
		return models.DimensionMismatch(len(embedding), s.dimension)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check document %s: %w", id, err)
	}
	if exists {
		return fmt.Errorf("add %s: %w", id, ErrDuplicateID)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, content, embedding) VALUES (?, ?, ?)`,
		id, content, vecenc.Encode(embedding),
	); err != nil {
		return fmt.Errorf("insert document %s: %w", id, err)
	}

	fresh := s.dimension == 0
	if fresh {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO store_meta (key, value) VALUES ('dimension', ?)`,
			strconv.Itoa(len(embedding)),
		); err != nil {
			return fmt.Errorf("recording dimension: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit document %s: %w", id, err)
	}
	if fresh {
		s.dimension = len(embedding)
	}
	return nil
}

func (s *SQLiteStore) Query(ctx context.Context, embedding []float32, topK int) (*models.QueryResult, error) {
	if dim := s.Dimension(); dim != 0 && len(embedding) != dim {
		return nil, models.DimensionMismatch(len(embedding), dim)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, content, embedding FROM documents ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}
	defer rows.Close()

	var ranked []scored
	for rows.Next() {
		var (
			id, content string
			blob        []byte
		)
		if err := rows.Scan(&id, &content, &blob); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		vec, err := vecenc.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decode embedding %s: %w", id, err)
		}
		ranked = append(ranked, scored{id: id, content: content, distance: cosineDistance(embedding, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].distance < ranked[j].distance })
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return toQueryResult(ranked), nil
}

func (s *SQLiteStore) GetAll(ctx context.Context) (*models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, content FROM documents ORDER BY rowid`)
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

func (s *SQLiteStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}
