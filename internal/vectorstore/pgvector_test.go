package vectorstore

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resultRow struct {
	id       string
	content  string
	distance *float64
}

// fakeRows replays fixed similarity-search rows through the pgx.Rows interface.
type fakeRows struct {
	rows []resultRow
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, errors.New("not implemented") }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	*dest[0].(*string) = row.id
	*dest[1].(*string) = row.content
	*dest[2].(**float64) = row.distance
	return nil
}

func TestCollectResults_NoRows(t *testing.T) {
	res, err := collectResults(&fakeRows{})
	require.NoError(t, err)
	require.NotNil(t, res.IDs)
	require.NotNil(t, res.Documents)
	require.NotNil(t, res.Distances)
	assert.Empty(t, res.Documents)
	assert.Empty(t, res.Distances)
}

func TestCollectResults_KeepsRowOrder(t *testing.T) {
	near, far := 0.1, 0.7
	res, err := collectResults(&fakeRows{rows: []resultRow{
		{id: "a.txt-00000001", content: "alpha", distance: &near},
		{id: "b.txt-00000002", content: "beta", distance: &far},
		{id: "c.txt-00000003", content: "gamma"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt-00000001", "b.txt-00000002", "c.txt-00000003"}, res.IDs)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, res.Documents)
	require.Len(t, res.Distances, 3)
	assert.Equal(t, 0.1, *res.Distances[0])
	assert.Nil(t, res.Distances[2])
}

func TestCollectResults_IterationError(t *testing.T) {
	_, err := collectResults(&fakeRows{err: errors.New("connection reset")})
	assert.ErrorContains(t, err, "iterate results: connection reset")
}
