package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/docsearch/internal/models"
	"github.com/nikhilbhutani/docsearch/internal/queue"
	"github.com/nikhilbhutani/docsearch/internal/rag"
)

type fakeIngestor struct {
	id       string
	err      error
	filename string
	data     []byte
}

func (f *fakeIngestor) Ingest(_ context.Context, filename string, data []byte) (string, error) {
	f.filename, f.data = filename, data
	return f.id, f.err
}

func (f *fakeIngestor) Prepare(filename string, data []byte) (rag.Pending, error) {
	f.filename, f.data = filename, data
	if f.err != nil {
		return rag.Pending{}, f.err
	}
	return rag.Pending{ID: f.id, Filename: filename, Content: string(data)}, nil
}

type fakeQueue struct {
	err      error
	payloads []queue.IngestPayload
}

func (f *fakeQueue) EnqueueIngest(_ context.Context, p queue.IngestPayload) error {
	f.payloads = append(f.payloads, p)
	return f.err
}

type fakeSearcher struct {
	results []models.SearchResult
	err     error
	query   string
	topK    int
}

func (f *fakeSearcher) Search(_ context.Context, query string, topK int) ([]models.SearchResult, error) {
	f.query, f.topK = query, topK
	return f.results, f.err
}

type fakeLister struct {
	listing *models.Listing
	err     error
}

func (f *fakeLister) GetAll(context.Context) (*models.Listing, error) { return f.listing, f.err }

func upload(t *testing.T, url, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestIngest_Created(t *testing.T) {
	ing := &fakeIngestor{id: "notes.txt-0a1b2c3d"}
	h := NewDocumentHandler(ing, nil, nil, 1<<20)

	rec := httptest.NewRecorder()
	h.Ingest(rec, upload(t, "/ingest", "file", "notes.txt", []byte("hello world")))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "notes.txt-0a1b2c3d", body["document_id"])
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, "notes.txt", ing.filename)
	assert.Equal(t, []byte("hello world"), ing.data)
}

func TestIngest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unsupported", models.UnsupportedFormat(".xyz"), http.StatusBadRequest, "unsupported_format"},
		{"extraction", models.ExtractionFailed("pdf", errors.New("bad xref")), http.StatusUnprocessableEntity, "extraction_failed"},
		{"embedding", models.EmbeddingFailed(errors.New("429")), http.StatusBadGateway, "embedding_failed"},
		{"store", models.StoreWriteFailed(errors.New("disk full")), http.StatusInternalServerError, "store_write_failed"},
		{"dimension", models.DimensionMismatch(3, 4), http.StatusInternalServerError, "dimension_mismatch"},
		{"untyped", errors.New("surprise"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDocumentHandler(&fakeIngestor{err: tt.err}, nil, nil, 1<<20)
			rec := httptest.NewRecorder()
			h.Ingest(rec, upload(t, "/ingest", "file", "a.txt", []byte("x")))

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestIngest_BadUploads(t *testing.T) {
	h := NewDocumentHandler(&fakeIngestor{}, nil, nil, 1<<20)

	rec := httptest.NewRecorder()
	h.Ingest(rec, upload(t, "/ingest", "document", "a.txt", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file required", decode(t, rec)["error"])

	rec = httptest.NewRecorder()
	h.Ingest(rec, httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader("plain")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	small := NewDocumentHandler(&fakeIngestor{}, nil, nil, 64)
	rec = httptest.NewRecorder()
	small.Ingest(rec, upload(t, "/ingest", "file", "big.txt", bytes.Repeat([]byte("a"), 4096)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decode(t, rec)["code"])
}

func TestIngestAsync(t *testing.T) {
	q := &fakeQueue{}
	h := NewDocumentHandler(&fakeIngestor{id: "r.txt-00000001"}, q, nil, 1<<20)

	rec := httptest.NewRecorder()
	h.IngestAsync(rec, upload(t, "/ingest/async", "file", "r.txt", []byte("body")))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "r.txt-00000001", decode(t, rec)["document_id"])
	assert.Equal(t, []queue.IngestPayload{{DocumentID: "r.txt-00000001", Filename: "r.txt", Content: "body"}}, q.payloads)
}

func TestIngestAsync_PrepareFailureDoesNotEnqueue(t *testing.T) {
	q := &fakeQueue{}
	h := NewDocumentHandler(&fakeIngestor{err: models.UnsupportedFormat(".bin")}, q, nil, 1<<20)

	rec := httptest.NewRecorder()
	h.IngestAsync(rec, upload(t, "/ingest/async", "file", "x.bin", []byte{0}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, q.payloads)
}

func TestIngestAsync_QueueFailure(t *testing.T) {
	h := NewDocumentHandler(&fakeIngestor{id: "a"}, &fakeQueue{err: errors.New("redis down")}, nil, 1<<20)
	rec := httptest.NewRecorder()
	h.IngestAsync(rec, upload(t, "/ingest/async", "file", "a.txt", []byte("x")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestQuery(t *testing.T) {
	s := &fakeSearcher{results: []models.SearchResult{{ID: "id-1", Content: "hello world", Score: 0.12}}}
	h := NewQueryHandler(s)

	rec := httptest.NewRecorder()
	h.Query(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"greeting","top_k":1}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"documents":[{"document_id":"id-1","content":"hello world","score":0.12}]}`, rec.Body.String())
	assert.Equal(t, "greeting", s.query)
	assert.Equal(t, 1, s.topK)
}

func TestQuery_DefaultsAndErrors(t *testing.T) {
	s := &fakeSearcher{results: []models.SearchResult{}}
	h := NewQueryHandler(s)

	rec := httptest.NewRecorder()
	h.Query(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"q"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DefaultTopK, s.topK)
	assert.JSONEq(t, `{"documents":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Query(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.err = models.InvalidArgument("top_k must be positive, got 0")
	rec = httptest.NewRecorder()
	h.Query(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"q","top_k":0}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.topK)

	s.err = models.StoreResponseMalformed("2 documents but 1 distances")
	rec = httptest.NewRecorder()
	h.Query(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"q"}`)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestList(t *testing.T) {
	h := NewDocumentHandler(nil, nil, &fakeLister{listing: &models.Listing{
		IDs:       []string{"a-1"},
		Documents: []string{"alpha"},
	}}, 1<<20)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"documents":{"ids":["a-1"],"documents":["alpha"]}}`, rec.Body.String())

	h = NewDocumentHandler(nil, nil, &fakeLister{err: errors.New("db gone")}, 1<<20)
	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReadyz(t *testing.T) {
	h := NewHealthHandler(map[string]Checker{
		"store": func(context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h = NewHealthHandler(map[string]Checker{
		"store": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	rec = httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["store"])
	assert.Contains(t, checks["redis"], "connection refused")
}
