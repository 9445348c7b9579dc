package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nikhilbhutani/docsearch/internal/models"
	"github.com/nikhilbhutani/docsearch/internal/queue"
	"github.com/nikhilbhutani/docsearch/internal/rag"
)

// Ingestor is the ingestion pipeline as seen by the HTTP layer.
type Ingestor interface {
	Ingest(ctx context.Context, filename string, data []byte) (string, error)
	Prepare(filename string, data []byte) (rag.Pending, error)
}

// Enqueuer hands prepared documents to the background worker.
type Enqueuer interface {
	EnqueueIngest(ctx context.Context, payload queue.IngestPayload) error
}

// Lister dumps the store contents.
type Lister interface {
	GetAll(ctx context.Context) (*models.Listing, error)
}

type DocumentHandler struct {
	ingestor  Ingestor
	queue     Enqueuer
	store     Lister
	maxUpload int64
}

// NewDocumentHandler builds the document routes. q may be nil when
// asynchronous ingestion is disabled.
func NewDocumentHandler(ingestor Ingestor, q Enqueuer, store Lister, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{ingestor: ingestor, queue: q, store: store, maxUpload: maxUpload}
}

func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	filename, data, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.ingestor.Ingest(r.Context(), filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":     fmt.Sprintf("%s ingested", filename),
		"document_id": id,
	})
}

// IngestAsync extracts synchronously, so format problems are reported to the
// caller, and leaves embedding and storage to the worker.
func (h *DocumentHandler) IngestAsync(w http.ResponseWriter, r *http.Request) {
	filename, data, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.ingestor.Prepare(filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.queue.EnqueueIngest(r.Context(), queue.IngestPayload{
		DocumentID: p.ID,
		Filename:   p.Filename,
		Content:    p.Content,
	}); err != nil {
		writeError(w, r, fmt.Errorf("queue %s: %w", p.ID, err))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message":     fmt.Sprintf("%s queued for ingestion", filename),
		"document_id": p.ID,
	})
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	listing, err := h.store.GetAll(r.Context())
	if err != nil {
		writeError(w, r, models.StoreQueryFailed(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": listing})
}

func (h *DocumentHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, models.InvalidArgument("upload exceeds %d bytes", tooLarge.Limit)
		}
		return "", nil, models.InvalidArgument("invalid multipart form")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, models.InvalidArgument("file required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, models.InvalidArgument("read upload: %v", err)
	}
	return header.Filename, data, nil
}
