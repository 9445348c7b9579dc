package rag

import (
	"context"
	"errors"
	"time"

	"github.com/nikhilbhutani/docsearch/internal/document"
	"github.com/nikhilbhutani/docsearch/internal/embedding"
	"github.com/nikhilbhutani/docsearch/internal/models"
	"github.com/nikhilbhutani/docsearch/internal/vectorstore"
)

// Pending is an extracted document that has an id but is not stored yet.
type Pending struct {
	ID       string `json:"document_id"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Ingestor runs extraction, embedding and the store write for uploads.
type Ingestor struct {
	extractor document.TextExtractor
	embedder  embedding.Provider
	store     vectorstore.Store
	ids       IDGenerator
	observer  Observer
}

func NewIngestor(extractor document.TextExtractor, embedder embedding.Provider, store vectorstore.Store, opts ...Option) *Ingestor {
	o := buildOptions(opts)
	return &Ingestor{
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		ids:       o.ids,
		observer:  o.observer,
	}
}

// Ingest extracts, embeds and stores one file, returning its document id.
// Nothing is written when any step before the store write fails.
func (in *Ingestor) Ingest(ctx context.Context, filename string, data []byte) (string, error) {
	p, err := in.Prepare(filename, data)
	if err != nil {
		return "", err
	}
	if err := in.Commit(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// Prepare extracts the text and assigns the document id. Extraction errors
// are returned unchanged.
func (in *Ingestor) Prepare(filename string, data []byte) (Pending, error) {
	text, err := in.extractor.Extract(filename, data)
	if err != nil {
		return Pending{}, err
	}
	return Pending{
		ID:       in.ids.DocumentID(filename),
		Filename: filename,
		Content:  text,
	}, nil
}

// Commit embeds p.Content and writes it to the store. Empty content is
// embedded like any other text.
func (in *Ingestor) Commit(ctx context.Context, p Pending) (err error) {
	defer func() { in.observer.Finished(ctx, "ingest", err) }()

	in.observer.PreEmbed(ctx, "ingest", len(p.Content))
	vec, err := in.embedder.Embed(ctx, p.Content)
	if err != nil {
		return models.EmbeddingFailed(err)
	}
	if err := checkDimension(in.store, vec); err != nil {
		return err
	}

	start := time.Now()
	err = in.store.Add(ctx, p.ID, vec, p.Content)
	if err != nil && !errors.Is(err, models.ErrDimensionMismatch) {
		err = models.StoreWriteFailed(err)
	}
	in.observer.PostStoreWrite(ctx, p.ID, time.Since(start), err)
	return err
}
