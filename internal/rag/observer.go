package rag

import (
	"context"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/docsearch/internal/models"
)

// Observer receives pipeline checkpoints. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	// PreEmbed fires before the embedder is called. op is "ingest" or "query".
	PreEmbed(ctx context.Context, op string, textLen int)
	// PostStoreWrite fires after store.Add returns. It does not fire when the
	// write was never attempted.
	PostStoreWrite(ctx context.Context, documentID string, took time.Duration, err error)
	// PostQuery fires after store.Query returns and its response is assembled.
	// It does not fire when the query was never sent.
	PostQuery(ctx context.Context, returned int, took time.Duration, err error)
	// Finished fires once per Commit or Search that got past argument checks,
	// with the error returned to the caller.
	Finished(ctx context.Context, op string, err error)
}

// Observers fans every checkpoint out to each member in order.
type Observers []Observer

func (o Observers) PreEmbed(ctx context.Context, op string, textLen int) {
	for _, obs := range o {
		obs.PreEmbed(ctx, op, textLen)
	}
}

func (o Observers) PostStoreWrite(ctx context.Context, documentID string, took time.Duration, err error) {
	for _, obs := range o {
		obs.PostStoreWrite(ctx, documentID, took, err)
	}
}

func (o Observers) PostQuery(ctx context.Context, returned int, took time.Duration, err error) {
	for _, obs := range o {
		obs.PostQuery(ctx, returned, took, err)
	}
}

func (o Observers) Finished(ctx context.Context, op string, err error) {
	for _, obs := range o {
		obs.Finished(ctx, op, err)
	}
}

// LogObserver writes checkpoints to a structured logger.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

func (l *LogObserver) PreEmbed(ctx context.Context, op string, textLen int) {
	l.logger.DebugContext(ctx, "embedding text", "op", op, "text_len", textLen)
}

// Store failures are logged once, by Finished.
func (l *LogObserver) PostStoreWrite(ctx context.Context, documentID string, took time.Duration, err error) {
	if err != nil {
		l.logger.DebugContext(ctx, "store write returned", "document_id", documentID, "duration", took, "error", err)
		return
	}
	l.logger.InfoContext(ctx, "document stored", "document_id", documentID, "duration", took)
}

func (l *LogObserver) PostQuery(ctx context.Context, returned int, took time.Duration, err error) {
	if err != nil {
		l.logger.DebugContext(ctx, "store query returned", "duration", took, "error", err)
		return
	}
	l.logger.InfoContext(ctx, "query completed", "results", returned, "duration", took)
}

func (l *LogObserver) Finished(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	l.logger.ErrorContext(ctx, op+" failed", "kind", models.KindOf(err), "error", err)
}

type nopObserver struct{}

func (nopObserver) PreEmbed(context.Context, string, int)                        {}
func (nopObserver) PostStoreWrite(context.Context, string, time.Duration, error) {}
func (nopObserver) PostQuery(context.Context, int, time.Duration, error)         {}
func (nopObserver) Finished(context.Context, string, error)                      {}
