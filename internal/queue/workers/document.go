package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/docsearch/internal/models"
	"github.com/nikhilbhutani/docsearch/internal/queue"
	"github.com/nikhilbhutani/docsearch/internal/rag"
	"github.com/nikhilbhutani/docsearch/internal/vectorstore"
)

// Committer finishes an ingestion that was prepared synchronously.
type Committer interface {
	Commit(ctx context.Context, p rag.Pending) error
}

type DocumentWorker struct {
	ingestor   Committer
	logger     *slog.Logger
	retryCount func(context.Context) (int, bool)
}

func NewDocumentWorker(ingestor Committer, logger *slog.Logger) *DocumentWorker {
	return &DocumentWorker{ingestor: ingestor, logger: logger, retryCount: asynq.GetRetryCount}
}

func (w *DocumentWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.DocumentID == "" {
		return fmt.Errorf("payload without document_id: %w", asynq.SkipRetry)
	}

	w.logger.InfoContext(ctx, "ingesting document", "document_id", payload.DocumentID, "filename", payload.Filename)

	err := w.ingestor.Commit(ctx, rag.Pending{
		ID:       payload.DocumentID,
		Filename: payload.Filename,
		Content:  payload.Content,
	})
	if err == nil {
		return nil
	}

	// On a retry the id can only exist because an earlier attempt stored it
	// before failing to report back.
	if errors.Is(err, vectorstore.ErrDuplicateID) {
		if n, ok := w.retryCount(ctx); ok && n > 0 {
			w.logger.InfoContext(ctx, "document already stored", "document_id", payload.DocumentID, "retry", n)
			return nil
		}
		return fmt.Errorf("commit %s: %w: %w", payload.DocumentID, err, asynq.SkipRetry)
	}

	// A vector of the wrong length will not get better on retry.
	if errors.Is(err, models.ErrDimensionMismatch) {
		w.logger.ErrorContext(ctx, "dropping document", "document_id", payload.DocumentID, "error", err)
		return fmt.Errorf("commit %s: %w: %w", payload.DocumentID, err, asynq.SkipRetry)
	}
	return fmt.Errorf("commit %s: %w", payload.DocumentID, err)
}
