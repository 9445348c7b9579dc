package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

type HandlersRegistry struct {
	mux *asynq.ServeMux
}

// NewHandlersRegistry returns a mux that logs every processed task.
func NewHandlersRegistry(logger *slog.Logger) *HandlersRegistry {
	mux := asynq.NewServeMux()
	mux.Use(taskLogging(logger))
	return &HandlersRegistry{mux: mux}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

func taskLogging(logger *slog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()
			err := next.ProcessTask(ctx, t)
			if err != nil {
				logger.ErrorContext(ctx, "task failed", "type", t.Type(), "duration", time.Since(start), "error", err)
				return err
			}
			logger.InfoContext(ctx, "task done", "type", t.Type(), "duration", time.Since(start))
			return nil
		})
	}
}
