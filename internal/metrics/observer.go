package metrics

import (
	"context"
	"time"

	"github.com/nikhilbhutani/docsearch/internal/models"
)

// PipelineObserver exports pipeline checkpoints as Prometheus metrics.
// It satisfies rag.Observer.
type PipelineObserver struct{}

func (PipelineObserver) PreEmbed(context.Context, string, int) {}

func (PipelineObserver) PostStoreWrite(_ context.Context, _ string, d time.Duration, _ error) {
	StoreOperationDuration.WithLabelValues("add").Observe(d.Seconds())
}

func (PipelineObserver) PostQuery(_ context.Context, returned int, d time.Duration, err error) {
	StoreOperationDuration.WithLabelValues("query").Observe(d.Seconds())
	if err == nil {
		SearchResultsReturned.Observe(float64(returned))
	}
}

// Finished counts every attempt, including those that failed before the
// store was reached.
func (PipelineObserver) Finished(_ context.Context, op string, err error) {
	PipelineOperationsTotal.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return string(models.KindOf(err))
}
