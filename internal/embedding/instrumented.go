package embedding

import (
	"context"
	"time"

	"github.com/nikhilbhutani/docsearch/internal/metrics"
)

// InstrumentedProvider records request counts and latency per provider and model.
type InstrumentedProvider struct {
	inner    Provider
	provider string
	model    string
}

func NewInstrumentedProvider(inner Provider, provider, model string) *InstrumentedProvider {
	return &InstrumentedProvider{inner: inner, provider: provider, model: model}
}

func (p *InstrumentedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := p.inner.Embed(ctx, text)
	metrics.EmbeddingRequestDuration.WithLabelValues(p.provider, p.model).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(p.provider, p.model, status).Inc()
	return vec, err
}

func (p *InstrumentedProvider) HealthCheck(ctx context.Context) error {
	return HealthCheck(ctx, p.inner)
}
