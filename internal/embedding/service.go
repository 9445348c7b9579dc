package embedding

import (
	"context"
	"fmt"

	"github.com/nikhilbhutani/docsearch/internal/config"
)

// Provider maps text to a fixed-length vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HealthChecker is implemented by providers that can verify their backend is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewProvider builds the configured base provider, wrapped with metrics instrumentation.
// Caching is layered on by the caller because it needs a Redis handle.
func NewProvider(cfg config.EmbeddingConfig) (Provider, error) {
	var base Provider
	switch cfg.Provider {
	case "openai":
		base = NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.Model, cfg.Dimensions)
	case "ollama":
		base = NewOllamaProvider(cfg.OllamaURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	return NewInstrumentedProvider(base, cfg.Provider, ModelName(cfg)), nil
}

// ModelName returns the configured model or the provider's default.
func ModelName(cfg config.EmbeddingConfig) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	switch cfg.Provider {
	case "ollama":
		return defaultOllamaModel
	default:
		return defaultOpenAIModel
	}
}

// HealthCheck delegates to p when it supports health checks.
func HealthCheck(ctx context.Context, p Provider) error {
	if hc, ok := p.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
