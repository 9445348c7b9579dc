package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/docsearch/internal/cache"
	"github.com/nikhilbhutani/docsearch/internal/metrics"
)

// VectorCache is the subset of cache.Cache the embedding cache needs.
type VectorCache interface {
	GetVector(ctx context.Context, key string) ([]float32, error)
	SetVector(ctx context.Context, key string, vec []float32, ttl time.Duration) error
}

// CachedProvider serves repeated texts from a vector cache.
// Cache failures are logged and never fail an Embed call.
type CachedProvider struct {
	inner  Provider
	cache  VectorCache
	model  string
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedProvider(inner Provider, c VectorCache, model string, ttl time.Duration, logger *slog.Logger) *CachedProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProvider{inner: inner, cache: c, model: model, ttl: ttl, logger: logger}
}

func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := p.key(text)

	vec, err := p.cache.GetVector(ctx, key)
	switch {
	case err == nil && len(vec) > 0:
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return vec, nil
	case err != nil && !errors.Is(err, cache.ErrMiss):
		p.logger.Warn("embedding cache read failed", "error", err)
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	vec, err = p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := p.cache.SetVector(ctx, key, vec, p.ttl); err != nil {
		p.logger.Warn("embedding cache write failed", "error", err)
	}
	return vec, nil
}

func (p *CachedProvider) HealthCheck(ctx context.Context) error {
	return HealthCheck(ctx, p.inner)
}

// key includes the model so switching models never serves stale vectors.
func (p *CachedProvider) key(text string) string {
	h := sha256.Sum256([]byte(p.model + "\x00" + text))
	return fmt.Sprintf("emb:%s", hex.EncodeToString(h[:]))
}
