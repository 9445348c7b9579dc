package rag

import (
	"github.com/nikhilbhutani/docsearch/internal/models"
	"github.com/nikhilbhutani/docsearch/internal/vectorstore"
)

type options struct {
	ids      IDGenerator
	observer Observer
}

// Option customises an Ingestor or a Searcher.
type Option func(*options)

// WithIDGenerator replaces the random identity source.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithObserver installs a checkpoint observer. Use Observers to combine several.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

func buildOptions(opts []Option) options {
	o := options{ids: RandomIDs{}, observer: nopObserver{}}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// checkDimension rejects vectors whose length disagrees with a store that
// already has a fixed dimension.
func checkDimension(store vectorstore.Store, vec []float32) error {
	if want := store.Dimension(); want > 0 && len(vec) != want {
		return models.DimensionMismatch(len(vec), want)
	}
	return nil
}
