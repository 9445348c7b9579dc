package rag

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nikhilbhutani/docsearch/internal/models"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(string, []byte) (string, error) { return f.text, f.err }

// fakeEmbedder returns a deterministic vector derived from the text length.
type fakeEmbedder struct {
	dim   int
	err   error
	calls []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	vec := make([]float32, f.dim)
	for i := range vec {
		vec[i] = float32(len(text) + i)
	}
	return vec, nil
}

type addCall struct {
	id        string
	embedding []float32
	content   string
}

type fakeStore struct {
	mu        sync.Mutex
	dimension int
	addErr    error
	queryErr  error
	result    *models.QueryResult
	adds      []addCall
	queries   int
	lastTopK  int
}

func (f *fakeStore) Add(_ context.Context, id string, embedding []float32, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, addCall{id: id, embedding: embedding, content: content})
	return f.addErr
}

func (f *fakeStore) Query(_ context.Context, _ []float32, topK int) (*models.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	f.lastTopK = topK
	return f.result, f.queryErr
}

func (f *fakeStore) GetAll(context.Context) (*models.Listing, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) Dimension() int { return f.dimension }

type fixedIDs struct {
	suffix string
	n      int
}

func (f *fixedIDs) DocumentID(filename string) string { return filename + "-" + f.suffix }

func (f *fixedIDs) ResultID() string {
	f.n++
	return "generated-" + string(rune('0'+f.n))
}

type recordingObserver struct {
	events []string
}

func (r *recordingObserver) PreEmbed(_ context.Context, op string, _ int) {
	r.events = append(r.events, "pre-embed:"+op)
}

func (r *recordingObserver) PostStoreWrite(_ context.Context, id string, _ time.Duration, err error) {
	ev := "post-store-write:" + id
	if err != nil {
		ev += ":" + string(models.KindOf(err))
	}
	r.events = append(r.events, ev)
}

func (r *recordingObserver) PostQuery(_ context.Context, n int, _ time.Duration, err error) {
	ev := "post-query:" + string(rune('0'+n))
	if err != nil {
		ev += ":" + string(models.KindOf(err))
	}
	r.events = append(r.events, ev)
}

func (r *recordingObserver) Finished(_ context.Context, op string, err error) {
	ev := "finished:" + op
	if err != nil {
		ev += ":" + string(models.KindOf(err))
	}
	r.events = append(r.events, ev)
}
