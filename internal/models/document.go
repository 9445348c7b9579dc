package models

// Document is a stored (id, embedding, content) triple. Created once at ingestion, never mutated.
type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
}

// SearchResult is a single match returned to callers.
// Score is the store's distance value as reported by the store; lower means closer
// for every backend shipped in this repo.
type SearchResult struct {
	ID      string  `json:"document_id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// QueryRequest is the input of a semantic search.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// DefaultTopK is used when a query omits top_k.
const DefaultTopK = 5

// QueryResult is the store-native response to a nearest-neighbour query.
// Documents and Distances are parallel and ordered best-first by the store.
// IDs is optional; when present it is parallel to Documents.
// An empty document or a nil distance marks a missing entry.
type QueryResult struct {
	IDs       []string   `json:"ids,omitempty"`
	Documents []string   `json:"documents"`
	Distances []*float64 `json:"distances"`
}

// Listing is the raw content of a store, ordered by insertion.
type Listing struct {
	IDs       []string `json:"ids"`
	Documents []string `json:"documents"`
}

// Distance returns a pointer to d, for building QueryResult values.
func Distance(d float64) *float64 {
	return &d
}
