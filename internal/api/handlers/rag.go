package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nikhilbhutani/docsearch/internal/models"
)

// Searcher is the query pipeline as seen by the HTTP layer.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error)
}

type QueryHandler struct {
	searcher Searcher
}

func NewQueryHandler(searcher Searcher) *QueryHandler {
	return &QueryHandler{searcher: searcher}
}

type queryBody struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var body queryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, models.InvalidArgument("invalid request body"))
		return
	}

	req := models.QueryRequest{Query: body.Query, TopK: models.DefaultTopK}
	if body.TopK != nil {
		req.TopK = *body.TopK
	}

	results, err := h.searcher.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": results})
}
