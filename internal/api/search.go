package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kalambet/giftbase/internal/search"
)

const maxRequestBodySize = 1 << 20 // 1MB

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK"`
}

type searchResponse struct {
	Products []search.Result `json:"products"`
}

func handleSearch(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		topK := req.TopK
		if topK <= 0 {
			topK = deps.DefaultTopK
		}

		results, err := deps.Retriever.Search(r.Context(), req.Query, topK)
		if errors.Is(err, search.ErrEmptyQuery) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "query is required")
			return
		}
		if err != nil {
			// The retriever already exhausted its fallback; an empty result
			// keeps the storefront chat answering instead of erroring.
			writeJSON(w, searchResponse{Products: []search.Result{}})
			return
		}

		if results == nil {
			results = []search.Result{}
		}
		writeJSON(w, searchResponse{Products: results})
	}
}
