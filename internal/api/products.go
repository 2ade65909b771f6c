package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/giftbase/internal/product"
)

type productList struct {
	Products   []product.Product `json:"products"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

func handleListProducts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)
		cursor := r.URL.Query().Get("cursor")

		products, next, err := deps.Products.List(r.Context(), cursor, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list products: %v", err)
			return
		}
		if products == nil {
			products = []product.Product{}
		}
		writeJSON(w, productList{Products: products, NextCursor: next})
	}
}

func handleGetProduct(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		p, err := deps.Products.FindByID(r.Context(), id)
		if errors.Is(err, product.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get product: %v", err)
			return
		}
		writeJSON(w, p)
	}
}
