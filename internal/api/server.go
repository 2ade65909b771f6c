package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/giftbase/internal/catalog"
	"github.com/kalambet/giftbase/internal/ingestion"
	"github.com/kalambet/giftbase/internal/product"
	"github.com/kalambet/giftbase/internal/search"
	"github.com/kalambet/giftbase/internal/storage"
)

// Ingester abstracts the ingestion pipeline for the API layer.
type Ingester interface {
	Ingest(ctx context.Context, resourceID string, sheet *catalog.Sheet) (ingestion.Summary, error)
}

// Searcher abstracts product retrieval for the API layer.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]search.Result, error)
}

// ProductReader abstracts catalog browsing for the API layer.
type ProductReader interface {
	List(ctx context.Context, cursor string, limit int) ([]product.Product, string, error)
	FindByID(ctx context.Context, id string) (*product.Product, error)
}

// IndexAdmin abstracts destructive index operations for the admin routes.
type IndexAdmin interface {
	Reset(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

type AppDeps struct {
	Pipeline       Ingester
	Retriever      Searcher
	Products       ProductReader
	Index          IndexAdmin
	Store          *storage.Store
	Token          string
	MaxUploadBytes int64
	DefaultTopK    int
}

// NewAppHandler returns the full HTTP surface. Shopper routes (search, product
// browsing, health) are open; portal and admin routes require the bearer token.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth(deps))
	r.Post("/search", handleSearch(deps))
	r.Get("/products", handleListProducts(deps))
	r.Get("/products/{id}", handleGetProduct(deps))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Post("/portal/upload", handleUpload(deps))
		r.Get("/uploads", handleListUploads(deps))
		r.Post("/admin/reset", handleReset(deps))
	})

	return r
}

func handleHealth(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := deps.Index.Count(r.Context())
		if err != nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "index unavailable: %v", err)
			return
		}
		writeJSON(w, map[string]any{"status": "ok", "vectors": count})
	}
}
