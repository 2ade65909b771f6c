package product

import (
	"context"
	"errors"
	"strings"

	"github.com/kalambet/giftbase/internal/vectorstore"
)

// ErrNotFound is returned when no product exists for an id.
var ErrNotFound = errors.New("product not found")

const defaultListLimit = 100

// Catalog is the slice of the vector store the repository reads from.
type Catalog interface {
	Range(ctx context.Context, cursor string, limit int) (vectorstore.Page, error)
	FetchByID(ctx context.Context, id string) (*vectorstore.Record, error)
}

// Product is a stored catalog entry viewed as a browsable item rather than a
// search hit.
type Product struct {
	ID         string `json:"id"`
	ResourceID string `json:"resourceId"`
	Name       string `json:"name,omitempty"`
	Content    string `json:"content"`
	ImageURL   string `json:"imageUrl,omitempty"`
	ImageValid *bool  `json:"imageValid,omitempty"`
}

// Repository exposes the indexed catalog for browsing and lookup.
type Repository struct {
	catalog Catalog
}

// NewRepository creates a Repository over the given catalog.
func NewRepository(catalog Catalog) *Repository {
	return &Repository{catalog: catalog}
}

// List returns up to limit products in ascending id order, with a cursor for
// the next page. A limit <= 0 defaults to 100.
func (r *Repository) List(ctx context.Context, cursor string, limit int) ([]Product, string, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	page, err := r.catalog.Range(ctx, cursor, limit)
	if err != nil {
		return nil, "", err
	}

	products := make([]Product, len(page.Records))
	for i, rec := range page.Records {
		products[i] = fromRecord(&rec)
	}
	return products, page.NextCursor, nil
}

// FindByID returns the product stored under id, or ErrNotFound.
func (r *Repository) FindByID(ctx context.Context, id string) (*Product, error) {
	rec, err := r.catalog.FetchByID(ctx, id)
	if err != nil {
		if errors.Is(err, vectorstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p := fromRecord(rec)
	return &p, nil
}

func fromRecord(rec *vectorstore.Record) Product {
	return Product{
		ID:         rec.ID,
		ResourceID: rec.Metadata.ResourceID,
		Name:       nameFromContent(rec.Metadata.Content),
		Content:    rec.Metadata.Content,
		ImageURL:   rec.Metadata.ImageURL,
		ImageValid: rec.Metadata.ImageValid,
	}
}

// nameFromContent recovers the product name from the leading "Name: <n>."
// segment of a chunk. Chunks always start with that segment, but a missing or
// malformed one just yields an empty name.
func nameFromContent(content string) string {
	const prefix = "Name: "
	if !strings.HasPrefix(content, prefix) {
		return ""
	}
	rest := content[len(prefix):]
	if end := strings.Index(rest, ". "); end >= 0 {
		return rest[:end]
	}
	return strings.TrimSuffix(rest, ".")
}
