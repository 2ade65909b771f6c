package vectorstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Metadata is the closed set of fields stored alongside each vector.
// ResourceID and Content are always present; the image fields are written only
// when the ingestion pipeline determined them, so serialized metadata never
// carries null values.
type Metadata struct {
	ResourceID       string `json:"resourceId"`
	Content          string `json:"content"`
	ImageURL         string `json:"imageUrl,omitempty"`
	ImageValid       *bool  `json:"imageValid,omitempty"`
	ImageContentType string `json:"imageContentType,omitempty"`
	ImageSize        int64  `json:"imageSize,omitempty"`
	EmbeddingModel   string `json:"embeddingModel,omitempty"`
}

// Record is one stored vector with its metadata.
type Record struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// Hit is a query result: a record id with its similarity score and metadata.
type Hit struct {
	ID       string
	Score    float32
	Metadata Metadata
}

// Page is one slice of a full-index listing. NextCursor is empty when the
// listing is exhausted.
type Page struct {
	Records    []Record
	NextCursor string
}

// VectorStore is the interface for vector storage and similarity search
// backends. The default implementation uses SQLite with brute-force cosine
// similarity; a remote Upstash Vector backend speaks the same contract over
// REST.
//
// Upsert with an existing id overwrites that record entirely. Record ids are
// derived as "<resourceId>-<rowIndex>", so re-ingesting a resource under the
// same id overwrites its previous rows in place.
type VectorStore interface {
	// Upsert inserts records, replacing any record that already has the same id.
	Upsert(ctx context.Context, records []Record) error

	// Query returns the topK most similar records, ordered by score descending.
	// Equal scores order by ascending id so results are reproducible.
	Query(ctx context.Context, vector []float32, topK int) ([]Hit, error)

	// Range lists stored records in id order, starting after cursor (empty
	// cursor starts from the beginning).
	Range(ctx context.Context, cursor string, limit int) (Page, error)

	// FetchByID returns the record with the given id, or ErrNotFound.
	FetchByID(ctx context.Context, id string) (*Record, error)

	// DeleteByResource removes every record whose metadata carries the given
	// resource id and reports how many were removed.
	DeleteByResource(ctx context.Context, resourceID string) (int, error)

	// Reset clears the entire index. Administrative and irreversible.
	Reset(ctx context.Context) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
