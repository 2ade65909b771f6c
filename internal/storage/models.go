package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Upload is the history record for one completed ingestion.
type Upload struct {
	ID            string    `json:"id"`
	ResourceID    string    `json:"resourceId"`
	RowsUpserted  int       `json:"rowsUpserted"`
	ImagesValid   int       `json:"imagesValid"`
	ImagesInvalid int       `json:"imagesInvalid"`
	CreatedAt     time.Time `json:"createdAt"`
}
