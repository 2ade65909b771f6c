package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/giftbase/internal/catalog"
	"github.com/kalambet/giftbase/internal/ingestion"
	"github.com/kalambet/giftbase/internal/storage"
)

type uploadResponse struct {
	Success       bool   `json:"success"`
	UploadID      string `json:"uploadId"`
	ResourceID    string `json:"resourceId"`
	RowsUpserted  int    `json:"rowsUpserted"`
	ImagesValid   int    `json:"imagesValid"`
	ImagesInvalid int    `json:"imagesInvalid"`
}

func handleUpload(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, deps.MaxUploadBytes)
		defer r.Body.Close()

		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "file exceeds %d bytes", deps.MaxUploadBytes)
				return
			}
			httpError(w, http.StatusBadRequest, "invalid_request_error", "file field is required: %v", err)
			return
		}
		defer file.Close()

		resourceID, err := ingestion.ResourceID(r.FormValue("shopId"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		sheet, err := catalog.ParseSpreadsheet(file, header.Filename)
		if err != nil {
			switch {
			case errors.Is(err, catalog.ErrUnsupportedFormat):
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unsupported file type %q, expected .xlsx or .csv", header.Filename)
			case errors.Is(err, catalog.ErrNoRows), errors.Is(err, catalog.ErrNoSheets):
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			default:
				httpError(w, http.StatusBadRequest, "invalid_request_error", "could not parse %q: %v", header.Filename, err)
			}
			return
		}

		summary, err := deps.Pipeline.Ingest(r.Context(), resourceID, sheet)
		if err != nil {
			var missing *catalog.MissingColumnError
			var rowErrs catalog.RowErrors
			switch {
			case errors.As(err, &missing):
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", missing)
			case errors.As(err, &rowErrs):
				writeRowErrors(w, rowErrs)
			default:
				httpError(w, http.StatusBadGateway, "api_error", "ingestion failed: %v", err)
			}
			return
		}

		upload := storage.Upload{
			ID:            uuid.New().String(),
			ResourceID:    summary.ResourceID,
			RowsUpserted:  summary.RowsUpserted,
			ImagesValid:   summary.ImagesValid,
			ImagesInvalid: summary.ImagesInvalid,
			CreatedAt:     time.Now().UTC(),
		}
		// The index write already succeeded; a history failure is not worth
		// failing the vendor's upload over.
		if err := deps.Store.SaveUpload(upload); err != nil {
			slog.Error("recording upload history failed", "resource_id", summary.ResourceID, "error", err)
		}

		writeJSON(w, uploadResponse{
			Success:       true,
			UploadID:      upload.ID,
			ResourceID:    summary.ResourceID,
			RowsUpserted:  summary.RowsUpserted,
			ImagesValid:   summary.ImagesValid,
			ImagesInvalid: summary.ImagesInvalid,
		})
	}
}

// writeRowErrors reports every failed row so the vendor can fix the file in
// one pass.
func writeRowErrors(w http.ResponseWriter, rowErrs catalog.RowErrors) {
	type rowDetail struct {
		Row     int      `json:"row"`
		Missing []string `json:"missing"`
	}
	details := make([]rowDetail, len(rowErrs))
	for i, re := range rowErrs {
		details[i] = rowDetail{Row: re.Index, Missing: re.MissingFields}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": rowErrs.Error(),
			"type":    "invalid_request_error",
			"rows":    details,
		},
	})
}

func handleListUploads(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		uploads, err := deps.Store.ListUploads(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list uploads: %v", err)
			return
		}
		if uploads == nil {
			uploads = []storage.Upload{}
		}
		writeJSON(w, uploads)
	}
}

func handleReset(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Index.Reset(r.Context()); err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "reset failed: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "reset"})
	}
}
