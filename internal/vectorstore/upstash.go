package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// Compile-time check that UpstashStore implements VectorStore.
var _ VectorStore = (*UpstashStore)(nil)

// UpstashStore speaks the Upstash Vector REST API. Transient failures are
// retried by the underlying retryable client; each VectorStore call is a
// single logical operation against the remote index.
//
// Record ids are "<resourceId>-<rowIndex>", so DeleteByResource maps onto the
// API's prefix deletion.
type UpstashStore struct {
	baseURL string
	token   string
	client  *retryablehttp.Client
}

// NewUpstashStore creates a store for the given REST endpoint and token.
func NewUpstashStore(baseURL, token string) *UpstashStore {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	return &UpstashStore{baseURL: baseURL, token: token, client: client}
}

type upstashVector struct {
	ID       string    `json:"id"`
	Vector   []float32 `json:"vector,omitempty"`
	Score    float32   `json:"score,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// doJSON posts body to path and decodes the "result" envelope into out.
func (s *UpstashStore) doJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", path, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned %s: %s", path, resp.Status, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Result json.RawMessage `json:"result"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", path, err)
	}
	return nil
}

// Upsert inserts records, replacing any existing record with the same id.
func (s *UpstashStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	vectors := make([]upstashVector, len(records))
	for i, r := range records {
		meta := r.Metadata
		vectors[i] = upstashVector{ID: r.ID, Vector: r.Vector, Metadata: &meta}
	}
	return s.doJSON(ctx, "/upsert", vectors, nil)
}

// Query returns the topK most similar records, score descending. Equal scores
// order by ascending id.
func (s *UpstashStore) Query(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, nil
	}

	var result []upstashVector
	err := s.doJSON(ctx, "/query", map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}, &result)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(result))
	for _, v := range result {
		hit := Hit{ID: v.ID, Score: v.Score}
		if v.Metadata != nil {
			hit.Metadata = *v.Metadata
		}
		hits = append(hits, hit)
	}

	// The backend already ranks by score; enforce the id tie-break locally.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].Score == hits[j-1].Score && hits[j].ID < hits[j-1].ID; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	return hits, nil
}

// Range lists stored records starting after cursor.
func (s *UpstashStore) Range(ctx context.Context, cursor string, limit int) (Page, error) {
	if limit <= 0 {
		limit = 100
	}

	var result struct {
		NextCursor string          `json:"nextCursor"`
		Vectors    []upstashVector `json:"vectors"`
	}
	err := s.doJSON(ctx, "/range", map[string]any{
		"cursor":          cursor,
		"limit":           limit,
		"includeMetadata": true,
		"includeVectors":  true,
	}, &result)
	if err != nil {
		return Page{}, err
	}

	page := Page{NextCursor: result.NextCursor}
	for _, v := range result.Vectors {
		rec := Record{ID: v.ID, Vector: v.Vector}
		if v.Metadata != nil {
			rec.Metadata = *v.Metadata
		}
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

// FetchByID returns the record with the given id, or ErrNotFound.
func (s *UpstashStore) FetchByID(ctx context.Context, id string) (*Record, error) {
	var result []*upstashVector
	err := s.doJSON(ctx, "/fetch", map[string]any{
		"ids":             []string{id},
		"includeMetadata": true,
		"includeVectors":  true,
	}, &result)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || result[0] == nil {
		return nil, ErrNotFound
	}

	rec := &Record{ID: result[0].ID, Vector: result[0].Vector}
	if result[0].Metadata != nil {
		rec.Metadata = *result[0].Metadata
	}
	return rec, nil
}

// DeleteByResource removes every record of the resource via id-prefix deletion.
func (s *UpstashStore) DeleteByResource(ctx context.Context, resourceID string) (int, error) {
	if resourceID == "" {
		return 0, errors.New("resource id is required")
	}

	var result struct {
		Deleted int `json:"deleted"`
	}
	err := s.doJSON(ctx, "/delete", map[string]any{
		"prefix": resourceID + "-",
	}, &result)
	if err != nil {
		return 0, err
	}
	return result.Deleted, nil
}

// Reset removes all vectors and metadata from the index.
func (s *UpstashStore) Reset(ctx context.Context) error {
	return s.doJSON(ctx, "/reset", struct{}{}, nil)
}

// Count returns the number of stored records.
func (s *UpstashStore) Count(ctx context.Context) (int, error) {
	var result struct {
		VectorCount int `json:"vectorCount"`
	}
	if err := s.doJSON(ctx, "/info", struct{}{}, &result); err != nil {
		return 0, err
	}
	return result.VectorCount, nil
}
