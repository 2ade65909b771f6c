package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/kalambet/giftbase/internal/embedding"
	"github.com/kalambet/giftbase/internal/vectorstore"
)

// DefaultTopK is the number of products returned when the caller does not ask
// for a specific count.
const DefaultTopK = 4

const fallbackPageSize = 500

// phraseBonus rewards a full-phrase match over scattered token matches.
const phraseBonus = 3

// ErrEmptyQuery is returned for a query that is blank after trimming.
var ErrEmptyQuery = errors.New("query is empty")

// VectorIndex is the slice of the vector store the retriever reads from.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Hit, error)
	Range(ctx context.Context, cursor string, limit int) (vectorstore.Page, error)
}

// Result is one retrieved product chunk.
type Result struct {
	ID       string               `json:"id"`
	Score    float32              `json:"score"`
	Metadata vectorstore.Metadata `json:"metadata"`
}

// Retriever answers product queries. The primary path embeds the query and
// runs a similarity search; when that path fails or finds nothing, a keyword
// scan over the stored chunks keeps the assistant answering.
type Retriever struct {
	embedder embedding.Embedder
	index    VectorIndex
	logger   *slog.Logger
}

// New creates a Retriever.
func New(embedder embedding.Embedder, index VectorIndex) *Retriever {
	return &Retriever{embedder: embedder, index: index, logger: slog.Default()}
}

// Search returns up to topK chunks relevant to query, best first. If topK is
// <= 0, DefaultTopK is used. An embedding or index failure degrades to the
// keyword fallback instead of surfacing an error to the shopper.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	results, err := r.semantic(ctx, query, topK)
	if err != nil {
		r.logger.Warn("semantic search failed, falling back to keywords", "error", err)
		return r.keyword(ctx, query, topK)
	}
	if len(results) == 0 {
		return r.keyword(ctx, query, topK)
	}
	return results, nil
}

func (r *Retriever) semantic(ctx context.Context, query string, topK int) ([]Result, error) {
	vector, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := r.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{ID: h.ID, Score: h.Score, Metadata: h.Metadata}
	}
	return results, nil
}

// keyword pages through every stored chunk and scores it against the query:
// the full lowercased phrase is worth phraseBonus, each matching token one
// point. Zero-score chunks are dropped.
func (r *Retriever) keyword(ctx context.Context, query string, topK int) ([]Result, error) {
	phrase := strings.ToLower(query)
	tokens := strings.Fields(phrase)

	var matched []Result
	cursor := ""
	for {
		page, err := r.index.Range(ctx, cursor, fallbackPageSize)
		if err != nil {
			return nil, fmt.Errorf("scanning index: %w", err)
		}

		for _, rec := range page.Records {
			content := strings.ToLower(rec.Metadata.Content)
			score := 0
			if strings.Contains(content, phrase) {
				score += phraseBonus
			}
			for _, tok := range tokens {
				if strings.Contains(content, tok) {
					score++
				}
			}
			if score == 0 {
				continue
			}
			matched = append(matched, Result{ID: rec.ID, Score: float32(score), Metadata: rec.Metadata})
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Score != matched[j].Score {
			return matched[i].Score > matched[j].Score
		}
		return matched[i].ID < matched[j].ID
	})
	if len(matched) > topK {
		matched = matched[:topK]
	}
	return matched, nil
}
