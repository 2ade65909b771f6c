package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/giftbase/internal/catalog"
	"github.com/kalambet/giftbase/internal/embedding"
	"github.com/kalambet/giftbase/internal/imagecheck"
	"github.com/kalambet/giftbase/internal/vectorstore"
)

const defaultImageConcurrency = 8

// embedMaxAttempts bounds the caller-level retry around the single batched
// embed call. The embedding client itself never retries.
const embedMaxAttempts = 3

// ErrInvalidShopID is returned for a vendor-supplied shop id that is empty or
// carries characters outside [A-Za-z0-9_-].
var ErrInvalidShopID = errors.New("invalid shop id")

// ImageChecker probes image references; it never fails.
type ImageChecker interface {
	Check(ctx context.Context, url string) imagecheck.Metadata
}

// VectorWriter is the slice of the vector store the pipeline writes through.
type VectorWriter interface {
	DeleteByResource(ctx context.Context, resourceID string) (int, error)
	Upsert(ctx context.Context, records []vectorstore.Record) error
}

// Summary reports one completed ingestion.
type Summary struct {
	ResourceID    string
	RowsUpserted  int
	ImagesValid   int
	ImagesInvalid int
}

// Pipeline turns spreadsheet rows into embedded, indexed records.
//
// One Ingest call is all-or-nothing: every row must normalize before any
// network work starts, and the index is written once at the end. Image probes
// are best-effort annotations and cannot fail the batch.
type Pipeline struct {
	embedder         embedding.Embedder
	images           ImageChecker
	store            VectorWriter
	imageConcurrency int
	logger           *slog.Logger
}

// New creates a Pipeline. If imageConcurrency is <= 0, it defaults to 8.
func New(embedder embedding.Embedder, images ImageChecker, store VectorWriter, imageConcurrency int) *Pipeline {
	if imageConcurrency <= 0 {
		imageConcurrency = defaultImageConcurrency
	}
	return &Pipeline{
		embedder:         embedder,
		images:           images,
		store:            store,
		imageConcurrency: imageConcurrency,
		logger:           slog.Default(),
	}
}

// ResourceID derives the identifier a batch is ingested under: a vendor's
// shop id becomes "shop-<id>", everything else gets a timestamped batch id.
func ResourceID(shopID string) (string, error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return fmt.Sprintf("batch-%d", time.Now().UnixMilli()), nil
	}
	for _, r := range shopID {
		ok := r == '-' || r == '_' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidShopID, shopID)
		}
	}
	return "shop-" + shopID, nil
}

// Ingest validates, normalizes, embeds and upserts every row of the sheet
// under resourceID. Any row failure aborts the whole batch before embedding;
// previously stored rows of the same resource are replaced in full.
func (p *Pipeline) Ingest(ctx context.Context, resourceID string, sheet *catalog.Sheet) (Summary, error) {
	cols, err := catalog.DetectColumns(sheet.Headers)
	if err != nil {
		return Summary{}, err
	}

	// Normalize every row first, collecting all failures so the vendor can
	// fix the file in one pass. No partial writes: a single bad row rejects
	// the batch before any embedding or upsert happens.
	chunks := make([]catalog.Chunk, len(sheet.Rows))
	var rowErrs catalog.RowErrors
	for i, row := range sheet.Rows {
		chunk, err := catalog.NormalizeRow(row, cols, i)
		if err != nil {
			var re *catalog.RowError
			if errors.As(err, &re) {
				rowErrs = append(rowErrs, re)
				continue
			}
			return Summary{}, err
		}
		chunks[i] = chunk
	}
	if len(rowErrs) > 0 {
		return Summary{}, rowErrs
	}

	// Fan out the image probes; each is individually time-bounded and
	// never fails, so the only group error is context cancellation.
	imageMeta := make([]imagecheck.Metadata, len(chunks))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.imageConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			imageMeta[i] = p.images.Check(gCtx, chunk.ImageRef)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("checking images: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := p.embedWithRetry(ctx, texts)
	if err != nil {
		return Summary{}, fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}

	summary := Summary{ResourceID: resourceID, RowsUpserted: len(chunks)}
	records := make([]vectorstore.Record, len(chunks))
	for i, chunk := range chunks {
		meta := imageMeta[i]
		if meta.Valid {
			summary.ImagesValid++
		} else {
			summary.ImagesInvalid++
		}

		valid := meta.Valid
		m := vectorstore.Metadata{
			ResourceID:     resourceID,
			Content:        chunk.Text,
			ImageURL:       chunk.ImageRef,
			ImageValid:     &valid,
			EmbeddingModel: p.embedder.Model(),
		}
		// Optional probe results are written only when the probe produced
		// them; the metadata store must never see null values.
		if meta.ContentType != "" {
			m.ImageContentType = meta.ContentType
		}
		if meta.ByteSize > 0 {
			m.ImageSize = meta.ByteSize
		}

		records[i] = vectorstore.Record{
			ID:       fmt.Sprintf("%s-%d", resourceID, i),
			Vector:   vectors[i],
			Metadata: m,
		}
	}

	// A re-upload replaces the resource wholesale; without this, a shrinking
	// sheet would leave stale trailing ids from the previous upload.
	if deleted, err := p.store.DeleteByResource(ctx, resourceID); err != nil {
		return Summary{}, fmt.Errorf("clearing previous rows of %s: %w", resourceID, err)
	} else if deleted > 0 {
		p.logger.Info("replaced previous upload", "resource_id", resourceID, "deleted", deleted)
	}

	if err := p.store.Upsert(ctx, records); err != nil {
		return Summary{}, fmt.Errorf("upserting %d records: %w", len(records), err)
	}

	p.logger.Info("ingested resource",
		"resource_id", resourceID,
		"rows", summary.RowsUpserted,
		"images_valid", summary.ImagesValid,
		"images_invalid", summary.ImagesInvalid,
	)
	return summary, nil
}

// embedWithRetry wraps the single batched embed call in exponential backoff.
// Rate-limited embedding backends make one flaky attempt per upload too
// costly: the vendor would have to resubmit the whole file.
func (p *Pipeline) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < embedMaxAttempts; attempt++ {
		if attempt > 0 {
			delay := 200 * time.Millisecond << (attempt - 1)
			p.logger.Warn("retrying embed batch", "attempt", attempt+1, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		vectors, err := p.embedder.EmbedMany(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
