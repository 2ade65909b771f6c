package imagecheck

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 4 * time.Second

// Metadata is the best-effort result of probing an image reference.
// Valid is true only for an absolute http(s) URL that answered a HEAD request
// with a 2xx status.
type Metadata struct {
	URL         string
	Valid       bool
	ContentType string
	ByteSize    int64
}

// Validator probes image URLs without downloading their bodies. A probe never
// returns an error: an unreachable image must not block ingestion of an
// otherwise valid row.
type Validator struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Validator. If timeout is <= 0, it defaults to 4s.
func New(client *http.Client, timeout time.Duration) *Validator {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Validator{client: client, timeout: timeout, logger: slog.Default()}
}

// Check probes url with a HEAD request. Non-http(s) references short-circuit
// to Valid:false without any network call; transport errors, timeouts and
// non-2xx statuses also yield Valid:false.
func (v *Validator) Check(ctx context.Context, url string) Metadata {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return Metadata{URL: url}
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return Metadata{URL: url}
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Debug("image probe failed", "url", url, "error", err)
		return Metadata{URL: url}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		v.logger.Debug("image probe rejected", "url", url, "status", resp.StatusCode)
		return Metadata{URL: url}
	}

	meta := Metadata{
		URL:         url,
		Valid:       true,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if size, err := strconv.ParseInt(cl, 10, 64); err == nil {
			meta.ByteSize = size
		}
	}
	return meta
}
