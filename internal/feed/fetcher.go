// Package feed downloads the spreadsheet CSV feeds that make up a site snapshot.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/shamrozr/luxury-affairs/internal/platform/metrics"
	"github.com/shamrozr/luxury-affairs/internal/snapshot"
	"github.com/shamrozr/luxury-affairs/internal/table"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultMaxBytes = 2 << 20
)

// Feed names used in logs and metrics.
const (
	NameThemes      = "themes"
	NameBrands      = "brands"
	NameCollections = "collections"
)

var tracer = otel.Tracer("github.com/shamrozr/luxury-affairs/internal/feed")

// URLs addresses the three feeds of one site.
type URLs struct {
	Themes      string
	Brands      string
	Collections string
}

// HTTPDoer is the subset of *http.Client used by the fetcher.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Fetcher downloads and parses feeds. A feed that cannot be read yields an empty table.
type Fetcher struct {
	client   HTTPDoer
	logger   *zap.Logger
	maxBytes int64
}

// Option customises Fetcher behaviour.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMaxBytes caps how much of a response body is read.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewFetcher constructs a Fetcher with the supplied options.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   zap.NewNop(),
		maxBytes: defaultMaxBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fetch downloads one feed and parses it. It never fails: an unset URL, a transport error,
// a non-2xx response or a body over the size cap all produce an empty table.
func (f *Fetcher) Fetch(ctx context.Context, name, url string) table.Table {
	start := time.Now()
	logger := f.logger.With(zap.String("feed", name))

	url = strings.TrimSpace(url)
	if url == "" {
		logger.Info("feed url not configured")
		metrics.RecordFeedFetch(name, metrics.FeedOutcomeUnset, time.Since(start), 0)
		return table.Table{}
	}

	ctx, span := tracer.Start(ctx, "feed.fetch", trace.WithAttributes(attribute.String("feed.name", name)))
	defer span.End()

	text, outcome, err := f.download(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		logger.Warn("feed unavailable", zap.String("outcome", outcome), zap.Error(err))
		metrics.RecordFeedFetch(name, outcome, time.Since(start), 0)
		return table.Table{}
	}

	rows := table.Parse(text)
	span.SetAttributes(attribute.Int("feed.rows", len(rows)))
	logger.Info("feed fetched", zap.Int("rows", len(rows)), zap.Duration("duration", time.Since(start)))
	metrics.RecordFeedFetch(name, metrics.FeedOutcomeOK, time.Since(start), len(rows))
	return rows
}

// FetchAll downloads the three feeds concurrently. Each feed is isolated: one failing never
// affects the others.
func (f *Fetcher) FetchAll(ctx context.Context, urls URLs) snapshot.Snapshot {
	var (
		wg  sync.WaitGroup
		out snapshot.Snapshot
	)
	jobs := []struct {
		name string
		url  string
		dst  *table.Table
	}{
		{NameThemes, urls.Themes, &out.Themes},
		{NameBrands, urls.Brands, &out.Brands},
		{NameCollections, urls.Collections, &out.Collections},
	}
	wg.Add(len(jobs))
	for _, job := range jobs {
		go func() {
			defer wg.Done()
			*job.dst = f.Fetch(ctx, job.name, job.url)
		}()
	}
	wg.Wait()
	return out
}

func (f *Fetcher) download(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", metrics.FeedOutcomeNetwork, fmt.Errorf("feed: build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", metrics.FeedOutcomeNetwork, fmt.Errorf("feed: get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", metrics.FeedOutcomeHTTPStatus, fmt.Errorf("feed: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", metrics.FeedOutcomeReadFailure, fmt.Errorf("feed: read body: %w", err)
	}
	if int64(len(raw)) > f.maxBytes {
		return "", metrics.FeedOutcomeTooLarge, fmt.Errorf("feed: body exceeds %d bytes", f.maxBytes)
	}
	text, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return "", metrics.FeedOutcomeReadFailure, fmt.Errorf("feed: decode body: %w", err)
	}
	return string(text), metrics.FeedOutcomeOK, nil
}
