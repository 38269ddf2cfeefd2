// Package fetcher retrieves a product page and turns it into ProductMetadata,
// classifying every way that can go wrong.
package fetcher

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/linkcard/engine"
	"github.com/use-agent/linkcard/extractor"
	"github.com/use-agent/linkcard/metrics"
	"github.com/use-agent/linkcard/models"
)

// Fetcher performs one remote fetch per call and hands the page to the
// raw HTML extractor. It keeps no state between calls and never retries.
type Fetcher struct {
	engine   engine.Engine
	strategy extractor.Strategy
	metrics  *metrics.Metrics
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMetrics records outcomes, durations and winning tiers on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithStrategy replaces the extraction table. Browser-rendered pages are
// better served by extractor.DOMStrategy over a parsed document.
func WithStrategy(s extractor.Strategy) Option {
	return func(f *Fetcher) { f.strategy = s }
}

// New creates a Fetcher using eng for retrieval.
func New(eng engine.Engine, opts ...Option) *Fetcher {
	f := &Fetcher{
		engine:   eng,
		strategy: extractor.HTMLStrategy,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAndExtract retrieves rawURL, attaching cookie as the session header
// when non-empty, and extracts metadata from the response.
//
// The record URL is the normalized final URL after redirects. Failures are
// *models.LinkCardError with one of these codes:
//
//   - CREDENTIAL_REQUIRED: the upstream answered 503 (bot block)
//   - FETCH_FAILED: any other non-2xx status, kept in Status
//   - PARSE_FAILED: a required field was missing, wrapping the field error
//   - UNKNOWN: no response was obtained
func (f *Fetcher) FetchAndExtract(ctx context.Context, rawURL, cookie string) (models.ProductMetadata, error) {
	meta, _, err := f.FetchAndExtractTrace(ctx, rawURL, cookie)
	return meta, err
}

// FetchAndExtractTrace is FetchAndExtract that also reports which tier won
// each field.
func (f *Fetcher) FetchAndExtractTrace(ctx context.Context, rawURL, cookie string) (models.ProductMetadata, extractor.Trace, error) {
	start := time.Now()
	meta, tr, outcome, err := f.fetchAndExtract(ctx, rawURL, cookie)
	elapsed := time.Since(start)

	f.metrics.IncFetch(outcome)
	f.metrics.ObserveFetch(f.engine.Name(), elapsed)

	if err != nil {
		slog.Warn("fetch failed",
			"url", rawURL,
			"engine", f.engine.Name(),
			"outcome", outcome,
			"withCookie", cookie != "",
			"duration", elapsed,
			"error", err,
		)
		return models.ProductMetadata{}, extractor.Trace{}, err
	}

	slog.Info("fetch ok",
		"url", rawURL,
		"finalUrl", meta.URL,
		"engine", f.engine.Name(),
		"hasPrice", meta.HasPrice(),
		"duration", elapsed,
	)
	return meta, tr, nil
}

func (f *Fetcher) fetchAndExtract(ctx context.Context, rawURL, cookie string) (models.ProductMetadata, extractor.Trace, string, error) {
	res, err := f.engine.Fetch(ctx, &engine.FetchRequest{URL: rawURL, Cookie: cookie})
	if err != nil {
		return models.ProductMetadata{}, extractor.Trace{}, metrics.OutcomeUnknown,
			models.NewLinkCardError(models.ErrCodeUnknown, "request failed", err)
	}

	if res.StatusCode == http.StatusServiceUnavailable {
		return models.ProductMetadata{}, extractor.Trace{}, metrics.OutcomeCredentialRequired,
			&models.LinkCardError{
				Code:    models.ErrCodeCredentialRequired,
				Message: "blocked as automated traffic",
				Status:  res.StatusCode,
			}
	}
	if !res.OK() {
		return models.ProductMetadata{}, extractor.Trace{}, metrics.OutcomeFetchFailed,
			&models.LinkCardError{
				Code:    models.ErrCodeFetchFailed,
				Message: "upstream returned " + http.StatusText(res.StatusCode),
				Status:  res.StatusCode,
			}
	}

	finalURL := res.FinalURL
	if finalURL == "" {
		finalURL = rawURL
	}

	meta, tr, err := extractor.ExtractTrace(f.source(res.HTML), f.strategy, finalURL)
	if err != nil {
		return models.ProductMetadata{}, extractor.Trace{}, metrics.OutcomeParseFailed,
			models.NewLinkCardError(models.ErrCodeParseFailed, "missing required field", err)
	}
	f.recordTiers(tr)
	return meta, tr, metrics.OutcomeOK, nil
}

// source picks the Source matching the strategy: selector tables need a
// parsed document, pattern tables read the string directly.
func (f *Fetcher) source(page string) extractor.Source {
	if f.strategy.Name == extractor.DOMStrategy.Name {
		return extractor.NewDOM(extractor.ParseString(page))
	}
	return extractor.NewRawHTML(page)
}

func (f *Fetcher) recordTiers(tr extractor.Trace) {
	f.metrics.IncTier("title", tr.Title)
	f.metrics.IncTier("image", tr.Image)
	f.metrics.IncTier("description", tr.Description)
	f.metrics.IncTier("price", tr.Price)
}
