package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	main "github.com/use-agent/linkcard/cmd/linkcard-cli"
	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/cookiestore"
	"github.com/use-agent/linkcard/extractor"
	"github.com/use-agent/linkcard/models"
)

const productURL = "https://www.amazon.co.jp/dp/B0DP6MYX5Y"

var product = models.ProductMetadata{
	Title:       "Quiet <Keyboard>",
	Image:       "https://m.media-amazon.com/images/I/k1.jpg",
	Description: "A quiet mechanical keyboard.",
	Price:       "￥12,800",
	URL:         productURL,
}

type fakeFetcher struct {
	meta  models.ProductMetadata
	trace extractor.Trace
	err   error

	gotCookie string
	calls     int
}

func (f *fakeFetcher) FetchAndExtractTrace(_ context.Context, _, cookie string) (models.ProductMetadata, extractor.Trace, error) {
	f.calls++
	f.gotCookie = cookie
	return f.meta, f.trace, f.err
}

type harness struct {
	main    *main.Main
	fetcher *fakeFetcher
	store   *cookiestore.Store
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
}

func newHarness(t *testing.T, f *fakeFetcher) *harness {
	t.Helper()

	store := cookiestore.New(":memory:")
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	return &harness{
		main: &main.Main{
			Config: &config.Config{
				Affiliate: config.AffiliateConfig{Tag: "default-22"},
				Store:     config.StoreConfig{CookieExpiryDays: 365},
			},
			Cookies: store,
			Fetcher: f,
		},
		fetcher: f,
		store:   store,
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
	}
}

func (h *harness) run(args ...string) error {
	return h.main.Run(context.Background(), args, h.stdout, h.stderr)
}

func TestCard(t *testing.T) {
	t.Parallel()

	t.Run("prints escaped card with default tag and saved cookie", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, &fakeFetcher{meta: product})
		require.NoError(t, h.store.Save(context.Background(), "session-id=1", 30))

		require.NoError(t, h.run("card", productURL))
		out := h.stdout.String()
		assert.Contains(t, out, `<div class="amazon-link-card"`)
		assert.Contains(t, out, "Quiet &lt;Keyboard&gt;")
		assert.Contains(t, out, productURL+"?tag=default-22")
		assert.Equal(t, "session-id=1", h.fetcher.gotCookie)
	})

	t.Run("flag cookie and tag win", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, &fakeFetcher{meta: product})
		require.NoError(t, h.store.Save(context.Background(), "session-id=1", 30))

		require.NoError(t, h.run("card", productURL, "--cookie", "session-id=2", "--tag", "-", "--json"))

		var got struct {
			Metadata models.ProductMetadata `json:"metadata"`
			HTML     string                 `json:"html"`
		}
		require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
		assert.Equal(t, productURL, got.Metadata.URL)
		assert.NotEmpty(t, got.HTML)
		assert.Equal(t, "session-id=2", h.fetcher.gotCookie)
	})

	t.Run("no-cookie sends nothing", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, &fakeFetcher{meta: product})
		require.NoError(t, h.store.Save(context.Background(), "session-id=1", 30))

		require.NoError(t, h.run("card", productURL, "--no-cookie"))
		assert.Empty(t, h.fetcher.gotCookie)
	})

	t.Run("invalid url never fetches", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, &fakeFetcher{meta: product})
		require.Error(t, h.run("card", "https://example.com/dp/B0DP6MYX5Y"))
		assert.Zero(t, h.fetcher.calls)
		assert.Contains(t, h.stderr.String(), "not this provider's domain")
	})

	t.Run("bot block suggests saving a cookie", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, &fakeFetcher{err: &models.LinkCardError{Code: models.ErrCodeCredentialRequired, Status: 503}})
		require.Error(t, h.run("card", productURL))
		assert.Contains(t, h.stderr.String(), models.UserMessage(models.ErrCodeCredentialRequired))
		assert.Contains(t, h.stderr.String(), "cookie set")
		assert.Empty(t, h.stdout.String())
	})
}

func TestExtract(t *testing.T) {
	t.Parallel()

	t.Run("fetches and prints trace", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, &fakeFetcher{meta: product, trace: extractor.Trace{Title: 1, Image: 3, Description: 1}})
		require.NoError(t, h.run("extract", productURL, "--trace"))

		var got models.ProductMetadata
		require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
		assert.Equal(t, product, got)
		assert.Contains(t, h.stderr.String(), "image        tier 3")
		assert.Contains(t, h.stderr.String(), "price        none")
	})

	t.Run("reads a saved page", func(t *testing.T) {
		t.Parallel()

		page := filepath.Join(t.TempDir(), "page.html")
		require.NoError(t, os.WriteFile(page, []byte(`<html><head>
<meta name="title" content="Amazon.com: Desk Lamp">
<meta name="description" content="A lamp.">
</head><body><img data-old-hires="https://m.media-amazon.com/images/I/lamp.jpg"></body></html>`), 0o600))

		h := newHarness(t, &fakeFetcher{})
		require.NoError(t, h.run("extract", "https://www.amazon.com/dp/B000000001?ref=x", "--file", page, "--trace"))

		var got models.ProductMetadata
		require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
		assert.Equal(t, models.ProductMetadata{
			Title:       "Desk Lamp",
			Image:       "https://m.media-amazon.com/images/I/lamp.jpg",
			Description: "A lamp.",
			URL:         "https://www.amazon.com/dp/B000000001",
		}, got)
		assert.Contains(t, h.stderr.String(), "image        tier 2")
		assert.Zero(t, h.fetcher.calls)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeFetcher{})
	require.NoError(t, h.run("validate", productURL+"?ref=nav&th=1&psc=1"))
	assert.Contains(t, h.stdout.String(), "normalized: "+productURL+"?psc=1")
	assert.Contains(t, h.stdout.String(), "asin: B0DP6MYX5Y")

	h = newHarness(t, &fakeFetcher{})
	require.Error(t, h.run("validate", "https://www.amazon.co.jp/"))
	assert.Contains(t, h.stderr.String(), "not a product page")
}

func TestCookie(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeFetcher{})

	require.NoError(t, h.run("cookie", "show"))
	assert.Contains(t, h.stdout.String(), "No cookie saved")

	h.stdout.Reset()
	require.NoError(t, h.run("cookie", "set", "session-id=355-1234567", "--days", "30"))
	assert.Contains(t, h.stdout.String(), "Saved cookie")

	v, ok, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "session-id=355-1234567", v)

	h.stdout.Reset()
	require.NoError(t, h.run("cookie", "show"))
	assert.Contains(t, h.stdout.String(), "session-…")
	assert.NotContains(t, h.stdout.String(), "1234567")

	h.stdout.Reset()
	require.NoError(t, h.run("cookie", "show", "--reveal"))
	assert.Contains(t, h.stdout.String(), "session-id=355-1234567")

	require.NoError(t, h.run("cookie", "delete"))
	_, ok, err = h.store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRun_NoCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeFetcher{})
	require.Error(t, h.run())
	require.NoError(t, h.run("--help"))
}
