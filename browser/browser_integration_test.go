//go:build integration

package browser_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/linkcard/browser"
	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/engine"
)

const productPage = `<!doctype html><html><head>
<meta name="title" content="Quiet Keyboard K1">
<meta name="description" content="A quiet mechanical keyboard.">
</head><body>
<img id="landingImage" src="/images/k1.jpg">
<div id="corePriceDisplay_desktop_feature_div">
  <span class="a-price" data-a-color="price"><span class="a-offscreen">￥12,800</span></span>
</div>
</body></html>`

func newBrowser(t *testing.T) *browser.Browser {
	t.Helper()

	b, err := browser.New(config.BrowserConfig{
		Headless:             true,
		NoSandbox:            true,
		MaxPages:             2,
		NavigationTimeout:    20 * time.Second,
		BlockedResourceTypes: []string{"Image", "Stylesheet", "Font", "Media"},
	})
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func productServer(t *testing.T, gotCookie *string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/d/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dp/B0DP6MYX5Y?ref=x&psc=1", http.StatusFound)
	})
	mux.HandleFunc("/dp/B0DP6MYX5Y", func(w http.ResponseWriter, r *http.Request) {
		if gotCookie != nil {
			*gotCookie = r.Header.Get("Cookie")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(productPage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBrowser_Integration_ExtractLive(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var cookie string
	srv := productServer(t, &cookie)
	b := newBrowser(t)

	got, err := b.ExtractLive(ctx, srv.URL+"/d/short", "session-id=abc")
	require.NoError(t, err)

	assert.Equal(t, "Quiet Keyboard K1", got.Title)
	assert.Equal(t, "/images/k1.jpg", got.Image)
	assert.Equal(t, "A quiet mechanical keyboard.", got.Description)
	assert.Equal(t, "￥12,800", got.Price)
	assert.Equal(t, srv.URL+"/dp/B0DP6MYX5Y?psc=1", got.URL)
	assert.Equal(t, "session-id=abc", cookie)
	assert.Zero(t, b.ActivePages())
}

func TestBrowser_Integration_Render(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var cookie string
	srv := productServer(t, &cookie)
	b := newBrowser(t)

	res, err := b.Render(ctx, &engine.FetchRequest{URL: srv.URL + "/dp/B0DP6MYX5Y", Cookie: "ubid=9"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, srv.URL+"/dp/B0DP6MYX5Y", res.FinalURL)
	assert.Contains(t, res.HTML, "landingImage")
	assert.Equal(t, "ubid=9", cookie)
}
