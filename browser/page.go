package browser

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/linkcard/engine"
	"github.com/use-agent/linkcard/extractor"
	"github.com/use-agent/linkcard/models"
	"github.com/ysmood/gson"
)

const (
	jsAttr = `(sel, name) => {
		try {
			const el = document.querySelector(sel);
			return el ? (el.getAttribute(name) || '') : '';
		} catch (e) { return ''; }
	}`
	jsText = `(sel) => {
		try {
			const el = document.querySelector(sel);
			return el ? (el.textContent || '') : '';
		} catch (e) { return ''; }
	}`
	jsStatus = `() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`
)

// Page is a loaded product page borrowed from the pool. It answers selector
// queries against the live document and must be closed after use.
type Page struct {
	page    *rod.Page
	cleanup func()
}

var _ extractor.Querier = (*Page)(nil)

// Open loads rawURL in a pooled tab and returns once the window load event
// has fired. cookie, when non-empty, is sent as the Cookie header on every
// request the page makes.
//
// Lifecycle:
//
//  1. Acquire page      – borrow a tab from the pool (or create one)
//  2. Stealth injection – mask navigator.webdriver etc. (before navigation!)
//  3. Headers           – Accept-Language and the session cookie
//  4. Hijack mount      – block images/CSS/fonts/media and ad hosts
//  5. Navigate + load   – bounded by ctx and the navigation timeout
//
// The cleanup installed by Open undoes 2-4 and returns the tab, so a cookie
// never leaks into the next borrower's request.
func (b *Browser) Open(ctx context.Context, rawURL, cookie string) (*Page, error) {
	b.activePages.Add(1)

	page, err := b.pagePool.Get(func() (*rod.Page, error) {
		return b.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		b.activePages.Add(-1)
		return nil, models.NewLinkCardError(models.ErrCodeUnknown, "failed to acquire page from pool", err)
	}

	var undo []func()
	cleanup := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		b.pagePool.Put(page)
		b.activePages.Add(-1)
	}

	if remove, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	} else {
		undo = append(undo, func() { _ = remove() })
	}

	headers := map[string]string{"Accept-Language": engine.DefaultAcceptLanguage}
	if cookie != "" {
		headers["Cookie"] = cookie
	}
	if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}).Call(page); err != nil {
		slog.Warn("setting extra headers failed", "error", err)
	}
	undo = append(undo, func() {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: proto.NetworkHeaders{}}.Call(page)
	})

	if router := setupHijack(page, b.cfg.BlockedResourceTypes); router != nil {
		undo = append(undo, func() { _ = router.Stop() })
	}

	timeout := b.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	p := page.Context(ctx).Timeout(timeout)

	if err := p.Navigate(rawURL); err != nil {
		cleanup()
		return nil, categorizeError(err, "navigation to product page failed")
	}
	if err := p.WaitLoad(); err != nil {
		cleanup()
		return nil, categorizeError(err, "product page did not finish loading")
	}

	return &Page{page: p, cleanup: cleanup}, nil
}

// Attr implements extractor.Querier.
func (p *Page) Attr(selector, name string) string {
	return evalStringOrEmpty(p.page, jsAttr, selector, name)
}

// Text implements extractor.Querier. It reads textContent, which includes
// text hidden by CSS.
func (p *Page) Text(selector string) string {
	return evalStringOrEmpty(p.page, jsText, selector)
}

// URL is the document location after redirects.
func (p *Page) URL() string {
	return evalStringOrEmpty(p.page, `() => window.location.href`)
}

// StatusCode is the HTTP status of the main document, or 0 when the browser
// does not expose it.
func (p *Page) StatusCode() int {
	res, err := p.page.Eval(jsStatus)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// HTML returns the serialized live document.
func (p *Page) HTML() (string, error) {
	return p.page.HTML()
}

// Close returns the tab to the pool.
func (p *Page) Close() {
	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
}

// ExtractLive loads rawURL and runs the DOM strategy against the live
// document. The record URL is the page location after redirects.
func (b *Browser) ExtractLive(ctx context.Context, rawURL, cookie string) (models.ProductMetadata, error) {
	page, err := b.Open(ctx, rawURL, cookie)
	if err != nil {
		return models.ProductMetadata{}, err
	}
	defer page.Close()

	pageURL := page.URL()
	if pageURL == "" {
		pageURL = rawURL
	}
	return extractor.Extract(extractor.NewDOM(page), extractor.DOMStrategy, pageURL)
}

// Render loads the page and returns the serialized document. Its signature
// matches engine.RodFetchFunc.
func (b *Browser) Render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	page, err := b.Open(ctx, req.URL, req.Cookie)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	html, err := page.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to read page HTML")
	}

	finalURL := page.URL()
	if finalURL == "" {
		finalURL = req.URL
	}

	status := page.StatusCode()
	if status == 0 {
		// The document loaded, so treat an unknown status as success.
		status = 200
	}

	return &engine.FetchResult{
		HTML:       html,
		StatusCode: status,
		FinalURL:   finalURL,
	}, nil
}

// evalStringOrEmpty evaluates a JS function and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string, args ...interface{}) string {
	res, err := page.Eval(js, args...)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

func categorizeError(err error, msg string) *models.LinkCardError {
	if errors.Is(err, context.Canceled) {
		msg = "request canceled"
	}
	return models.NewLinkCardError(models.ErrCodeUnknown, msg, err)
}
