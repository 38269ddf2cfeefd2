package engine

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	tls "github.com/refraction-networking/utls"
)

// Default request headers. Amazon serves the full desktop product page to
// this combination.
const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml"
	DefaultAcceptLanguage = "ja,en-US;q=0.9,en;q=0.8"
)

const (
	maxRedirects = 10
	maxBody      = 10 << 20
)

// HTTPEngine fetches pages with a single GET over net/http.
type HTTPEngine struct {
	client *http.Client
}

// HTTPOption configures an HTTPEngine.
type HTTPOption func(*httpOptions)

type httpOptions struct {
	client  *http.Client
	timeout time.Duration
	proxy   string
}

// WithClient replaces the fingerprinted client entirely. The redirect
// policy is still installed when the client has none.
func WithClient(c *http.Client) HTTPOption {
	return func(o *httpOptions) { o.client = c }
}

// WithTimeout sets the client timeout. Zero leaves the transport defaults
// in charge.
func WithTimeout(d time.Duration) HTTPOption {
	return func(o *httpOptions) { o.timeout = d }
}

// WithProxy routes requests through an http or https proxy.
func WithProxy(proxy string) HTTPOption {
	return func(o *httpOptions) { o.proxy = proxy }
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection, so the
	// server must never be offered it.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPEngine creates an HTTPEngine with a Chrome-like TLS fingerprint.
func NewHTTPEngine(opts ...HTTPOption) *HTTPEngine {
	var o httpOptions
	for _, opt := range opts {
		opt(&o)
	}

	client := o.client
	if client == nil {
		client = &http.Client{Transport: newChromeTransport(o.proxy)}
	}
	if o.timeout > 0 {
		client.Timeout = o.timeout
	}
	if client.CheckRedirect == nil {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		}
	}
	return &HTTPEngine{client: client}
}

func newChromeTransport(proxy string) *http.Transport {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return transport
}

func (e *HTTPEngine) Name() string { return "http" }

// Fetch issues one GET, following redirects. Every HTTP status is returned
// as a result; only transport failures are errors.
func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("http_engine: build request: %w", err)
	}

	httpReq.Header.Set("User-Agent", DefaultUserAgent)
	httpReq.Header.Set("Accept", DefaultAccept)
	httpReq.Header.Set("Accept-Language", DefaultAcceptLanguage)
	if req.Cookie != "" {
		httpReq.Header.Set("Cookie", req.Cookie)
	}

	// Apply custom headers (override defaults if provided).
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http_engine: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("http_engine: read body: %w", err)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &FetchResult{
		HTML:       string(body),
		StatusCode: resp.StatusCode,
		FinalURL:   finalURL,
		EngineName: e.Name(),
	}, nil
}
