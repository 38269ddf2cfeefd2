package engine

import "context"

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier ("http" or "browser").
	Name() string

	// Fetch retrieves the page for req. It returns a result for any HTTP
	// status the server answered with; an error means no response was
	// obtained at all.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL string

	// Cookie is sent verbatim as the Cookie header when non-empty.
	Cookie string

	// Headers override the engine's default request headers.
	Headers map[string]string
}

// FetchResult is the response an engine obtained.
type FetchResult struct {
	HTML       string
	StatusCode int

	// FinalURL is the URL after all redirects were followed.
	FinalURL   string
	EngineName string
}

// OK reports whether the response status is 2xx.
func (r *FetchResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
