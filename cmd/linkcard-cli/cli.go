package main

import (
	"context"
	"io"

	"github.com/use-agent/linkcard/cookiestore"
	"github.com/use-agent/linkcard/extractor"
	"github.com/use-agent/linkcard/models"
)

// MetadataFetcher fetches one product page and extracts its metadata.
type MetadataFetcher interface {
	FetchAndExtractTrace(ctx context.Context, rawURL, cookie string) (models.ProductMetadata, extractor.Trace, error)
}

// CookieStore persists the session cookie between runs.
type CookieStore interface {
	Save(ctx context.Context, value string, expiryDays int) error
	Load(ctx context.Context) (string, bool, error)
	Entry(ctx context.Context) (cookiestore.Entry, bool, error)
	Delete(ctx context.Context) error
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Fetcher MetadataFetcher
	Cookies CookieStore

	// AffiliateTag is applied to card links when a command sets none.
	AffiliateTag string

	// CookieExpiryDays is the lifetime of a saved cookie.
	CookieExpiryDays int
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log fetch details to stderr"`

	Card     CardCmd     `cmd:"" help:"Fetch a product page and print its link card HTML"`
	Extract  ExtractCmd  `cmd:"" help:"Print the metadata extracted from a product page"`
	Validate ValidateCmd `cmd:"" help:"Check whether a URL is an Amazon product URL"`
	Cookie   CookieCmd   `cmd:"" help:"Manage the saved Amazon session cookie"`
}

// CardCmd is the "card" subcommand.
type CardCmd struct {
	URL      string `arg:"" help:"Amazon product URL or short link"`
	Tag      string `help:"Affiliate tag (default from LINKCARD_AFFILIATE_TAG, '-' disables)"`
	Cookie   string `help:"Session cookie for this request only"`
	NoCookie bool   `help:"Do not send the saved cookie"`
	JSON     bool   `help:"Print metadata and card as JSON"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URL      string `arg:"" help:"Amazon product URL (the page URL when --file is used)"`
	File     string `type:"existingfile" help:"Read a saved HTML page instead of fetching"`
	Strategy string `default:"html" enum:"html,dom" help:"Rule table used with --file (html, dom)"`
	Trace    bool   `help:"Print which fallback tier produced each field"`
	Cookie   string `help:"Session cookie for this request only"`
	NoCookie bool   `help:"Do not send the saved cookie"`
}

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	URL string `arg:"" help:"URL to check"`
}

// CookieCmd groups the cookie subcommands.
type CookieCmd struct {
	Set    CookieSetCmd    `cmd:"" help:"Save a session cookie"`
	Show   CookieShowCmd   `cmd:"" help:"Show the saved session cookie"`
	Delete CookieDeleteCmd `cmd:"" help:"Delete the saved session cookie"`
}

// CookieSetCmd is the "cookie set" subcommand.
type CookieSetCmd struct {
	Value string `arg:"" help:"Cookie header value copied from a logged-in browser"`
	Days  int    `help:"Days until the cookie expires (default from LINKCARD_COOKIE_EXPIRY_DAYS)"`
}

// CookieShowCmd is the "cookie show" subcommand.
type CookieShowCmd struct {
	Reveal bool `help:"Print the full value"`
}

// CookieDeleteCmd is the "cookie delete" subcommand.
type CookieDeleteCmd struct{}

// resolveCookie picks the cookie for a request: the flag value, nothing
// with --no-cookie, otherwise the saved one.
func resolveCookie(deps *Dependencies, flag string, none bool) (string, error) {
	switch {
	case none:
		return "", nil
	case flag != "":
		return flag, nil
	case deps.Cookies == nil:
		return "", nil
	}
	v, _, err := deps.Cookies.Load(deps.Ctx)
	return v, err
}
