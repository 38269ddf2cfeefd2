package models

// Fetch modes accepted by the API.
const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// FetchMetadataRequest is the payload for POST /api/fetch-metadata.
type FetchMetadataRequest struct {
	// URL is the product page (or shortened link) to read. Required.
	URL string `json:"url"`

	// Cookie is an optional session cookie string forwarded verbatim to
	// Amazon. Supplying one is how a caller recovers from COOKIE_REQUIRED.
	Cookie string `json:"cookie,omitempty"`

	// FetchMode selects the engine: "http" (default) or "browser".
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=http browser"`
}

// Defaults applies default values to unset fields.
func (r *FetchMetadataRequest) Defaults(defaultMode string) {
	if r.FetchMode == "" {
		r.FetchMode = defaultMode
	}
	if r.FetchMode == "" {
		r.FetchMode = FetchModeHTTP
	}
}

// LinkCardRequest is the payload for POST /api/link-card.
type LinkCardRequest struct {
	FetchMetadataRequest

	// Tag is the affiliate tag. When empty the server default applies;
	// "-" disables the rewrite.
	Tag string `json:"tag,omitempty"`
}
