package models

// FetchErrorResponse is the error body of POST /api/fetch-metadata.
// The shape is flat ({"error": ..., "message": ...}) because browser clients
// already depend on it.
type FetchErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LinkCardResponse is the response for POST /api/link-card.
type LinkCardResponse struct {
	// Success indicates whether the card was produced.
	Success bool `json:"success"`

	// Metadata is the extracted record, with URL rewritten to the
	// affiliate form when a tag applied.
	Metadata *ProductMetadata `json:"metadata,omitempty"`

	// HTML is the rendered, self-contained card markup.
	HTML string `json:"html,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// FetchMs is the time spent fetching and extracting.
	FetchMs int64 `json:"fetch_ms"`

	// RenderMs is the time spent rendering the card.
	RenderMs int64 `json:"render_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"` // "healthy" or "degraded"
	Uptime  string `json:"uptime"`
	Browser bool   `json:"browser"`
	Version string `json:"version"`
}
