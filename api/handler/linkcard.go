package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/linkcard/card"
	"github.com/use-agent/linkcard/metrics"
	"github.com/use-agent/linkcard/models"
	"github.com/use-agent/linkcard/urlnorm"
)

// NoAffiliateTag in a request disables the affiliate rewrite.
const NoAffiliateTag = "-"

// LinkCard returns a handler for POST /api/link-card.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Fetch + extract metadata        (records fetch_ms)
//  3. Rewrite the record URL to the affiliate link when a tag applies.
//  4. Render the card                 (records render_ms)
func LinkCard(src MetadataFetcher, defaultMode, defaultTag string, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.LinkCardRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondCardError(c, models.NewLinkCardError(models.ErrCodeInvalidInput, err.Error(), err), totalStart, 0)
			return
		}
		if req.URL == "" {
			respondCardError(c, models.NewLinkCardError(models.ErrCodeInvalidInput, "URL is required", nil), totalStart, 0)
			return
		}
		req.Defaults(defaultMode)

		if v := urlnorm.Validate(req.URL); !v.Valid {
			respondCardError(c, models.NewLinkCardError(models.ErrCodeInvalidURL, v.Reason, nil), totalStart, 0)
			return
		}

		// ── 2. Fetch ────────────────────────────────────────────────
		fetchStart := time.Now()
		meta, err := src.FetchAndExtract(c.Request.Context(), req.FetchMode, req.URL, req.Cookie)
		fetchMs := time.Since(fetchStart).Milliseconds()
		if err != nil {
			respondCardError(c, asLinkCardError(err), totalStart, fetchMs)
			return
		}

		// ── 3. Affiliate rewrite ────────────────────────────────────
		tag := req.Tag
		if tag == "" {
			tag = defaultTag
		}
		if tag != "" && tag != NoAffiliateTag {
			meta.URL = urlnorm.ToAffiliateLink(meta.URL, tag)
		}

		// ── 4. Render ───────────────────────────────────────────────
		renderStart := time.Now()
		html := card.Render(meta)
		renderMs := time.Since(renderStart).Milliseconds()
		m.IncCards()

		c.JSON(http.StatusOK, models.LinkCardResponse{
			Success:  true,
			Metadata: &meta,
			HTML:     html,
			Timing: models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				FetchMs:  fetchMs,
				RenderMs: renderMs,
			},
		})
	}
}

// respondCardError writes a structured link card error. Input errors keep
// their own message; fetch failures get the user-facing one for their
// classification.
func respondCardError(c *gin.Context, e *models.LinkCardError, totalStart time.Time, fetchMs int64) {
	detail := &models.ErrorDetail{Code: e.Code, Message: e.Message}
	switch e.Code {
	case models.ErrCodeInvalidInput, models.ErrCodeInvalidURL:
	default:
		detail.Message = models.UserMessage(e.FieldCode())
	}

	c.JSON(mapErrorToStatus(e), models.LinkCardResponse{
		Success: false,
		Error:   detail,
		Timing: models.TimingInfo{
			TotalMs: time.Since(totalStart).Milliseconds(),
			FetchMs: fetchMs,
		},
	})
}
