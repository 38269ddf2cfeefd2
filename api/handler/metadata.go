package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/linkcard/models"
	"github.com/use-agent/linkcard/urlnorm"
)

// FetchMetadata returns a handler for POST /api/fetch-metadata.
//
// Error bodies are flat {"error", "message"} objects:
//
//	400  {"error": "URL is required"}
//	503  {"error": "COOKIE_REQUIRED", "message": ...}
//	xxx  {"error": "Failed to fetch Amazon page"}   upstream status
//	422  {"error": "PARSE_FAILED", "message": <missing field code>}
//	500  {"error": "Internal server error"}
func FetchMetadata(src MetadataFetcher, defaultMode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FetchMetadataRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, models.FetchErrorResponse{
				Error:   models.ErrCodeInvalidInput,
				Message: err.Error(),
			})
			return
		}
		if req.URL == "" {
			c.JSON(http.StatusBadRequest, models.FetchErrorResponse{Error: "URL is required"})
			return
		}
		req.Defaults(defaultMode)

		if v := urlnorm.Validate(req.URL); !v.Valid {
			c.JSON(http.StatusBadRequest, models.FetchErrorResponse{
				Error:   models.ErrCodeInvalidURL,
				Message: v.Reason,
			})
			return
		}

		meta, err := src.FetchAndExtract(c.Request.Context(), req.FetchMode, req.URL, req.Cookie)
		if err != nil {
			respondFetchError(c, err)
			return
		}

		c.JSON(http.StatusOK, meta)
	}
}

func respondFetchError(c *gin.Context, err error) {
	lcErr := asLinkCardError(err)
	status := mapErrorToStatus(lcErr)

	var body models.FetchErrorResponse
	switch lcErr.Code {
	case models.ErrCodeCredentialRequired:
		body = models.FetchErrorResponse{Error: models.WireCodeCookieRequired, Message: cookieRequiredMessage}
	case models.ErrCodeFetchFailed:
		body = models.FetchErrorResponse{Error: "Failed to fetch Amazon page"}
	case models.ErrCodeParseFailed:
		body = models.FetchErrorResponse{Error: models.ErrCodeParseFailed, Message: lcErr.FieldCode()}
	case models.ErrCodeInvalidInput:
		body = models.FetchErrorResponse{Error: models.ErrCodeInvalidInput, Message: lcErr.Message}
	default:
		slog.Error("metadata fetch error", "error", err)
		body = models.FetchErrorResponse{Error: "Internal server error"}
	}
	c.JSON(status, body)
}

// Preflight answers CORS preflight requests with an empty body. The CORS
// headers themselves come from middleware.CORS.
func Preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
