package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/use-agent/linkcard/models"
)

// MetadataFetcher fetches and extracts one product page using the engine
// registered for mode.
type MetadataFetcher interface {
	FetchAndExtract(ctx context.Context, mode, rawURL, cookie string) (models.ProductMetadata, error)
}

// cookieRequiredMessage is shown to users when Amazon blocks the request.
const cookieRequiredMessage = "Amazonにブロックされました。Cookie設定が必要です。"

// asLinkCardError returns err as a *models.LinkCardError, classifying
// anything else as UNKNOWN.
func asLinkCardError(err error) *models.LinkCardError {
	var lcErr *models.LinkCardError
	if errors.As(err, &lcErr) {
		return lcErr
	}
	return models.NewLinkCardError(models.ErrCodeUnknown, err.Error(), err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.LinkCardError) int {
	switch e.Code {
	case models.ErrCodeInvalidURL, models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeCredentialRequired:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeFetchFailed:
		if e.Status != 0 {
			return e.Status // upstream status
		}
		return http.StatusBadGateway // 502
	case models.ErrCodeParseFailed:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
