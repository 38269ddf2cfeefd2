package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidURL          = "INVALID_URL"
	ErrCodeTitleNotFound       = "TITLE_NOT_FOUND"
	ErrCodeImageNotFound       = "IMAGE_NOT_FOUND"
	ErrCodeDescriptionNotFound = "DESCRIPTION_NOT_FOUND"
	ErrCodeCredentialRequired  = "CREDENTIAL_REQUIRED"
	ErrCodeFetchFailed         = "FETCH_FAILED"
	ErrCodeParseFailed         = "PARSE_FAILED"
	ErrCodeUnknown             = "UNKNOWN"

	// API-layer codes that never leave the core.
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// WireCodeCookieRequired is the name the HTTP endpoint uses for
// ErrCodeCredentialRequired. Existing clients match on it.
const WireCodeCookieRequired = "COOKIE_REQUIRED"

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LinkCardError is the internal error type carrying a classification code.
// It implements the error interface and supports error wrapping via Unwrap.
type LinkCardError struct {
	Code    string
	Message string

	// Status is the upstream HTTP status for ErrCodeFetchFailed.
	Status int

	Err error // wrapped original error
}

func (e *LinkCardError) Error() string {
	msg := e.Code
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LinkCardError) Unwrap() error {
	return e.Err
}

// NewLinkCardError creates a new LinkCardError.
func NewLinkCardError(code, message string, err error) *LinkCardError {
	return &LinkCardError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *LinkCardError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: UserMessage(e.Code)}
}

// FieldCode returns the missing-field classification wrapped by a
// PARSE_FAILED error, or the error's own code for anything else.
func (e *LinkCardError) FieldCode() string {
	var inner *LinkCardError
	if e.Code == ErrCodeParseFailed && errors.As(e.Err, &inner) {
		return inner.Code
	}
	return e.Code
}

// CodeOf returns the classification of err, or ErrCodeUnknown when err
// does not carry one.
func CodeOf(err error) string {
	var lcErr *LinkCardError
	if errors.As(err, &lcErr) {
		return lcErr.Code
	}
	return ErrCodeUnknown
}

var userMessages = map[string]string{
	ErrCodeInvalidURL:          "The URL is not a valid Amazon product URL.",
	ErrCodeTitleNotFound:       "Could not find the product title on the page.",
	ErrCodeImageNotFound:       "Could not find the product image on the page.",
	ErrCodeDescriptionNotFound: "Could not find the product description on the page.",
	ErrCodeCredentialRequired:  "Amazon blocked the request. A session cookie is required.",
	ErrCodeFetchFailed:         "Failed to fetch the Amazon page.",
	ErrCodeParseFailed:         "Failed to read product metadata from the page.",
	ErrCodeUnknown:             "An unexpected error occurred.",
}

// UserMessage returns the short, user-facing message for an error code.
func UserMessage(code string) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return userMessages[ErrCodeUnknown]
}
