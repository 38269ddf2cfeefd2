package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/linkcard/api/handler"
	"github.com/use-agent/linkcard/models"
)

const productURL = "https://www.amazon.co.jp/dp/B0DP6MYX5Y"

var product = models.ProductMetadata{
	Title:       "Quiet Keyboard K1",
	Image:       "https://m.media-amazon.com/images/I/k1.jpg",
	Description: "A quiet mechanical keyboard.",
	Price:       "￥12,800",
	URL:         productURL,
}

type fakeFetcher struct {
	meta models.ProductMetadata
	err  error

	calls                      int
	gotMode, gotURL, gotCookie string
}

func (f *fakeFetcher) FetchAndExtract(_ context.Context, mode, rawURL, cookie string) (models.ProductMetadata, error) {
	f.calls++
	f.gotMode, f.gotURL, f.gotCookie = mode, rawURL, cookie
	return f.meta, f.err
}

func (f *fakeFetcher) Available(mode string) bool {
	return mode == models.FetchModeHTTP
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(h gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/", h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestFetchMetadata_Success(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{meta: product}
	w := serve(handler.FetchMetadata(f, models.FetchModeHTTP),
		`{"url":"`+productURL+`","cookie":"session-id=1"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, product, decode[models.ProductMetadata](t, w))
	assert.Equal(t, models.FetchModeHTTP, f.gotMode)
	assert.Equal(t, productURL, f.gotURL)
	assert.Equal(t, "session-id=1", f.gotCookie)
}

func TestFetchMetadata_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		want       models.FetchErrorResponse
	}{
		{
			name:       "missing url",
			body:       `{"cookie":"x"}`,
			wantStatus: http.StatusBadRequest,
			want:       models.FetchErrorResponse{Error: "URL is required"},
		},
		{
			name:       "empty body",
			body:       ``,
			wantStatus: http.StatusBadRequest,
			want:       models.FetchErrorResponse{Error: "URL is required"},
		},
		{
			name:       "not amazon",
			body:       `{"url":"https://example.com/dp/B0DP6MYX5Y"}`,
			wantStatus: http.StatusBadRequest,
			want:       models.FetchErrorResponse{Error: models.ErrCodeInvalidURL, Message: "not this provider's domain"},
		},
		{
			name:       "bot block",
			body:       `{"url":"` + productURL + `"}`,
			err:        &models.LinkCardError{Code: models.ErrCodeCredentialRequired, Status: 503},
			wantStatus: http.StatusServiceUnavailable,
			want: models.FetchErrorResponse{
				Error:   "COOKIE_REQUIRED",
				Message: "Amazonにブロックされました。Cookie設定が必要です。",
			},
		},
		{
			name:       "upstream failure keeps status",
			body:       `{"url":"` + productURL + `"}`,
			err:        &models.LinkCardError{Code: models.ErrCodeFetchFailed, Status: http.StatusNotFound},
			wantStatus: http.StatusNotFound,
			want:       models.FetchErrorResponse{Error: "Failed to fetch Amazon page"},
		},
		{
			name: "missing field",
			body: `{"url":"` + productURL + `"}`,
			err: models.NewLinkCardError(models.ErrCodeParseFailed, "missing required field",
				models.NewLinkCardError(models.ErrCodeImageNotFound, "", nil)),
			wantStatus: http.StatusUnprocessableEntity,
			want:       models.FetchErrorResponse{Error: "PARSE_FAILED", Message: "IMAGE_NOT_FOUND"},
		},
		{
			name:       "transport failure",
			body:       `{"url":"` + productURL + `"}`,
			err:        models.NewLinkCardError(models.ErrCodeUnknown, "request failed", errors.New("dial tcp")),
			wantStatus: http.StatusInternalServerError,
			want:       models.FetchErrorResponse{Error: "Internal server error"},
		},
		{
			name:       "unclassified error",
			body:       `{"url":"` + productURL + `"}`,
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			want:       models.FetchErrorResponse{Error: "Internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := serve(handler.FetchMetadata(&fakeFetcher{err: tt.err}, models.FetchModeHTTP), tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.want, decode[models.FetchErrorResponse](t, w))
		})
	}
}

func TestFetchMetadata_InvalidBody(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	w := serve(handler.FetchMetadata(f, models.FetchModeHTTP), `{"url":"`+productURL+`","fetch_mode":"carrier-pigeon"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.ErrCodeInvalidInput, decode[models.FetchErrorResponse](t, w).Error)
	assert.Zero(t, f.calls)
}

func TestLinkCard_Success(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{meta: product}
	w := serve(handler.LinkCard(f, models.FetchModeHTTP, "default-22", nil), `{"url":"`+productURL+`"}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.LinkCardResponse](t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, productURL+"?tag=default-22", resp.Metadata.URL)
	assert.Contains(t, resp.HTML, `href="`+productURL+`?tag=default-22"`)
	assert.Contains(t, resp.HTML, "￥12,800")
	assert.Nil(t, resp.Error)
}

func TestLinkCard_Tag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		reqTag     string
		defaultTag string
		wantURL    string
	}{
		{"request tag wins", "mine-22", "default-22", productURL + "?tag=mine-22"},
		{"dash disables rewrite", "-", "default-22", productURL},
		{"no tag anywhere", "", "", productURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := &fakeFetcher{meta: product}
			w := serve(handler.LinkCard(f, models.FetchModeHTTP, tt.defaultTag, nil),
				`{"url":"`+productURL+`","tag":"`+tt.reqTag+`"}`)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantURL, decode[models.LinkCardResponse](t, w).Metadata.URL)
		})
	}
}

func TestLinkCard_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"missing url", `{}`, nil, http.StatusBadRequest, models.ErrCodeInvalidInput, "URL is required"},
		{"not a product page", `{"url":"https://www.amazon.co.jp/"}`, nil, http.StatusBadRequest, models.ErrCodeInvalidURL, "not a product page"},
		{
			"bot block", `{"url":"` + productURL + `"}`,
			&models.LinkCardError{Code: models.ErrCodeCredentialRequired, Status: 503},
			http.StatusServiceUnavailable, models.ErrCodeCredentialRequired,
			models.UserMessage(models.ErrCodeCredentialRequired),
		},
		{
			"missing title", `{"url":"` + productURL + `"}`,
			models.NewLinkCardError(models.ErrCodeParseFailed, "", models.NewLinkCardError(models.ErrCodeTitleNotFound, "", nil)),
			http.StatusUnprocessableEntity, models.ErrCodeParseFailed,
			models.UserMessage(models.ErrCodeTitleNotFound),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := serve(handler.LinkCard(&fakeFetcher{err: tt.err}, models.FetchModeHTTP, "", nil), tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := decode[models.LinkCardResponse](t, w)
			assert.False(t, resp.Success)
			assert.Empty(t, resp.HTML)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.GET("/health", handler.Health(&fakeFetcher{}, models.FetchModeHTTP, time.Now().Add(-time.Minute)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.False(t, resp.Browser)
	assert.Equal(t, handler.Version, resp.Version)
	assert.Equal(t, "1m0s", resp.Uptime)
}

func TestHealth_DegradedWithoutDefaultEngine(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.GET("/health", handler.Health(&fakeFetcher{}, models.FetchModeBrowser, time.Now()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "degraded", decode[models.HealthResponse](t, w).Status)
}
