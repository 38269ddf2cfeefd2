package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/linkcard/models"
)

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "want TextContent, got %T", res.Content[0])
	return tc.Text
}

func newTestClient(t *testing.T, h http.HandlerFunc) *apiClient {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &apiClient{baseURL: srv.URL, apiKey: "k", http: srv.Client()}
}

func TestHandleLinkCard(t *testing.T) {
	t.Parallel()

	var got models.LinkCardRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/link-card", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(models.LinkCardResponse{
			Success: true,
			Metadata: &models.ProductMetadata{
				Title: "Keyboard",
				URL:   "https://www.amazon.co.jp/dp/B0DP6MYX5Y?tag=t-22",
				Price: "￥3,980",
			},
			HTML: `<div class="amazon-link-card"></div>`,
		})
	})

	res, err := handleLinkCard(client)(context.Background(), callTool("amazon_link_card", map[string]any{
		"url": "https://amzn.to/3abcDEF",
		"tag": "t-22",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "Title: Keyboard")
	assert.Contains(t, text, "Price: ￥3,980")
	assert.Contains(t, text, `<div class="amazon-link-card"></div>`)
	assert.Equal(t, "https://amzn.to/3abcDEF", got.URL)
	assert.Equal(t, "t-22", got.Tag)
}

func TestHandleLinkCard_APIError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(models.LinkCardResponse{
			Error: &models.ErrorDetail{Code: models.ErrCodeCredentialRequired, Message: "blocked"},
		})
	})

	res, err := handleLinkCard(client)(context.Background(), callTool("amazon_link_card", map[string]any{
		"url": "https://www.amazon.co.jp/dp/B0DP6MYX5Y",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "[CREDENTIAL_REQUIRED] blocked", resultText(t, res))
}

func TestHandleLinkCard_MissingURL(t *testing.T) {
	t.Parallel()

	res, err := handleLinkCard(&apiClient{})(context.Background(), callTool("amazon_link_card", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleMetadata(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/fetch-metadata", r.URL.Path)
			_, _ = w.Write([]byte(`{"title":"Keyboard","image":"i","description":"d","url":"u"}`))
		})

		res, err := handleMetadata(client)(context.Background(), callTool("amazon_product_metadata", map[string]any{"url": "u"}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Contains(t, resultText(t, res), `"title": "Keyboard"`)
	})

	t.Run("flat error body", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"COOKIE_REQUIRED","message":"blocked"}`))
		})

		res, err := handleMetadata(client)(context.Background(), callTool("amazon_product_metadata", map[string]any{"url": "u"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "COOKIE_REQUIRED: blocked", resultText(t, res))
	})
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	s := newServer(&apiClient{})
	assert.NotNil(t, s.GetTool("amazon_link_card"))
	assert.NotNil(t, s.GetTool("amazon_product_metadata"))
}
