package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/linkcard/models"
)

func main() {
	apiURL := os.Getenv("LINKCARD_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Only needed when the server runs with LINKCARD_AUTH_ENABLED.
	apiKey := os.Getenv("LINKCARD_API_KEY")

	s := newServer(&apiClient{
		baseURL: apiURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 90 * time.Second},
	})

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(client *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"linkcard",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	linkCardTool := mcp.NewTool("amazon_link_card",
		mcp.WithDescription("Generate a self-contained HTML link card (image, title, description, price) for an Amazon product page. The HTML can be pasted into a blog or CMS."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Amazon product URL or amzn.to / a.co short link"),
		),
		mcp.WithString("tag",
			mcp.Description("Amazon affiliate tag to add to the card link. '-' disables the server default."),
		),
		mcp.WithString("cookie",
			mcp.Description("Amazon session cookie, needed when Amazon blocks the request"),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("Fetch engine: 'http' (default) or 'browser' (headless Chrome, if the server enables it)"),
			mcp.Enum(models.FetchModeHTTP, models.FetchModeBrowser),
		),
	)
	s.AddTool(linkCardTool, handleLinkCard(client))

	metadataTool := mcp.NewTool("amazon_product_metadata",
		mcp.WithDescription("Read the title, image, description and price of an Amazon product page as JSON."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Amazon product URL or amzn.to / a.co short link"),
		),
		mcp.WithString("cookie",
			mcp.Description("Amazon session cookie, needed when Amazon blocks the request"),
		),
	)
	s.AddTool(metadataTool, handleMetadata(client))

	return s
}

// apiClient talks to the link card HTTP API.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// post sends a JSON POST request and returns the status and response body.
func (c *apiClient) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func handleLinkCard(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := models.LinkCardRequest{
			FetchMetadataRequest: models.FetchMetadataRequest{
				URL:       url,
				Cookie:    request.GetString("cookie", ""),
				FetchMode: request.GetString("fetch_mode", ""),
			},
			Tag: request.GetString("tag", ""),
		}

		_, respBody, err := client.post(ctx, "/api/link-card", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var cardResp models.LinkCardResponse
		if err := json.Unmarshal(respBody, &cardResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !cardResp.Success {
			errMsg := "link card generation failed"
			if cardResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", cardResp.Error.Code, cardResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var result string
		if m := cardResp.Metadata; m != nil {
			result = fmt.Sprintf("Title: %s\nLink: %s\n", m.Title, m.URL)
			if m.HasPrice() {
				result += fmt.Sprintf("Price: %s\n", m.Price)
			}
			result += "\n"
		}
		result += cardResp.HTML

		return mcp.NewToolResultText(result), nil
	}
}

func handleMetadata(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		status, respBody, err := client.post(ctx, "/api/fetch-metadata", models.FetchMetadataRequest{
			URL:    url,
			Cookie: request.GetString("cookie", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if status != http.StatusOK {
			var errResp models.FetchErrorResponse
			if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Error == "" {
				return mcp.NewToolResultError(fmt.Sprintf("API returned status %d", status)), nil
			}
			msg := errResp.Error
			if errResp.Message != "" {
				msg += ": " + errResp.Message
			}
			return mcp.NewToolResultError(msg), nil
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
			pretty.Write(respBody)
		}
		return mcp.NewToolResultText(pretty.String()), nil
	}
}
