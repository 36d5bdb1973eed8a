// Package websearch calls an LLM responses API with the web-search tool
// enabled and returns the free-text answer. The GEO channel mines listing
// URLs out of that text.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/yuwenq/etsylens/internal/config"
	"github.com/yuwenq/etsylens/internal/httpx"
)

// Client is the responses-API client.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	hc       *http.Client
	logger   *slog.Logger
}

// New creates a web-search client from configuration.
func New(cfg config.SearchConfig, logger *slog.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		hc:       httpx.NewClient(cfg.Timeout),
		logger:   logger.With("component", "websearch_client"),
	}
}

type responsesRequest struct {
	Model string `json:"model"`
	Tools []any  `json:"tools"`
	Input string `json:"input"`
}

// responsesBody models the subset of the responses API we consume: message
// items whose content carries output_text blocks.
type responsesBody struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SearchText runs a web search for the prompt and returns the concatenated
// text output.
func (c *Client) SearchText(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(responsesRequest{
		Model: c.model,
		Tools: []any{map[string]string{"type": "web_search_preview"}},
		Input: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/responses", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("web search returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var parsed responsesBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode web search response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("web search error: %s", parsed.Error.Message)
	}

	var text bytes.Buffer
	for _, item := range parsed.Output {
		if item.Type != "message" {
			continue
		}
		for _, block := range item.Content {
			if block.Type == "output_text" {
				text.WriteString(block.Text)
			}
		}
	}

	c.logger.Debug("web search complete", "model", c.model, "chars", text.Len())
	return text.String(), nil
}
