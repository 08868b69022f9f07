// Package judge provides the LLM judge used by evaluation: an
// OpenAI-compatible chat completions client plus a helper for digging
// JSON out of model replies.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const _defaultTimeout = 60 * time.Second

// DefaultBaseURL is the OpenAI API root used when no endpoint is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultModel is the judge model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// ErrUnreachable indicates the judge endpoint could not be reached
// (connection refused or timeout).
var ErrUnreachable = errors.New("judge endpoint unreachable")

// Client calls an OpenAI-compatible chat completions API. Zero value is
// not valid; use NewClient.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient builds a judge client. baseURL is the API root (e.g.
// https://api.openai.com/v1); empty selects DefaultBaseURL. Empty model
// selects DefaultModel. If httpClient is nil, a default client with a
// 60s timeout is used.
func NewClient(baseURL, apiKey, model string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: _defaultTimeout}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if model == "" {
		model = DefaultModel
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, model: model, httpClient: httpClient}
}

// Model returns the configured judge model name.
func (c *Client) Model() string { return c.model }

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete POSTs the messages to /chat/completions and returns the first
// choice's content. Temperature is pinned to 0 so repeated judgments of
// the same attempts stay comparable.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	payload := completionRequest{Model: c.model, Messages: messages}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("judge request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("judge completion: %w", errors.Join(ErrUnreachable, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("judge completion: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("judge completion: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var decoded completionResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("judge completion: parse response: %w", err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", fmt.Errorf("judge completion: API error: %s", decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("judge completion: no choices in response")
	}
	return decoded.Choices[0].Message.Content, nil
}
