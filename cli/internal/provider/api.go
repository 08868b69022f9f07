package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arittr/commitment/cli/internal/cleaner"
	"github.com/arittr/commitment/cli/internal/commitfmt"
)

const (
	defaultAPIEndpoint = "https://api.openai.com/v1"
	defaultAPIModel    = "gpt-4o-mini"
	defaultAPITimeout  = 60 * time.Second
)

// apiProvider calls an OpenAI-compatible /chat/completions endpoint and
// runs the response through the same clean/validate pipeline as the CLI
// agents.
type apiProvider struct {
	name     string
	apiKey   string
	endpoint string
	model    string
	client   *http.Client
}

func newAPIProvider(cfg Config) *apiProvider {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultAPIEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = defaultAPIModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	name := cfg.Name
	if name == "" {
		name = "api"
	}
	return &apiProvider{
		name:     name,
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *apiProvider) Name() string { return p.name }

// CheckAvailability requires only a configured key; no network call is
// made until generation.
func (p *apiProvider) CheckAvailability(ctx context.Context, dir string) error {
	if strings.TrimSpace(p.apiKey) == "" {
		return fmt.Errorf("%s: no API key configured", p.name)
	}
	return nil
}

func (p *apiProvider) Generate(ctx context.Context, prompt, dir string) (string, error) {
	content, err := p.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	msg := cleaner.Clean(content)
	if err := commitfmt.Validate(msg); err != nil {
		return "", err
	}
	return msg, nil
}

func (p *apiProvider) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.2,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: network error: %w", p.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", p.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s: API returned status %d: %s", p.name, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", p.name, err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", fmt.Errorf("%s: API error: %s", p.name, decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%s: API returned no choices", p.name)
	}
	return decoded.Choices[0].Message.Content, nil
}
