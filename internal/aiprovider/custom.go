package aiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// customClient targets a self-hosted inference service exposing
// POST /sentiment {"texts": [...]} -> {"scores": [...]} and
// POST /generate {"prompt": "..."} -> {"text": "..."}.
type customClient struct {
	endpoint string
	apiKey   string
}

func newCustomFromEnv() (Client, error) {
	endpoint := strings.TrimRight(os.Getenv("AI_ENDPOINT"), "/")
	if endpoint == "" {
		return nil, errors.New("AI_ENDPOINT is not set")
	}
	return &customClient{endpoint: endpoint, apiKey: os.Getenv("AI_API_KEY")}, nil
}

func (c *customClient) Name() string { return "custom" }

func (c *customClient) ClassifySentiment(ctx context.Context, texts []string) ([]float64, error) {
	raw, err := c.post(ctx, "/sentiment", map[string]any{"texts": texts})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Scores []float64 `json:"scores"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode sentiment response: %w", err)
	}
	if len(parsed.Scores) != len(texts) {
		return nil, fmt.Errorf("expected %d scores, got %d", len(texts), len(parsed.Scores))
	}
	return parsed.Scores, nil
}

func (c *customClient) GenerateCommentary(ctx context.Context, prompt string) (string, error) {
	raw, err := c.post(ctx, "/generate", map[string]any{"prompt": prompt})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if parsed.Text == "" {
		return "", errors.New("endpoint returned no text")
	}
	return parsed.Text, nil
}

func (c *customClient) post(ctx context.Context, path string, body map[string]any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned %s: %s", res.Status, strings.TrimSpace(string(data)))
	}
	return data, nil
}
