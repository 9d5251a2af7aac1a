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
	"strconv"
	"strings"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openAIClient struct {
	apiKey string
	model  string
	url    string
}

func newOpenAIFromEnv() (Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultOpenAIModel
	}
	url := os.Getenv("OPENAI_CHAT_URL")
	if url == "" {
		url = "https://api.openai.com/v1/chat/completions"
	}
	return &openAIClient{apiKey: apiKey, model: model, url: url}, nil
}

func (c *openAIClient) Name() string { return "openai" }

func (c *openAIClient) ClassifySentiment(ctx context.Context, texts []string) ([]float64, error) {
	scores := make([]float64, 0, len(texts))
	for _, text := range texts {
		prompt := "Rate the market sentiment of the following news text. " +
			"Reply with a single number between -1 (very negative) and 1 (very positive), nothing else.\n\n" + text
		reply, err := c.complete(ctx, prompt)
		if err != nil {
			return nil, err
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
		if err != nil {
			return nil, fmt.Errorf("parse sentiment reply %q: %w", reply, err)
		}
		scores = append(scores, score)
	}
	return scores, nil
}

func (c *openAIClient) GenerateCommentary(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt)
}

func (c *openAIClient) complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("openai returned %s: %s", res.Status, strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
