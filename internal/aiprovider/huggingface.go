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

const (
	defaultHFClassifier = "voidful/albert_chinese_small_sentiment"
	defaultHFGenerator  = "uer/gpt2-chinese-cluecorpussmall"
	hfInferenceBase     = "https://api-inference.huggingface.co/models/"
)

type huggingFaceClient struct {
	token      string
	classifier string
	generator  string
}

func newHuggingFaceFromEnv() (Client, error) {
	classifier := os.Getenv("HF_MODEL")
	if classifier == "" {
		classifier = defaultHFClassifier
	}
	generator := os.Getenv("HF_GENERATION_MODEL")
	if generator == "" {
		generator = defaultHFGenerator
	}
	// Public models work without a token, just with tighter rate limits.
	return &huggingFaceClient{
		token:      os.Getenv("HF_TOKEN"),
		classifier: classifier,
		generator:  generator,
	}, nil
}

func (c *huggingFaceClient) Name() string { return "huggingface" }

func (c *huggingFaceClient) ClassifySentiment(ctx context.Context, texts []string) ([]float64, error) {
	scores := make([]float64, 0, len(texts))
	for _, text := range texts {
		raw, err := c.post(ctx, c.classifier, map[string]any{"inputs": text})
		if err != nil {
			return nil, err
		}

		var parsed [][]struct {
			Label string  `json:"label"`
			Score float64 `json:"score"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("decode classifier response: %w", err)
		}
		if len(parsed) == 0 || len(parsed[0]) == 0 {
			return nil, errors.New("classifier returned no labels")
		}

		best := parsed[0][0]
		for _, candidate := range parsed[0][1:] {
			if candidate.Score > best.Score {
				best = candidate
			}
		}
		scores = append(scores, signedScore(best.Label, best.Score))
	}
	return scores, nil
}

func (c *huggingFaceClient) GenerateCommentary(ctx context.Context, prompt string) (string, error) {
	raw, err := c.post(ctx, c.generator, map[string]any{
		"inputs":     prompt,
		"parameters": map[string]any{"max_new_tokens": 120},
	})
	if err != nil {
		return "", err
	}

	var parsed []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode generator response: %w", err)
	}
	if len(parsed) == 0 || parsed[0].GeneratedText == "" {
		return "", errors.New("generator returned no text")
	}
	// The raw prompt is echoed back at the front of the completion.
	return strings.TrimSpace(strings.TrimPrefix(parsed[0].GeneratedText, prompt)), nil
}

func (c *huggingFaceClient) post(ctx context.Context, model string, body map[string]any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hfInferenceBase+model, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call huggingface: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read huggingface response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huggingface returned %s: %s", res.Status, strings.TrimSpace(string(data)))
	}
	return data, nil
}

func signedScore(label string, score float64) float64 {
	switch strings.ToLower(label) {
	case "positive", "pos", "label_1":
		return score
	case "negative", "neg", "label_0":
		return -score
	default:
		return 0
	}
}
