// Package aiprovider talks to external sentiment/text services. The
// provider is picked once at startup; everything downstream consumes
// the Client interface and treats provider errors as degradable.
package aiprovider

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Client is the contract every provider satisfies.
type Client interface {
	Name() string
	ClassifySentiment(ctx context.Context, texts []string) ([]float64, error)
	GenerateCommentary(ctx context.Context, prompt string) (string, error)
}

var httpClient = &http.Client{Timeout: 20 * time.Second}

type factory func() (Client, error)

var providers = map[string]factory{
	"openai":      newOpenAIFromEnv,
	"huggingface": newHuggingFaceFromEnv,
	"custom":      newCustomFromEnv,
}

// New resolves a provider by name. "auto" probes the environment in
// priority order; "none" and the empty string return no client, which
// callers treat as "use built-in fallbacks only".
func New(name string) (Client, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "auto":
		return detect(), nil
	}
	build, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown ai provider %q", name)
	}
	return build()
}

func detect() Client {
	if os.Getenv("OPENAI_API_KEY") != "" {
		if c, err := newOpenAIFromEnv(); err == nil {
			return c
		}
	}
	if os.Getenv("HF_TOKEN") != "" {
		if c, err := newHuggingFaceFromEnv(); err == nil {
			return c
		}
	}
	if os.Getenv("AI_ENDPOINT") != "" {
		if c, err := newCustomFromEnv(); err == nil {
			return c
		}
	}
	return nil
}
