// Package llm adapts text-generation providers to a single prompt-in, text-out call.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"credit-advisor/config"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// APIError carries the HTTP details a provider returned with a failure.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
	Header     http.Header
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %v", e.Provider, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// New builds the generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.Errorf("missing api key for provider %s", cfg.Provider)
	}
	switch cfg.Provider {
	case "gemini":
		return NewGeminiGenerator(ctx, cfg, logger)
	case "openai":
		return NewOpenAIGenerator(cfg, logger), nil
	}
	return nil, errors.Errorf("unknown provider %q", cfg.Provider)
}
