package llm

import (
	"context"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"credit-advisor/config"
)

// contentModel is the part of *genai.GenerativeModel the generator uses.
type contentModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator calls Google's Gemini API.
type GeminiGenerator struct {
	client    *genai.Client
	model     contentModel
	modelName string
	logger    *zap.Logger
}

// NewGeminiGenerator creates a client for cfg.Model. Close releases it.
func NewGeminiGenerator(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*GeminiGenerator, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gemini client")
	}

	model := client.GenerativeModel(cfg.Model)
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens)) // #nosec G115
	}

	return &GeminiGenerator{
		client:    client,
		model:     model,
		modelName: cfg.Model,
		logger:    logger.Named("gemini"),
	}, nil
}

// Generate sends prompt as a single user turn and returns the candidate text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	g.logger.Debug("generate content",
		zap.String("model", g.modelName),
		zap.Int("prompt_bytes", len(prompt)),
		zap.Duration("latency", time.Since(start)),
		zap.Bool("failed", err != nil),
	)
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return "", &APIError{
				Provider:   "gemini",
				StatusCode: gerr.Code,
				Body:       gerr.Body,
				Header:     gerr.Header,
				Err:        err,
			}
		}
		return "", errors.Wrapf(err, "gemini %s generate content", g.modelName)
	}

	text := candidateText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Close releases the underlying client.
func (g *GeminiGenerator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// candidateText concatenates the text parts of the first candidate with content.
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		return sb.String()
	}
	return ""
}
