package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"credit-advisor/domain"
	"credit-advisor/llm"
	"credit-advisor/metrics"
	"credit-advisor/repository"
)

// RecommendationService produces advice text for a label and profile,
// memoizing successful generations by cache key.
type RecommendationService struct {
	cache     repository.CacheRepository
	generator llm.Generator
	group     singleflight.Group
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewRecommendationService(
	cache repository.CacheRepository,
	generator llm.Generator,
	logger *zap.Logger,
	m *metrics.Metrics,
) *RecommendationService {
	return &RecommendationService{
		cache:     cache,
		generator: generator,
		logger:    logger.Named("recommendation"),
		metrics:   m,
	}
}

// Recommend returns the cached text for the request or generates, stores and
// returns new text. Failed generations are never cached.
func (s *RecommendationService) Recommend(
	ctx context.Context,
	req domain.RecommendationRequest,
) (domain.RecommendationResult, error) {
	if req.PredictedClass == "" {
		return domain.RecommendationResult{}, fmt.Errorf("%w: %s is required",
			domain.ErrInvalidRequest, domain.PredictedClassField)
	}
	if err := validateProfile(req.Profile); err != nil {
		return domain.RecommendationResult{}, err
	}

	key, err := CacheKey(req.PredictedClass, req.Profile)
	if err != nil {
		return domain.RecommendationResult{}, err
	}

	if text, ok := s.lookup(ctx, key); ok {
		s.logger.Debug("returning cached recommendation", zap.String("predicted_class", string(req.PredictedClass)))
		return newResult(text, true), nil
	}

	// The shared call outlives any single caller; each caller stops waiting on
	// its own context.
	ch := s.group.DoChan(key, func() (any, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), GenerationTimeout)
		defer cancel()
		return s.generate(genCtx, key, req)
	})

	select {
	case <-ctx.Done():
		s.logger.Debug("caller left before generation finished", zap.Error(ctx.Err()))
		return domain.RecommendationResult{}, &domain.RecommendationError{Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return domain.RecommendationResult{}, res.Err
		}
		if res.Shared {
			s.logger.Debug("shared in-flight generation", zap.String("predicted_class", string(req.PredictedClass)))
		}
		g := res.Val.(generation)
		return newResult(g.text, g.cached), nil
	}
}

type generation struct {
	text   string
	cached bool
}

func (s *RecommendationService) generate(ctx context.Context, key string, req domain.RecommendationRequest) (generation, error) {
	// a concurrent caller or another instance may have stored it meanwhile
	if text, ok := s.peek(ctx, key); ok {
		return generation{text: text, cached: true}, nil
	}

	prompt := BuildPrompt(req.PredictedClass, req.Profile)

	start := time.Now()
	text, err := s.generator.Generate(ctx, prompt)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = llm.ErrEmptyResponse
		}
	}
	s.metrics.RecordGeneration(err, time.Since(start))

	if err != nil {
		return generation{}, s.failure(err)
	}

	stored, cacheErr := s.cache.Add(ctx, key, text)
	if cacheErr != nil {
		s.logger.Warn("failed to store recommendation", zap.Error(cacheErr))
	} else if !stored {
		s.logger.Debug("recommendation already cached, keeping first entry")
	}

	return generation{text: text}, nil
}

func (s *RecommendationService) failure(err error) error {
	recErr := &domain.RecommendationError{Err: err}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		recErr.StatusCode = apiErr.StatusCode
		recErr.Body = apiErr.Body
		s.logger.Error("generation API returned an error",
			zap.String("provider", apiErr.Provider),
			zap.Int("status", apiErr.StatusCode),
			zap.Any("headers", apiErr.Header),
			zap.String("body", apiErr.Body),
			zap.Error(err),
		)
		return recErr
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("generation aborted", zap.Error(err))
	} else {
		s.logger.Error("generation failed", zap.Error(err))
	}
	return recErr
}

func (s *RecommendationService) lookup(ctx context.Context, key string) (string, bool) {
	text, ok := s.peek(ctx, key)
	s.metrics.RecordCacheLookup(ok)
	return text, ok
}

// peek reads the cache, treating errors as a miss.
func (s *RecommendationService) peek(ctx context.Context, key string) (string, bool) {
	text, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache lookup failed", zap.Error(err))
		return "", false
	}
	return text, ok
}

func newResult(text string, cached bool) domain.RecommendationResult {
	return domain.RecommendationResult{
		Recommendations: text,
		Blocks:          ParseBlocks(text),
		Cached:          cached,
	}
}
