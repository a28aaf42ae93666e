package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"credit-advisor/domain"
)

// Classifier maps a profile to a risk label.
type Classifier interface {
	Classify(ctx context.Context, profile domain.Profile) (domain.RiskClass, error)
}

type PredictionService struct {
	classifier Classifier
	logger     *zap.Logger
}

func NewPredictionService(classifier Classifier, logger *zap.Logger) *PredictionService {
	return &PredictionService{
		classifier: classifier,
		logger:     logger.Named("prediction"),
	}
}

// Predict classifies the profile. The profile is forwarded to the classifier
// unchanged.
func (s *PredictionService) Predict(ctx context.Context, profile domain.Profile) (domain.Prediction, error) {
	if err := validateProfile(profile); err != nil {
		return domain.Prediction{}, err
	}

	label, err := s.classifier.Classify(ctx, profile)
	if err != nil {
		var infErr *domain.InferenceError
		if errors.As(err, &infErr) {
			s.logger.Error("classification failed",
				zap.String("kind", string(infErr.Kind)),
				zap.Int("exit_code", infErr.ExitCode),
				zap.String("stderr", infErr.Detail),
				zap.Error(err),
			)
		} else {
			s.logger.Error("classification failed", zap.Error(err))
		}
		return domain.Prediction{}, err
	}

	s.logger.Debug("classified profile", zap.String("predicted_class", string(label)))
	return domain.Prediction{PredictedClass: label}, nil
}

func validateProfile(profile domain.Profile) error {
	if len(profile) > MaxProfileFields {
		return fmt.Errorf("%w: profile has %d fields, at most %d allowed",
			domain.ErrInvalidRequest, len(profile), MaxProfileFields)
	}
	return nil
}
