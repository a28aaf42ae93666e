package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"credit-advisor/domain"
)

// ErrorResponse is the JSON error body returned by the API.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Details    string `json:"details,omitempty"`
}

// MapServiceError maps service errors to HTTP error responses.
func MapServiceError(err error) ErrorResponse {
	var infErr *domain.InferenceError

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    "invalid request body",
			Details:    err.Error(),
		}
	case errors.Is(err, domain.ErrInferenceTimedOut):
		return ErrorResponse{
			StatusCode: http.StatusGatewayTimeout,
			Message:    "Prediction timed out",
			Details:    inferenceDetails(err),
		}
	case errors.As(err, &infErr), errors.Is(err, domain.ErrInferenceFailed):
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    "Prediction failed",
			Details:    inferenceDetails(err),
		}
	case errors.Is(err, domain.ErrRecommendationFailed):
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    "Failed to fetch recommendations",
			Details:    recommendationDetails(err),
		}
	default:
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    "internal server error",
		}
	}
}

// inferenceDetails prefers what the classifier wrote to stderr.
func inferenceDetails(err error) string {
	var infErr *domain.InferenceError
	if errors.As(err, &infErr) && infErr.Detail != "" {
		return infErr.Detail
	}
	return err.Error()
}

// recommendationDetails reports the provider status and body when there was a response.
func recommendationDetails(err error) string {
	var recErr *domain.RecommendationError
	if errors.As(err, &recErr) && recErr.StatusCode != 0 {
		if recErr.Body != "" {
			return fmt.Sprintf("upstream status %d: %s", recErr.StatusCode, recErr.Body)
		}
		return fmt.Sprintf("upstream status %d", recErr.StatusCode)
	}
	return err.Error()
}

// HandleServiceError sends the mapped error response and records err on the context.
func HandleServiceError(c *gin.Context, err error) {
	_ = c.Error(err)
	resp := MapServiceError(err)
	c.AbortWithStatusJSON(resp.StatusCode, resp)
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{StatusCode: status, Message: message})
}
