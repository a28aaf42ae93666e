package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"credit-advisor/domain"
	"credit-advisor/service"
)

// RecommendationHandler serves POST /predict/recommend.
type RecommendationHandler struct {
	service *service.RecommendationService
}

func NewRecommendationHandler(service *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

func (h *RecommendationHandler) Recommend(c *gin.Context) {
	data, err := readBody(c)
	if err != nil {
		handleBodyError(c, err)
		return
	}

	var req domain.RecommendationRequest
	if err := req.UnmarshalJSON(data); err != nil {
		HandleServiceError(c, err)
		return
	}

	result, err := h.service.Recommend(c.Request.Context(), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	cacheStatus := "MISS"
	if result.Cached {
		cacheStatus = "HIT"
	}
	c.Header("X-Cache", cacheStatus)
	c.JSON(http.StatusOK, result)
}
