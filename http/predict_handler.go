package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"credit-advisor/domain"
	"credit-advisor/service"
)

// PredictHandler serves POST /predict.
type PredictHandler struct {
	service *service.PredictionService
}

func NewPredictHandler(service *service.PredictionService) *PredictHandler {
	return &PredictHandler{service: service}
}

func (h *PredictHandler) Predict(c *gin.Context) {
	data, err := readBody(c)
	if err != nil {
		handleBodyError(c, err)
		return
	}

	profile, err := domain.ParseProfile(data)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	prediction, err := h.service.Predict(c.Request.Context(), profile)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, prediction)
}
