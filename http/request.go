package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"credit-advisor/domain"
	"credit-advisor/service"
)

var errBodyTooLarge = errors.New("request body too large")

// readBody reads the whole request body up to service.MaxRequestBodyBytes.
func readBody(c *gin.Context) ([]byte, error) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxRequestBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return data, nil
}

// handleBodyError responds to a body read or decode failure.
func handleBodyError(c *gin.Context, err error) {
	if errors.Is(err, errBodyTooLarge) {
		_ = c.Error(err)
		respondError(c, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	HandleServiceError(c, err)
}
