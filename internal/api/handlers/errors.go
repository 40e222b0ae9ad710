package routes

import (
	"errors"
	"net/http"

	"polyring/internal/overlay"
	"polyring/internal/polyline"
	"polyring/internal/service/polygon"

	"github.com/gin-gonic/gin"
)

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, polygon.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, polyline.ErrMalformedEncoding),
		errors.Is(err, polyline.ErrInvalidPrecision),
		errors.Is(err, polyline.ErrUnencodable),
		errors.Is(err, overlay.ErrIndexOutOfRange),
		errors.Is(err, overlay.ErrInvalidCoordinate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
