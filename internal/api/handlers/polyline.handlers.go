package routes

import (
	"net/http"

	"polyring/internal/metrics"
	"polyring/internal/model"
	"polyring/internal/polyline"

	"github.com/gin-gonic/gin"
)

type encodedPolylineRequest struct {
	Points    string         `json:"points"`
	Precision *int           `json:"precision"`
	Levels    string         `json:"levels"`
	NumLevels int            `json:"num_levels"`
	Style     polyline.Style `json:"style"`
}

func (r encodedPolylineRequest) toPolyline(defaultPrecision int) polyline.EncodedPolyline {
	precision := defaultPrecision
	if r.Precision != nil {
		precision = *r.Precision
	}
	p := polyline.New(r.Points, precision, r.Levels, r.NumLevels)
	p.Style = r.Style
	return p
}

type decodeResponse struct {
	Points []model.LatLng `json:"points"`
	Levels []int          `json:"levels"`
	Count  int            `json:"count"`
}

// SetupPolylineHandlers registers the polyline decoding endpoint
func SetupPolylineHandlers(router *gin.RouterGroup, defaultPrecision int) {
	router.POST("/polylines/decode", DecodePolyline(defaultPrecision))
}

// DecodePolyline decodes one encoded polyline and its levels
func DecodePolyline(defaultPrecision int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req encodedPolylineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		p := req.toPolyline(defaultPrecision)

		points, err := p.Decode()
		if err != nil {
			metrics.DecodeFailures.Inc()
			writeError(c, err)
			return
		}
		levels, err := p.DecodeLevels()
		if err != nil {
			metrics.DecodeFailures.Inc()
			writeError(c, err)
			return
		}
		metrics.PolylinesDecoded.Inc()

		if points == nil {
			points = []model.LatLng{}
		}
		if levels == nil {
			levels = []int{}
		}
		c.JSON(http.StatusOK, decodeResponse{Points: points, Levels: levels, Count: len(points)})
	}
}
