package routes

import (
	"fmt"
	"net/http"
	"strconv"

	"polyring/internal/model"
	"polyring/internal/overlay"
	"polyring/internal/polyline"
	"polyring/internal/service/polygon"

	"github.com/gin-gonic/gin"
)

type createPolygonRequest struct {
	Name    string           `json:"name"`
	Points  []model.LatLng   `json:"points"`
	Options *overlay.Options `json:"options"`
}

type createEncodedPolygonRequest struct {
	Name      string                   `json:"name"`
	Polylines []encodedPolylineRequest `json:"polylines" binding:"required"`
	Options   *overlay.Options         `json:"options"`
}

type insertVertexRequest struct {
	Index *int    `json:"index" binding:"required"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

func optionsOrDefault(o *overlay.Options) overlay.Options {
	if o == nil {
		return overlay.DefaultOptions()
	}
	return *o
}

// PolygonHandlers serves polygon endpoints backed by the polygon service
type PolygonHandlers struct {
	svc              *polygon.PolygonService
	defaultPrecision int
}

// SetupPolygonHandlers registers the polygon management endpoints
func SetupPolygonHandlers(router *gin.RouterGroup, svc *polygon.PolygonService, defaultPrecision int) {
	h := &PolygonHandlers{svc: svc, defaultPrecision: defaultPrecision}

	group := router.Group("/polygons")
	group.GET("", h.List)
	group.POST("", h.Create)
	group.POST("/encoded", h.CreateFromEncoded)
	group.GET("/at", h.At)
	group.GET("/geojson", h.FeatureCollection)
	group.GET("/:id", h.Get)
	group.GET("/:id/area", h.Area)
	group.GET("/:id/geojson", h.Feature)
	group.PUT("/:id/options", h.UpdateOptions)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/vertices", h.InsertVertex)
	group.DELETE("/:id/vertices/:index", h.DeleteVertex)
}

func (h *PolygonHandlers) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.List())
}

func (h *PolygonHandlers) Create(c *gin.Context) {
	var req createPolygonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	snap, err := h.svc.Create(req.Name, req.Points, optionsOrDefault(req.Options))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *PolygonHandlers) CreateFromEncoded(c *gin.Context) {
	var req createEncodedPolygonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	polylines := make([]polyline.EncodedPolyline, len(req.Polylines))
	for i, p := range req.Polylines {
		polylines[i] = p.toPolyline(h.defaultPrecision)
	}

	snap, err := h.svc.CreateFromEncoded(req.Name, polylines, optionsOrDefault(req.Options))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *PolygonHandlers) Get(c *gin.Context) {
	snap, err := h.svc.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *PolygonHandlers) Area(c *gin.Context) {
	snap, err := h.svc.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           snap.ID,
		"area":         snap.Area,
		"vertex_count": snap.VertexCount,
	})
}

func (h *PolygonHandlers) UpdateOptions(c *gin.Context) {
	var opts overlay.Options
	if err := c.ShouldBindJSON(&opts); err != nil {
		badRequest(c, err)
		return
	}
	snap, err := h.svc.UpdateOptions(c.Param("id"), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *PolygonHandlers) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PolygonHandlers) InsertVertex(c *gin.Context) {
	var req insertVertexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	snap, err := h.svc.InsertVertex(c.Param("id"), *req.Index, model.LatLng{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *PolygonHandlers) DeleteVertex(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid vertex index %q", c.Param("index")))
		return
	}
	snap, err := h.svc.DeleteVertex(c.Param("id"), index)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *PolygonHandlers) At(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		badRequest(c, fmt.Errorf("lat and lng query parameters must be numbers"))
		return
	}

	found := h.svc.PolygonsAt(lat, lng)
	if found == nil {
		found = []polygon.Snapshot{}
	}
	c.JSON(http.StatusOK, found)
}

func (h *PolygonHandlers) Feature(c *gin.Context) {
	f, err := h.svc.Feature(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *PolygonHandlers) FeatureCollection(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.FeatureCollection())
}
