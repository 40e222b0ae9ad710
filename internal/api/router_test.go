package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyring/internal/polyline"
	"polyring/internal/service/polygon"
)

type snapshotBody struct {
	ID          string  `json:"id"`
	VertexCount int     `json:"vertex_count"`
	Area        float64 `json:"area"`
	Vertices    []struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"vertices"`
	Holes   [][]map[string]float64 `json:"holes"`
	Options map[string]any         `json:"options"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	SetupRouter(r, map[string]string{"service": "polyring"}, polygon.NewService(nil, nil), polyline.DefaultPrecision)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var trianglePoints = []map[string]float64{
	{"lat": 45, "lng": 45},
	{"lat": 45, "lng": -45},
	{"lat": 0, "lng": 0},
}

func TestMainHandlers(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "polyring", decode[map[string]string](t, w)["service"])

	w = do(t, r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "polyring_http_requests_total")
}

func TestDecodePolyline(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/polylines/decode", map[string]any{
		"points": "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
		"levels": "BBB",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[struct {
		Points []map[string]float64 `json:"points"`
		Levels []int                `json:"levels"`
		Count  int                  `json:"count"`
	}](t, w)
	assert.Equal(t, 3, body.Count)
	assert.InDelta(t, 38.5, body.Points[0]["lat"], 1e-9)
	assert.Equal(t, []int{3, 3, 3}, body.Levels)
}

func TestDecodePolylineErrors(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/polylines/decode", map[string]any{"points": "_p~iF~ps|U_"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "malformed")

	w = do(t, r, http.MethodPost, "/api/polylines/decode", map[string]any{"points": "??", "precision": 99})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/polylines/decode", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPolygonLifecycle(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/polygons", map[string]any{"name": "triangle", "points": trianglePoints})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[snapshotBody](t, w)
	assert.Equal(t, 3, created.VertexCount)
	assert.Greater(t, created.Area, 0.0)
	assert.Equal(t, true, created.Options["clickable"], "default options applied")

	w = do(t, r, http.MethodGet, "/api/polygons/"+created.ID+"/area", nil)
	require.Equal(t, http.StatusOK, w.Code)
	area := decode[snapshotBody](t, w)
	assert.Equal(t, created.ID, area.ID)
	assert.Equal(t, 3, area.VertexCount)
	assert.InDelta(t, created.Area, area.Area, 1e-6)

	w = do(t, r, http.MethodPost, "/api/polygons/"+created.ID+"/vertices", map[string]any{"index": 1, "lat": 45, "lng": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	inserted := decode[snapshotBody](t, w)
	assert.Equal(t, 4, inserted.VertexCount)
	assert.Equal(t, 0.0, inserted.Vertices[1].Lng)

	w = do(t, r, http.MethodDelete, "/api/polygons/"+created.ID+"/vertices/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[snapshotBody](t, w).VertexCount)

	w = do(t, r, http.MethodDelete, "/api/polygons/"+created.ID+"/vertices/3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/polygons/"+created.ID+"/vertices", map[string]any{"index": 9, "lat": 1, "lng": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/polygons/"+created.ID+"/vertices", map[string]any{"lat": 1, "lng": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code, "index is required")

	w = do(t, r, http.MethodDelete, "/api/polygons/"+created.ID+"/vertices/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, "/api/polygons/"+created.ID+"/options", map[string]any{"fill_color": "#123456"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "#123456", decode[snapshotBody](t, w).Options["fill_color"])

	w = do(t, r, http.MethodGet, "/api/polygons", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]snapshotBody](t, w), 1)

	w = do(t, r, http.MethodDelete, "/api/polygons/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, "/api/polygons/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPolygonRejectsInvalidCoordinates(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/polygons", map[string]any{
		"points": []map[string]float64{{"lat": 0, "lng": 0}, {"lat": 1e15, "lng": 0}, {"lat": 1, "lng": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "coordinate out of range")

	w = do(t, r, http.MethodGet, "/api/polygons", nil)
	assert.Equal(t, "[]", w.Body.String())

	w = do(t, r, http.MethodPost, "/api/polygons", map[string]any{"points": trianglePoints})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[snapshotBody](t, w).ID

	w = do(t, r, http.MethodPost, "/api/polygons/"+id+"/vertices", map[string]any{"index": 0, "lat": 95, "lng": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePolygonFromEncoded(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/polygons/encoded", map[string]any{
		"name": "fountain",
		"polylines": []map[string]any{
			{"points": "{t`mEt_bbO?eAx@??dAy@?", "precision": 2, "levels": "BBBBB", "num_levels": 1},
			{"points": "au`mEz_bbO?sAbA@?pAcA?", "precision": 2, "levels": "BBBBB", "num_levels": 1},
		},
		"options": map[string]any{"fill": true, "fill_color": "#ff0000", "fill_opacity": 0.3, "outline": true},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	snap := decode[snapshotBody](t, w)
	assert.Equal(t, 5, snap.VertexCount)
	assert.Len(t, snap.Holes, 1)

	w = do(t, r, http.MethodPost, "/api/polygons/encoded", map[string]any{
		"polylines": []map[string]any{{"points": "{t`mEt_bbO?eA`"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/polygons/encoded", map[string]any{"name": "missing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPolygonsAt(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/polygons", map[string]any{"points": trianglePoints})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[snapshotBody](t, w).ID

	w = do(t, r, http.MethodGet, "/api/polygons/at?lat=30&lng=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]snapshotBody](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].ID)

	w = do(t, r, http.MethodGet, "/api/polygons/at?lat=-10&lng=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = do(t, r, http.MethodGet, "/api/polygons/at?lat=x&lng=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPolygonGeoJSON(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/polygons", map[string]any{"name": "triangle", "points": trianglePoints})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[snapshotBody](t, w).ID

	w = do(t, r, http.MethodGet, "/api/polygons/"+id+"/geojson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feature := decode[map[string]any](t, w)
	assert.Equal(t, "Feature", feature["type"])
	assert.Equal(t, "Polygon", feature["geometry"].(map[string]any)["type"])

	w = do(t, r, http.MethodGet, "/api/polygons/geojson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	fc := decode[map[string]any](t, w)
	assert.Equal(t, "FeatureCollection", fc["type"])
	assert.Len(t, fc["features"], 1)

	w = do(t, r, http.MethodGet, "/api/polygons/nope/geojson", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
