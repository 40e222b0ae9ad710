package redis

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyring/internal/model"
)

func TestPolygonKey(t *testing.T) {
	assert.Equal(t, "polygon:abc", polygonKey("abc"))
}

func TestPolygonBlobKeepsHolesAndTimestamp(t *testing.T) {
	rec := &model.PolygonRecord{
		ID:        "abc",
		Ring:      "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
		Holes:     []string{"??", "@@"},
		Precision: 5,
		UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	blob, err := sonic.MarshalString(rec)
	require.NoError(t, err)

	out := &model.PolygonRecord{}
	require.NoError(t, sonic.UnmarshalString(blob, out))
	assert.Equal(t, rec.Holes, out.Holes)
	assert.True(t, rec.UpdatedAt.Equal(out.UpdatedAt))
	assert.NotContains(t, blob, "deleted_at")
}
