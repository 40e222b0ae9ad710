package model

import (
	"time"

	"gorm.io/gorm"
)

// PolygonRecord is the unified polygon model (used for both PostgreSQL and Redis).
// Rings are kept as encoded polylines at Precision.
type PolygonRecord struct {
	ID        string   `json:"id" gorm:"primaryKey"`
	Name      string   `json:"name" gorm:"size:255"`
	Ring      string   `json:"ring" gorm:"type:text;not null"`
	Holes     []string `json:"holes,omitempty" gorm:"serializer:json"`
	Precision int      `json:"precision" gorm:"not null"`

	StrokeColor   string  `json:"stroke_color" gorm:"size:16"`
	StrokeWeight  int     `json:"stroke_weight"`
	StrokeOpacity float64 `json:"stroke_opacity"`
	FillColor     string  `json:"fill_color" gorm:"size:16"`
	FillOpacity   float64 `json:"fill_opacity"`
	Fill          bool    `json:"fill"`
	Outline       bool    `json:"outline"`
	Clickable     bool    `json:"clickable"`

	// Derived, stored for queries outside the service
	VertexCount int     `json:"vertex_count"`
	Area        float64 `json:"area"`

	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:false"`
	CreatedAt time.Time      `json:"created_at" gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"column:deleted_at;index"`
}

// TableName overrides the table name
func (PolygonRecord) TableName() string {
	return "polygons"
}
