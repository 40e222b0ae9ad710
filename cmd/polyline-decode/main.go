package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"polyring/internal/model"
	"polyring/internal/overlay"
	"polyring/internal/polyline"

	"github.com/bytedance/sonic"
)

type result struct {
	Points      []model.LatLng `json:"points"`
	Levels      []int          `json:"levels,omitempty"`
	VertexCount int            `json:"vertex_count"`
	Area        float64        `json:"area"`
	Perimeter   float64        `json:"perimeter"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: polyline-decode <encoded> [precision] [levels]")
	}

	precision := polyline.DefaultPrecision
	if len(os.Args) > 2 {
		p, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("Invalid precision %q: %v", os.Args[2], err)
		}
		precision = p
	}

	levels := ""
	if len(os.Args) > 3 {
		levels = os.Args[3]
	}

	out, err := run(os.Args[1], precision, levels)
	if err != nil {
		log.Fatalf("Failed to decode: %v", err)
	}
	fmt.Println(out)
}

func run(encoded string, precision int, levels string) (string, error) {
	p := polyline.New(encoded, precision, levels, 0)

	points, err := p.Decode()
	if err != nil {
		return "", err
	}
	lv, err := p.DecodeLevels()
	if err != nil {
		return "", err
	}

	poly := overlay.New(points, overlay.DefaultOptions())
	if points == nil {
		points = []model.LatLng{}
	}

	return sonic.MarshalString(result{
		Points:      points,
		Levels:      lv,
		VertexCount: poly.VertexCount(),
		Area:        poly.Area(),
		Perimeter:   poly.Perimeter(),
	})
}
