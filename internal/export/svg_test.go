package export

import (
	"strings"
	"testing"

	"github.com/astrokit/galmag/internal/fieldmap"
	"github.com/astrokit/galmag/internal/vec"
)

func TestPolylineSVG(t *testing.T) {
	points := []Point{{0, 0}, {1, 1}, {2, 0.5}}
	svg := PolylineSVG(points, 400, 200, "#00ff00")

	if !strings.HasPrefix(svg, `<?xml version="1.0"`) {
		t.Error("missing XML header")
	}
	if !strings.Contains(svg, `width="400" height="200"`) {
		t.Error("missing dimensions")
	}
	if !strings.Contains(svg, `stroke="#00ff00"`) {
		t.Error("missing stroke color")
	}
	if strings.Count(svg, "L") != len(points)-1 {
		t.Errorf("expected %d line segments", len(points)-1)
	}
}

func TestPolylineSVGTooFewPoints(t *testing.T) {
	if svg := PolylineSVG([]Point{{0, 0}}, 400, 200, "#fff"); svg != "" {
		t.Error("expected empty output for a single point")
	}
}

func TestFieldLineSVGProjects(t *testing.T) {
	line := []vec.Vec3{
		vec.New(0, 0, 5),
		vec.New(1, 2, -3),
	}
	svg := FieldLineSVG(line, 100, 100, "#00ccff")
	if svg == "" {
		t.Fatal("expected non-empty SVG")
	}
}

func TestHeatmapSVG(t *testing.T) {
	g := &fieldmap.Grid{
		Values: []float64{0, 1, 2, 3},
		NX:     2, NY: 2,
	}
	svg := HeatmapSVG(g, 4, "#00ff00")
	if svg == "" {
		t.Fatal("expected non-empty SVG")
	}
	// one background rect plus one per cell
	if got := strings.Count(svg, "<rect"); got != 5 {
		t.Errorf("expected 5 rects, got %d", got)
	}
	if !strings.Contains(svg, `width="8" height="8"`) {
		t.Error("missing canvas dimensions")
	}
}

func TestHeatmapSVGNil(t *testing.T) {
	if svg := HeatmapSVG(nil, 4, "#00ff00"); svg != "" {
		t.Error("expected empty output for nil grid")
	}
}
