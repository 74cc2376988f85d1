// Package export renders sampled curves and field maps as standalone
// SVG documents.
package export

import (
	"fmt"
	"strings"

	"github.com/astrokit/galmag/internal/fieldmap"
	"github.com/astrokit/galmag/internal/vec"
)

type Point struct {
	X, Y float64
}

// PolylineSVG draws a single curve on a dark background, autoscaled to
// the data with 10% padding on each side.
func PolylineSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// FieldLineSVG projects a traced field line onto the Galactic plane
// and draws it as a polyline.
func FieldLineSVG(line []vec.Vec3, width, height int, strokeColor string) string {
	points := make([]Point, len(line))
	for i, p := range line {
		points[i] = Point{X: p.X, Y: p.Y}
	}
	return PolylineSVG(points, width, height, strokeColor)
}

// HeatmapSVG renders a magnitude grid as one rect per cell, shaded
// from black at the grid minimum to full strokeColor intensity at the
// maximum. strokeColor must be a hex color like #00ff00.
func HeatmapSVG(g *fieldmap.Grid, cellPx int, strokeColor string) string {
	if g == nil || g.NX == 0 || g.NY == 0 {
		return ""
	}
	if cellPx < 1 {
		cellPx = 1
	}
	lo, hi := g.Range()
	span := hi - lo
	if span == 0 {
		span = 1
	}

	width := g.NX * cellPx
	height := g.NY * cellPx

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	var cr, cg, cb int
	fmt.Sscanf(strokeColor, "#%02x%02x%02x", &cr, &cg, &cb)

	for iy := 0; iy < g.NY; iy++ {
		for ix := 0; ix < g.NX; ix++ {
			frac := (g.At(ix, iy) - lo) / span
			// y axis points up in the grid, down in SVG
			py := (g.NY - 1 - iy) * cellPx
			sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="#%02x%02x%02x"/>
`, ix*cellPx, py, cellPx, cellPx,
				int(frac*float64(cr)), int(frac*float64(cg)), int(frac*float64(cb))))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}
