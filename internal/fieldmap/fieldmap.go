// Package fieldmap evaluates field magnitude over a planar grid, one
// worker per row band, for map rendering and gridded export.
package fieldmap

import (
	"context"
	"runtime"
	"sync"

	"github.com/astrokit/galmag/internal/gmf"
	"github.com/astrokit/galmag/internal/vec"
)

type Grid struct {
	// Values holds |B| in microgauss, row-major with NY rows of NX
	// columns. Row 0 is the minimum-y edge.
	Values []float64
	NX, NY int
	MinX   float64
	MaxX   float64
	MinY   float64
	MaxY   float64
	Z      float64
}

func (g *Grid) At(ix, iy int) float64 {
	return g.Values[iy*g.NX+ix]
}

// Evaluate fills an nx-by-ny grid of field magnitudes in the plane
// z = const spanning [minX, maxX] x [minY, maxY]. Rows are split over
// GOMAXPROCS workers.
func Evaluate(ctx context.Context, model *gmf.Model, nx, ny int, minX, maxX, minY, maxY, z float64) (*Grid, error) {
	if nx < 2 {
		nx = 2
	}
	if ny < 2 {
		ny = 2
	}
	g := &Grid{
		Values: make([]float64, nx*ny),
		NX:     nx, NY: ny,
		MinX: minX, MaxX: maxX,
		MinY: minY, MaxY: maxY,
		Z: z,
	}
	dx := (maxX - minX) / float64(nx-1)
	dy := (maxY - minY) / float64(ny-1)

	workers := runtime.GOMAXPROCS(0)
	if workers > ny {
		workers = ny
	}
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for iy := idx; iy < ny; iy += workers {
				select {
				case <-ctx.Done():
					errs[idx] = ctx.Err()
					return
				default:
				}
				y := minY + float64(iy)*dy
				for ix := 0; ix < nx; ix++ {
					x := minX + float64(ix)*dx
					b, err := model.Field(vec.New(x, y, z))
					if err != nil {
						errs[idx] = err
						return
					}
					g.Values[iy*nx+ix] = b.Norm()
				}
			}
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Range returns the minimum and maximum magnitude on the grid.
func (g *Grid) Range() (lo, hi float64) {
	if len(g.Values) == 0 {
		return 0, 0
	}
	lo, hi = g.Values[0], g.Values[0]
	for _, v := range g.Values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
