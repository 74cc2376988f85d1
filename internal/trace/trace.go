// Package trace follows magnetic field lines through a model with
// fixed-step fourth-order Runge-Kutta integration of dx/ds = B/|B|.
package trace

import (
	"math"

	"github.com/astrokit/galmag/internal/gmf"
	"github.com/astrokit/galmag/internal/vec"
)

// minFieldMicrogauss terminates a trace once the field is too weak to
// define a direction.
const minFieldMicrogauss = 1e-6

type Tracer struct {
	model *gmf.Model
	step  float64
}

func New(model *gmf.Model, stepKpc float64) *Tracer {
	if stepKpc <= 0 {
		stepKpc = 0.05
	}
	return &Tracer{model: model, step: stepKpc}
}

// direction evaluates the unit field vector at pos. ok is false where
// the field vanishes or the position lies outside the model volume.
func (t *Tracer) direction(pos vec.Vec3) (vec.Vec3, bool, error) {
	b, err := t.model.Field(pos)
	if err != nil {
		return vec.Vec3{}, false, err
	}
	norm := b.Norm()
	if norm < minFieldMicrogauss {
		return vec.Vec3{}, false, nil
	}
	return b.Scale(1 / norm), true, nil
}

func (t *Tracer) rk4Step(pos vec.Vec3, ds float64) (vec.Vec3, bool, error) {
	k1, ok, err := t.direction(pos)
	if !ok || err != nil {
		return pos, false, err
	}
	k2, ok, err := t.direction(pos.Add(k1.Scale(ds * 0.5)))
	if !ok || err != nil {
		return pos, false, err
	}
	k3, ok, err := t.direction(pos.Add(k2.Scale(ds * 0.5)))
	if !ok || err != nil {
		return pos, false, err
	}
	k4, ok, err := t.direction(pos.Add(k3.Scale(ds)))
	if !ok || err != nil {
		return pos, false, err
	}

	incr := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4).Scale(ds / 6)
	return pos.Add(incr), true, nil
}

// Trace integrates a field line from start for at most maxSteps steps,
// following the field direction (ds > 0 with forward=true, against it
// otherwise). The returned polyline includes the start point and stops
// where the field vanishes or the line leaves the model volume.
func (t *Tracer) Trace(start vec.Vec3, maxSteps int, forward bool) ([]vec.Vec3, error) {
	ds := t.step
	if !forward {
		ds = -ds
	}
	maxR2 := t.model.MaxRadius2()

	line := make([]vec.Vec3, 0, maxSteps+1)
	line = append(line, start)

	pos := start
	for i := 0; i < maxSteps; i++ {
		next, ok, err := t.rk4Step(pos, ds)
		if err != nil {
			return line, err
		}
		if !ok || next.Norm2() > maxR2 {
			break
		}
		line = append(line, next)
		pos = next
	}
	return line, nil
}

// ArcLength returns the total length of a traced polyline.
func ArcLength(line []vec.Vec3) float64 {
	total := 0.0
	for i := 1; i < len(line); i++ {
		total += line[i].Sub(line[i-1]).Norm()
	}
	return total
}

// Bounds returns the axis-aligned extent of a polyline.
func Bounds(line []vec.Vec3) (min, max vec.Vec3) {
	if len(line) == 0 {
		return vec.Vec3{}, vec.Vec3{}
	}
	min, max = line[0], line[0]
	for _, p := range line[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}
	return min, max
}
