// Package sampler propagates the model's parameter uncertainties to
// line-of-sight observables via Monte-Carlo sampling of correlated
// parameter offsets.
package sampler

import (
	"math"
	"math/rand"

	"github.com/astrokit/galmag/internal/covariance"
	"github.com/astrokit/galmag/internal/gmf"
	"github.com/astrokit/galmag/internal/vec"
)

// LOSResult holds the fixed-step line-of-sight integrals of the
// parallel field component and the squared perpendicular component,
// in microgauss*kpc and microgauss^2*kpc.
type LOSResult struct {
	Parallel float64
	Perp2    float64
}

// IntegrateLOS sums the field along a ray from start in unit
// direction dir with step dl (kpc) until the position leaves the
// model's cutoff radius.
func IntegrateLOS(m *gmf.Model, start, dir vec.Vec3, dl float64) (LOSResult, error) {
	var sumParallel, sumPerp2 float64
	rMax2 := m.MaxRadius2()
	pos := start
	l := 0.0
	for pos.Norm2() < rMax2 {
		b, err := m.Field(pos)
		if err != nil {
			return LOSResult{}, err
		}
		sumParallel += b.Dot(dir)
		bProj := dir.Cross(b.Cross(dir))
		sumPerp2 += bProj.Norm2()
		l += dl
		pos = start.Add(dir.Scale(l))
	}
	return LOSResult{Parallel: sumParallel * dl, Perp2: sumPerp2 * dl}, nil
}

// DirectionLB converts Galactic longitude and latitude (degrees) to a
// unit vector in galactocentric Cartesian coordinates.
func DirectionLB(lonDeg, latDeg float64) vec.Vec3 {
	lon := lonDeg * math.Pi / 180
	lat := latDeg * math.Pi / 180
	rxy := math.Cos(lat)
	return vec.Vec3{
		X: math.Cos(lon) * rxy,
		Y: math.Sin(lon) * rxy,
		Z: math.Sin(lat),
	}
}

// Stats accumulates running mean and standard deviation of the
// sampled LOS integrals.
type Stats struct {
	N            int
	MeanParallel float64
	MeanPerp2    float64
	StdParallel  float64
	StdPerp2     float64
}

// Sampler draws correlated parameter realizations and evaluates LOS
// integrals. It owns the random source: the engine itself is
// stateless, so results are reproducible given the seed. The model is
// mutated in place between draws (single-writer, sequential use).
type Sampler struct {
	model   *gmf.Model
	engine  *covariance.Engine
	nominal []float64
	indices []gmf.ParamID
	rng     *rand.Rand
}

// New creates a sampler around a model/engine pair of the same
// variant with a deterministic seed.
func New(m *gmf.Model, e *covariance.Engine, seed int64) *Sampler {
	return &Sampler{
		model:   m,
		engine:  e,
		nominal: m.Parameters(),
		indices: e.ParameterIndices(),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Draw perturbs the nominal parameter vector by one correlated offset
// and writes it into the model. It returns the perturbed vector.
func (s *Sampler) Draw() ([]float64, error) {
	n := s.engine.Dimension()
	z := make([]float64, n)
	for i := range z {
		z[i] = s.rng.NormFloat64()
	}
	delta, err := s.engine.RandomOffset(z)
	if err != nil {
		return nil, err
	}
	sampled := make([]float64, len(s.nominal))
	copy(sampled, s.nominal)
	for i, id := range s.indices {
		sampled[id] += delta[i]
	}
	if err := s.model.SetParameters(sampled); err != nil {
		return nil, err
	}
	return sampled, nil
}

// Reset writes the nominal parameters back into the model.
func (s *Sampler) Reset() error {
	return s.model.SetParameters(s.nominal)
}

// Run draws n parameter realizations, integrates the line of sight
// for each and accumulates statistics. onSample, if non-nil, is
// called after every draw with the sample index and its result.
func (s *Sampler) Run(n int, start, dir vec.Vec3, dl float64, onSample func(int, LOSResult)) (Stats, []LOSResult, error) {
	results := make([]LOSResult, 0, n)
	var sumPar, sumPar2, sumPerp, sumPerp2 float64

	for i := 0; i < n; i++ {
		if _, err := s.Draw(); err != nil {
			return Stats{}, nil, err
		}
		los, err := IntegrateLOS(s.model, start, dir, dl)
		if err != nil {
			return Stats{}, nil, err
		}
		results = append(results, los)
		sumPar += los.Parallel
		sumPar2 += los.Parallel * los.Parallel
		sumPerp += los.Perp2
		sumPerp2 += los.Perp2 * los.Perp2
		if onSample != nil {
			onSample(i, los)
		}
	}
	if err := s.Reset(); err != nil {
		return Stats{}, nil, err
	}

	stats := Stats{N: n}
	if n > 0 {
		fn := float64(n)
		stats.MeanParallel = sumPar / fn
		stats.MeanPerp2 = sumPerp / fn
		stats.StdParallel = math.Sqrt(math.Max(0, sumPar2/fn-stats.MeanParallel*stats.MeanParallel))
		stats.StdPerp2 = math.Sqrt(math.Max(0, sumPerp2/fn-stats.MeanPerp2*stats.MeanPerp2))
	}
	return stats, results, nil
}

// RadialProfile samples the field magnitude at n evenly spaced
// distances along dir from start, for plotting.
func RadialProfile(m *gmf.Model, start, dir vec.Vec3, length float64, n int) ([]float64, error) {
	if n < 2 {
		n = 2
	}
	profile := make([]float64, n)
	for i := 0; i < n; i++ {
		l := length * float64(i) / float64(n-1)
		b, err := m.Field(start.Add(dir.Scale(l)))
		if err != nil {
			return nil, err
		}
		profile[i] = b.Norm()
	}
	return profile, nil
}
