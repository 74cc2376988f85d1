// Package gmf evaluates the UF23 parametric model of the Galactic
// coherent magnetic field (Unger & Farrar, arXiv:2311.12120) at
// arbitrary galactocentric positions.
//
// Coordinates are Cartesian kpc with the Galactic center at the
// origin, the x-axis pointing away from the Sun and the z-axis
// towards Galactic North. Field values are in microgauss.
package gmf

import (
	"fmt"
	"math"

	"github.com/astrokit/galmag/internal/vec"
)

// DefaultMaxRadiusKpc is the galactocentric radius beyond which the
// field is defined to be zero.
const DefaultMaxRadiusKpc = 30.0

// ErrParamCount is returned when a parameter vector does not have
// exactly NumParams entries.
var ErrParamCount = fmt.Errorf("parameter vector must have %d entries", int(NumParams))

// Model holds the parameters of one model variant and evaluates the
// field. The parameter vector is the only mutable state: a Model may
// be reused across sequential perturb-then-evaluate iterations but is
// not safe for concurrent SetParameters/Field calls.
type Model struct {
	variant    Variant
	maxRadius2 float64
	par        paramSet

	// pitch angle trig, re-derived on SetParameters
	sinPitch float64
	cosPitch float64
	tanPitch float64
}

// Option configures a Model at construction.
type Option func(*Model)

// WithMaxRadius overrides the default 30 kpc field cutoff.
func WithMaxRadius(kpc float64) Option {
	return func(m *Model) { m.maxRadius2 = kpc * kpc }
}

// New constructs a field model for the given variant with its fitted
// nominal parameters.
func New(v Variant, opts ...Option) (*Model, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, int(v))
	}
	m := &Model{
		variant:    v,
		maxRadius2: DefaultMaxRadiusKpc * DefaultMaxRadiusKpc,
		par:        nominalParams(v),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.deriveCached()
	return m, nil
}

func (m *Model) deriveCached() {
	m.sinPitch = math.Sin(m.par[DiskPitch])
	m.cosPitch = math.Cos(m.par[DiskPitch])
	m.tanPitch = math.Tan(m.par[DiskPitch])
}

// Variant returns the model variant selected at construction.
func (m *Model) Variant() Variant {
	return m.variant
}

// MaxRadius2 returns the squared cutoff radius in kpc^2, useful for
// bounding integration loops.
func (m *Model) MaxRadius2() float64 {
	return m.maxRadius2
}

// Parameter returns a single parameter value in external units.
func (m *Model) Parameter(id ParamID) float64 {
	return m.par[id] / unitConv[id]
}

// Parameters returns the full parameter vector in external units,
// ordered by ParamID.
func (m *Model) Parameters() []float64 {
	out := make([]float64, NumParams)
	for i := range m.par {
		out[i] = m.par[i] / unitConv[i]
	}
	return out
}

// SetParameters overwrites the full parameter vector (external units,
// ordered by ParamID) and re-derives the cached pitch-angle values.
// For the expX variant the vertical poloidal scale follows from the
// fitted opening angle.
func (m *Model) SetParameters(p []float64) error {
	if len(p) != int(NumParams) {
		return fmt.Errorf("%w, got %d", ErrParamCount, len(p))
	}
	for i := range m.par {
		m.par[i] = p[i] * unitConv[i]
	}
	m.deriveCached()
	if m.variant == ExpX {
		m.par[PoloidalZ] = m.par[PoloidalA] * math.Tan(m.par[PoloidalXi])
	}
	return nil
}

// Field evaluates the coherent field at a galactocentric position in
// kpc and returns it in microgauss. Beyond the cutoff radius the
// field is exactly zero.
func (m *Model) Field(pos vec.Vec3) (vec.Vec3, error) {
	if pos.Norm2() > m.maxRadius2 {
		return vec.Vec3{}, nil
	}
	disk := m.diskField(pos.X, pos.Y, pos.Z)
	halo, err := m.haloField(pos.X, pos.Y, pos.Z)
	if err != nil {
		return vec.Vec3{}, err
	}
	return disk.Add(halo), nil
}

func (m *Model) diskField(x, y, z float64) vec.Vec3 {
	if m.variant == Spur {
		return m.spurField(x, y, z)
	}
	return m.spiralField(x, y, z)
}

func (m *Model) haloField(x, y, z float64) (vec.Vec3, error) {
	if m.variant == TwistX {
		return m.twistedHaloField(x, y, z)
	}
	poloidal, err := m.poloidalHaloField(x, y, z)
	if err != nil {
		return vec.Vec3{}, err
	}
	return m.toroidalHaloField(x, y, z).Add(poloidal), nil
}

// spiralField is the smooth three-harmonic logarithmic-spiral disk
// field, Sec. 5.2.2 of the UF23 paper.
func (m *Model) spiralField(x, y, z float64) vec.Vec3 {
	// reference radius and inner/outer boundaries of the spiral field
	const (
		rRef   = 5 * kpc
		rInner = 5 * kpc
		wInner = 0.5 * kpc
		rOuter = 20 * kpc
		wOuter = 0.5 * kpc
	)

	r2 := x*x + y*y
	if r2 == 0 {
		return vec.Vec3{}
	}
	r := math.Sqrt(r2)
	phi := math.Atan2(y, x)

	// Eq. (13)
	hdz := 1 - sigmoid(math.Abs(z), m.par[DiskH], m.par[DiskW])

	// Eq. (14) times rRef divided by r
	rFacI := sigmoid(r, rInner, wInner)
	rFacO := 1 - sigmoid(r, rOuter, wOuter)
	// lim r->0 of (1-exp(-r^2))/r is r - r^3/2 + ...
	var rFac float64
	if r > 1e-5*parsec {
		rFac = (1 - math.Exp(-r*r)) / r
	} else {
		rFac = r * (1 - r2/2)
	}
	gdrTimesRrefByR := rRef * rFac * rFacO * rFacI

	// Eq. (12)
	phi0 := phi - math.Log(r/rRef)/m.tanPitch

	// Eq. (10)
	b := m.par[DiskB1]*math.Cos(1*(phi0-m.par[DiskPhase1])) +
		m.par[DiskB2]*math.Cos(2*(phi0-m.par[DiskPhase2])) +
		m.par[DiskB3]*math.Cos(3*(phi0-m.par[DiskPhase3]))

	// Eq. (11)
	fac := hdz * gdrTimesRrefByR
	bCyl := [3]float64{b * fac * m.sinPitch, b * fac * m.cosPitch, 0}
	return cylToCart(bCyl, x/r, y/r)
}

// spurField is the spur-shaped disk field of the spur variant,
// Sec. 5.2.3. Only the spiral branch closest to the observer's radius
// contributes; the other 2pi-wrapped branches are zero.
func (m *Model) spurField(x, y, z float64) vec.Vec3 {
	// reference approximately at solar radius
	const rRef = 8.2 * kpc

	r2 := x*x + y*y
	r := math.Sqrt(r2)
	if r < math.SmallestNonzeroFloat64 {
		return vec.Vec3{}
	}

	phi := math.Atan2(y, x)
	if phi < 0 {
		phi += 2 * math.Pi
	}

	phiRef := m.par[DiskPhase1]
	iBest := -2
	bestDist := -1.0
	for i := -1; i <= 1; i++ {
		pphi := phi - phiRef + float64(i)*2*math.Pi
		rr := rRef * math.Exp(pphi*m.tanPitch)
		if bestDist < 0 || math.Abs(r-rr) < bestDist {
			bestDist = math.Abs(r - rr)
			iBest = i
		}
	}
	if iBest != 0 {
		return vec.Vec3{}
	}

	phi0 := phi - math.Log(r/rRef)/m.tanPitch

	// Eq. (16)
	delta := deltaPhi(phiRef, phi0) / m.par[SpurWidth]
	b := m.par[DiskB1] * math.Exp(-0.5*delta*delta)

	// Eq. (18)
	const wS = 5 * degree
	deltaPhiC := deltaPhi(m.par[SpurCenter], phi)
	gS := 1 - sigmoid(math.Abs(deltaPhiC), m.par[SpurLength], wS)

	// Eq. (13)
	hd := 1 - sigmoid(math.Abs(z), m.par[DiskH], m.par[DiskW])

	// Eq. (17)
	bS := rRef / r * b * hd * gS
	bCyl := [3]float64{bS * m.sinPitch, bS * m.cosPitch, 0}
	return cylToCart(bCyl, x/r, y/r)
}

// toroidalHaloField is the azimuthal halo component, Sec. 5.3.1.
func (m *Model) toroidalHaloField(x, y, z float64) vec.Vec3 {
	r2 := x*x + y*y
	r := math.Sqrt(r2)
	absZ := math.Abs(z)

	b0 := m.par[ToroidalBS]
	if z >= 0 {
		b0 = m.par[ToroidalBN]
	}
	sigmoidR := sigmoid(r, m.par[ToroidalR], m.par[ToroidalW])
	sigmoidZ := sigmoid(absZ, m.par[DiskH], m.par[DiskW])

	// Eq. (21)
	bPhi := b0 * (1 - sigmoidR) * sigmoidZ * math.Exp(-absZ/m.par[ToroidalZ])

	bCyl := [3]float64{0, bPhi, 0}
	cosPhi, sinPhi := 1.0, 0.0
	if r > math.SmallestNonzeroFloat64 {
		cosPhi, sinPhi = x/r, y/r
	}
	return cylToCart(bCyl, cosPhi, sinPhi)
}

// poloidalHaloField is the meridional halo component, Sec. 5.3.2. It
// solves the implicit field-line equation for the ellipsoidal radius
// a and evaluates the closed-form derivatives of the solution.
func (m *Model) poloidalHaloField(x, y, z float64) (vec.Vec3, error) {
	r2 := x*x + y*y
	r := math.Sqrt(r2)

	p := m.par[PoloidalP]
	c := math.Pow(m.par[PoloidalA]/m.par[PoloidalZ], p)
	a0p := math.Pow(m.par[PoloidalA], p)
	rp := math.Pow(r, p)
	cabszp := c * math.Pow(math.Abs(z), p)

	// sqrt(a^2+b) - a is unstable for b << a^2; multiply through by
	// (sqrt(a^2+b)+a)/(sqrt(a^2+b)+a) to get b/(sqrt(a^2+b)+a)
	t0 := a0p + cabszp - rp
	t1 := math.Sqrt(t0*t0 + 4*a0p*rp)
	ap := 2 * a0p * rp / (t1 + t0)

	var a float64
	if ap < 0 {
		if r > math.SmallestNonzeroFloat64 {
			// out of the solve's domain, signals inconsistent
			// formula/parameter values
			return vec.Vec3{}, fmt.Errorf("poloidal field solve: negative a^p = %g at r=%g, z=%g", ap, r, z)
		}
		a = 0
	} else {
		a = math.Pow(ap, 1/p)
	}

	// Eq. (29) and Eq. (32)
	var radialDependence float64
	if m.variant == ExpX {
		radialDependence = math.Exp(-a / m.par[PoloidalR])
	} else {
		radialDependence = 1 - sigmoid(a, m.par[PoloidalR], m.par[PoloidalW])
	}

	// Eq. (28)
	bzz := m.par[PoloidalB] * radialDependence

	rOverA := 1 / math.Pow(2*a0p/(t1+t0), 1/p)

	// Eq. (35) for p=n
	signZ := 1.0
	if z < 0 {
		signZ = -1
	}
	br := bzz * c * a / rOverA * signZ * math.Pow(math.Abs(z), p-1) / t1

	// Eq. (36) for p=n
	bz := bzz * math.Pow(rOverA, p-2) * (ap + a0p) / t1

	if r < math.SmallestNonzeroFloat64 {
		return vec.Vec3{Z: bz}, nil
	}
	bCyl := [3]float64{br, 0, bz}
	return cylToCart(bCyl, x/r, y/r), nil
}

// twistedHaloField azimuthally shears the poloidal field using the
// twisting-time parameter and a radially and vertically varying
// rotation curve, Sec. 5.3.3.
func (m *Model) twistedHaloField(x, y, z float64) (vec.Vec3, error) {
	r := math.Sqrt(x*x + y*y)
	cosPhi, sinPhi := 1.0, 0.0
	if r > math.SmallestNonzeroFloat64 {
		cosPhi, sinPhi = x/r, y/r
	}

	bXCart, err := m.poloidalHaloField(x, y, z)
	if err != nil {
		return vec.Vec3{}, err
	}
	bXCyl := cartToCyl([3]float64{bXCart.X, bXCart.Y, bXCart.Z}, cosPhi, sinPhi)

	bR := bXCyl.X
	bZ := bXCyl.Z

	bPhi := 0.0
	if m.par[TwistingTime] != 0 && r != 0 {
		// radial rotation curve parameters (fit to Reid et al 2014)
		const v0 = -240 * kilometer / second
		const r0 = 1.6 * kpc
		// vertical gradient (Levine+08)
		const z0 = 10 * kpc

		// Eq. (43)
		fr := 1 - math.Exp(-r/r0)
		// Eq. (44)
		const maxArg = 308 * math.Ln10
		arg := 2 * math.Abs(z) / z0
		if arg <= maxArg {
			t0 := math.Exp(arg)
			gz := 2 / (1 + t0)

			// Eq. (46)
			signZ := 1.0
			if z < 0 {
				signZ = -1
			}
			deltaZ := -signZ * v0 * fr / z0 * t0 * gz * gz
			// Eq. (47)
			deltaR := v0 * ((1-fr)/r0 - fr/r) * gz

			// Eq. (45)
			bPhi = (bZ*deltaZ + bR*deltaR) * m.par[TwistingTime]
		}
	}
	bCyl := [3]float64{bR, bPhi, bZ}
	return cylToCart(bCyl, cosPhi, sinPhi), nil
}

// sigmoid is the logistic transition 1/(1+exp(-(x-x0)/w)).
func sigmoid(x, x0, w float64) float64 {
	return 1 / (1 + math.Exp(-(x-x0)/w))
}

// deltaPhi is the angle between the unit vectors at azimuths phi0 and
// phi1.
func deltaPhi(phi0, phi1 float64) float64 {
	return math.Acos(math.Cos(phi1)*math.Cos(phi0) + math.Sin(phi1)*math.Sin(phi0))
}

func cylToCart(v [3]float64, cosPhi, sinPhi float64) vec.Vec3 {
	return vec.Vec3{
		X: v[0]*cosPhi - v[1]*sinPhi,
		Y: v[0]*sinPhi + v[1]*cosPhi,
		Z: v[2],
	}
}

func cartToCyl(v [3]float64, cosPhi, sinPhi float64) vec.Vec3 {
	return vec.Vec3{
		X: v[0]*cosPhi + v[1]*sinPhi,
		Y: -v[0]*sinPhi + v[1]*cosPhi,
		Z: v[2],
	}
}
