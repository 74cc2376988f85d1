package gmf

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrokit/galmag/internal/vec"
)

// Regression values computed once from the closed-form constants at
// fixed test positions (galactocentric kpc, field in microgauss).
var fieldFixtures = map[Variant]map[string]vec.Vec3{
	Base: {
		"origin":  {X: 0, Y: 1.970315682359306e-03, Z: 9.777548700000001e-01},
		"sun":     {X: 5.063887466432339e-02, Y: 2.825723938010825e-01, Z: 3.572383695077705e-04},
		"generic": {X: 6.608917771995059e-01, Y: -1.647646923460181e+00, Z: 6.635564974894255e-01},
	},
	NeCL: {
		"origin":  {X: 0, Y: 4.295063545290437e-05, Z: 9.838783100000000e-01},
		"sun":     {X: 9.644196559616502e-02, Y: 4.588893858511774e-01, Z: 4.286647146630500e-03},
		"generic": {X: 5.424665425561528e-01, Y: -1.607643095195553e+00, Z: 6.793880974613716e-01},
	},
	ExpX: {
		"origin":  {X: 0, Y: 1.891397258239217e-03, Z: 5.835799000000000e+00},
		"sun":     {X: 4.128860316547859e-02, Y: 2.321457535510894e-01, Z: 2.213688717194071e-01},
		"generic": {X: 5.541142543811445e-01, Y: -1.507111080495710e+00, Z: 5.473080314804027e-01},
	},
	Spur: {
		"origin":  {X: 0, Y: 6.433698263806518e-03, Z: 9.930298700000000e-01},
		"sun":     {X: 4.280122110266720e-02, Y: 1.952428336712088e-01, Z: 3.338777359060142e-04},
		"generic": {X: 6.615483848776970e-01, Y: -1.659779367973891e+00, Z: 6.652204420459925e-01},
	},
	CRE10: {
		"origin":  {X: 0, Y: 2.121765295054515e-03, Z: 9.693845299999999e-01},
		"sun":     {X: 5.231817245912544e-02, Y: 2.901956195441494e-01, Z: 3.093334417884265e-04},
		"generic": {X: 6.131871844173694e-01, Y: -1.569261037894139e+00, Z: 6.617732556387399e-01},
	},
	SynCG: {
		"origin":  {X: 0, Y: 2.092913977222272e-04, Z: 8.088373400000000e-01},
		"sun":     {X: 4.755031765747195e-02, Y: 2.721867313736696e-01, Z: 6.810703486707068e-03},
		"generic": {X: 5.012005586207733e-01, Y: -1.404791368037217e+00, Z: 5.256033707390787e-01},
	},
	TwistX: {
		"origin":  {X: 0, Y: 0, Z: 6.279311399990917e-01},
		"sun":     {X: 6.934994352905570e-02, Y: 7.827056597759810e-02, Z: 1.836168075782710e-01},
		"generic": {X: 4.299263198830502e-01, Y: -1.311084735367850e+00, Z: 4.358707738546639e-01},
	},
	NebCor: {
		"origin":  {X: 0, Y: 4.955761526263864e-03, Z: 1.348591600000000e+00},
		"sun":     {X: 6.767657219541318e-02, Y: 3.741669530955139e-01, Z: 2.025454107242074e-03},
		"generic": {X: 9.160472893227984e-01, Y: -2.234086221398579e+00, Z: 9.048107302541564e-01},
	},
}

var fixturePositions = map[string]vec.Vec3{
	"origin":  {},
	"sun":     {X: -8.178},
	"generic": {X: 5, Y: 4, Z: -2},
}

func requireVecClose(t *testing.T, want, got vec.Vec3, tol float64) {
	t.Helper()
	for _, c := range []struct {
		name      string
		want, got float64
	}{
		{"x", want.X, got.X},
		{"y", want.Y, got.Y},
		{"z", want.Z, got.Z},
	} {
		if c.want == 0 {
			require.InDelta(t, c.want, c.got, tol, "component %s", c.name)
		} else {
			require.InEpsilon(t, c.want, c.got, tol, "component %s", c.name)
		}
	}
}

func TestFieldRegression(t *testing.T) {
	for variant, points := range fieldFixtures {
		m, err := New(variant)
		require.NoError(t, err)
		for name, want := range points {
			b, err := m.Field(fixturePositions[name])
			require.NoError(t, err, "%s at %s", variant, name)
			requireVecClose(t, want, b, 1e-8)
		}
	}
}

func TestFieldZeroBeyondCutoff(t *testing.T) {
	// r = sqrt(25^2 + 20^2) > 30 kpc
	pos := vec.New(25, 20, 0)
	for _, v := range Variants() {
		m, err := New(v)
		require.NoError(t, err)
		b, err := m.Field(pos)
		require.NoError(t, err)
		require.Equal(t, vec.Vec3{}, b, "variant %s", v)
	}
}

func TestFieldCustomCutoff(t *testing.T) {
	m, err := New(Base, WithMaxRadius(5))
	require.NoError(t, err)
	require.Equal(t, 25.0, m.MaxRadius2())

	b, err := m.Field(vec.New(6, 0, 0))
	require.NoError(t, err)
	require.Equal(t, vec.Vec3{}, b)

	b, err = m.Field(vec.New(4, 0, 0))
	require.NoError(t, err)
	require.NotEqual(t, vec.Vec3{}, b)
}

func TestFieldOnAxis(t *testing.T) {
	// on the rotation axis the disk field vanishes and the poloidal
	// field is purely vertical, so only the toroidal term can give a
	// y component; nothing may divide by zero
	for _, v := range Variants() {
		m, err := New(v)
		require.NoError(t, err)
		for _, z := range []float64{-5, -0.5, 0, 0.5, 5} {
			b, err := m.Field(vec.New(0, 0, z))
			require.NoError(t, err, "variant %s z=%f", v, z)
			require.False(t, math.IsNaN(b.X) || math.IsNaN(b.Y) || math.IsNaN(b.Z),
				"variant %s z=%f: NaN component", v, z)
			require.Zero(t, b.X, "variant %s z=%f", v, z)
		}
	}
}

func TestNewUnknownVariant(t *testing.T) {
	_, err := New(Variant(99))
	require.True(t, errors.Is(err, ErrUnknownVariant))
}

func TestSetParametersLengthMismatch(t *testing.T) {
	m, err := New(Base)
	require.NoError(t, err)
	err = m.SetParameters(make([]float64, 7))
	require.True(t, errors.Is(err, ErrParamCount))
}

func TestParametersRoundTrip(t *testing.T) {
	pos := vec.New(-8.178, 0.5, 1.0)
	for _, v := range Variants() {
		m, err := New(v)
		require.NoError(t, err)

		before, err := m.Field(pos)
		require.NoError(t, err)

		par := m.Parameters()
		require.Len(t, par, int(NumParams))
		require.NoError(t, m.SetParameters(par))

		after, err := m.Field(pos)
		require.NoError(t, err)
		requireVecClose(t, before, after, 1e-12)
	}
}

func TestParameterAccess(t *testing.T) {
	m, err := New(Base)
	require.NoError(t, err)

	// external units: the pitch angle is in degrees
	require.InEpsilon(t, 1.0106900e+01, m.Parameter(DiskPitch), 1e-12)
	require.InEpsilon(t, 1.0878565e+00, m.Parameter(DiskB1), 1e-12)
	// unused spur parameters default to zero in the base variant
	require.Zero(t, m.Parameter(SpurCenter))
}

func TestSetParametersPerturbsField(t *testing.T) {
	m, err := New(Base)
	require.NoError(t, err)
	pos := vec.New(-8.178, 0, 0)

	nominal, err := m.Field(pos)
	require.NoError(t, err)

	par := m.Parameters()
	par[DiskB1] += 0.5
	require.NoError(t, m.SetParameters(par))

	perturbed, err := m.Field(pos)
	require.NoError(t, err)
	require.NotEqual(t, nominal, perturbed)
}

func TestExpXVerticalScaleFollowsOpeningAngle(t *testing.T) {
	m, err := New(ExpX)
	require.NoError(t, err)

	par := m.Parameters()
	wantZ := par[PoloidalA] * math.Tan(par[PoloidalXi]*math.Pi/180)
	require.InEpsilon(t, wantZ, m.Parameter(PoloidalZ), 1e-12)

	// changing xi re-derives z on set
	par[PoloidalXi] = 25
	require.NoError(t, m.SetParameters(par))
	wantZ = par[PoloidalA] * math.Tan(25*math.Pi/180)
	require.InEpsilon(t, wantZ, m.Parameter(PoloidalZ), 1e-12)
}
