package covariance

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrokit/galmag/internal/gmf"
)

// Original MINOS (up+low)/2 parameter uncertainties of the base fit;
// sqrt(diag V) must reproduce these.
var baseSigmas = []float64{
	1.39562e-01, 2.07490e-01, 1.50666e-01,
	8.50628e+00, 2.79908e+00, 2.17837e+00, 1.29000e-01,
	3.13721e-01, 2.95585e-01, 1.71916e-01, 4.01536e-01,
	6.98928e-01, 3.31716e-02, 9.21029e-02, 5.67779e-02,
	2.85741e-02, 4.03012e-01, 3.23158e-02, 2.54924e-02,
	3.35535e-02,
}

func TestNewUnknownVariant(t *testing.T) {
	_, err := New(gmf.Variant(42))
	require.True(t, errors.Is(err, gmf.ErrUnknownVariant))
}

func TestNewMissingData(t *testing.T) {
	// twistX is a defined variant but its fitted table is not part of
	// the bundled reference data
	_, err := New(gmf.TwistX)
	require.True(t, errors.Is(err, ErrNoCovarianceData))
}

func TestPackedTableConsistency(t *testing.T) {
	for variant, l := range factors {
		n := len(indexMaps[variant])
		require.Equal(t, n*(n+1)/2, len(l),
			"variant %s: packed length inconsistent with index list", variant)
	}
}

func TestDimension(t *testing.T) {
	e, err := New(gmf.Base)
	require.NoError(t, err)
	require.Equal(t, 20, e.Dimension())
	require.Len(t, e.CholeskyFactor(), 20*21/2)
	require.Len(t, e.ParameterIndices(), 20)
}

func TestCovarianceSymmetric(t *testing.T) {
	e, err := New(gmf.Base)
	require.NoError(t, err)
	v := e.CovarianceMatrix()
	for i := range v {
		for j := range v[i] {
			require.Equal(t, v[i][j], v[j][i], "V[%d][%d]", i, j)
		}
	}
}

func TestDiagonalMatchesFittedUncertainties(t *testing.T) {
	e, err := New(gmf.Base)
	require.NoError(t, err)
	v := e.CovarianceMatrix()
	require.Len(t, baseSigmas, e.Dimension())
	for i, sigma := range baseSigmas {
		require.InEpsilon(t, sigma, math.Sqrt(v[i][i]), 1e-5, "parameter %d", i)
	}
}

func TestCorrelationMatrix(t *testing.T) {
	e, err := New(gmf.Base)
	require.NoError(t, err)
	rho := e.CorrelationMatrix()
	for i := range rho {
		require.InDelta(t, 1.0, rho[i][i], 1e-14, "rho[%d][%d]", i, i)
		for j := range rho[i] {
			require.LessOrEqual(t, math.Abs(rho[i][j]), 1.0+1e-14, "rho[%d][%d]", i, j)
		}
	}
}

func TestRandomOffsetDimensionMismatch(t *testing.T) {
	e, err := New(gmf.Base)
	require.NoError(t, err)
	_, err = e.RandomOffset(make([]float64, 3))
	require.True(t, errors.Is(err, ErrDimension))
}

func TestRandomOffsetDeterministic(t *testing.T) {
	e, err := New(gmf.Base)
	require.NoError(t, err)

	z := make([]float64, e.Dimension())
	rng := rand.New(rand.NewSource(7))
	for i := range z {
		z[i] = rng.NormFloat64()
	}

	d1, err := e.RandomOffset(z)
	require.NoError(t, err)
	d2, err := e.RandomOffset(z)
	require.NoError(t, err)
	require.Equal(t, d1, d2)
}

func TestRandomOffsetLinearMap(t *testing.T) {
	e, err := New(gmf.Base)
	require.NoError(t, err)

	// delta = L*z for the constant vector z = 0.5 has a closed form
	// checked against the packed table
	z := make([]float64, e.Dimension())
	for i := range z {
		z[i] = 0.5
	}
	delta, err := e.RandomOffset(z)
	require.NoError(t, err)

	require.InEpsilon(t, 6.978100000000000e-02, delta[0], 1e-12)
	require.InEpsilon(t, 1.772812000000000e+00, delta[5], 1e-12)
	require.InEpsilon(t, -1.002500500000000e-02, delta[19], 1e-12)

	// zero input maps to zero offset
	zero, err := e.RandomOffset(make([]float64, e.Dimension()))
	require.NoError(t, err)
	for i, d := range zero {
		require.Zero(t, d, "delta[%d]", i)
	}
}

func TestSampleCovarianceConverges(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Monte-Carlo convergence test in short mode")
	}

	e, err := New(gmf.Base)
	require.NoError(t, err)
	n := e.Dimension()
	v := e.CovarianceMatrix()

	const nDraw = 100000
	// variances: relative accuracy, 4 sigma margin
	relTolVar := 4 * math.Sqrt(2.0/(nDraw+1))
	// off-diagonal: absolute accuracy of the correlation coefficient
	maxDeltaRho := 0.01 * 1000 / math.Sqrt(nDraw)

	rng := rand.New(rand.NewSource(123))
	cov := make([]float64, n*(n+1)/2)
	z := make([]float64, n)
	for draw := 0; draw < nDraw; draw++ {
		for i := range z {
			z[i] = rng.NormFloat64()
		}
		delta, err := e.RandomOffset(z)
		require.NoError(t, err)
		k := 0
		for i := 0; i < n; i++ {
			for j := 0; j <= i; j++ {
				cov[k] += delta[i] * delta[j]
				k++
			}
		}
	}
	for k := range cov {
		cov[k] /= nDraw - 1
	}

	k := 0
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			if i == j {
				require.InEpsilon(t, v[i][j], cov[k], relTolVar, "variance %d", i)
			} else {
				denom := math.Sqrt(v[i][i] * v[j][j])
				require.InDelta(t, v[i][j]/denom, cov[k]/denom, maxDeltaRho,
					"correlation (%d,%d)", i, j)
			}
			k++
		}
	}
}

func TestVariantsWithData(t *testing.T) {
	vs := Variants()
	require.Contains(t, vs, gmf.Base)
	for _, v := range vs {
		e, err := New(v)
		require.NoError(t, err)
		require.Positive(t, e.Dimension())
	}
}
