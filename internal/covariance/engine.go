// Package covariance propagates the fitted parameter uncertainties of
// the coherent field model. Each variant's covariance matrix V is
// stored as a packed lower-triangular Cholesky factor L with
// V = L*L^T; correlated parameter offsets follow from independent
// standard-normal draws via delta = L*z.
package covariance

import (
	"errors"
	"fmt"
	"math"

	"github.com/astrokit/galmag/internal/gmf"
)

// ErrNoCovarianceData is returned for defined variants whose fitted
// Cholesky factor is not part of the bundled reference data.
var ErrNoCovarianceData = errors.New("no fitted covariance data for variant")

// ErrDimension is returned when an input vector does not match the
// matrix dimension.
var ErrDimension = errors.New("dimension mismatch")

// Engine holds the covariance data of one model variant. It is
// immutable after construction and holds no random state, so it is
// safe to share across goroutines.
type Engine struct {
	variant gmf.Variant
	l       []float64
	indices []gmf.ParamID
	v       [][]float64
}

// New constructs the covariance engine for a variant.
func New(variant gmf.Variant) (*Engine, error) {
	if !variant.Valid() {
		return nil, fmt.Errorf("%w: %d", gmf.ErrUnknownVariant, int(variant))
	}
	l, ok := factors[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCovarianceData, variant)
	}
	indices := indexMaps[variant]

	// the packed length must imply an integer dimension matching the
	// index list
	n := packedDimension(len(l))
	if n*(n+1)/2 != len(l) || n != len(indices) {
		return nil, fmt.Errorf("covariance table for %s: %d packed entries inconsistent with %d indices",
			variant, len(l), len(indices))
	}

	return &Engine{
		variant: variant,
		l:       l,
		indices: indices,
		v:       denseFromPacked(l, n),
	}, nil
}

// packedDimension inverts count = n(n+1)/2.
func packedDimension(count int) int {
	return int((math.Sqrt(float64(1+8*count)) - 1) / 2)
}

// packedIndex is the row-major packed lower-triangular index of
// element (i, j), j <= i.
func packedIndex(i, j int) int {
	return i*(i+1)/2 + j
}

// denseFromPacked computes V = L*L^T.
func denseFromPacked(l []float64, n int) [][]float64 {
	v := make([][]float64, n)
	for i := range v {
		v[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := 0.0
			for k := 0; k <= j; k++ {
				sum += l[packedIndex(i, k)] * l[packedIndex(j, k)]
			}
			v[i][j] = sum
			v[j][i] = sum
		}
	}
	return v
}

// Variant returns the model variant this engine covers.
func (e *Engine) Variant() gmf.Variant {
	return e.variant
}

// Dimension returns the covariance matrix dimension n.
func (e *Engine) Dimension() int {
	return len(e.indices)
}

// CholeskyFactor returns a copy of the packed lower-triangular factor.
func (e *Engine) CholeskyFactor() []float64 {
	out := make([]float64, len(e.l))
	copy(out, e.l)
	return out
}

// ParameterIndices returns the parameter identifiers corresponding to
// the matrix rows/columns.
func (e *Engine) ParameterIndices() []gmf.ParamID {
	out := make([]gmf.ParamID, len(e.indices))
	copy(out, e.indices)
	return out
}

// CovarianceMatrix returns a copy of the dense covariance matrix V.
func (e *Engine) CovarianceMatrix() [][]float64 {
	out := make([][]float64, len(e.v))
	for i, row := range e.v {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}

// CorrelationMatrix returns V normalized by its diagonal,
// rho[i][j] = V[i][j] / sqrt(V[i][i]*V[j][j]).
func (e *Engine) CorrelationMatrix() [][]float64 {
	n := len(e.v)
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			out[i][j] = e.v[i][j] / math.Sqrt(e.v[i][i]*e.v[j][j])
		}
	}
	return out
}

// RandomOffset maps a vector of independent standard-normal draws z
// to a correlated parameter offset delta = L*z. If z ~ N(0, I) then
// delta ~ N(0, V). Offsets are ordered like ParameterIndices and are
// in external units.
func (e *Engine) RandomOffset(z []float64) ([]float64, error) {
	n := len(e.indices)
	if len(z) != n {
		return nil, fmt.Errorf("%w: need %d standard normals, got %d", ErrDimension, n, len(z))
	}
	delta := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for k := 0; k <= i; k++ {
			sum += e.l[packedIndex(i, k)] * z[k]
		}
		delta[i] = sum
	}
	return delta, nil
}

// Variants returns the variants with embedded covariance data.
func Variants() []gmf.Variant {
	var out []gmf.Variant
	for _, v := range gmf.Variants() {
		if _, ok := factors[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
