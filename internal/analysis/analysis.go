// Package analysis derives summary statistics from Monte-Carlo draw
// ensembles: histograms and empirical quantiles of the line-of-sight
// integrals.
package analysis

import (
	"math"
	"sort"
)

type Histogram struct {
	Edges  []float64
	Counts []int
}

// NewHistogram bins data into nBins equal-width bins spanning the data
// range. A degenerate range produces a single bin holding everything.
func NewHistogram(data []float64, nBins int) Histogram {
	if nBins < 1 {
		nBins = 1
	}
	if len(data) == 0 {
		return Histogram{Edges: []float64{0, 1}, Counts: make([]int, 1)}
	}

	lo, hi := data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		nBins = 1
		hi = lo + 1
	}

	h := Histogram{
		Edges:  make([]float64, nBins+1),
		Counts: make([]int, nBins),
	}
	width := (hi - lo) / float64(nBins)
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	for _, v := range data {
		idx := int((v - lo) / width)
		if idx >= nBins {
			idx = nBins - 1
		}
		h.Counts[idx]++
	}
	return h
}

// Normalized returns bin counts as fractions of the total.
func (h Histogram) Normalized() []float64 {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	out := make([]float64, len(h.Counts))
	if total == 0 {
		return out
	}
	for i, c := range h.Counts {
		out[i] = float64(c) / float64(total)
	}
	return out
}

// Quantile returns the empirical q-quantile of data using linear
// interpolation between order statistics. q is clamped to [0, 1].
func Quantile(data []float64, q float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}

type Summary struct {
	Min    float64
	Q16    float64
	Median float64
	Q84    float64
	Max    float64
}

// Summarize computes the five-point summary used in run reports. The
// 16th and 84th percentiles bracket one sigma for a Gaussian ensemble.
func Summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	return Summary{
		Min:    Quantile(data, 0),
		Q16:    Quantile(data, 0.16),
		Median: Quantile(data, 0.5),
		Q84:    Quantile(data, 0.84),
		Max:    Quantile(data, 1),
	}
}
