package coupler

import (
	"fmt"
	"math"
	"sort"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// Interpolant is a continuous field evaluator bound to a fixed sample set.
// Implementations are immutable after construction and safe for concurrent
// queries; a changed sample set means building a new Interpolant.
type Interpolant interface {
	ValueAt(p []float64) float64
}

// RBFInterpolant interpolates scattered samples with multiquadric radial basis
// functions, one center per sample. Evaluation cost grows linearly with the
// sample count. Queries must carry the dimensionality used at build time.
type RBFInterpolant struct {
	dims    int
	centers [][]float64
	weights []float64
	epsilon float64
}

// NewRBFInterpolant solves for the basis weights which reproduce values at
// coords exactly. Supports 1, 2 or 3 coordinate axes.
func NewRBFInterpolant(coords [][]float64, values []float64) (*RBFInterpolant, error) {
	n := len(coords)
	if n == 0 || n != len(values) {
		return nil, fmt.Errorf("coupler: rbf needs equally many coordinates and values, got %d and %d", n, len(values))
	}
	dims := len(coords[0])
	if dims < 1 || dims > 3 {
		return nil, fmt.Errorf("coupler: rbf supports 1 to 3 axes, got %d", dims)
	}

	f := &RBFInterpolant{dims: dims, epsilon: rbfEpsilon(coords)}
	f.centers = make([][]float64, n)
	for i, p := range coords {
		f.centers[i] = append([]float64(nil), p...)
	}

	a := mat64.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			φ := f.basis(distance(f.centers[i], f.centers[j]))
			a.Set(i, j, φ)
			a.Set(j, i, φ)
		}
	}
	w := mat64.NewVector(n, nil)
	if err := w.SolveVec(a, mat64.NewVector(n, append([]float64(nil), values...))); err != nil {
		return nil, fmt.Errorf("coupler: rbf system is singular: %v", err)
	}
	f.weights = w.RawVector().Data
	return f, nil
}

// ValueAt evaluates the interpolant at p, which must have the build dimensionality.
func (f *RBFInterpolant) ValueAt(p []float64) float64 {
	var v float64
	for j, c := range f.centers {
		v += f.weights[j] * f.basis(distance(p[:f.dims], c))
	}
	return v
}

// basis is the multiquadric √((r/ε)²+1).
func (f *RBFInterpolant) basis(r float64) float64 {
	q := r / f.epsilon
	return math.Sqrt(q*q + 1)
}

// rbfEpsilon estimates the shape parameter as the average sample spacing,
// from the bounding box edges that have nonzero extent.
func rbfEpsilon(coords [][]float64) float64 {
	dims := len(coords[0])
	min := append([]float64(nil), coords[0]...)
	max := append([]float64(nil), coords[0]...)
	for _, p := range coords[1:] {
		for d := 0; d < dims; d++ {
			min[d] = math.Min(min[d], p[d])
			max[d] = math.Max(max[d], p[d])
		}
	}
	prod, edges := 1.0, 0
	for d := 0; d < dims; d++ {
		if edge := max[d] - min[d]; !floats.EqualWithinAbs(edge, 0, 1e-14) {
			prod *= edge
			edges++
		}
	}
	if edges == 0 {
		return 1 // all samples coincide; any shape parameter does
	}
	return math.Pow(prod/float64(len(coords)), 1/float64(edges))
}

func distance(a, b []float64) float64 {
	var s float64
	for d := range a {
		δ := a[d] - b[d]
		s += δ * δ
	}
	return math.Sqrt(s)
}

// LinearInterpolant is 1-D piecewise-linear interpolation along one designated
// coordinate axis. Out-of-range queries extrapolate from the end segments
// rather than fail; that is deliberate, not a gap.
type LinearInterpolant struct {
	axis   int
	xs, ys []float64 // sorted ascending by xs
}

// NewLinearInterpolant builds the interpolant over coords[i][axis] ↦ values[i].
func NewLinearInterpolant(coords [][]float64, values []float64, axis int) (*LinearInterpolant, error) {
	n := len(coords)
	if n != len(values) {
		return nil, fmt.Errorf("coupler: linear interpolation needs equally many coordinates and values, got %d and %d", n, len(values))
	}
	if n < 2 {
		return nil, fmt.Errorf("coupler: linear interpolation needs at least 2 samples, got %d", n)
	}
	if axis < 0 || axis >= len(coords[0]) {
		return nil, fmt.Errorf("coupler: interpolation axis %d out of range", axis)
	}
	li := &LinearInterpolant{axis: axis, xs: make([]float64, n), ys: make([]float64, n)}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return coords[order[a]][axis] < coords[order[b]][axis] })
	for i, idx := range order {
		li.xs[i] = coords[idx][axis]
		li.ys[i] = values[idx]
	}
	return li, nil
}

// ValueAt evaluates at p using only the designated axis coordinate.
func (li *LinearInterpolant) ValueAt(p []float64) float64 {
	x := p[li.axis]
	// Segment whose left node is the last xs ≤ x, clamped so that queries
	// beyond either end reuse the outermost segment (extrapolation).
	seg := sort.SearchFloat64s(li.xs, x) - 1
	if seg < 0 {
		seg = 0
	}
	if seg > len(li.xs)-2 {
		seg = len(li.xs) - 2
	}
	x0, x1 := li.xs[seg], li.xs[seg+1]
	y0, y1 := li.ys[seg], li.ys[seg+1]
	if floats.EqualWithinAbs(x1, x0, 1e-14) {
		return y0
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}
