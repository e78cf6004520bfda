package coupler

import "fmt"

// PointEvaluableField is a solver field which can be evaluated at a point.
// Concrete solver bindings implement it for their native field objects.
type PointEvaluableField interface {
	EvaluateAt(p []float64) float64
}

// sampleField evaluates field at every boundary vertex and returns one scalar
// per vertex, order-aligned with vs. Evaluation is 2-D: for a pseudo-3-D
// coupling the synthesized z coordinate never reaches the field.
func sampleField(field interface{}, vs *BoundaryVertexSet) ([]float64, error) {
	f, ok := field.(PointEvaluableField)
	if !ok {
		return nil, fmt.Errorf("%w: cannot sample %T", ErrUnsupportedField, field)
	}
	vals := make([]float64, vs.Len())
	for i, p := range vs.Coords {
		vals[i] = f.EvaluateAt(p[:2])
	}
	return vals, nil
}

// BoundaryCondition is the read-side boundary field: nodal data received from
// the coordinator turned into a continuous field via scattered interpolation.
// It is rebuilt from scratch on every boundary-data update and immutable in
// between, so concurrent evaluation is safe.
type BoundaryCondition struct {
	kind   string
	axis   int
	interp Interpolant
}

func newBoundaryCondition(kind string) *BoundaryCondition {
	if kind == "" {
		kind = InterpolationRBF
	}
	// The linear strategy interpolates along the second coordinate, matching
	// a coupling boundary that runs parallel to the y axis.
	return &BoundaryCondition{kind: kind, axis: 1}
}

// update discards the previous interpolant and builds a fresh one over the
// boundary coordinates and the newly received values.
func (bc *BoundaryCondition) update(vs *BoundaryVertexSet, vals []float64) error {
	coords := make([][]float64, vs.Len())
	for i, p := range vs.Coords {
		coords[i] = p[:2]
	}
	var err error
	switch bc.kind {
	case InterpolationLinear:
		bc.interp, err = NewLinearInterpolant(coords, vals, bc.axis)
	default:
		bc.interp, err = NewRBFInterpolant(coords, vals)
	}
	return err
}

// EvaluateAt evaluates the boundary condition at p. It implements
// PointEvaluableField so a read field can itself be sampled again.
func (bc *BoundaryCondition) EvaluateAt(p []float64) float64 {
	return bc.interp.ValueAt(p[:2])
}
