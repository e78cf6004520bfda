package coupler

// Mesh enumerates the vertices of a solver mesh. The enumeration order must be
// stable and reproducible for a fixed mesh: the coupler derives the vertex
// ordering of all data arrays from it.
type Mesh interface {
	NumVertices() int
	Vertex(i int) []float64
}

// BoundaryPredicate decides membership of a point in the coupling boundary.
// Solver bindings implement it on top of their subdomain machinery.
type BoundaryPredicate interface {
	Inside(p []float64, onBoundaryOnly bool) bool
}

// SliceMesh is a Mesh backed by a plain coordinate slice, in slice order.
type SliceMesh [][]float64

// NumVertices returns the number of vertices.
func (m SliceMesh) NumVertices() int { return len(m) }

// Vertex returns the i-th vertex coordinates.
func (m SliceMesh) Vertex(i int) []float64 { return m[i] }

// BoundaryVertexSet is the ordered set of coupling-boundary vertices. Coords
// and VertexIDs are index-aligned 1:1; the ordering is fixed once extracted.
type BoundaryVertexSet struct {
	Dims      int
	Coords    [][]float64
	VertexIDs []int
}

// Len returns the number of boundary vertices.
func (vs *BoundaryVertexSet) Len() int { return len(vs.Coords) }

// Flatten returns the coordinates interleaved per vertex (x0 y0 [z0] x1 y1 ...),
// the layout SetMeshVertices expects.
func (vs *BoundaryVertexSet) Flatten() []float64 {
	flat := make([]float64, 0, len(vs.Coords)*vs.Dims)
	for _, p := range vs.Coords {
		flat = append(flat, p...)
	}
	return flat
}

// ExtractBoundaryVertices scans mesh in traversal order and collects the
// vertices for which boundary reports membership. dims is the coupling
// dimension reported by the coordinator.
//
// For dims == 3 the third coordinate is synthesized as zero: proper 3-D
// coupling is not supported, only the pseudo-3-D pairing of a 2-D solver with
// a 3-D remote participant. Known limitation, kept on purpose.
func ExtractBoundaryVertices(mesh Mesh, boundary BoundaryPredicate, dims int) (*BoundaryVertexSet, int, error) {
	if boundary == nil {
		return nil, 0, ConfigurationError{Item: "coupling boundary", Reason: "no boundary predicate defined"}
	}
	if dims != 2 && dims != 3 {
		return nil, 0, ConfigurationError{Item: "dimensions", Reason: "coupling dimension must be 2 or 3"}
	}
	vs := &BoundaryVertexSet{Dims: dims}
	for i := 0; i < mesh.NumVertices(); i++ {
		p := mesh.Vertex(i)
		if !boundary.Inside(p, true) {
			continue
		}
		if dims == 2 {
			vs.Coords = append(vs.Coords, []float64{p[0], p[1]})
		} else {
			vs.Coords = append(vs.Coords, []float64{p[0], p[1], 0})
		}
	}
	vs.VertexIDs = make([]int, vs.Len())
	return vs, vs.Len(), nil
}
