package element

import (
	"fmt"

	"github.com/notargets/tabulate/element/library/gonudg"
	"gonum.org/v1/gonum/mat"
)

// ElementProperties contains metadata describing an element type
type ElementProperties struct {
	Name       string         // Full descriptive name (e.g., "Lagrange Triangle Order 3")
	ShortName  string         // Abbreviated name (e.g., "Tri3")
	Type       CellType       // Element shape
	Order      int            // Polynomial order
	Np         int            // Total number of nodes in element
	NFp        int            // Number of nodes per facet
	NFaces     int            // Number of facets
	Dimensions Dimensionality // Topological dimension
}

// ReferenceGeometry is the node layout on the reference cell with vertices
// (0,0), (1,0), (0,1)
type ReferenceGeometry struct {
	X, Y []float64 // Length Np each

	VertexPoints []int   // Indices of nodes located at vertices
	FacePoints   [][]int // [facet][nodes], ordered along the facet's vertex order
}

// NodalModalMatrices relates the nodal basis to the orthonormal modal basis
type NodalModalMatrices struct {
	V    mat.Matrix // Vandermonde matrix: modal to nodal [Np × Np]
	Vinv mat.Matrix // nodal to modal [Np × Np]
}

// Lagrange is the nodal Lagrange element on the reference triangle with
// equispaced nodes numbered row by row from vertex 0
type Lagrange struct {
	props ElementProperties
	geom  ReferenceGeometry
	nm    NodalModalMatrices
}

// NewLagrange builds the element of the given order. Order must be at least 1.
func NewLagrange(order int) *Lagrange {
	if order < 1 {
		panic(fmt.Sprintf("lagrange order must be at least 1, got %d", order))
	}
	Np := (order + 1) * (order + 2) / 2
	le := &Lagrange{
		props: ElementProperties{
			Name:       fmt.Sprintf("Lagrange Triangle Order %d", order),
			ShortName:  fmt.Sprintf("Tri%d", order),
			Type:       Triangle,
			Order:      order,
			Np:         Np,
			NFp:        order + 1,
			NFaces:     3,
			Dimensions: D2,
		},
	}

	X := make([]float64, 0, Np)
	Y := make([]float64, 0, Np)
	N := float64(order)
	for j := 0; j <= order; j++ {
		for i := 0; i <= order-j; i++ {
			X = append(X, float64(i)/N)
			Y = append(Y, float64(j)/N)
		}
	}
	le.geom = ReferenceGeometry{
		X:            X,
		Y:            Y,
		VertexPoints: []int{0, order, Np - 1},
		FacePoints:   make([][]int, 3),
	}
	for f := 0; f < 3; f++ {
		le.geom.FacePoints[f] = le.facetNodes(f)
	}

	R, S := toBiunit(X, Y)
	V := gonudg.Vandermonde2D(order, R, S)
	var Vinv mat.Dense
	if err := Vinv.Inverse(V); err != nil {
		panic(fmt.Sprintf("singular vandermonde for order %d: %v", order, err))
	}
	le.nm = NodalModalMatrices{V: V, Vinv: &Vinv}
	return le
}

// facetNodes collects the nodes on facet f walking from the facet's first
// vertex to its second
func (le *Lagrange) facetNodes(f int) []int {
	fv := Triangle.FacetVertices(f)
	a, b := le.geom.VertexPoints[fv[0]], le.geom.VertexPoints[fv[1]]
	xa, ya := le.geom.X[a], le.geom.Y[a]
	xb, yb := le.geom.X[b], le.geom.Y[b]

	nodes := make([]int, le.props.NFp)
	for n := range le.geom.X {
		// colinear with the facet
		cross := (xb-xa)*(le.geom.Y[n]-ya) - (yb-ya)*(le.geom.X[n]-xa)
		if cross > 1e-12 || cross < -1e-12 {
			continue
		}
		dx, dy := le.geom.X[n]-xa, le.geom.Y[n]-ya
		t := (dx*(xb-xa) + dy*(yb-ya)) / ((xb-xa)*(xb-xa) + (yb-ya)*(yb-ya))
		nodes[int(t*float64(le.props.Order)+0.5)] = n
	}
	return nodes
}

// GetProperties returns the element metadata
func (le *Lagrange) GetProperties() ElementProperties { return le.props }

// GetReferenceGeometry returns a copy of the node layout
func (le *Lagrange) GetReferenceGeometry() ReferenceGeometry {
	g := ReferenceGeometry{
		X:            append([]float64(nil), le.geom.X...),
		Y:            append([]float64(nil), le.geom.Y...),
		VertexPoints: append([]int(nil), le.geom.VertexPoints...),
		FacePoints:   make([][]int, len(le.geom.FacePoints)),
	}
	for i, f := range le.geom.FacePoints {
		g.FacePoints[i] = append([]int(nil), f...)
	}
	return g
}

// GetNodalModal returns the Vandermonde matrix and its inverse
func (le *Lagrange) GetNodalModal() NodalModalMatrices { return le.nm }

// Np returns the number of basis functions
func (le *Lagrange) Np() int { return le.props.Np }

// Descriptor returns the element's content definition with the given block size
func (le *Lagrange) Descriptor(blockSize int) Descriptor {
	return P(Triangle, le.props.Order).Vector(blockSize)
}

// Tabulate evaluates every basis function at the rows of points (reference
// coordinates, two columns). values, dx and dy are [npoints × Np].
func (le *Lagrange) Tabulate(points mat.Matrix) (values, dx, dy *mat.Dense) {
	np, dim := points.Dims()
	if dim != 2 {
		panic(fmt.Sprintf("triangle points need 2 columns, got %d", dim))
	}
	X := make([]float64, np)
	Y := make([]float64, np)
	for i := 0; i < np; i++ {
		X[i], Y[i] = points.At(i, 0), points.At(i, 1)
	}
	R, S := toBiunit(X, Y)

	V := gonudg.Vandermonde2D(le.props.Order, R, S)
	Vr, Vs := gonudg.GradVandermonde2D(le.props.Order, R, S)

	values = mat.NewDense(np, le.props.Np, nil)
	dx = mat.NewDense(np, le.props.Np, nil)
	dy = mat.NewDense(np, le.props.Np, nil)
	values.Mul(V, le.nm.Vinv)
	dx.Mul(Vr, le.nm.Vinv)
	dy.Mul(Vs, le.nm.Vinv)
	// r = 2x-1, s = 2y-1
	dx.Scale(2, dx)
	dy.Scale(2, dy)
	return
}

// toBiunit maps [0,1] reference coordinates to the [-1,1] triangle used by
// the modal basis
func toBiunit(X, Y []float64) (R, S []float64) {
	R = make([]float64, len(X))
	S = make([]float64, len(Y))
	for i := range X {
		R[i] = 2*X[i] - 1
		S[i] = 2*Y[i] - 1
	}
	return
}
