package reference

import (
	"math"

	"github.com/notargets/tabulate/element"
	"github.com/notargets/tabulate/kernel"
	"github.com/notargets/tabulate/quadrature"
	"gonum.org/v1/gonum/mat"
)

// table is a basis tabulated at the points of a quadrature rule
type table struct {
	n       int        // basis functions
	weights []float64  // one per point
	phi     *mat.Dense // [points × n]
}

// facetVertices of the reference triangle, copied here so kernels do not
// allocate
var facetVertices = [3][2]int{{1, 2}, {0, 2}, {0, 1}}

func cellTable(le *element.Lagrange, degree int) table {
	rule := quadrature.Triangle(degree)
	vals, _, _ := le.Tabulate(rule.Points)
	return table{n: le.Np(), weights: rule.Weights, phi: vals}
}

// facetTables tabulates the basis on every facet for each permutation code
// of an interval: tables[facet][code]
func facetTables(le *element.Lagrange, degree int) [3][2]table {
	rule := quadrature.Interval(degree)
	var out [3][2]table
	for f := 0; f < 3; f++ {
		for code := 0; code < 2; code++ {
			local, err := quadrature.Permute(element.Interval, rule.Points, uint8(code))
			if err != nil {
				panic(err)
			}
			pts, err := quadrature.MapToFacet(element.Triangle, f, local)
			if err != nil {
				panic(err)
			}
			vals, _, _ := le.Tabulate(pts)
			out[f][code] = table{n: le.Np(), weights: rule.Weights, phi: vals}
		}
	}
	return out
}

// flat casts a matrix to a row-major slice of T
func flat[T kernel.Scalar](m mat.Matrix) []T {
	r, c := m.Dims()
	out := make([]T, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[i*c+j] = kernel.Cast[T](m.At(i, j))
		}
	}
	return out
}

func castSlice[T kernel.Scalar](v []float64) []T {
	out := make([]T, len(v))
	for i, x := range v {
		out[i] = kernel.Cast[T](x)
	}
	return out
}

// cellScale returns |det J| of the affine map onto the triangle whose
// coordinate dofs start at off
func cellScale[R kernel.Real](x []R, off int) float64 {
	x0, y0 := x[off], x[off+1]
	x1, y1 := x[off+3], x[off+4]
	x2, y2 := x[off+6], x[off+7]
	det := float64((x1-x0)*(y2-y0) - (x2-x0)*(y1-y0))
	return math.Abs(det)
}

// facetScale returns the physical length of facet f of the triangle whose
// coordinate dofs start at off. Reference facets have length 1.
func facetScale[R kernel.Real](x []R, off, f int) float64 {
	a := off + facetVertices[f][0]*kernel.GeometricDimension
	b := off + facetVertices[f][1]*kernel.GeometricDimension
	sum := 0.0
	for d := 0; d < kernel.GeometricDimension; d++ {
		diff := float64(x[b+d] - x[a+d])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
