// Package quadrature builds the point sets kernels integrate with: Gauss
// rules on the reference interval and triangle, facet rules mapped into a
// cell, and the reorderings that align facet points seen from the two cells
// sharing an interior facet.
package quadrature

import (
	"fmt"

	"github.com/notargets/tabulate/element"
	"github.com/notargets/tabulate/element/library/gonudg"
	"gonum.org/v1/gonum/mat"
)

// Rule is a set of points (one per row) and weights on a reference cell
type Rule struct {
	Cell    element.CellType
	Points  *mat.Dense
	Weights []float64
}

// NumPoints returns the number of quadrature points
func (r Rule) NumPoints() int {
	return len(r.Weights)
}

// pointsPerDirection returns the Gauss point count exact for degree q
func pointsPerDirection(degree int) int {
	if degree < 0 {
		panic(fmt.Sprintf("negative quadrature degree %d", degree))
	}
	return degree/2 + 1
}

// GaussJacobi returns the n-point rule on [0,1] exact for polynomials of
// degree 2n-1
func GaussJacobi(n int) (x, w []float64) {
	r, wr := gonudg.JacobiGQ(0, 0, n-1)
	x = make([]float64, n)
	w = make([]float64, n)
	for i := range r {
		x[i] = (1 + r[i]) / 2
		w[i] = wr[i] / 2
	}
	return
}

// Interval returns a rule on [0,1] exact for polynomials of the given degree
func Interval(degree int) Rule {
	x, w := GaussJacobi(pointsPerDirection(degree))
	return Rule{
		Cell:    element.Interval,
		Points:  mat.NewDense(len(x), 1, x),
		Weights: w,
	}
}

// Triangle returns a collapsed Gauss rule on the triangle (0,0), (1,0), (0,1)
// exact for polynomials of the given degree. Weights sum to 1/2.
func Triangle(degree int) Rule {
	n := pointsPerDirection(degree + 1)
	a, wa := gonudg.JacobiGQ(0, 0, n-1)
	// the (1-b) Jacobian of the collapse is absorbed into the weight
	b, wb := gonudg.JacobiGQ(1, 0, n-1)

	pts := mat.NewDense(n*n, 2, nil)
	w := make([]float64, n*n)
	k := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pts.Set(k, 0, (1+a[i])*(1-b[j])/4)
			pts.Set(k, 1, (1+b[j])/2)
			w[k] = wa[i] * wb[j] / 8
			k++
		}
	}
	return Rule{Cell: element.Triangle, Points: pts, Weights: w}
}

// Quadrilateral returns a tensor Gauss rule on the unit square
func Quadrilateral(degree int) Rule {
	x, w := GaussJacobi(pointsPerDirection(degree))
	n := len(x)
	pts := mat.NewDense(n*n, 2, nil)
	wt := make([]float64, n*n)
	k := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pts.Set(k, 0, x[i])
			pts.Set(k, 1, x[j])
			wt[k] = w[i] * w[j]
			k++
		}
	}
	return Rule{Cell: element.Quadrilateral, Points: pts, Weights: wt}
}

// New returns a rule for the given cell
func New(cell element.CellType, degree int) (Rule, error) {
	switch cell {
	case element.Interval:
		return Interval(degree), nil
	case element.Triangle:
		return Triangle(degree), nil
	case element.Quadrilateral:
		return Quadrilateral(degree), nil
	default:
		return Rule{}, fmt.Errorf("no quadrature for %s", cell)
	}
}

// MapToFacet maps points on the reference facet into facet f of cell.
// Simplex facets map affinely and quadrilateral facets bilinearly.
func MapToFacet(cell element.CellType, f int, facetPoints mat.Matrix) (*mat.Dense, error) {
	ft := cell.FacetType(f)
	np, fdim := facetPoints.Dims()
	if fdim != int(ft.Dimensions()) && !(ft == element.Point && fdim <= 1) {
		return nil, fmt.Errorf("facet %d of %s is a %s, points have %d columns", f, cell, ft, fdim)
	}
	verts := cell.Vertices()
	fv := cell.FacetVertices(f)
	v0 := verts[fv[0]]
	dim := len(v0)

	out := mat.NewDense(np, dim, nil)
	for i := 0; i < np; i++ {
		for d := 0; d < dim; d++ {
			x := v0[d]
			switch ft {
			case element.Interval, element.Triangle:
				for k := 0; k < fdim; k++ {
					x += facetPoints.At(i, k) * (verts[fv[k+1]][d] - v0[d])
				}
			case element.Quadrilateral:
				p0, p1 := facetPoints.At(i, 0), facetPoints.At(i, 1)
				v1, v2, v3 := verts[fv[1]][d], verts[fv[2]][d], verts[fv[3]][d]
				x += p0*(v1-v0[d]) + p1*(v2-v0[d]) + p0*p1*(v3-v1-v2+v0[d])
			}
			out.Set(i, d, x)
		}
	}
	return out, nil
}
