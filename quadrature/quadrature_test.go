package quadrature

import (
	"math"
	"testing"

	"github.com/notargets/tabulate/element"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func integrate(r Rule, f func(p []float64) float64) float64 {
	sum := 0.0
	for i, w := range r.Weights {
		sum += w * f(r.Points.RawRowView(i))
	}
	return sum
}

func TestRules(t *testing.T) {
	t.Run("interval", func(t *testing.T) {
		for q := 0; q <= 7; q++ {
			r := Interval(q)
			assert.InDelta(t, 1.0, floats.Sum(r.Weights), 1e-13)
			got := integrate(r, func(p []float64) float64 { return math.Pow(p[0], float64(q)) })
			assert.InDelta(t, 1/float64(q+1), got, 1e-13, "x^%d", q)
		}
	})

	t.Run("triangle", func(t *testing.T) {
		for q := 0; q <= 6; q++ {
			r := Triangle(q)
			assert.InDelta(t, 0.5, floats.Sum(r.Weights), 1e-13)
			for i := 0; i < r.NumPoints(); i++ {
				x, y := r.Points.At(i, 0), r.Points.At(i, 1)
				assert.True(t, x >= 0 && y >= 0 && x+y <= 1, "point %d outside", i)
			}
			// integral of x^a y^b over the triangle is a! b! / (a+b+2)!
			for a := 0; a <= q; a++ {
				b := q - a
				want := fact(a) * fact(b) / fact(a+b+2)
				got := integrate(r, func(p []float64) float64 {
					return math.Pow(p[0], float64(a)) * math.Pow(p[1], float64(b))
				})
				assert.InDelta(t, want, got, 1e-13, "x^%d y^%d", a, b)
			}
		}
	})

	t.Run("quadrilateral", func(t *testing.T) {
		r := Quadrilateral(3)
		assert.InDelta(t, 1.0, floats.Sum(r.Weights), 1e-13)
		got := integrate(r, func(p []float64) float64 { return p[0] * p[0] * p[1] * p[1] * p[1] })
		assert.InDelta(t, 1.0/12, got, 1e-13)
	})

	_, err := New(element.Tetrahedron, 2)
	assert.Error(t, err)
	r, err := New(element.Triangle, 2)
	require.NoError(t, err)
	assert.Equal(t, element.Triangle, r.Cell)
}

func fact(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

func TestMapToFacet(t *testing.T) {
	pts := mat.NewDense(2, 1, []float64{0, 0.25})
	// facet 0 of the triangle runs from (1,0) to (0,1)
	m, err := MapToFacet(element.Triangle, 0, pts)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, m.RawRowView(0))
	assert.InDeltaSlice(t, []float64{0.75, 0.25}, m.RawRowView(1), 1e-15)

	m, err = MapToFacet(element.Quadrilateral, 3, pts)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 1}, m.RawRowView(1), 1e-15)

	// facet 1 of the tetrahedron is the triangle (0,0,0), (0,1,0), (0,0,1)
	m, err = MapToFacet(element.Tetrahedron, 1, mat.NewDense(1, 2, []float64{0.2, 0.3}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.2, 0.3}, m.RawRowView(0), 1e-15)

	// facet 5 of the hexahedron is the top face z=1
	m, err = MapToFacet(element.Hexahedron, 5, mat.NewDense(1, 2, []float64{0.2, 0.3}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.2, 0.3, 1}, m.RawRowView(0), 1e-15)

	_, err = MapToFacet(element.Tetrahedron, 0, pts)
	assert.Error(t, err, "tetrahedron facets need two columns")
}

func TestPermute(t *testing.T) {
	t.Run("interval", func(t *testing.T) {
		pts := mat.NewDense(2, 1, []float64{0.1, 0.7})
		p, err := Permute(element.Interval, pts, 1)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.9, 0.3}, p.RawMatrix().Data, 1e-15)
		assert.Equal(t, []float64{0.1, 0.7}, pts.RawMatrix().Data, "input untouched")

		p, err = Permute(element.Interval, pts, 0)
		require.NoError(t, err)
		assert.Equal(t, []float64{0.1, 0.7}, p.RawMatrix().Data)

		_, err = Permute(element.Interval, pts, 2)
		assert.Error(t, err)
	})

	t.Run("triangle", func(t *testing.T) {
		pts := mat.NewDense(1, 2, []float64{0.2, 0.3})
		rot := PermuteTriangle(pts, 0, 1)
		assert.InDeltaSlice(t, []float64{0.3, 0.5}, rot.RawRowView(0), 1e-15)
		// three rotations return to the start
		back := PermuteTriangle(pts, 0, 3)
		assert.InDeltaSlice(t, []float64{0.2, 0.3}, back.RawRowView(0), 1e-15)
		// code 3 is one rotation then one reflection
		p, err := Permute(element.Triangle, pts, 3)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.5, 0.3}, p.RawRowView(0), 1e-15)
	})

	t.Run("quadrilateral", func(t *testing.T) {
		pts := mat.NewDense(1, 2, []float64{0.2, 0.3})
		back := PermuteQuadrilateral(pts, 0, 4)
		assert.InDeltaSlice(t, []float64{0.2, 0.3}, back.RawRowView(0), 1e-15)
		ref := PermuteQuadrilateral(pts, 1, 0)
		assert.InDeltaSlice(t, []float64{0.3, 0.2}, ref.RawRowView(0), 1e-15)
	})

	t.Run("table", func(t *testing.T) {
		pts := Interval(3).Points
		table, err := Permutations(element.Interval, pts)
		require.NoError(t, err)
		require.Len(t, table, 2)
		assert.True(t, mat.Equal(pts, table[0]))

		table, err = Permutations(element.Triangle, mat.NewDense(1, 2, []float64{0.2, 0.3}))
		require.NoError(t, err)
		assert.Len(t, table, 6)

		_, err = Permutations(element.Tetrahedron, pts)
		assert.Error(t, err)
	})
}
