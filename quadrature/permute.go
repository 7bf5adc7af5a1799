package quadrature

import (
	"fmt"

	"github.com/notargets/tabulate/element"
	"github.com/notargets/tabulate/kernel"
	"gonum.org/v1/gonum/mat"
)

// PermuteInterval returns facet points as seen by a neighbour whose copy of
// the facet is reflected: x -> 1-x per reflection
func PermuteInterval(points mat.Matrix, reflections int) *mat.Dense {
	out := mat.DenseCopyOf(points)
	np, _ := out.Dims()
	for ref := 0; ref < reflections; ref++ {
		for i := 0; i < np; i++ {
			out.Set(i, 0, 1-out.At(i, 0))
		}
	}
	return out
}

// PermuteTriangle applies the given rotations then reflections to points on
// the reference triangle
func PermuteTriangle(points mat.Matrix, reflections, rotations int) *mat.Dense {
	out := mat.DenseCopyOf(points)
	np, _ := out.Dims()
	for rot := 0; rot < rotations; rot++ {
		for i := 0; i < np; i++ {
			p0, p1 := out.At(i, 0), out.At(i, 1)
			out.Set(i, 0, p1)
			out.Set(i, 1, 1-p0-p1)
		}
	}
	for ref := 0; ref < reflections; ref++ {
		for i := 0; i < np; i++ {
			p0, p1 := out.At(i, 0), out.At(i, 1)
			out.Set(i, 0, p1)
			out.Set(i, 1, p0)
		}
	}
	return out
}

// PermuteQuadrilateral applies the given rotations then reflections to
// points on the unit square
func PermuteQuadrilateral(points mat.Matrix, reflections, rotations int) *mat.Dense {
	out := mat.DenseCopyOf(points)
	np, _ := out.Dims()
	for rot := 0; rot < rotations; rot++ {
		for i := 0; i < np; i++ {
			p0, p1 := out.At(i, 0), out.At(i, 1)
			out.Set(i, 0, p1)
			out.Set(i, 1, 1-p0)
		}
	}
	for ref := 0; ref < reflections; ref++ {
		for i := 0; i < np; i++ {
			p0, p1 := out.At(i, 0), out.At(i, 1)
			out.Set(i, 0, p1)
			out.Set(i, 1, p0)
		}
	}
	return out
}

// Permute decodes a permutation code and reorders points on a facet of the
// given type accordingly
func Permute(facet element.CellType, points mat.Matrix, code uint8) (*mat.Dense, error) {
	rot, ref := kernel.Decode(code)
	switch facet {
	case element.Point:
		return mat.DenseCopyOf(points), nil
	case element.Interval:
		if rot != 0 {
			return nil, fmt.Errorf("interval facets do not rotate, code %d", code)
		}
		return PermuteInterval(points, ref), nil
	case element.Triangle:
		return PermuteTriangle(points, ref, rot), nil
	case element.Quadrilateral:
		return PermuteQuadrilateral(points, ref, rot), nil
	default:
		return nil, fmt.Errorf("cannot permute points on a %s facet", facet)
	}
}

// Permutations tabulates points under every code valid for the facet type,
// indexed by code. This is the table a generated interior facet kernel
// selects from with quadraturePermutation.
func Permutations(facet element.CellType, points mat.Matrix) ([]*mat.Dense, error) {
	var n int
	switch facet {
	case element.Point:
		n = 1
	case element.Interval:
		n = 2
	case element.Triangle:
		n = 6
	case element.Quadrilateral:
		n = 8
	default:
		return nil, fmt.Errorf("no permutations for %s", facet)
	}
	out := make([]*mat.Dense, n)
	for code := range out {
		p, err := Permute(facet, points, uint8(code))
		if err != nil {
			return nil, err
		}
		out[code] = p
	}
	return out, nil
}
