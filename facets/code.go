// Package facets computes the per-side arguments interior and exterior facet
// kernels take: the local facet index of each adjacent cell and the code
// describing how that cell's copy of the facet is oriented.
//
// Each side's code is relative to a frame both sides agree on without
// talking to each other: facet vertex 0 is the lowest global vertex number,
// and vertex 1 is its lower-numbered neighbour.
package facets

import (
	"fmt"

	"github.com/notargets/tabulate/element"
	"github.com/notargets/tabulate/kernel"
)

// quadCycle walks the quadrilateral's vertices around its boundary
var quadCycle = [4]int{0, 1, 3, 2}

// Code returns the permutation code of a facet whose local vertices (in
// reference facet order) carry the given global vertex numbers. Passing
// points given in the shared frame through quadrature.Permute with this code
// yields the same points in the side's local facet frame.
func Code(facet element.CellType, vertices []int) (uint8, error) {
	if len(vertices) != facet.NumVertices() {
		return 0, fmt.Errorf("%s facet needs %d vertices, got %d",
			facet, facet.NumVertices(), len(vertices))
	}

	var rots, refs int
	switch facet {
	case element.Point:
		return 0, nil

	case element.Interval:
		if vertices[0] > vertices[1] {
			refs = 1
		}

	case element.Triangle:
		m := argMin(vertices)
		pre := vertices[(m+2)%3]
		post := vertices[(m+1)%3]
		rots, refs = rotationsTo(m, 3, post > pre)

	case element.Quadrilateral:
		var cyc [4]int
		for i, v := range quadCycle {
			cyc[i] = vertices[v]
		}
		m := argMin(cyc[:])
		pre := cyc[(m+3)%4]
		post := cyc[(m+1)%4]
		rots, refs = rotationsTo(m, 4, post > pre)

	default:
		return 0, fmt.Errorf("%s is not a facet type", facet)
	}
	return kernel.Encode(rots, refs)
}

// rotationsTo returns the rotation and reflection counts whose point map
// carries common vertex 0 onto local position m of an n-gon. A rotation
// moves every vertex one step back around the boundary and a reflection
// fixes vertex 0, so without a reflection the rotation count runs the
// other way.
func rotationsTo(m, n int, reflect bool) (rots, refs int) {
	if reflect {
		return m, 1
	}
	return (n - m) % n, 0
}

func argMin(v []int) int {
	m := 0
	for i := range v {
		if v[i] < v[m] {
			m = i
		}
	}
	return m
}
