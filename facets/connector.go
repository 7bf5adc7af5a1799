package facets

import (
	"fmt"
	"sort"

	"github.com/notargets/tabulate/element"
)

// InteriorFacet is a facet shared by two cells. Side 0 is the cell with the
// lower index.
type InteriorFacet struct {
	Cells        [2]int
	LocalFacets  [2]int32
	Permutations [2]uint8
}

// EntityLocalIndex returns the entityLocalIndex argument for this facet
func (f InteriorFacet) EntityLocalIndex() []int32 {
	return []int32{f.LocalFacets[0], f.LocalFacets[1]}
}

// QuadraturePermutation returns the quadraturePermutation argument
func (f InteriorFacet) QuadraturePermutation() []uint8 {
	return []uint8{f.Permutations[0], f.Permutations[1]}
}

// ExteriorFacet is a facet on the boundary, owned by one cell
type ExteriorFacet struct {
	Cell        int
	LocalFacet  int32
	Permutation uint8
}

// EntityLocalIndex returns the entityLocalIndex argument for this facet
func (f ExteriorFacet) EntityLocalIndex() []int32 {
	return []int32{f.LocalFacet}
}

// Connectivity is the facet adjacency of a single-cell-type mesh
type Connectivity struct {
	Cell element.CellType
	K    int // Total cells

	// EToE[k][f] is the cell across facet f of cell k, or -1 on the boundary.
	// EToF[k][f] is the local facet number on that cell.
	EToE, EToF [][]int

	Interior []InteriorFacet
	Exterior []ExteriorFacet
}

type facetKey [4]int

type facetSide struct {
	cell, facet int
}

// Connect builds facet connectivity from cell-to-vertex lists. EToV[k] holds
// the global vertex numbers of cell k in reference vertex order.
func Connect(cell element.CellType, EToV [][]int) (*Connectivity, error) {
	K := len(EToV)
	nv := cell.NumVertices()
	nf := cell.NumFacets()
	if nf == 0 {
		return nil, fmt.Errorf("%s has no facets", cell)
	}

	c := &Connectivity{
		Cell: cell,
		K:    K,
		EToE: make([][]int, K),
		EToF: make([][]int, K),
	}

	sides := make(map[facetKey][]facetSide)
	var order []facetKey
	for k, verts := range EToV {
		if len(verts) != nv {
			return nil, fmt.Errorf("cell %d has %d vertices, %s needs %d", k, len(verts), cell, nv)
		}
		if hasDuplicate(verts) {
			return nil, fmt.Errorf("cell %d repeats a vertex: %v", k, verts)
		}
		c.EToE[k] = make([]int, nf)
		c.EToF[k] = make([]int, nf)
		for f := 0; f < nf; f++ {
			c.EToE[k][f] = -1
			c.EToF[k][f] = -1

			key := canonical(facetGlobalVertices(cell, verts, f))
			if _, seen := sides[key]; !seen {
				order = append(order, key)
			}
			sides[key] = append(sides[key], facetSide{cell: k, facet: f})
		}
	}

	for _, key := range order {
		s := sides[key]
		switch len(s) {
		case 1:
			code, err := Code(cell.FacetType(s[0].facet), facetGlobalVertices(cell, EToV[s[0].cell], s[0].facet))
			if err != nil {
				return nil, err
			}
			c.Exterior = append(c.Exterior, ExteriorFacet{
				Cell:        s[0].cell,
				LocalFacet:  int32(s[0].facet),
				Permutation: code,
			})
		case 2:
			a, b := s[0], s[1]
			if a.cell == b.cell {
				return nil, fmt.Errorf("cell %d meets itself across facets %d and %d", a.cell, a.facet, b.facet)
			}
			var f InteriorFacet
			for i, side := range []facetSide{a, b} {
				code, err := Code(cell.FacetType(side.facet), facetGlobalVertices(cell, EToV[side.cell], side.facet))
				if err != nil {
					return nil, err
				}
				f.Cells[i] = side.cell
				f.LocalFacets[i] = int32(side.facet)
				f.Permutations[i] = code
			}
			c.EToE[a.cell][a.facet], c.EToF[a.cell][a.facet] = b.cell, b.facet
			c.EToE[b.cell][b.facet], c.EToF[b.cell][b.facet] = a.cell, a.facet
			c.Interior = append(c.Interior, f)
		default:
			return nil, fmt.Errorf("facet %v is shared by %d cells", key, len(s))
		}
	}
	return c, nil
}

// Verify checks the symmetry and counting invariants of the connectivity
func (c *Connectivity) Verify() error {
	nf := c.Cell.NumFacets()

	// Symmetry: crossing a facet twice returns to the start
	for k := 0; k < c.K; k++ {
		for f := 0; f < nf; f++ {
			nbr := c.EToE[k][f]
			if nbr < 0 {
				continue
			}
			if nbr >= c.K {
				return fmt.Errorf("cell %d facet %d: neighbour %d out of range", k, f, nbr)
			}
			nf2 := c.EToF[k][f]
			if c.EToE[nbr][nf2] != k || c.EToF[nbr][nf2] != f {
				return fmt.Errorf("cell %d facet %d: neighbour %d facet %d does not point back",
					k, f, nbr, nf2)
			}
		}
	}

	// Conservation: every cell facet is counted exactly once
	if total := 2*len(c.Interior) + len(c.Exterior); total != c.K*nf {
		return fmt.Errorf("conservation error: %d facet sides != %d cell facets", total, c.K*nf)
	}
	return nil
}

func facetGlobalVertices(cell element.CellType, verts []int, f int) []int {
	local := cell.FacetVertices(f)
	out := make([]int, len(local))
	for i, lv := range local {
		out[i] = verts[lv]
	}
	return out
}

func canonical(v []int) facetKey {
	s := append([]int(nil), v...)
	sort.Ints(s)
	key := facetKey{-1, -1, -1, -1}
	copy(key[:], s)
	return key
}

func hasDuplicate(v []int) bool {
	seen := make(map[int]struct{}, len(v))
	for _, x := range v {
		if _, ok := seen[x]; ok {
			return true
		}
		seen[x] = struct{}{}
	}
	return false
}
