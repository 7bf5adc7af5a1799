// Package element describes reference cells and the finite elements defined
// on them, as far as the tabulation contract needs: topology for facet
// numbering, a content hash per element for the identity gate, and a nodal
// Lagrange basis the reference kernels tabulate.
package element

import "fmt"

// Dimensionality represents the topological dimension of a cell
type Dimensionality uint8

const (
	D0 Dimensionality = iota // points
	D1                       // intervals
	D2                       // triangles, quadrilaterals
	D3                       // tetrahedra, hexahedra, prisms, pyramids
)

// CellType is a reference cell shape
type CellType uint8

const (
	Point CellType = iota
	Interval
	Triangle
	Quadrilateral
	Tetrahedron
	Hexahedron
	Prism
	Pyramid
)

var cellNames = [...]string{
	Point:         "point",
	Interval:      "interval",
	Triangle:      "triangle",
	Quadrilateral: "quadrilateral",
	Tetrahedron:   "tetrahedron",
	Hexahedron:    "hexahedron",
	Prism:         "prism",
	Pyramid:       "pyramid",
}

func (c CellType) String() string {
	if int(c) < len(cellNames) {
		return cellNames[c]
	}
	return fmt.Sprintf("CellType(%d)", uint8(c))
}

// ParseCellType is the inverse of String
func ParseCellType(s string) (CellType, error) {
	for i, n := range cellNames {
		if n == s {
			return CellType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown cell type %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (c CellType) MarshalText() ([]byte, error) {
	if int(c) >= len(cellNames) {
		return nil, fmt.Errorf("invalid cell type %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *CellType) UnmarshalText(text []byte) error {
	v, err := ParseCellType(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Dimensions returns the topological dimension
func (c CellType) Dimensions() Dimensionality {
	switch c {
	case Interval:
		return D1
	case Triangle, Quadrilateral:
		return D2
	case Tetrahedron, Hexahedron, Prism, Pyramid:
		return D3
	default:
		return D0
	}
}

// Vertex numbering and facet-to-vertex maps of the reference cells. Facet i
// lists its vertices in increasing local order; that order is the frame the
// permutation codes are measured against.
var (
	referenceVertices = map[CellType][][]float64{
		Point:         {{}},
		Interval:      {{0}, {1}},
		Triangle:      {{0, 0}, {1, 0}, {0, 1}},
		Quadrilateral: {{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		Tetrahedron:   {{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Hexahedron: {{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1}},
		Prism: {{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {0, 1, 1}},
		Pyramid: {{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}, {0, 0, 1}},
	}

	facetVertices = map[CellType][][]int{
		Interval:      {{0}, {1}},
		Triangle:      {{1, 2}, {0, 2}, {0, 1}},
		Quadrilateral: {{0, 1}, {0, 2}, {1, 3}, {2, 3}},
		Tetrahedron:   {{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}},
		Hexahedron: {{0, 1, 2, 3}, {0, 1, 4, 5}, {0, 2, 4, 6},
			{1, 3, 5, 7}, {2, 3, 6, 7}, {4, 5, 6, 7}},
		Prism:   {{0, 1, 2}, {0, 1, 3, 4}, {0, 2, 3, 5}, {1, 2, 4, 5}, {3, 4, 5}},
		Pyramid: {{0, 1, 2, 3}, {0, 1, 4}, {0, 2, 4}, {1, 3, 4}, {2, 3, 4}},
	}
)

// NumVertices returns the number of vertices of the cell
func (c CellType) NumVertices() int {
	return len(referenceVertices[c])
}

// NumFacets returns the number of codimension one entities
func (c CellType) NumFacets() int {
	return len(facetVertices[c])
}

// Vertices returns a copy of the reference vertex coordinates
func (c CellType) Vertices() [][]float64 {
	src := referenceVertices[c]
	out := make([][]float64, len(src))
	for i, v := range src {
		out[i] = append([]float64(nil), v...)
	}
	return out
}

// FacetVertices returns the local vertex numbers of facet i
func (c CellType) FacetVertices(i int) []int {
	fv := facetVertices[c]
	if i < 0 || i >= len(fv) {
		panic(fmt.Sprintf("%s has no facet %d", c, i))
	}
	return append([]int(nil), fv[i]...)
}

// FacetType returns the cell type of facet i
func (c CellType) FacetType(i int) CellType {
	switch len(c.FacetVertices(i)) {
	case 1:
		return Point
	case 2:
		return Interval
	case 3:
		return Triangle
	default:
		return Quadrilateral
	}
}
