package kernel

import (
	"fmt"

	"go.uber.org/multierr"
)

// GeometricDimension is the fixed number of components per coordinate node.
// Coordinates are always stored in 3D; lower dimensional meshes pad with zeros.
const GeometricDimension = 3

// Layout describes the flat buffers a kernel call expects. Offsets are in
// values, not bytes, so they index []T and []R directly.
type Layout struct {
	Restrictions    int   // 2 for interior facets, 1 otherwise
	CoefficientDofs []int // dofs per cell of each coefficient
	ConstantSizes   []int // components of each constant
	CoordinateNodes int   // nodes per cell of the coordinate element
}

// Validate checks that every extent is usable
func (l Layout) Validate() error {
	var err error
	if l.Restrictions != 1 && l.Restrictions != 2 {
		err = multierr.Append(err, fmt.Errorf("restrictions must be 1 or 2, got %d", l.Restrictions))
	}
	for i, n := range l.CoefficientDofs {
		if n < 0 {
			err = multierr.Append(err, fmt.Errorf("coefficient %d has negative dof count %d", i, n))
		}
	}
	for i, n := range l.ConstantSizes {
		if n < 0 {
			err = multierr.Append(err, fmt.Errorf("constant %d has negative size %d", i, n))
		}
	}
	if l.CoordinateNodes < 0 {
		err = multierr.Append(err, fmt.Errorf("negative coordinate node count %d", l.CoordinateNodes))
	}
	return err
}

// CoefficientSize returns len(w)
func (l Layout) CoefficientSize() int {
	n := 0
	for _, d := range l.CoefficientDofs {
		n += d
	}
	return n * l.Restrictions
}

// CoefficientOffset returns the index in w of dof 0 of the given coefficient
// and restriction
func (l Layout) CoefficientOffset(coefficient, restriction int) int {
	off := 0
	for i := 0; i < coefficient; i++ {
		off += l.CoefficientDofs[i] * l.Restrictions
	}
	return off + restriction*l.CoefficientDofs[coefficient]
}

// ConstantSize returns len(c)
func (l Layout) ConstantSize() int {
	n := 0
	for _, s := range l.ConstantSizes {
		n += s
	}
	return n
}

// ConstantOffset returns the index in c of component 0 of the given constant
func (l Layout) ConstantOffset(constant int) int {
	off := 0
	for i := 0; i < constant; i++ {
		off += l.ConstantSizes[i]
	}
	return off
}

// CoordinateSize returns len(coordinateDofs)
func (l Layout) CoordinateSize() int {
	return l.Restrictions * l.CoordinateNodes * GeometricDimension
}

// CoordinateOffset returns the index of component 0 of a node on a restriction
func (l Layout) CoordinateOffset(restriction, node int) int {
	return (restriction*l.CoordinateNodes + node) * GeometricDimension
}

// PackCoefficients lays out values[coefficient][restriction] (each holding
// that coefficient's dofs on one cell) into a single w buffer
func PackCoefficients[T Scalar](l Layout, values [][][]T) ([]T, error) {
	if len(values) != len(l.CoefficientDofs) {
		return nil, fmt.Errorf("got values for %d coefficients, layout has %d",
			len(values), len(l.CoefficientDofs))
	}
	w := make([]T, l.CoefficientSize())
	for i, perRestriction := range values {
		if len(perRestriction) != l.Restrictions {
			return nil, fmt.Errorf("coefficient %d: got %d restrictions, layout has %d",
				i, len(perRestriction), l.Restrictions)
		}
		for r, dofs := range perRestriction {
			if len(dofs) != l.CoefficientDofs[i] {
				return nil, fmt.Errorf("coefficient %d restriction %d: got %d dofs, expected %d",
					i, r, len(dofs), l.CoefficientDofs[i])
			}
			copy(w[l.CoefficientOffset(i, r):], dofs)
		}
	}
	return w, nil
}

// PackConstants concatenates constant values in declaration order
func PackConstants[T Scalar](l Layout, values [][]T) ([]T, error) {
	if len(values) != len(l.ConstantSizes) {
		return nil, fmt.Errorf("got %d constants, layout has %d", len(values), len(l.ConstantSizes))
	}
	c := make([]T, l.ConstantSize())
	for i, v := range values {
		if len(v) != l.ConstantSizes[i] {
			return nil, fmt.Errorf("constant %d: got %d components, expected %d",
				i, len(v), l.ConstantSizes[i])
		}
		copy(c[l.ConstantOffset(i):], v)
	}
	return c, nil
}

// PackCoordinates lays out per-restriction node coordinates. Each
// cells[r][node] may hold 1 to 3 components; missing components are zero.
func PackCoordinates[R Real](l Layout, cells [][][]R) ([]R, error) {
	if len(cells) != l.Restrictions {
		return nil, fmt.Errorf("got coordinates for %d cells, layout has %d restrictions",
			len(cells), l.Restrictions)
	}
	x := make([]R, l.CoordinateSize())
	for r, nodes := range cells {
		if len(nodes) != l.CoordinateNodes {
			return nil, fmt.Errorf("restriction %d: got %d nodes, expected %d",
				r, len(nodes), l.CoordinateNodes)
		}
		for n, p := range nodes {
			if len(p) == 0 || len(p) > GeometricDimension {
				return nil, fmt.Errorf("restriction %d node %d: %d components", r, n, len(p))
			}
			copy(x[l.CoordinateOffset(r, n):], p)
		}
	}
	return x, nil
}
