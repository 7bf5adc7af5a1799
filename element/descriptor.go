package element

import (
	"fmt"
	"strconv"

	"github.com/notargets/tabulate/identity"
	"go.uber.org/multierr"
)

// Descriptor is a content definition of a finite element. Generator and
// consumer each build one from their own element and compare the hashes.
type Descriptor struct {
	Family        string   `yaml:"family" toml:"family"`
	Cell          CellType `yaml:"cell" toml:"cell"`
	Degree        int      `yaml:"degree" toml:"degree"`
	BlockSize     int      `yaml:"block_size" toml:"block_size"`
	Discontinuous bool     `yaml:"discontinuous" toml:"discontinuous"`
}

// P returns the continuous scalar Lagrange element of the given degree
func P(cell CellType, degree int) Descriptor {
	return Descriptor{Family: "P", Cell: cell, Degree: degree, BlockSize: 1}
}

// Vector returns a copy of d with block size n
func (d Descriptor) Vector(n int) Descriptor {
	d.BlockSize = n
	return d
}

// Validate checks the fields that feed the hash
func (d Descriptor) Validate() error {
	var err error
	if d.Family == "" {
		err = multierr.Append(err, fmt.Errorf("element family is empty"))
	}
	if d.Cell == Point || int(d.Cell) >= len(cellNames) {
		err = multierr.Append(err, fmt.Errorf("element cell %s is not a reference cell", d.Cell))
	}
	if d.Degree < 0 {
		err = multierr.Append(err, fmt.Errorf("element degree %d is negative", d.Degree))
	}
	if d.BlockSize < 1 {
		err = multierr.Append(err, fmt.Errorf("element block size %d must be at least 1", d.BlockSize))
	}
	return err
}

// Hash returns the content hash used by the identity gate
func (d Descriptor) Hash() identity.Hash {
	return identity.HashOf("element",
		d.Family,
		d.Cell.String(),
		strconv.Itoa(d.Degree),
		strconv.Itoa(d.BlockSize),
		strconv.FormatBool(d.Discontinuous),
	)
}

// ScalarDofs returns the number of dofs per block for Lagrange families
func (d Descriptor) ScalarDofs() int {
	n := d.Degree
	switch d.Cell {
	case Interval:
		return n + 1
	case Triangle:
		return (n + 1) * (n + 2) / 2
	case Quadrilateral:
		return (n + 1) * (n + 1)
	case Tetrahedron:
		return (n + 1) * (n + 2) * (n + 3) / 6
	case Hexahedron:
		return (n + 1) * (n + 1) * (n + 1)
	case Prism:
		return (n + 1) * (n + 1) * (n + 2) / 2
	case Pyramid:
		return (n + 1) * (n + 2) * (2*n + 3) / 6
	default:
		return 1
	}
}

// Dofs returns the number of dofs per cell including the block size
func (d Descriptor) Dofs() int {
	return d.ScalarDofs() * d.BlockSize
}

func (d Descriptor) String() string {
	s := fmt.Sprintf("%s%d(%s)", d.Family, d.Degree, d.Cell)
	if d.BlockSize > 1 {
		s += fmt.Sprintf("^%d", d.BlockSize)
	}
	if d.Discontinuous {
		s = "D" + s
	}
	return s
}
