package form

import (
	"fmt"

	"github.com/notargets/tabulate/identity"
	"github.com/notargets/tabulate/kernel"
)

// IntegralType is the mesh entity category an integral is evaluated over
type IntegralType int

const (
	Cell IntegralType = iota
	ExteriorFacet
	InteriorFacet
)

// NumIntegralTypes is the number of categories. Offsets have one more entry.
const NumIntegralTypes = 3

// IntegralTypes lists the categories in offset order
var IntegralTypes = [NumIntegralTypes]IntegralType{Cell, ExteriorFacet, InteriorFacet}

// DefaultSubdomain is the id of the integral applied to every entity whose
// subdomain has no integral of its own
const DefaultSubdomain = -1

func (t IntegralType) String() string {
	switch t {
	case Cell:
		return "cell"
	case ExteriorFacet:
		return "exterior_facet"
	case InteriorFacet:
		return "interior_facet"
	default:
		return fmt.Sprintf("IntegralType(%d)", int(t))
	}
}

// ParseIntegralType is the inverse of String
func ParseIntegralType(s string) (IntegralType, error) {
	for _, t := range IntegralTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown integral type %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (t IntegralType) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("invalid integral type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *IntegralType) UnmarshalText(text []byte) error {
	v, err := ParseIntegralType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t IntegralType) valid() bool {
	return t >= Cell && t <= InteriorFacet
}

// IsFacet reports whether the category is a facet type
func (t IntegralType) IsFacet() bool {
	return t == ExteriorFacet || t == InteriorFacet
}

// Restrictions returns the number of restriction slots in w and
// coordinateDofs for kernels of this category
func (t IntegralType) Restrictions() int {
	if t == InteriorFacet {
		return 2
	}
	return 1
}

// IntegralSpec is what the generator emits for one integral
type IntegralSpec struct {
	EnabledCoefficients    []bool
	Kernels                kernel.Set
	NeedsFacetPermutations bool
	CoordinateElementHash  identity.Hash
}

// Integral is an integral placed in a form. Its kernels are reachable only
// through a Bound form, after the identity checks have passed.
type Integral struct {
	typ         IntegralType
	id          int
	enabled     []bool
	kernels     kernel.Set
	permutation bool
	coordinate  identity.Hash
}

func newIntegral(t IntegralType, id int, spec IntegralSpec) *Integral {
	return &Integral{
		typ:         t,
		id:          id,
		enabled:     append([]bool(nil), spec.EnabledCoefficients...),
		kernels:     spec.Kernels,
		permutation: spec.NeedsFacetPermutations,
		coordinate:  spec.CoordinateElementHash,
	}
}

// Type returns the integral's category
func (i *Integral) Type() IntegralType { return i.typ }

// SubdomainID returns the subdomain the integral applies to
func (i *Integral) SubdomainID() int { return i.id }

// EnabledCoefficients returns a copy of the mask of coefficients the kernel reads
func (i *Integral) EnabledCoefficients() []bool {
	return append([]bool(nil), i.enabled...)
}

// Reads reports whether the kernel reads coefficient c
func (i *Integral) Reads(c int) bool {
	return c >= 0 && c < len(i.enabled) && i.enabled[c]
}

// NeedsFacetPermutations reports whether the kernel expects permutation codes
func (i *Integral) NeedsFacetPermutations() bool { return i.permutation }

// CoordinateElementHash identifies the coordinate element the kernel was
// generated against
func (i *Integral) CoordinateElementHash() identity.Hash { return i.coordinate }

// Precisions lists the representations the integral was generated for
func (i *Integral) Precisions() []kernel.Precision { return i.kernels.Precisions() }

// FacetPermutations returns the quadraturePermutation argument: codes when
// the kernel needs them on a facet category, nil otherwise
func (i *Integral) FacetPermutations(codes []uint8) []uint8 {
	if !i.permutation || !i.typ.IsFacet() {
		return nil
	}
	return codes
}

// Layout returns the buffer layout of a call given the per-cell dof counts
// of each coefficient, the constant sizes, and the coordinate node count
func (i *Integral) Layout(coefficientDofs, constantSizes []int, coordinateNodes int) kernel.Layout {
	return kernel.Layout{
		Restrictions:    i.typ.Restrictions(),
		CoefficientDofs: append([]int(nil), coefficientDofs...),
		ConstantSizes:   append([]int(nil), constantSizes...),
		CoordinateNodes: coordinateNodes,
	}
}
