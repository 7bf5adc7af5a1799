// Package form holds the descriptors a generator emits for a weak form: the
// integrals it is made of, grouped by entity category and subdomain, and the
// names and element hashes a consumer binds data by.
//
// A Form is immutable. New deep-copies its input and every accessor returns
// a copy, so a Form can be shared between goroutines without locking.
package form

import (
	"fmt"
	"sort"

	"github.com/notargets/tabulate/identity"
	"go.uber.org/multierr"
)

// SubdomainIntegral pairs an integral with the subdomain id it applies to
type SubdomainIntegral struct {
	ID       int
	Integral IntegralSpec
}

// Definition is the generator's description of a form
type Definition struct {
	Signature string
	Rank      int

	CoefficientNames []string
	// Position of each coefficient in the original form's numbering. Nil
	// means 0..n-1.
	OriginalCoefficientPositions []int
	ConstantNames                []string

	// One hash per argument, then one per coefficient
	FiniteElementHashes []identity.Hash

	CellIntegrals          []SubdomainIntegral
	ExteriorFacetIntegrals []SubdomainIntegral
	InteriorFacetIntegrals []SubdomainIntegral
}

func (d Definition) byType(t IntegralType) []SubdomainIntegral {
	switch t {
	case Cell:
		return d.CellIntegrals
	case ExteriorFacet:
		return d.ExteriorFacetIntegrals
	default:
		return d.InteriorFacetIntegrals
	}
}

// Form is the descriptor of one weak form
type Form struct {
	signature         string
	rank              int
	coefficientNames  []string
	originalPositions []int
	constantNames     []string
	elementHashes     []identity.Hash

	integrals []*Integral
	ids       []int
	offsets   [NumIntegralTypes + 1]int
}

// New validates a definition and builds the form. Integrals of each
// category are ordered by subdomain id, so the default integral comes
// first. All violations are reported together.
func New(def Definition) (*Form, error) {
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("form %q: %w", def.Signature, err)
	}

	f := &Form{
		signature:         def.Signature,
		rank:              def.Rank,
		coefficientNames:  append([]string(nil), def.CoefficientNames...),
		originalPositions: append([]int(nil), def.OriginalCoefficientPositions...),
		constantNames:     append([]string(nil), def.ConstantNames...),
		elementHashes:     append([]identity.Hash(nil), def.FiniteElementHashes...),
	}
	if def.OriginalCoefficientPositions == nil {
		f.originalPositions = make([]int, len(def.CoefficientNames))
		for i := range f.originalPositions {
			f.originalPositions[i] = i
		}
	}

	for k, t := range IntegralTypes {
		list := append([]SubdomainIntegral(nil), def.byType(t)...)
		sort.SliceStable(list, func(a, b int) bool { return list[a].ID < list[b].ID })
		f.offsets[k] = len(f.integrals)
		for _, si := range list {
			f.integrals = append(f.integrals, newIntegral(t, si.ID, si.Integral))
			f.ids = append(f.ids, si.ID)
		}
	}
	f.offsets[NumIntegralTypes] = len(f.integrals)
	return f, nil
}

func (d Definition) validate() error {
	var err error
	if d.Signature == "" {
		err = multierr.Append(err, fmt.Errorf("signature is empty"))
	}
	if d.Rank < 0 {
		err = multierr.Append(err, fmt.Errorf("rank %d is negative", d.Rank))
	}
	nc := len(d.CoefficientNames)
	err = multierr.Append(err, uniqueNames("coefficient", d.CoefficientNames))
	err = multierr.Append(err, uniqueNames("constant", d.ConstantNames))

	if d.OriginalCoefficientPositions != nil {
		if len(d.OriginalCoefficientPositions) != nc {
			err = multierr.Append(err, fmt.Errorf("%d original coefficient positions for %d coefficients",
				len(d.OriginalCoefficientPositions), nc))
		}
		seen := make(map[int]bool)
		for i, p := range d.OriginalCoefficientPositions {
			if p < 0 {
				err = multierr.Append(err, fmt.Errorf("coefficient %d has negative original position %d", i, p))
			}
			if seen[p] {
				err = multierr.Append(err, fmt.Errorf("original position %d used twice", p))
			}
			seen[p] = true
		}
	}

	if want := d.Rank + nc; d.Rank >= 0 && len(d.FiniteElementHashes) != want {
		err = multierr.Append(err, fmt.Errorf("%d finite element hashes, expected rank %d + %d coefficients",
			len(d.FiniteElementHashes), d.Rank, nc))
	}

	for _, t := range IntegralTypes {
		ids := make(map[int]bool)
		for _, si := range d.byType(t) {
			where := fmt.Sprintf("%s integral %d", t, si.ID)
			if si.ID < DefaultSubdomain {
				err = multierr.Append(err, fmt.Errorf("%s: subdomain id below %d", where, DefaultSubdomain))
			}
			if ids[si.ID] {
				err = multierr.Append(err, fmt.Errorf("%s: duplicate subdomain id", where))
			}
			ids[si.ID] = true
			if n := len(si.Integral.EnabledCoefficients); n != nc {
				err = multierr.Append(err, fmt.Errorf("%s: coefficient mask has length %d, form has %d coefficients",
					where, n, nc))
			}
			if si.Integral.Kernels.Empty() {
				err = multierr.Append(err, fmt.Errorf("%s: no kernels", where))
			}
		}
	}
	return err
}

func uniqueNames(kind string, names []string) error {
	var err error
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if n == "" {
			err = multierr.Append(err, fmt.Errorf("%s %d has an empty name", kind, i))
			continue
		}
		if seen[n] {
			err = multierr.Append(err, fmt.Errorf("%s name %q used twice", kind, n))
		}
		seen[n] = true
	}
	return err
}

// Signature returns the content identifier of the form
func (f *Form) Signature() string { return f.signature }

// Rank returns the number of arguments
func (f *Form) Rank() int { return f.rank }

// NumCoefficients returns the number of coefficients
func (f *Form) NumCoefficients() int { return len(f.coefficientNames) }

// NumConstants returns the number of constants
func (f *Form) NumConstants() int { return len(f.constantNames) }

// CoefficientNames returns the coefficient names in binding order
func (f *Form) CoefficientNames() []string { return append([]string(nil), f.coefficientNames...) }

// ConstantNames returns the constant names in binding order
func (f *Form) ConstantNames() []string { return append([]string(nil), f.constantNames...) }

// OriginalCoefficientPositions returns the position of each coefficient in
// the original form's numbering
func (f *Form) OriginalCoefficientPositions() []int {
	return append([]int(nil), f.originalPositions...)
}

// FiniteElementHashes returns the argument hashes followed by the
// coefficient hashes
func (f *Form) FiniteElementHashes() []identity.Hash {
	return append([]identity.Hash(nil), f.elementHashes...)
}

// Offsets returns the category offsets into the integral sequence
func (f *Form) Offsets() []int {
	return append([]int(nil), f.offsets[:]...)
}

// NumIntegrals returns the total number of integrals
func (f *Form) NumIntegrals() int { return len(f.integrals) }

// Range returns the half-open slice [start, end) of category t
func (f *Form) Range(t IntegralType) (start, end int) {
	if !t.valid() {
		return 0, 0
	}
	return f.offsets[t], f.offsets[t+1]
}

// Integrals returns the integrals of category t ordered by subdomain id
func (f *Form) Integrals(t IntegralType) []*Integral {
	start, end := f.Range(t)
	return append([]*Integral(nil), f.integrals[start:end]...)
}

// IntegralIDs returns the subdomain ids of category t, parallel to Integrals
func (f *Form) IntegralIDs(t IntegralType) []int {
	start, end := f.Range(t)
	return append([]int(nil), f.ids[start:end]...)
}

// Integral selects the integral of category t for subdomain id, falling
// back to the default integral when the subdomain has none of its own.
// The fallback is a lookup convenience only. Callers that apply the default
// integral to every entity, including those of subdomains with their own
// integral, iterate Integrals(t) and must not route through Integral.
func (f *Form) Integral(t IntegralType, id int) (*Integral, bool) {
	start, end := f.Range(t)
	ids := f.ids[start:end]
	k := sort.SearchInts(ids, id)
	if k < len(ids) && ids[k] == id {
		return f.integrals[start+k], true
	}
	if id != DefaultSubdomain && len(ids) > 0 && ids[0] == DefaultSubdomain {
		return f.integrals[start], true
	}
	return nil, false
}

// CoordinateElementHashes returns the distinct coordinate element hashes of
// the form's integrals in first-seen order
func (f *Form) CoordinateElementHashes() []identity.Hash {
	var out []identity.Hash
	seen := make(map[identity.Hash]bool)
	for _, in := range f.integrals {
		if !seen[in.coordinate] {
			seen[in.coordinate] = true
			out = append(out, in.coordinate)
		}
	}
	return out
}

// CoefficientPosition returns the binding position of the named coefficient
func (f *Form) CoefficientPosition(name string) (int, error) {
	for i, n := range f.coefficientNames {
		if n == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("form %q has no coefficient %q", f.signature, name)
}

// ConstantPosition returns the binding position of the named constant
func (f *Form) ConstantPosition(name string) (int, error) {
	for i, n := range f.constantNames {
		if n == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("form %q has no constant %q", f.signature, name)
}
