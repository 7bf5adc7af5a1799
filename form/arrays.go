package form

import (
	"fmt"

	"github.com/notargets/tabulate/identity"
	"go.uber.org/multierr"
)

// Arrays is the flat layout of a form as it crosses the ABI: one integral
// sequence, a parallel id sequence, and category offsets into both
type Arrays struct {
	Signature                    string
	Rank                         int
	CoefficientNames             []string
	OriginalCoefficientPositions []int
	ConstantNames                []string
	FiniteElementHashes          []identity.Hash

	Integrals []IntegralSpec
	IDs       []int
	Offsets   []int
}

// ValidateOffsets checks the prefix-sum partition of n integrals with nIDs
// subdomain ids
func ValidateOffsets(offsets []int, n, nIDs int) error {
	var err error
	if len(offsets) != NumIntegralTypes+1 {
		return fmt.Errorf("offsets has %d entries, expected %d", len(offsets), NumIntegralTypes+1)
	}
	if offsets[0] != 0 {
		err = multierr.Append(err, fmt.Errorf("offsets[0] is %d, expected 0", offsets[0]))
	}
	for k := 1; k < len(offsets); k++ {
		if offsets[k] < offsets[k-1] {
			err = multierr.Append(err, fmt.Errorf("offsets decrease at %d: %d < %d", k, offsets[k], offsets[k-1]))
		}
	}
	last := offsets[NumIntegralTypes]
	if last != n || last != nIDs {
		err = multierr.Append(err, fmt.Errorf("offsets end at %d but there are %d integrals and %d ids",
			last, n, nIDs))
	}
	return err
}

// FromArrays validates the flat layout and builds the form
func FromArrays(a Arrays) (*Form, error) {
	if err := ValidateOffsets(a.Offsets, len(a.Integrals), len(a.IDs)); err != nil {
		return nil, fmt.Errorf("form %q: %w", a.Signature, err)
	}
	def := Definition{
		Signature:                    a.Signature,
		Rank:                         a.Rank,
		CoefficientNames:             a.CoefficientNames,
		OriginalCoefficientPositions: a.OriginalCoefficientPositions,
		ConstantNames:                a.ConstantNames,
		FiniteElementHashes:          a.FiniteElementHashes,
	}
	for k, t := range IntegralTypes {
		var list []SubdomainIntegral
		for i := a.Offsets[k]; i < a.Offsets[k+1]; i++ {
			list = append(list, SubdomainIntegral{ID: a.IDs[i], Integral: a.Integrals[i]})
		}
		switch t {
		case Cell:
			def.CellIntegrals = list
		case ExteriorFacet:
			def.ExteriorFacetIntegrals = list
		case InteriorFacet:
			def.InteriorFacetIntegrals = list
		}
	}
	return New(def)
}
