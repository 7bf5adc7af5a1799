// Package reference generates conforming descriptors for Lagrange elements
// on triangles: a mass matrix, a load vector with boundary terms, an
// interior facet jump functional, and point evaluation expressions. Every
// kernel is written once over the scalar type and instantiated for all four
// precisions.
//
// Geometry is always the affine vector P1 triangle; coordinate dofs hold
// three nodes of three components per restriction.
package reference

import (
	"fmt"
	"strconv"

	"github.com/notargets/tabulate/catalog"
	"github.com/notargets/tabulate/element"
	"github.com/notargets/tabulate/expression"
	"github.com/notargets/tabulate/form"
	"github.com/notargets/tabulate/identity"
	"gonum.org/v1/gonum/mat"
)

// Names the catalog uses
const (
	MassName        = "mass"
	LoadName        = "load"
	JumpName        = "jump"
	PointValuesName = "point_values"
	BasisValuesName = "basis_values"
)

// CoordinateNodes is the number of coordinate dofs per cell
const CoordinateNodes = 3

// Subdomain ids of the load form's boundary integrals
const (
	NeumannID       = 1
	ScaledNeumannID = 2
)

// CoordinateElement is the geometry every reference kernel is generated
// against
func CoordinateElement() element.Descriptor {
	return element.P(element.Triangle, 1).Vector(2)
}

// Element is the scalar element of the given order
func Element(order int) element.Descriptor {
	return element.P(element.Triangle, order)
}

// Environment is the consumer environment matching the reference catalog
func Environment() identity.Environment {
	return identity.Environment{
		Version:           identity.Current,
		CoordinateElement: CoordinateElement().Hash(),
	}
}

func signature(name string, order int) string {
	h := identity.HashOf(name, strconv.Itoa(order), CoordinateElement().String(), identity.Current.String())
	return fmt.Sprintf("%s_p%d_%s", name, order, h)
}

// Mass is the bilinear form (u, v) over cells
func Mass(order int) (*form.Form, error) {
	le := element.NewLagrange(order)
	eh := Element(order).Hash()
	return form.New(form.Definition{
		Signature:           signature(MassName, order),
		Rank:                2,
		FiniteElementHashes: []identity.Hash{eh, eh},
		CellIntegrals: []form.SubdomainIntegral{{
			ID: form.DefaultSubdomain,
			Integral: form.IntegralSpec{
				EnabledCoefficients:   []bool{},
				Kernels:               massSet(cellTable(le, 2*order)),
				CoordinateElementHash: CoordinateElement().Hash(),
			},
		}},
	})
}

// Load is the linear form kappa*(f, v) + (g, v) on boundary subdomain 1 +
// kappa*(g, v) on boundary subdomain 2
func Load(order int) (*form.Form, error) {
	le := element.NewLagrange(order)
	eh := Element(order).Hash()
	coord := CoordinateElement().Hash()
	facets := facetTables(le, 2*order)
	return form.New(form.Definition{
		Signature:           signature(LoadName, order),
		Rank:                1,
		CoefficientNames:    []string{"f", "g"},
		ConstantNames:       []string{"kappa"},
		FiniteElementHashes: []identity.Hash{eh, eh, eh},
		CellIntegrals: []form.SubdomainIntegral{{
			ID: form.DefaultSubdomain,
			Integral: form.IntegralSpec{
				EnabledCoefficients:   []bool{true, false},
				Kernels:               loadCellSet(cellTable(le, 2*order)),
				CoordinateElementHash: coord,
			},
		}},
		ExteriorFacetIntegrals: []form.SubdomainIntegral{
			{
				ID: ScaledNeumannID,
				Integral: form.IntegralSpec{
					EnabledCoefficients:   []bool{false, true},
					Kernels:               loadFacetSet(facets, true),
					CoordinateElementHash: coord,
				},
			},
			{
				ID: NeumannID,
				Integral: form.IntegralSpec{
					EnabledCoefficients:   []bool{false, true},
					Kernels:               loadFacetSet(facets, false),
					CoordinateElementHash: coord,
				},
			},
		},
	})
}

// Jump is the functional of u: the integral of (u+ - u-)^2 over interior
// facets. It needs facet permutation codes.
func Jump(order int) (*form.Form, error) {
	le := element.NewLagrange(order)
	return form.New(form.Definition{
		Signature:           signature(JumpName, order),
		Rank:                0,
		CoefficientNames:    []string{"u"},
		FiniteElementHashes: []identity.Hash{Element(order).Hash()},
		InteriorFacetIntegrals: []form.SubdomainIntegral{{
			ID: form.DefaultSubdomain,
			Integral: form.IntegralSpec{
				EnabledCoefficients:    []bool{true},
				Kernels:                jumpSet(facetTables(le, 2*order)),
				NeedsFacetPermutations: true,
				CoordinateElementHash:  CoordinateElement().Hash(),
			},
		}},
	})
}

func pointTable(le *element.Lagrange, points mat.Matrix) (table, []float64, error) {
	np, dim := points.Dims()
	if dim != 2 {
		return table{}, nil, fmt.Errorf("triangle points need 2 columns, got %d", dim)
	}
	vals, _, _ := le.Tabulate(points)
	raw := make([]float64, 0, np*dim)
	for i := 0; i < np; i++ {
		raw = append(raw, points.At(i, 0), points.At(i, 1))
	}
	return table{n: le.Np(), weights: make([]float64, np), phi: vals}, raw, nil
}

// PointValues evaluates coefficient u at the given reference points
// (one row per point). Rank 0, value shape [1].
func PointValues(order int, points mat.Matrix) (*expression.Expression, error) {
	le := element.NewLagrange(order)
	tb, raw, err := pointTable(le, points)
	if err != nil {
		return nil, err
	}
	return expression.New(expression.Spec{
		Name:                         PointValuesName,
		Kernels:                      pointValuesSet(tb),
		CoefficientNames:             []string{"u"},
		OriginalCoefficientPositions: []int{0},
		EntityDimension:              2,
		Points:                       raw,
		ValueShape:                   []int{1},
		Rank:                         0,
		CoordinateElementHash:        CoordinateElement().Hash(),
	})
}

// BasisValues evaluates every basis function at the given reference
// points. Rank 1, value shape [1].
func BasisValues(order int, points mat.Matrix) (*expression.Expression, error) {
	le := element.NewLagrange(order)
	tb, raw, err := pointTable(le, points)
	if err != nil {
		return nil, err
	}
	return expression.New(expression.Spec{
		Name:                  BasisValuesName,
		Kernels:               basisValuesSet(tb),
		EntityDimension:       2,
		Points:                raw,
		ValueShape:            []int{1},
		Rank:                  1,
		CoordinateElementHash: CoordinateElement().Hash(),
	})
}

// SamplePoints are the evaluation points of the catalog's expressions:
// the centroid and two edge midpoints
func SamplePoints() *mat.Dense {
	return mat.NewDense(3, 2, []float64{
		1. / 3, 1. / 3,
		0.5, 0,
		0, 0.5,
	})
}

// Catalog generates every reference descriptor for the given order
func Catalog(order int) (*catalog.Catalog, error) {
	forms := make(map[string]*form.Form)
	for name, gen := range map[string]func(int) (*form.Form, error){
		MassName: Mass,
		LoadName: Load,
		JumpName: Jump,
	} {
		f, err := gen(order)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", name, err)
		}
		forms[name] = f
	}

	exprs := make(map[string]*expression.Expression)
	for name, gen := range map[string]func(int, mat.Matrix) (*expression.Expression, error){
		PointValuesName: PointValues,
		BasisValuesName: BasisValues,
	} {
		e, err := gen(order, SamplePoints())
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", name, err)
		}
		exprs[name] = e
	}
	return catalog.New(identity.Current, forms, exprs)
}
