package device

import (
	"fmt"

	"github.com/notargets/tabulate/element"
	"github.com/notargets/tabulate/kernel"
	"github.com/notargets/tabulate/quadrature"
	"gonum.org/v1/gonum/mat"
)

const massBody = `const real_t x0 = coordinate_dofs[0], y0 = coordinate_dofs[1];
const real_t x1 = coordinate_dofs[3], y1 = coordinate_dofs[4];
const real_t x2 = coordinate_dofs[6], y2 = coordinate_dofs[7];
real_t det = (x1 - x0)*(y2 - y0) - (x2 - x0)*(y1 - y0);
if (det < REAL_ZERO) det = -det;
for (int i = 0; i < TENSOR_SIZE; ++i) A[i] = REAL_ZERO;
for (int q = 0; q < NQ; ++q) {
  const real_t s = W[0][q]*det;
  for (int i = 0; i < NDOF; ++i) {
    const real_t si = s*PHI[q][i];
    for (int j = 0; j < NDOF; ++j) {
      A[i*NDOF + j] += si*PHI[q][j];
    }
  }
}`

// MassSource is the device version of the Lagrange triangle mass matrix on
// affine cells, exact for the given order
func MassSource(order int, p kernel.Precision, batch int) Source {
	le := element.NewLagrange(order)
	rule := quadrature.Triangle(2 * order)
	phi, _, _ := le.Tabulate(rule.Points)
	n, nq := le.Np(), rule.NumPoints()
	return Source{
		Name:            fmt.Sprintf("mass_p%d", order),
		Body:            massBody,
		Precision:       p,
		TensorSize:      n * n,
		CoefficientSize: 0,
		ConstantSize:    0,
		CoordinateSize:  3 * kernel.GeometricDimension,
		Restrictions:    1,
		Batch:           batch,
		Tables: map[string]mat.Matrix{
			"PHI": phi,
			"W":   mat.NewDense(1, nq, rule.Weights),
		},
		Defines: map[string]int{"NDOF": n, "NQ": nq},
	}
}
