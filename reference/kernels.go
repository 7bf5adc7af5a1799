package reference

import "github.com/notargets/tabulate/kernel"

// Every kernel here overwrites A and reads only its arguments and the
// tables captured at generation time, which are never written after.

func massKernel[T kernel.Scalar, R kernel.Real](tb table) kernel.Func[T, R] {
	n, nq := tb.n, len(tb.weights)
	phi := flat[T](tb.phi)
	wq := castSlice[T](tb.weights)
	return func(A, w, c []T, x []R, _ []int32, _ []uint8) {
		scale := kernel.Cast[T](cellScale(x, 0))
		for i := range A[:n*n] {
			A[i] = 0
		}
		for q := 0; q < nq; q++ {
			row := phi[q*n : (q+1)*n]
			s := wq[q] * scale
			for i := 0; i < n; i++ {
				si := s * row[i]
				for j := 0; j < n; j++ {
					A[i*n+j] += si * row[j]
				}
			}
		}
	}
}

// loadCellKernel computes kappa * (f, v) over the cell. f is coefficient 0.
func loadCellKernel[T kernel.Scalar, R kernel.Real](tb table) kernel.Func[T, R] {
	n, nq := tb.n, len(tb.weights)
	phi := flat[T](tb.phi)
	wq := castSlice[T](tb.weights)
	return func(A, w, c []T, x []R, _ []int32, _ []uint8) {
		scale := kernel.Cast[T](cellScale(x, 0)) * c[0]
		f := w[:n]
		for i := 0; i < n; i++ {
			A[i] = 0
		}
		for q := 0; q < nq; q++ {
			row := phi[q*n : (q+1)*n]
			var fq T
			for k := 0; k < n; k++ {
				fq += f[k] * row[k]
			}
			s := wq[q] * scale * fq
			for i := 0; i < n; i++ {
				A[i] += s * row[i]
			}
		}
	}
}

// loadFacetKernel computes (g, v) over one boundary facet, scaled by kappa
// when withKappa is set. g is coefficient 1.
func loadFacetKernel[T kernel.Scalar, R kernel.Real](tbs [3][2]table, withKappa bool) kernel.Func[T, R] {
	n, nq := tbs[0][0].n, len(tbs[0][0].weights)
	var phi [3][]T
	for f := range phi {
		phi[f] = flat[T](tbs[f][0].phi)
	}
	wq := castSlice[T](tbs[0][0].weights)
	return func(A, w, c []T, x []R, entityLocalIndex []int32, _ []uint8) {
		f := int(entityLocalIndex[0])
		scale := kernel.Cast[T](facetScale(x, 0, f))
		if withKappa {
			scale *= c[0]
		}
		g := w[n : 2*n]
		tab := phi[f]
		for i := 0; i < n; i++ {
			A[i] = 0
		}
		for q := 0; q < nq; q++ {
			row := tab[q*n : (q+1)*n]
			var gq T
			for k := 0; k < n; k++ {
				gq += g[k] * row[k]
			}
			s := wq[q] * scale * gq
			for i := 0; i < n; i++ {
				A[i] += s * row[i]
			}
		}
	}
}

// jumpKernel computes the integral of (u+ - u-)^2 over an interior facet.
// Each side's points are taken from the table for its local facet and
// permutation code so both sides evaluate at the same physical points.
func jumpKernel[T kernel.Scalar, R kernel.Real](tbs [3][2]table) kernel.Func[T, R] {
	n, nq := tbs[0][0].n, len(tbs[0][0].weights)
	var phi [3][2][]T
	for f := range phi {
		for code := range phi[f] {
			phi[f][code] = flat[T](tbs[f][code].phi)
		}
	}
	wq := castSlice[T](tbs[0][0].weights)
	return func(A, w, c []T, x []R, entityLocalIndex []int32, quadraturePermutation []uint8) {
		f0, f1 := int(entityLocalIndex[0]), int(entityLocalIndex[1])
		t0 := phi[f0][quadraturePermutation[0]]
		t1 := phi[f1][quadraturePermutation[1]]
		scale := kernel.Cast[T](facetScale(x, 0, f0))
		u0, u1 := w[:n], w[n:2*n]

		var sum T
		for q := 0; q < nq; q++ {
			var a, b T
			for k := 0; k < n; k++ {
				a += u0[k] * t0[q*n+k]
				b += u1[k] * t1[q*n+k]
			}
			d := a - b
			sum += wq[q] * d * d
		}
		A[0] = sum * scale
	}
}

// pointValuesKernel evaluates coefficient u at fixed points. A[p] = u(x_p).
func pointValuesKernel[T kernel.Scalar, R kernel.Real](tb table) kernel.Func[T, R] {
	n, np := tb.n, len(tb.weights)
	phi := flat[T](tb.phi)
	return func(A, w, c []T, x []R, _ []int32, _ []uint8) {
		u := w[:n]
		for p := 0; p < np; p++ {
			row := phi[p*n : (p+1)*n]
			var v T
			for k := 0; k < n; k++ {
				v += u[k] * row[k]
			}
			A[p] = v
		}
	}
}

// basisValuesKernel writes every basis function at fixed points:
// A[p*n + i] = phi_i(x_p)
func basisValuesKernel[T kernel.Scalar, R kernel.Real](tb table) kernel.Func[T, R] {
	phi := flat[T](tb.phi)
	return func(A, w, c []T, x []R, _ []int32, _ []uint8) {
		copy(A, phi)
	}
}

func massSet(tb table) kernel.Set {
	return kernel.Set{
		Float32:    massKernel[float32, float32](tb),
		Float64:    massKernel[float64, float64](tb),
		Complex64:  massKernel[complex64, float32](tb),
		Complex128: massKernel[complex128, float64](tb),
	}
}

func loadCellSet(tb table) kernel.Set {
	return kernel.Set{
		Float32:    loadCellKernel[float32, float32](tb),
		Float64:    loadCellKernel[float64, float64](tb),
		Complex64:  loadCellKernel[complex64, float32](tb),
		Complex128: loadCellKernel[complex128, float64](tb),
	}
}

func loadFacetSet(tbs [3][2]table, withKappa bool) kernel.Set {
	return kernel.Set{
		Float32:    loadFacetKernel[float32, float32](tbs, withKappa),
		Float64:    loadFacetKernel[float64, float64](tbs, withKappa),
		Complex64:  loadFacetKernel[complex64, float32](tbs, withKappa),
		Complex128: loadFacetKernel[complex128, float64](tbs, withKappa),
	}
}

func jumpSet(tbs [3][2]table) kernel.Set {
	return kernel.Set{
		Float32:    jumpKernel[float32, float32](tbs),
		Float64:    jumpKernel[float64, float64](tbs),
		Complex64:  jumpKernel[complex64, float32](tbs),
		Complex128: jumpKernel[complex128, float64](tbs),
	}
}

func pointValuesSet(tb table) kernel.Set {
	return kernel.Set{
		Float32:    pointValuesKernel[float32, float32](tb),
		Float64:    pointValuesKernel[float64, float64](tb),
		Complex64:  pointValuesKernel[complex64, float32](tb),
		Complex128: pointValuesKernel[complex128, float64](tb),
	}
}

func basisValuesSet(tb table) kernel.Set {
	return kernel.Set{
		Float32:    basisValuesKernel[float32, float32](tb),
		Float64:    basisValuesKernel[float64, float64](tb),
		Complex64:  basisValuesKernel[complex64, float32](tb),
		Complex128: basisValuesKernel[complex128, float64](tb),
	}
}
