package gonudg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vandermonde2D initializes the 2D Vandermonde Matrix V_{ij} = phi_j(r_i, s_i)
// for the orthonormal simplex basis of order N
func Vandermonde2D(N int, R, S []float64) *mat.Dense {
	Np := (N + 1) * (N + 2) / 2
	Nr := len(R)

	V2D := mat.NewDense(Nr, Np, nil)

	sk := 0
	for i := 0; i <= N; i++ {
		for j := 0; j <= (N - i); j++ {
			P := Simplex2DP(R, S, i, j)
			for row := 0; row < Nr; row++ {
				V2D.Set(row, sk, P[row])
			}
			sk++
		}
	}
	return V2D
}

// GradVandermonde2D returns the derivatives of the modal basis with respect
// to r and s at (R, S)
func GradVandermonde2D(N int, R, S []float64) (V2Dr, V2Ds *mat.Dense) {
	Np := (N + 1) * (N + 2) / 2
	Nr := len(R)

	V2Dr = mat.NewDense(Nr, Np, nil)
	V2Ds = mat.NewDense(Nr, Np, nil)

	sk := 0
	for i := 0; i <= N; i++ {
		for j := 0; j <= (N - i); j++ {
			dr, ds := GradSimplex2DP(R, S, i, j)
			for row := 0; row < Nr; row++ {
				V2Dr.Set(row, sk, dr[row])
				V2Ds.Set(row, sk, ds[row])
			}
			sk++
		}
	}
	return
}

// Simplex2DP evaluates 2D orthonormal polynomial on simplex at (R,
// S) of order (i,j)
func Simplex2DP(R, S []float64, i, j int) []float64 {
	a, b := RStoAB(R, S)

	h1 := JacobiP(a, 0, 0, i)
	h2 := JacobiP(b, float64(2*i+1), 0, j)

	P := make([]float64, len(R))
	for ii := range h1 {
		P[ii] = math.Sqrt2 * h1[ii] * h2[ii] * pow(1-b[ii], i)
	}
	return P
}

// GradSimplex2DP evaluates the r and s derivatives of the orthonormal
// simplex polynomial of order (id,jd)
func GradSimplex2DP(R, S []float64, id, jd int) (dmodedr, dmodeds []float64) {
	a, b := RStoAB(R, S)

	fa := JacobiP(a, 0, 0, id)
	dfa := GradJacobiP(a, 0, 0, id)
	gb := JacobiP(b, float64(2*id+1), 0, jd)
	dgb := GradJacobiP(b, float64(2*id+1), 0, jd)

	n := len(R)
	dmodedr = make([]float64, n)
	dmodeds = make([]float64, n)
	scale := math.Pow(2, float64(id)+0.5)
	for k := 0; k < n; k++ {
		half := 0.5 * (1 - b[k])

		// r-derivative
		dr := dfa[k] * gb[k]
		if id > 0 {
			dr *= pow(half, id-1)
		}

		// s-derivative
		ds := dfa[k] * gb[k] * 0.5 * (1 + a[k])
		if id > 0 {
			ds *= pow(half, id-1)
		}
		tmp := dgb[k] * pow(half, id)
		if id > 0 {
			tmp -= 0.5 * float64(id) * gb[k] * pow(half, id-1)
		}
		ds += fa[k] * tmp

		dmodedr[k] = scale * dr
		dmodeds[k] = scale * ds
	}
	return
}

// RStoAB converts from (r,s) to the collapsed (a,b) coordinates
func RStoAB(R, S []float64) (a, b []float64) {
	Np := len(R)
	a = make([]float64, Np)
	b = make([]float64, Np)

	for n := 0; n < Np; n++ {
		if S[n] != 1 {
			a[n] = 2*(1+R[n])/(1-S[n]) - 1
		} else {
			a[n] = -1
		}
		b[n] = S[n]
	}
	return
}

// pow computes x^n for integer n >= 0
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
