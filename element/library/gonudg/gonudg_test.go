package gonudg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
)

func TestJacobiGQ(t *testing.T) {
	t.Run("Legendre weights", func(t *testing.T) {
		for N := 0; N < 6; N++ {
			X, W := JacobiGQ(0, 0, N)
			assert.Len(t, X, N+1)
			assert.InDelta(t, 2.0, floats.Sum(W), 1e-13, "N=%d", N)
			// exact for degree 2N+1
			sum := 0.0
			for i := range X {
				sum += W[i] * math.Pow(X[i], float64(2*N))
			}
			assert.InDelta(t, 2.0/float64(2*N+1), sum, 1e-12, "N=%d", N)
		}
	})

	t.Run("Jacobi weight", func(t *testing.T) {
		// integral of (1+x) over [-1,1] is 2
		_, W := JacobiGQ(0, 1, 3)
		assert.InDelta(t, 2.0, floats.Sum(W), 1e-13)
		assert.InDelta(t, 2.0, Gamma0(0, 1), 1e-14)
	})

	t.Run("Lobatto endpoints", func(t *testing.T) {
		x := JacobiGL(0, 0, 4)
		assert.Len(t, x, 5)
		assert.Equal(t, -1.0, x[0])
		assert.Equal(t, 1.0, x[4])
		assert.InDelta(t, 0.0, x[2], 1e-14)
	})
}

func TestJacobiPOrthonormal(t *testing.T) {
	X, W := JacobiGQ(0, 0, 8)
	for m := 0; m < 5; m++ {
		Pm := JacobiP(X, 0, 0, m)
		for n := 0; n < 5; n++ {
			Pn := JacobiP(X, 0, 0, n)
			ip := 0.0
			for i := range X {
				ip += W[i] * Pm[i] * Pn[i]
			}
			want := 0.0
			if m == n {
				want = 1.0
			}
			assert.InDelta(t, want, ip, 1e-12, "<P%d,P%d>", m, n)
		}
	}
}

func TestGradJacobiP(t *testing.T) {
	x := []float64{-0.7, -0.1, 0.35, 0.9}
	h := 1e-6
	for n := 0; n < 5; n++ {
		dP := GradJacobiP(x, 1, 0, n)
		for i, xi := range x {
			p := JacobiP([]float64{xi + h}, 1, 0, n)[0]
			m := JacobiP([]float64{xi - h}, 1, 0, n)[0]
			assert.InDelta(t, (p-m)/(2*h), dP[i], 1e-6, "n=%d x=%v", n, xi)
		}
	}
}

func TestVandermonde2D(t *testing.T) {
	R := []float64{-1, 1, -1, -1. / 3, 0.2}
	S := []float64{-1, -1, 1, -1. / 3, -0.6}
	N := 3
	V := Vandermonde2D(N, R, S)
	r, c := V.Dims()
	assert.Equal(t, len(R), r)
	assert.Equal(t, (N+1)*(N+2)/2, c)

	// the constant mode is 1/sqrt(area) on the biunit triangle
	for i := range R {
		assert.InDelta(t, 1/math.Sqrt2, V.At(i, 0), 1e-14)
	}

	Vr, Vs := GradVandermonde2D(N, R, S)
	h := 1e-6
	for i := range R {
		// stay inside the triangle for the stencil
		if R[i]+S[i] > -h || R[i] <= -1+h || S[i] <= -1+h {
			continue
		}
		Vp := Vandermonde2D(N, []float64{R[i] + h}, []float64{S[i]})
		Vm := Vandermonde2D(N, []float64{R[i] - h}, []float64{S[i]})
		Sp := Vandermonde2D(N, []float64{R[i]}, []float64{S[i] + h})
		Sm := Vandermonde2D(N, []float64{R[i]}, []float64{S[i] - h})
		for j := 0; j < c; j++ {
			assert.InDelta(t, (Vp.At(0, j)-Vm.At(0, j))/(2*h), Vr.At(i, j), 1e-6, "dr mode %d", j)
			assert.InDelta(t, (Sp.At(0, j)-Sm.At(0, j))/(2*h), Vs.At(i, j), 1e-6, "ds mode %d", j)
		}
	}
}
