// Package kernel defines the calling convention shared by every generated
// tabulation kernel.
//
// A kernel fills an element tensor A from coefficient values w, constants c
// and the coordinate dofs of the entity it is evaluated on. It owns no state,
// reads nothing outside its arguments and writes only A, so a single kernel
// may be called from any number of goroutines as long as each call gets its
// own A. Kernels have no error return: calling one with badly sized buffers
// is a caller bug. The helpers in this package that construct calls (Layout,
// Pack) are where sizes are checked.
package kernel

import "fmt"

// Precision selects one of the four arithmetic representations a kernel is
// generated for
type Precision int

const (
	Float32 Precision = iota + 1
	Float64
	Complex64
	Complex128
)

// Precisions lists every representation in declaration order
var Precisions = []Precision{Float32, Float64, Complex64, Complex128}

// Scalar is the element type of A, w and c
type Scalar interface {
	~float32 | ~float64 | ~complex64 | ~complex128
}

// Real is the element type of the coordinate dofs
type Real interface {
	~float32 | ~float64
}

func (p Precision) String() string {
	switch p {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	default:
		return fmt.Sprintf("Precision(%d)", int(p))
	}
}

// ParsePrecision is the inverse of String
func ParsePrecision(s string) (Precision, error) {
	for _, p := range Precisions {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown precision %q", s)
}

// IsComplex reports whether A, w and c hold complex values
func (p Precision) IsComplex() bool {
	return p == Complex64 || p == Complex128
}

// SizeOf returns the size in bytes of one scalar of this precision
func (p Precision) SizeOf() int {
	switch p {
	case Float32:
		return 4
	case Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		return 0
	}
}

// CoordinateSizeOf returns the size in bytes of one coordinate value
func (p Precision) CoordinateSizeOf() int {
	switch p {
	case Float32, Complex64:
		return 4
	case Float64, Complex128:
		return 8
	default:
		return 0
	}
}

// PrecisionOf returns the Precision whose scalar type is T
func PrecisionOf[T Scalar]() Precision {
	var z T
	switch any(z).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	default:
		return 0
	}
}

// Cast converts a real number into the scalar type T. Kernels are written
// once over T and use Cast for quadrature weights and geometry factors.
func Cast[T Scalar](x float64) T {
	var z T
	switch p := any(&z).(type) {
	case *float32:
		*p = float32(x)
	case *float64:
		*p = x
	case *complex64:
		*p = complex(float32(x), 0)
	case *complex128:
		*p = complex(x, 0)
	}
	return z
}

// MarshalText encodes the precision by name
func (p Precision) MarshalText() ([]byte, error) {
	if p < Float32 || p > Complex128 {
		return nil, fmt.Errorf("invalid precision %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a precision name
func (p *Precision) UnmarshalText(text []byte) error {
	v, err := ParsePrecision(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
