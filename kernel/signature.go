package kernel

// Func is the tabulation calling convention.
//
//	A                     output element tensor, the only buffer written
//	w                     coefficients, w[coefficient][restriction][dof]
//	c                     constants, c[constant][component]
//	coordinateDofs        geometry, coordinateDofs[restriction][node][3]
//	entityLocalIndex      local facet index per adjacent cell, nil for cells
//	quadraturePermutation permutation code per adjacent cell, nil when unused
//
// Restriction has two slots for interior facet kernels and one otherwise.
type Func[T Scalar, R Real] func(A, w, c []T, coordinateDofs []R,
	entityLocalIndex []int32, quadraturePermutation []uint8)

// Set holds the kernel generated for each precision. Any field may be nil
// when the generator was not asked for that representation.
type Set struct {
	Float32    Func[float32, float32]
	Float64    Func[float64, float64]
	Complex64  Func[complex64, float32]
	Complex128 Func[complex128, float64]
}

// Has reports whether a kernel exists for p
func (s Set) Has(p Precision) bool {
	switch p {
	case Float32:
		return s.Float32 != nil
	case Float64:
		return s.Float64 != nil
	case Complex64:
		return s.Complex64 != nil
	case Complex128:
		return s.Complex128 != nil
	default:
		return false
	}
}

// Precisions returns the representations the set provides
func (s Set) Precisions() []Precision {
	var out []Precision
	for _, p := range Precisions {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Empty reports whether no kernel is present at all
func (s Set) Empty() bool {
	return len(s.Precisions()) == 0
}

// Lookup returns the kernel whose scalar and coordinate types are T and R.
// The type parameters pick exactly one representation per call; asking for
// a combination the ABI does not define (float64 scalars on float32
// coordinates, say) returns false.
func Lookup[T Scalar, R Real](s Set) (Func[T, R], bool) {
	var f any
	switch PrecisionOf[T]() {
	case Float32:
		f = s.Float32
	case Float64:
		f = s.Float64
	case Complex64:
		f = s.Complex64
	case Complex128:
		f = s.Complex128
	}
	fn, ok := f.(Func[T, R])
	if !ok || fn == nil {
		return nil, false
	}
	return fn, true
}
