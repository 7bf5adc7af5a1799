package kernel

import "fmt"

// Permutation is the per-side facet orientation code passed to interior
// facet kernels. The value N means N/2 rotations followed by N%2
// reflections of that side's local facet.
type Permutation uint8

// Decode splits a permutation code into its rotation and reflection counts
func Decode(code uint8) (rotations, reflections int) {
	return int(code / 2), int(code % 2)
}

// Encode builds a permutation code from rotation and reflection counts
func Encode(rotations, reflections int) (uint8, error) {
	if rotations < 0 || reflections < 0 || reflections > 1 {
		return 0, fmt.Errorf("invalid permutation: %d rotations, %d reflections", rotations, reflections)
	}
	code := 2*rotations + reflections
	if code > 255 {
		return 0, fmt.Errorf("permutation code %d does not fit in uint8", code)
	}
	return uint8(code), nil
}

// Rotations returns the number of rotations encoded in p
func (p Permutation) Rotations() int {
	r, _ := Decode(uint8(p))
	return r
}

// Reflections returns the number of reflections encoded in p
func (p Permutation) Reflections() int {
	_, r := Decode(uint8(p))
	return r
}

func (p Permutation) String() string {
	return fmt.Sprintf("rot=%d ref=%d", p.Rotations(), p.Reflections())
}
