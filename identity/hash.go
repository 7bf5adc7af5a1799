// Package identity provides the cross-reference keys shared by the kernel
// generator and the consumer: 64-bit content hashes for finite elements and
// coordinate maps, and the ABI version that accompanies every descriptor set.
//
// A hash is never a link. Both sides compute it independently from their own
// definitions and the consumer compares the two once, at setup, before any
// kernel is invoked.
package identity

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Hash identifies a finite element or coordinate element by content
type Hash uint64

// HashOf hashes the given parts. Every part is length prefixed so that
// ("ab", "c") and ("a", "bc") hash differently.
func HashOf(parts ...string) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only returned for an oversized key
		panic(err)
	}
	var lenBuf [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(p)))
		h.Write(lenBuf[:])
		h.Write([]byte(p))
	}
	sum := h.Sum(nil)
	return Hash(binary.LittleEndian.Uint64(sum[:8]))
}

// String returns the hash as 16 lower-case hex digits
func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// ParseHash parses the String form, with or without a 0x prefix
func ParseHash(s string) (Hash, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return Hash(v), nil
}

// MarshalText implements encoding.TextMarshaler so hashes serialize as hex
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (h *Hash) UnmarshalText(text []byte) error {
	v, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}
