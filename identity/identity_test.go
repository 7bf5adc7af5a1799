package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashOf(t *testing.T) {
	a := HashOf("P", "triangle", "1")
	assert.Equal(t, a, HashOf("P", "triangle", "1"), "hash must be deterministic")
	assert.NotEqual(t, a, HashOf("P", "triangle", "2"))
	assert.NotEqual(t, HashOf("ab", "c"), HashOf("a", "bc"), "parts must be length prefixed")
}

func TestHashText(t *testing.T) {
	h := HashOf("coordinate")
	text, err := h.MarshalText()
	require.NoError(t, err)
	assert.Len(t, text, 16)

	var back Hash
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, h, back)

	parsed, err := ParseHash("0x" + h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = ParseHash("not-hex")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{"0.9.0", Version{Minor: 9, Release: true}, false},
		{"0.9.0.dev0", Version{Minor: 9}, false},
		{"1.2.3.dev4", Version{Major: 1, Minor: 2, Maintenance: 3, Dev: 4}, false},
		{"1.2", Version{}, true},
		{"1.2.x", Version{}, true},
		{"1.2.3.rc1", Version{}, true},
		{"1.2.3.dev-1", Version{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}

	assert.Equal(t, "0.9.0.dev0", Current.String())
	dev, _ := ParseVersion("0.9.0.dev0")
	rel, _ := ParseVersion("0.9.0")
	assert.True(t, dev.Less(rel))
	assert.False(t, rel.Less(dev))
	assert.False(t, dev.Compatible(rel))
}

func TestEnvironmentChecks(t *testing.T) {
	own := HashOf("P", "triangle", "1", "2")
	env := Environment{Version: Current, CoordinateElement: own}

	assert.NoError(t, env.CheckVersion(Current))
	err := env.CheckVersion(Version{Major: 1, Release: true})
	var vErr *VersionMismatchError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, err.Error(), "1.0.0")

	assert.NoError(t, env.CheckCoordinate("cell integral 0", own))
	err = env.CheckCoordinate("cell integral 0", own+1)
	var hErr *HashMismatchError
	require.True(t, errors.As(err, &hErr))
	assert.Equal(t, own+1, hErr.Recorded)
	assert.Equal(t, own, hErr.Own)
	assert.Contains(t, err.Error(), "cell integral 0")
}
