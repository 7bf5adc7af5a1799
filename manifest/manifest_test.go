package manifest

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/notargets/tabulate/form"
	"github.com/notargets/tabulate/identity"
	"github.com/notargets/tabulate/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceManifest(t *testing.T) *Manifest {
	t.Helper()
	c, err := reference.Catalog(2)
	require.NoError(t, err)
	m, err := FromCatalog(c)
	require.NoError(t, err)
	return m
}

func TestFromCatalog(t *testing.T) {
	m := referenceManifest(t)
	require.NoError(t, m.Validate())
	assert.Equal(t, identity.Current, m.Version)
	require.Len(t, m.Forms, 3)
	require.Len(t, m.Expressions, 2)

	load, ok := m.Form(reference.LoadName)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 3, 3}, load.Offsets)
	require.Len(t, load.Integrals, 3)
	assert.Equal(t, form.Cell, load.Integrals[0].Type)
	assert.Equal(t, form.DefaultSubdomain, load.Integrals[0].SubdomainID)
	assert.Equal(t, []bool{true, false}, load.Integrals[0].EnabledCoefficients)
	assert.Equal(t, reference.NeumannID, load.Integrals[1].SubdomainID)
	assert.Equal(t, reference.ScaledNeumannID, load.Integrals[2].SubdomainID)
	assert.Len(t, load.Integrals[2].Precisions, 4)

	bySig, ok := m.Form(load.Signature)
	require.True(t, ok)
	assert.Equal(t, load.Name, bySig.Name)

	jump, ok := m.Form(reference.JumpName)
	require.True(t, ok)
	assert.True(t, jump.Integrals[0].NeedsFacetPermutations)

	_, ok = m.Form("stiffness")
	assert.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	m := referenceManifest(t)
	dir := t.TempDir()
	for _, name := range []string{"catalog.yaml", "catalog.yml", "catalog.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, m.Save(path))
			back, err := Load(path)
			require.NoError(t, err)
			if diff := cmp.Diff(m, back, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			require.NoError(t, back.Validate())
		})
	}

	assert.Error(t, m.Save(filepath.Join(dir, "catalog.json")))
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
	_, err = Unmarshal("bad.yaml", []byte("forms: [:"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *FormManifest)
	}{
		{"offsets do not cover integrals", func(f *FormManifest) { f.Offsets = []int{0, 1, 2, 2} }},
		{"offsets decrease", func(f *FormManifest) { f.Offsets = []int{0, 2, 1, 3} }},
		{"integral in wrong range", func(f *FormManifest) { f.Integrals[0].Type = form.InteriorFacet }},
		{"ids out of order", func(f *FormManifest) {
			f.Integrals[1], f.Integrals[2] = f.Integrals[2], f.Integrals[1]
		}},
		{"bad id", func(f *FormManifest) { f.Integrals[1].SubdomainID = -4 }},
		{"mask length", func(f *FormManifest) { f.Integrals[0].EnabledCoefficients = []bool{true} }},
		{"hash count", func(f *FormManifest) { f.FiniteElementHashes = f.FiniteElementHashes[:1] }},
		{"no kernels", func(f *FormManifest) { f.Integrals[2].Precisions = nil }},
		{"empty signature", func(f *FormManifest) { f.Signature = "" }},
		{"positions", func(f *FormManifest) { f.OriginalCoefficientPositions = []int{0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := referenceManifest(t)
			for i := range m.Forms {
				if m.Forms[i].Name == reference.LoadName {
					tt.mutate(&m.Forms[i])
				}
			}
			assert.Error(t, m.Validate())
		})
	}

	t.Run("duplicate signature", func(t *testing.T) {
		m := referenceManifest(t)
		m.Forms = append(m.Forms, m.Forms[0])
		assert.Error(t, m.Validate())
	})
	t.Run("expression points", func(t *testing.T) {
		m := referenceManifest(t)
		m.Expressions[0].Points = m.Expressions[0].Points[:3]
		assert.Error(t, m.Validate())
	})
}

func TestCheck(t *testing.T) {
	m := referenceManifest(t)
	env := reference.Environment()
	require.NoError(t, m.Check(env))

	old := env
	old.Version = identity.Version{Major: 0, Minor: 8, Release: true}
	var vm *identity.VersionMismatchError
	assert.True(t, errors.As(m.Check(old), &vm))

	load, ok := m.Form(reference.LoadName)
	require.True(t, ok)
	p2 := reference.Element(2).Hash()
	require.NoError(t, load.Check(env, []identity.Hash{p2, p2, p2}))

	p1 := reference.Element(1).Hash()
	err := load.Check(env, []identity.Hash{p2, p1, p2})
	require.Error(t, err)
	var hm *identity.HashMismatchError
	require.True(t, errors.As(err, &hm))
	assert.Equal(t, `coefficient "f" element`, hm.What)
	assert.Equal(t, p2, hm.Recorded)
	assert.Equal(t, p1, hm.Own)

	other := env
	other.CoordinateElement = identity.HashOf("quadratic geometry")
	assert.Error(t, load.Check(other, []identity.Hash{p2, p2, p2}))
	assert.Error(t, load.Check(env, []identity.Hash{p2}))
}
