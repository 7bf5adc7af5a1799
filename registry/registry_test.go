package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/notargets/tabulate/identity"
	"github.com/notargets/tabulate/manifest"
	"github.com/notargets/tabulate/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func referenceManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	c, err := reference.Catalog(1)
	require.NoError(t, err)
	m, err := manifest.FromCatalog(c)
	require.NoError(t, err)
	return m
}

func openTemp(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	r, err := Open(context.Background(), filepath.Join(t.TempDir(), "forms", "registry.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)
	r := openTemp(t, WithLogger(zap.New(core)))
	m := referenceManifest(t)

	require.NoError(t, r.PutAll(ctx, m))
	assert.Equal(t, len(m.Forms), logs.FilterMessage("form registered").Len())

	sigs, err := r.Signatures(ctx)
	require.NoError(t, err)
	require.Len(t, sigs, len(m.Forms))
	assert.IsIncreasing(t, sigs)

	for _, want := range m.Forms {
		got, version, err := r.Get(ctx, want.Signature)
		require.NoError(t, err)
		assert.Equal(t, m.Version, version)
		if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%s (-want +got):\n%s", want.Name, diff)
		}
	}

	// a second Put replaces
	load, _ := m.Form(reference.LoadName)
	load.Name = "renamed"
	require.NoError(t, r.Put(ctx, m.Version, load))
	got, _, err := r.Get(ctx, load.Signature)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	sigs, err = r.Signatures(ctx)
	require.NoError(t, err)
	assert.Len(t, sigs, len(m.Forms))

	_, _, err = r.Get(ctx, "unknown")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, r.Delete(ctx, load.Signature))
	assert.True(t, errors.Is(r.Delete(ctx, load.Signature), ErrNotFound))
	_, _, err = r.Get(ctx, load.Signature)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPutRejectsInvalid(t *testing.T) {
	r := openTemp(t)
	m := referenceManifest(t)
	f := m.Forms[0]
	f.Offsets = []int{0, 0, 0, 0}
	assert.Error(t, r.Put(context.Background(), m.Version, f))
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	r := openTemp(t)
	m := referenceManifest(t)
	require.NoError(t, r.PutAll(ctx, m))

	mass, ok := m.Form(reference.MassName)
	require.True(t, ok)
	env := reference.Environment()
	p1 := reference.Element(1).Hash()
	good := []identity.Hash{p1, p1}

	consumer := ConsumerHash(env, good)
	_, found, err := r.Verified(ctx, mass.Signature, consumer)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, r.Verify(ctx, mass.Signature, env, good))
	passed, found, err := r.Verified(ctx, mass.Signature, consumer)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, passed)

	p2 := reference.Element(2).Hash()
	bad := []identity.Hash{p1, p2}
	err = r.Verify(ctx, mass.Signature, env, bad)
	var hm *identity.HashMismatchError
	require.True(t, errors.As(err, &hm))
	passed, found, err = r.Verified(ctx, mass.Signature, ConsumerHash(env, bad))
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, passed)

	future := env
	future.Version = identity.Version{Major: 1, Release: true}
	var vm *identity.VersionMismatchError
	assert.True(t, errors.As(r.Verify(ctx, mass.Signature, future, good), &vm))

	// replacing the manifest forgets earlier checks
	require.NoError(t, r.Put(ctx, m.Version, mass))
	_, found, err = r.Verified(ctx, mass.Signature, consumer)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Error(t, r.RecordVerification(ctx, "unknown", consumer, true), "verifications need a stored form")
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	r, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.PutAll(ctx, referenceManifest(t)))
	sigs, err := r.Signatures(ctx)
	require.NoError(t, err)
	assert.Len(t, sigs, 3)
	assert.Equal(t, ":memory:", r.Path())
}
