package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/notargets/tabulate/config"
	"github.com/notargets/tabulate/element"
	"github.com/notargets/tabulate/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// execute runs the root command with fresh flag values and returns what it
// printed
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose = false
	logger = zap.NewNop()
	order, batch, workers, repetitions = 1, 1024, 8, 100
	outPath, registryPath, configPath = "catalog.yaml", "", "consumer.yaml"
	t.Setenv("TABULATE_REGISTRY", "")
	t.Setenv("TABULATE_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestManifestValidateCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	db := filepath.Join(dir, "registry.db")

	out, err := execute(t, "manifest", "--order", "1", "-o", path, "--registry", db)
	require.NoError(t, err)
	assert.Contains(t, out, "3 forms, 2 expressions")

	out, err = execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, path+": ok")

	missing := filepath.Join(dir, "none.yaml")
	for _, args := range [][]string{
		{"check", path, "-c", missing},
		{"check", path, "-c", missing, "--registry", db},
		{"check", path, "-c", missing, "--registry", db}, // cached
	} {
		out, err = execute(t, args...)
		require.NoError(t, err, out)
		for _, name := range []string{"mass", "load", "jump", "point_values", "basis_values"} {
			assert.Regexp(t, name+` +ok`, out)
		}
	}
}

func TestCheckReportsMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")
	_, err := execute(t, "manifest", "-o", path)
	require.NoError(t, err)

	cfg := config.Default()
	p2 := element.P(element.Triangle, 2)
	cfg.Forms["mass"] = []element.Descriptor{p2, p2}
	delete(cfg.Forms, "jump")
	cfgPath := filepath.Join(dir, "consumer.yaml")
	require.NoError(t, cfg.Save(cfgPath))

	out, err := execute(t, "check", path, "-c", cfgPath)
	require.Error(t, err)
	assert.Regexp(t, `mass +FAIL`, out)
	assert.Contains(t, out, "argument 0 element")
	assert.Contains(t, out, "argument 1 element")
	assert.Regexp(t, `load +ok`, out)
	assert.Regexp(t, `jump +skipped`, out)
}

func TestValidateRejectsBrokenOffsets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	_, err := execute(t, "manifest", "-o", path)
	require.NoError(t, err)

	m, err := manifest.Load(path)
	require.NoError(t, err)
	m.Forms[0].Offsets = []int{0, 2, 1, 1}
	require.NoError(t, m.Save(path))

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, out, path+": invalid")
}

func TestCommandsWithoutDevice(t *testing.T) {
	for _, name := range []string{"manifest", "validate", "check", "decode", "purity"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
}

func TestDecode(t *testing.T) {
	out, err := execute(t, "decode", "0", "1", "4", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "  0  rot=0 ref=0")
	assert.Contains(t, out, "  1  rot=0 ref=1")
	assert.Contains(t, out, "  4  rot=2 ref=0")
	assert.Contains(t, out, "  5  rot=2 ref=1")

	_, err = execute(t, "decode", "256")
	assert.Error(t, err)
}

func TestPurity(t *testing.T) {
	out, err := execute(t, "purity", "--order", "2", "--workers", "4", "--repetitions", "25")
	require.NoError(t, err)
	assert.Contains(t, out, "identical to serial")

	_, err = execute(t, "purity", "--workers", "0")
	assert.Error(t, err)
}

func TestReferenceCallsCoverCatalog(t *testing.T) {
	calls, err := referenceCalls(1, 1)
	require.NoError(t, err)
	var names []string
	for _, c := range calls {
		names = append(names, c.name)
	}
	// forms in name order, integrals in offset order, then expressions
	assert.Equal(t, []string{
		"jump/interior_facet/-1",
		"load/cell/-1",
		"load/exterior_facet/1",
		"load/exterior_facet/2",
		"mass/cell/-1",
		"basis_values",
		"point_values",
	}, names)
}
