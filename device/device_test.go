package device

import (
	"strings"
	"testing"

	"github.com/notargets/tabulate/form"
	"github.com/notargets/tabulate/kernel"
	"github.com/notargets/tabulate/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestGenerate(t *testing.T) {
	src := MassSource(1, kernel.Float64, 8)
	code, err := src.Generate()
	require.NoError(t, err)

	for _, want := range []string{
		"typedef double real_t;",
		"#define NBATCH 8",
		"#define TENSOR_SIZE 9",
		"#define NDOF 3",
		"#define RESTRICTIONS 1",
		"const real_t PHI[",
		"const real_t W[1][",
		"@kernel void mass_p1(",
		"++e; @outer)",
		"@inner)",
		"real_t* A = A_global + e*TENSOR_SIZE;",
		"A[i*NDOF + j] += si*PHI[q][j];",
	} {
		assert.Contains(t, code, want)
	}
	// tables precede the kernel and are ordered by name
	assert.Less(t, strings.Index(code, "PHI["), strings.Index(code, "W[1]"))
	assert.Less(t, strings.Index(code, "W[1]"), strings.Index(code, "@kernel"))

	f32, err := MassSource(1, kernel.Float32, 8).Generate()
	require.NoError(t, err)
	assert.Contains(t, f32, "typedef float real_t;")
	assert.Contains(t, f32, "#define REAL_ZERO 0.0f")
}

func TestFormatStaticMatrix(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	got := formatStaticMatrix("M", m, kernel.Float32)
	assert.Equal(t, "const real_t M[2][2] = {\n"+
		"    {1.0000000e+00f, 2.0000000e+00f},\n"+
		"    {3.0000000e+00f, 4.0000000e+00f}\n"+
		"};\n\n", got)
}

func TestValidate(t *testing.T) {
	src := MassSource(1, kernel.Complex128, 0)
	src.Restrictions = 3
	src.Body = ""
	err := src.Validate()
	require.Error(t, err)
	for _, want := range []string{"device kernels are real", "restrictions", "batch", "no body"} {
		assert.Contains(t, err.Error(), want)
	}
	_, err = src.Generate()
	assert.Error(t, err)
}

// TestMassMatchesReference compiles the device mass kernel and compares a
// batch against the Go kernel. It needs an OCCA backend.
func TestMassMatchesReference(t *testing.T) {
	dev, err := NewDevice(nil)
	if err != nil {
		t.Skipf("no OCCA device: %v", err)
	}
	defer dev.Free()

	const order, batch = 2, 4
	k, err := Compile(dev, MassSource(order, kernel.Float64, batch))
	require.NoError(t, err)
	defer k.Free()

	f, err := reference.Mass(order)
	require.NoError(t, err)
	b, err := form.Bind(f, reference.Environment(), f.FiniteElementHashes())
	require.NoError(t, err)
	in, ok := b.Integral(form.Cell, form.DefaultSubdomain)
	require.True(t, ok)
	goKernel, ok := form.Kernel[float64, float64](in)
	require.True(t, ok)

	cells := [][]float64{
		{0, 0, 0, 1, 0, 0, 0, 1, 0},
		{1, 1, 0, 0, 1, 0, 1, 0, 0},
		{0, 0, 0, 2, 0.5, 0, 0.3, 1.7, 0},
	}
	n := len(cells)
	ndof := 6
	x := make([]float64, 0, n*9)
	for _, c := range cells {
		x = append(x, c...)
	}
	A := make([]float64, n*ndof*ndof)
	require.NoError(t, Run(k, n, A, nil, nil, x, nil, nil))

	for e, c := range cells {
		want := make([]float64, ndof*ndof)
		goKernel(want, nil, nil, c, nil, nil)
		assert.InDeltaSlice(t, want, A[e*ndof*ndof:(e+1)*ndof*ndof], 1e-12, "cell %d", e)
	}

	assert.Error(t, Run(k, batch+1, make([]float64, (batch+1)*ndof*ndof), nil, nil,
		make([]float64, (batch+1)*9), nil, nil))
	assert.Error(t, Run[float32](k, 1, make([]float32, ndof*ndof), nil, nil, make([]float32, 9), nil, nil))
}
