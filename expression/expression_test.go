package expression

import (
	"errors"
	"testing"

	"github.com/notargets/tabulate/identity"
	"github.com/notargets/tabulate/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var coordHash = identity.HashOf("coordinate")

// pointIndex writes 10*point+1 at every output slot of each point
func pointIndex(A, w, c []float64, x []float64, e []int32, p []uint8) {
	per := len(A) / 3
	for i := range A {
		A[i] = float64(10*(i/per) + 1)
	}
}

func scalarSpec() Spec {
	return Spec{
		Name:                         "u_at_points",
		Kernels:                      kernel.Set{Float64: pointIndex},
		CoefficientNames:             []string{"u"},
		OriginalCoefficientPositions: []int{2},
		EntityDimension:              2,
		Points:                       []float64{0, 0, 0.5, 0, 0, 0.5},
		ValueShape:                   []int{1},
		Rank:                         0,
		CoordinateElementHash:        coordHash,
	}
}

func TestRankZeroThreePoints(t *testing.T) {
	e, err := New(scalarSpec())
	require.NoError(t, err)

	assert.Equal(t, 3, e.NumPoints())
	assert.Equal(t, 1, e.NumComponents())
	assert.Equal(t, 1, e.ValueSize())
	assert.Equal(t, 3, e.OutputSize(6), "argument dofs do not matter at rank 0")

	b, err := Bind(e, identity.Environment{CoordinateElement: coordHash})
	require.NoError(t, err)
	fn, ok := Kernel[float64, float64](b)
	require.True(t, ok)

	A := make([]float64, e.OutputSize(0))
	fn(A, []float64{1}, nil, make([]float64, 9), nil, nil)
	// points outermost
	assert.Equal(t, []float64{1, 11, 21}, A)
	for p := 0; p < 3; p++ {
		assert.Equal(t, p, e.Index(p, 0, 0, 0))
	}

	pts := e.Points()
	r, c := pts.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 0.5, pts.At(2, 1))
}

func TestLayout(t *testing.T) {
	s := scalarSpec()
	s.ValueShape = []int{2, 3}
	s.Rank = 2
	e, err := New(s)
	require.NoError(t, err)

	assert.Equal(t, 2, e.NumComponents())
	assert.Equal(t, 6, e.ValueSize())
	assert.Equal(t, 3*6*4*4, e.OutputSize(4))
	// point 1, component 2, dof (1,3) of a 4x4 block
	assert.Equal(t, (1*6+2)*16+1*4+3, e.Index(1, 2, 1*4+3, 4))

	s.ValueShape = nil
	s.Rank = 1
	e, err = New(s)
	require.NoError(t, err)
	assert.Equal(t, 1, e.ValueSize(), "scalar value")
	assert.Equal(t, 9, e.OutputSize(3))
}

func TestValidation(t *testing.T) {
	s := scalarSpec()
	s.Kernels = kernel.Set{}
	s.OriginalCoefficientPositions = nil
	s.Points = []float64{0, 0, 1}
	s.ValueShape = []int{0}
	s.Rank = 3
	_, err := New(s)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "no kernels")
	assert.Contains(t, msg, "0 original coefficient positions for 1 coefficients")
	assert.Contains(t, msg, "not a multiple of entity dimension 2")
	assert.Contains(t, msg, "value shape extent 0 is 0")
	assert.Contains(t, msg, "rank 3")

	s = scalarSpec()
	s.EntityDimension = 4
	_, err = New(s)
	assert.Error(t, err)

	s = scalarSpec()
	s.Points = nil
	_, err = New(s)
	assert.Error(t, err)
}

func TestValidationNamesAndPositions(t *testing.T) {
	s := scalarSpec()
	s.CoefficientNames = []string{"u", "u", ""}
	s.OriginalCoefficientPositions = []int{0, 0, 1}
	s.ConstantNames = []string{"k", "k"}
	_, err := New(s)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `coefficient name "u" used twice`)
	assert.Contains(t, msg, "coefficient 2 has an empty name")
	assert.Contains(t, msg, `constant name "k" used twice`)
	assert.Contains(t, msg, "original position 0 used twice")

	s = scalarSpec()
	s.CoefficientNames = []string{"u", "v"}
	s.OriginalCoefficientPositions = []int{2, 0}
	s.ConstantNames = []string{"k"}
	_, err = New(s)
	assert.NoError(t, err)
}

func TestValueSizeIsExact(t *testing.T) {
	s := scalarSpec()
	// 2^54 + 1 has no float64 representation
	s.ValueShape = []int{1<<54 + 1}
	e, err := New(s)
	require.NoError(t, err)
	assert.Equal(t, 1<<54+1, e.ValueSize())
}

func TestBindLogs(t *testing.T) {
	e, err := New(scalarSpec())
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	_, err = Bind(e, identity.Environment{CoordinateElement: coordHash}, WithLogger(zap.New(core)), WithLogger(nil))
	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterMessage("expression bound").Len())

	_, err = Bind(e, identity.Environment{CoordinateElement: identity.HashOf("other")}, WithLogger(zap.New(core)))
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("expression rejected").Len())
}

func TestGather(t *testing.T) {
	e, err := New(scalarSpec())
	require.NoError(t, err)

	all := [][]float64{{1}, {2, 2}, {3, 3, 3}}
	got, err := Gather(e, all)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3, 3, 3}}, got)

	_, err = Gather(e, all[:2])
	assert.Error(t, err)
}

func TestBindRejects(t *testing.T) {
	e, err := New(scalarSpec())
	require.NoError(t, err)

	_, err = Bind(e, identity.Environment{CoordinateElement: identity.HashOf("other")})
	require.Error(t, err)
	var hm *identity.HashMismatchError
	assert.True(t, errors.As(err, &hm))

	_, ok := Kernel[float32, float32](&Bound{e})
	assert.False(t, ok)
}

func TestImmutable(t *testing.T) {
	s := scalarSpec()
	e, err := New(s)
	require.NoError(t, err)
	s.Points[0] = 99
	raw := e.RawPoints()
	raw[1] = 99
	shape := e.ValueShape()
	shape[0] = 7
	assert.Equal(t, []float64{0, 0, 0.5, 0, 0, 0.5}, e.RawPoints())
	assert.Equal(t, []int{1}, e.ValueShape())
}
