// Package expression describes generated kernels that evaluate a tensor
// valued expression at fixed reference points of an entity, with no
// integration. Output is laid out points outermost, then value components,
// then argument dofs.
package expression

import (
	"fmt"

	"github.com/notargets/tabulate/identity"
	"github.com/notargets/tabulate/kernel"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Spec is what the generator emits for one expression
type Spec struct {
	Name    string
	Kernels kernel.Set

	CoefficientNames             []string
	OriginalCoefficientPositions []int
	ConstantNames                []string

	// Points holds NumPoints rows of EntityDimension reference coordinates
	EntityDimension int
	Points          []float64

	ValueShape []int
	Rank       int

	CoordinateElementHash identity.Hash
}

// Expression is an immutable expression descriptor
type Expression struct {
	name              string
	kernels           kernel.Set
	coefficientNames  []string
	originalPositions []int
	constantNames     []string
	entityDim         int
	points            []float64
	valueShape        []int
	rank              int
	coordinate        identity.Hash
}

// New validates spec and builds the descriptor
func New(spec Spec) (*Expression, error) {
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("expression %q: %w", spec.Name, err)
	}
	return &Expression{
		name:              spec.Name,
		kernels:           spec.Kernels,
		coefficientNames:  append([]string(nil), spec.CoefficientNames...),
		originalPositions: append([]int(nil), spec.OriginalCoefficientPositions...),
		constantNames:     append([]string(nil), spec.ConstantNames...),
		entityDim:         spec.EntityDimension,
		points:            append([]float64(nil), spec.Points...),
		valueShape:        append([]int(nil), spec.ValueShape...),
		rank:              spec.Rank,
		coordinate:        spec.CoordinateElementHash,
	}, nil
}

func (s Spec) validate() error {
	var err error
	if s.Kernels.Empty() {
		err = multierr.Append(err, fmt.Errorf("no kernels"))
	}
	if len(s.OriginalCoefficientPositions) != len(s.CoefficientNames) {
		err = multierr.Append(err, fmt.Errorf("%d original coefficient positions for %d coefficients",
			len(s.OriginalCoefficientPositions), len(s.CoefficientNames)))
	}
	err = multierr.Append(err, uniqueNames("coefficient", s.CoefficientNames))
	err = multierr.Append(err, uniqueNames("constant", s.ConstantNames))
	seen := make(map[int]bool)
	for i, p := range s.OriginalCoefficientPositions {
		if p < 0 {
			err = multierr.Append(err, fmt.Errorf("coefficient %d has negative original position %d", i, p))
		}
		if seen[p] {
			err = multierr.Append(err, fmt.Errorf("original position %d used twice", p))
		}
		seen[p] = true
	}
	if s.EntityDimension < 0 || s.EntityDimension > kernel.GeometricDimension {
		err = multierr.Append(err, fmt.Errorf("entity dimension %d out of range", s.EntityDimension))
	} else if s.EntityDimension == 0 && len(s.Points) != 0 {
		err = multierr.Append(err, fmt.Errorf("%d point coordinates on a 0 dimensional entity", len(s.Points)))
	} else if s.EntityDimension > 0 && len(s.Points)%s.EntityDimension != 0 {
		err = multierr.Append(err, fmt.Errorf("%d point coordinates is not a multiple of entity dimension %d",
			len(s.Points), s.EntityDimension))
	}
	if s.EntityDimension > 0 && len(s.Points) == 0 {
		err = multierr.Append(err, fmt.Errorf("no evaluation points"))
	}
	for i, e := range s.ValueShape {
		if e < 1 {
			err = multierr.Append(err, fmt.Errorf("value shape extent %d is %d", i, e))
		}
	}
	if s.Rank < 0 || s.Rank > 2 {
		err = multierr.Append(err, fmt.Errorf("rank %d not in {0,1,2}", s.Rank))
	}
	return err
}

func uniqueNames(kind string, names []string) error {
	var err error
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if n == "" {
			err = multierr.Append(err, fmt.Errorf("%s %d has an empty name", kind, i))
			continue
		}
		if seen[n] {
			err = multierr.Append(err, fmt.Errorf("%s name %q used twice", kind, n))
		}
		seen[n] = true
	}
	return err
}

// Name returns the expression's name
func (e *Expression) Name() string { return e.name }

// Rank returns the number of arguments
func (e *Expression) Rank() int { return e.rank }

// NumCoefficients returns the number of coefficients the expression reads
func (e *Expression) NumCoefficients() int { return len(e.coefficientNames) }

// NumConstants returns the number of constants
func (e *Expression) NumConstants() int { return len(e.constantNames) }

// CoefficientNames returns the coefficient names in binding order
func (e *Expression) CoefficientNames() []string { return append([]string(nil), e.coefficientNames...) }

// ConstantNames returns the constant names in binding order
func (e *Expression) ConstantNames() []string { return append([]string(nil), e.constantNames...) }

// OriginalCoefficientPositions maps each coefficient to its position in the
// full form's coefficient list
func (e *Expression) OriginalCoefficientPositions() []int {
	return append([]int(nil), e.originalPositions...)
}

// NumPoints returns the number of evaluation points
func (e *Expression) NumPoints() int {
	if e.entityDim == 0 {
		return 1
	}
	return len(e.points) / e.entityDim
}

// EntityDimension returns the dimension of the entity the points live on
func (e *Expression) EntityDimension() int { return e.entityDim }

// RawPoints returns a copy of the flat point coordinates
func (e *Expression) RawPoints() []float64 { return append([]float64(nil), e.points...) }

// Points returns the evaluation points as a [NumPoints × EntityDimension] matrix
func (e *Expression) Points() *mat.Dense {
	if e.entityDim == 0 {
		return nil
	}
	return mat.NewDense(e.NumPoints(), e.entityDim, e.RawPoints())
}

// ValueShape returns the extents of the expression value
func (e *Expression) ValueShape() []int { return append([]int(nil), e.valueShape...) }

// NumComponents returns the length of the value shape
func (e *Expression) NumComponents() int { return len(e.valueShape) }

// ValueSize returns the number of scalar values per point, the product of
// the value shape (1 for a scalar)
func (e *Expression) ValueSize() int {
	n := 1
	for _, s := range e.valueShape {
		n *= s
	}
	return n
}

// CoordinateElementHash identifies the coordinate element the kernel was
// generated against
func (e *Expression) CoordinateElementHash() identity.Hash { return e.coordinate }

// Precisions lists the representations the expression was generated for
func (e *Expression) Precisions() []kernel.Precision { return e.kernels.Precisions() }

// OutputSize returns len(A) for one call
func (e *Expression) OutputSize(argumentDofs int) int {
	n := e.NumPoints() * e.ValueSize()
	for r := 0; r < e.rank; r++ {
		n *= argumentDofs
	}
	return n
}

// Index returns the position in A of a point, a flat value component and a
// flat argument dof index
func (e *Expression) Index(point, component, dof, argumentDofs int) int {
	perComponent := 1
	for r := 0; r < e.rank; r++ {
		perComponent *= argumentDofs
	}
	return (point*e.ValueSize()+component)*perComponent + dof
}

// Gather picks the expression's coefficients out of a full form coefficient
// list using the original positions
func Gather[V any](e *Expression, all []V) ([]V, error) {
	out := make([]V, len(e.originalPositions))
	for i, p := range e.originalPositions {
		if p >= len(all) {
			return nil, fmt.Errorf("expression %q: coefficient %q at original position %d, only %d supplied",
				e.name, e.coefficientNames[i], p, len(all))
		}
		out[i] = all[p]
	}
	return out, nil
}

// Bound is an expression whose coordinate element has been checked
type Bound struct {
	*Expression
}

// Kernels returns the expression's kernel set
func (b *Bound) Kernels() kernel.Set { return b.kernels }

// Kernel returns the expression's kernel for scalar type T
func Kernel[T kernel.Scalar, R kernel.Real](b *Bound) (kernel.Func[T, R], bool) {
	return kernel.Lookup[T, R](b.kernels)
}

// Option configures Bind
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for setup events
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Bind checks the expression's coordinate element against env
func Bind(e *Expression, env identity.Environment, opts ...Option) (*Bound, error) {
	logger := buildOptions(opts).logger
	what := fmt.Sprintf("expression %q coordinate element", e.name)
	if err := env.CheckCoordinate(what, e.coordinate); err != nil {
		logger.Error("expression rejected", zap.String("expression", e.name), zap.Error(err))
		return nil, err
	}
	logger.Debug("expression bound",
		zap.String("expression", e.name),
		zap.Int("points", e.NumPoints()),
		zap.Ints("value_shape", e.valueShape))
	return &Bound{e}, nil
}
