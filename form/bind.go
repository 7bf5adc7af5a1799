package form

import (
	"fmt"

	"github.com/notargets/tabulate/identity"
	"github.com/notargets/tabulate/kernel"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

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

// Bound is a form whose element and coordinate hashes have been checked
// against the consumer's own definitions. It is the only way to reach the
// kernels.
type Bound struct {
	form *Form
	env  identity.Environment
}

// BoundIntegral is an integral of a bound form
type BoundIntegral struct {
	*Integral
}

// Kernels returns the integral's kernel set
func (b *BoundIntegral) Kernels() kernel.Set { return b.kernels }

// Kernel returns the integral's kernel for scalar type T
func Kernel[T kernel.Scalar, R kernel.Real](b *BoundIntegral) (kernel.Func[T, R], bool) {
	return kernel.Lookup[T, R](b.kernels)
}

// Bind checks the form against the consumer's environment and element
// hashes (arguments first, then coefficients, in the form's order). Every
// mismatch is reported. The check runs once; the returned Bound carries
// the result.
func Bind(f *Form, env identity.Environment, elements []identity.Hash, opts ...Option) (*Bound, error) {
	o := buildOptions(opts)
	log := o.logger.With(zap.String("form", f.signature))

	var err error
	if len(elements) != len(f.elementHashes) {
		err = multierr.Append(err, fmt.Errorf("consumer supplied %d element hashes, form has %d",
			len(elements), len(f.elementHashes)))
	} else {
		for i, recorded := range f.elementHashes {
			err = multierr.Append(err, identity.CheckHash(f.slotName(i), recorded, elements[i]))
		}
	}
	for _, in := range f.integrals {
		what := fmt.Sprintf("%s integral %d coordinate element", in.typ, in.id)
		err = multierr.Append(err, env.CheckCoordinate(what, in.coordinate))
	}
	if err != nil {
		log.Error("form rejected", zap.Error(err))
		return nil, fmt.Errorf("bind form %q: %w", f.signature, err)
	}

	log.Info("form bound",
		zap.Int("rank", f.rank),
		zap.Int("integrals", len(f.integrals)),
		zap.Ints("offsets", f.offsets[:]),
		zap.Stringer("coordinate_element", env.CoordinateElement))
	return &Bound{form: f, env: env}, nil
}

// slotName names element hash slot i for error messages
func (f *Form) slotName(i int) string {
	if i < f.rank {
		return fmt.Sprintf("argument %d element", i)
	}
	return fmt.Sprintf("coefficient %q element", f.coefficientNames[i-f.rank])
}

// Form returns the underlying descriptor
func (b *Bound) Form() *Form { return b.form }

// Environment returns the environment the form was checked against
func (b *Bound) Environment() identity.Environment { return b.env }

// Integral selects an integral as Form.Integral does
func (b *Bound) Integral(t IntegralType, id int) (*BoundIntegral, bool) {
	in, ok := b.form.Integral(t, id)
	if !ok {
		return nil, false
	}
	return &BoundIntegral{in}, true
}

// Integrals returns the bound integrals of category t
func (b *Bound) Integrals(t IntegralType) []*BoundIntegral {
	list := b.form.Integrals(t)
	out := make([]*BoundIntegral, len(list))
	for i, in := range list {
		out[i] = &BoundIntegral{in}
	}
	return out
}
