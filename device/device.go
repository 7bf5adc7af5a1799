package device

import (
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"
	"github.com/notargets/tabulate/kernel"
	"go.uber.org/zap"
)

// Backends are tried in order by NewDevice when no properties are given
var Backends = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Serial"}`,
}

// Option configures NewDevice and Compile
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger for device setup
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

// NewDevice opens the first OCCA device that accepts its properties,
// preferring parallel backends
func NewDevice(props []string, opts ...Option) (*gocca.OCCADevice, error) {
	o := buildOptions(opts)
	if len(props) == 0 {
		props = Backends
	}
	var lastErr error
	for _, p := range props {
		dev, err := gocca.NewDevice(p)
		if err == nil {
			o.logger.Info("device created", zap.String("mode", dev.Mode()))
			return dev, nil
		}
		o.logger.Debug("backend unavailable", zap.String("props", p), zap.Error(err))
		lastErr = err
	}
	return nil, fmt.Errorf("no OCCA backend available: %w", lastErr)
}

// Kernel is a compiled batch kernel
type Kernel struct {
	src    Source
	dev    *gocca.OCCADevice
	kernel *gocca.OCCAKernel
	logger *zap.Logger
}

// Compile generates and builds src on dev
func Compile(dev *gocca.OCCADevice, src Source, opts ...Option) (*Kernel, error) {
	o := buildOptions(opts)
	code, err := src.Generate()
	if err != nil {
		return nil, err
	}

	var k *gocca.OCCAKernel
	if dev.Mode() == "OpenMP" {
		// OpenMP does not get -O3 by default
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		k, err = dev.BuildKernelFromString(code, src.Name, props)
	} else {
		k, err = dev.BuildKernelFromString(code, src.Name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s: %w", src.Name, err)
	}
	o.logger.Debug("kernel compiled",
		zap.String("kernel", src.Name),
		zap.String("mode", dev.Mode()),
		zap.Stringer("precision", src.Precision),
		zap.Int("batch", src.Batch))
	return &Kernel{src: src, dev: dev, kernel: k, logger: o.logger}, nil
}

// Source returns the source the kernel was compiled from
func (k *Kernel) Source() Source { return k.src }

// Free releases the compiled kernel
func (k *Kernel) Free() {
	if k.kernel != nil {
		k.kernel.Free()
		k.kernel = nil
	}
}

// Run tabulates n entities in one launch. A, w, coordinateDofs,
// entityLocalIndex and quadraturePermutation are entity-major; c is shared.
// Nil entityLocalIndex or quadraturePermutation are passed as zeros.
func Run[T kernel.Real](k *Kernel, n int, A, w, c, coordinateDofs []T,
	entityLocalIndex []int32, quadraturePermutation []uint8) error {
	s := k.src
	if kernel.PrecisionOf[T]() != s.Precision {
		return fmt.Errorf("kernel %s was compiled for %s, called with %s",
			s.Name, s.Precision, kernel.PrecisionOf[T]())
	}
	if n < 1 || n > s.Batch {
		return fmt.Errorf("kernel %s: %d entities, batch holds 1 to %d", s.Name, n, s.Batch)
	}
	if err := checkLen("A", len(A), n*s.TensorSize); err != nil {
		return err
	}
	if err := checkLen("w", len(w), n*s.CoefficientSize); err != nil {
		return err
	}
	if err := checkLen("c", len(c), s.ConstantSize); err != nil {
		return err
	}
	if err := checkLen("coordinate dofs", len(coordinateDofs), n*s.CoordinateSize); err != nil {
		return err
	}

	eli := make([]int32, n*s.Restrictions)
	if entityLocalIndex != nil {
		if err := checkLen("entity local index", len(entityLocalIndex), len(eli)); err != nil {
			return err
		}
		copy(eli, entityLocalIndex)
	}
	perm := make([]int32, n*s.Restrictions)
	if quadraturePermutation != nil {
		if err := checkLen("quadrature permutation", len(quadraturePermutation), len(perm)); err != nil {
			return err
		}
		for i, p := range quadraturePermutation {
			perm[i] = int32(p)
		}
	}

	count := []int32{int32(n)}
	nMem := upload(k.dev, count)
	defer nMem.Free()
	aMem := upload(k.dev, A)
	defer aMem.Free()
	wMem := upload(k.dev, w)
	defer wMem.Free()
	cMem := upload(k.dev, c)
	defer cMem.Free()
	xMem := upload(k.dev, coordinateDofs)
	defer xMem.Free()
	eliMem := upload(k.dev, eli)
	defer eliMem.Free()
	permMem := upload(k.dev, perm)
	defer permMem.Free()

	if err := k.kernel.RunWithArgs(nMem, aMem, wMem, cMem, xMem, eliMem, permMem); err != nil {
		return fmt.Errorf("kernel %s execution failed: %w", s.Name, err)
	}
	k.dev.Finish()

	var z T
	aMem.CopyTo(unsafe.Pointer(&A[0]), int64(len(A))*int64(unsafe.Sizeof(z)))
	return nil
}

func checkLen(what string, got, want int) error {
	if got != want {
		return fmt.Errorf("%s has %d values, expected %d", what, got, want)
	}
	return nil
}

// upload allocates device memory holding v. Empty slices get one zeroed
// element so every kernel argument is a valid pointer.
func upload[V kernel.Real | int32](dev *gocca.OCCADevice, v []V) *gocca.OCCAMemory {
	if len(v) == 0 {
		v = make([]V, 1)
	}
	var z V
	return dev.Malloc(int64(len(v))*int64(unsafe.Sizeof(z)), unsafe.Pointer(&v[0]), nil)
}
