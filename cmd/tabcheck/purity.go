package main

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/notargets/tabulate/element"
	"github.com/notargets/tabulate/expression"
	"github.com/notargets/tabulate/facets"
	"github.com/notargets/tabulate/form"
	"github.com/notargets/tabulate/kernel"
	"github.com/notargets/tabulate/reference"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var purityCmd = &cobra.Command{
	Use:   "purity",
	Short: "Run every reference kernel concurrently and compare with a serial run",
	Args:  cobra.NoArgs,
	RunE:  runPurity,
}

// call is one prepared float64 kernel invocation
type call struct {
	name    string
	fn      kernel.Func[float64, float64]
	size    int
	w, c, x []float64
	eli     []int32
	perm    []uint8
}

func (c call) run() []float64 {
	A := make([]float64, c.size)
	c.fn(A, c.w, c.c, c.x, c.eli, c.perm)
	return A
}

// squareMesh is the unit square split along its diagonal, the smallest mesh
// with both facet categories
func squareMesh() (coords [][]float64, EToV [][]int, conn *facets.Connectivity, err error) {
	coords = [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	EToV = [][]int{{0, 1, 2}, {3, 2, 1}}
	conn, err = facets.Connect(element.Triangle, EToV)
	return
}

// referenceCalls prepares one call per integral and expression of the
// reference catalog, on the square mesh with seeded random data
func referenceCalls(order int, seed int64) ([]call, error) {
	cat, err := reference.Catalog(order)
	if err != nil {
		return nil, err
	}
	coords, EToV, conn, err := squareMesh()
	if err != nil {
		return nil, err
	}
	cellsOf := func(ks ...int) [][][]float64 {
		out := make([][][]float64, len(ks))
		for i, k := range ks {
			for _, v := range EToV[k] {
				out[i] = append(out[i], coords[v])
			}
		}
		return out
	}
	rng := rand.New(rand.NewSource(seed))
	random := func(n int) []float64 {
		v := make([]float64, n)
		for i := range v {
			v[i] = rng.Float64()
		}
		return v
	}
	np := element.NewLagrange(order).Np()
	ones := func(n, v int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = v
		}
		return out
	}

	var calls []call
	for _, name := range cat.FormNames() {
		f, err := cat.Form(name)
		if err != nil {
			return nil, err
		}
		b, err := form.Bind(f, reference.Environment(), f.FiniteElementHashes(), form.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		size := 1
		for r := 0; r < f.Rank(); r++ {
			size *= np
		}
		for _, t := range form.IntegralTypes {
			for _, in := range b.Integrals(t) {
				fn, ok := form.Kernel[float64, float64](in)
				if !ok {
					continue
				}
				l := in.Layout(ones(f.NumCoefficients(), np), ones(f.NumConstants(), 1), reference.CoordinateNodes)
				var (
					cells []int
					eli   []int32
					perm  []uint8
				)
				switch t {
				case form.Cell:
					cells = []int{0}
				case form.ExteriorFacet:
					ef := conn.Exterior[0]
					cells, eli = []int{ef.Cell}, ef.EntityLocalIndex()
					perm = in.FacetPermutations([]uint8{ef.Permutation})
				case form.InteriorFacet:
					inf := conn.Interior[0]
					cells, eli = inf.Cells[:], inf.EntityLocalIndex()
					perm = in.FacetPermutations(inf.QuadraturePermutation())
				}
				x, err := kernel.PackCoordinates(l, cellsOf(cells...))
				if err != nil {
					return nil, err
				}
				calls = append(calls, call{
					name: fmt.Sprintf("%s/%s/%d", name, t, in.SubdomainID()),
					fn:   fn,
					size: size,
					w:    random(l.CoefficientSize()),
					c:    random(l.ConstantSize()),
					x:    x,
					eli:  eli,
					perm: perm,
				})
			}
		}
	}

	for _, name := range cat.ExpressionNames() {
		e, err := cat.Expression(name)
		if err != nil {
			return nil, err
		}
		b, err := expression.Bind(e, reference.Environment(), expression.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		fn, ok := expression.Kernel[float64, float64](b)
		if !ok {
			continue
		}
		l := kernel.Layout{
			Restrictions:    1,
			CoefficientDofs: ones(e.NumCoefficients(), np),
			ConstantSizes:   ones(e.NumConstants(), 1),
			CoordinateNodes: reference.CoordinateNodes,
		}
		x, err := kernel.PackCoordinates(l, cellsOf(1))
		if err != nil {
			return nil, err
		}
		calls = append(calls, call{
			name: name,
			fn:   fn,
			size: e.OutputSize(np),
			w:    random(l.CoefficientSize()),
			c:    random(l.ConstantSize()),
			x:    x,
		})
	}
	return calls, nil
}

// checkPurity runs every call serially, then from workers goroutines at
// once, and reports the first result that differs in any bit
func checkPurity(calls []call, workers, repetitions int) error {
	want := make([][]float64, len(calls))
	for i, c := range calls {
		want[i] = c.run()
	}

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for r := 0; r < repetitions; r++ {
				// stagger the start so workers hit different kernels together
				i := (w + r) % len(calls)
				got := calls[i].run()
				for j := range got {
					if math.Float64bits(got[j]) != math.Float64bits(want[i][j]) {
						return fmt.Errorf("%s: worker %d repetition %d: A[%d] = %v, serial run gave %v",
							calls[i].name, w, r, j, got[j], want[i][j])
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func runPurity(cmd *cobra.Command, args []string) error {
	if workers < 1 || repetitions < 1 {
		return fmt.Errorf("workers and repetitions must be positive, got %d and %d", workers, repetitions)
	}
	calls, err := referenceCalls(order, 1)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := checkPurity(calls, workers, repetitions); err != nil {
		return err
	}
	logger.Debug("purity check finished",
		zap.Int("kernels", len(calls)),
		zap.Int("workers", workers),
		zap.Duration("elapsed", time.Since(start)))
	fmt.Fprintf(cmd.OutOrStdout(), "%d kernels, %d workers x %d calls: identical to serial\n",
		len(calls), workers, repetitions)
	return nil
}
