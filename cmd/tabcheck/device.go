//go:build !noocca

// The device command needs the OCCA headers and library; build with
// -tags noocca to leave it out.

package main

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/notargets/tabulate/device"
	"github.com/notargets/tabulate/form"
	"github.com/notargets/tabulate/kernel"
	"github.com/notargets/tabulate/reference"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Compare the OCCA mass kernel with the reference kernel",
	Args:  cobra.NoArgs,
	RunE:  runDevice,
}

func init() {
	deviceCmd.Flags().IntVar(&order, "order", 2, "Lagrange order of the mass kernel")
	deviceCmd.Flags().IntVar(&batch, "batch", 1024, "Cells per launch")
	rootCmd.AddCommand(deviceCmd)
}

// jitteredCells returns n affine triangles near the reference cell, packed
// as coordinate dofs
func jitteredCells(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	x := make([]float64, 0, n*reference.CoordinateNodes*kernel.GeometricDimension)
	for e := 0; e < n; e++ {
		ox, oy := 10*rng.Float64(), 10*rng.Float64()
		for _, v := range [][2]float64{{0, 0}, {1, 0}, {0, 1}} {
			x = append(x,
				ox+v[0]+0.2*(rng.Float64()-0.5),
				oy+v[1]+0.2*(rng.Float64()-0.5),
				0)
		}
	}
	return x
}

func runDevice(cmd *cobra.Command, args []string) error {
	if batch < 1 {
		return fmt.Errorf("batch must be positive, got %d", batch)
	}
	dev, err := device.NewDevice(nil, device.WithLogger(logger))
	if err != nil {
		return err
	}
	defer dev.Free()

	k, err := device.Compile(dev, device.MassSource(order, kernel.Float64, batch), device.WithLogger(logger))
	if err != nil {
		return err
	}
	defer k.Free()

	f, err := reference.Mass(order)
	if err != nil {
		return err
	}
	b, err := form.Bind(f, reference.Environment(), f.FiniteElementHashes(), form.WithLogger(logger))
	if err != nil {
		return err
	}
	in, ok := b.Integral(form.Cell, form.DefaultSubdomain)
	if !ok {
		return fmt.Errorf("form %s has no cell integral", f.Signature())
	}
	goKernel, ok := form.Kernel[float64, float64](in)
	if !ok {
		return fmt.Errorf("form %s has no float64 kernel", f.Signature())
	}

	size := k.Source().TensorSize
	stride := reference.CoordinateNodes * kernel.GeometricDimension
	x := jitteredCells(batch, 1)
	A := make([]float64, batch*size)
	start := time.Now()
	if err := device.Run(k, batch, A, nil, nil, x, nil, nil); err != nil {
		return err
	}
	elapsed := time.Since(start)

	var maxDiff float64
	want := make([]float64, size)
	for e := 0; e < batch; e++ {
		goKernel(want, nil, nil, x[e*stride:(e+1)*stride], nil, nil)
		for i, v := range want {
			maxDiff = math.Max(maxDiff, math.Abs(v-A[e*size+i]))
		}
	}
	logger.Info("device mass kernel checked",
		zap.String("mode", dev.Mode()),
		zap.Int("cells", batch),
		zap.Float64("max_diff", maxDiff),
		zap.Duration("elapsed", elapsed))
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d cells in %v, max |A_device - A_reference| = %.3e\n",
		dev.Mode(), batch, elapsed, maxDiff)
	if maxDiff > 1e-10 {
		return fmt.Errorf("device and reference mass kernels differ by %.3e", maxDiff)
	}
	return nil
}
