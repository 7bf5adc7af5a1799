// Command tabcheck generates, validates and checks tabulation descriptor
// manifests, and exercises the reference kernels.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "tabcheck",
	Short: "Inspect and verify tabulation kernel descriptors",
	Long: `tabcheck works with the metadata of generated tabulation kernels.

It writes manifests of the built-in reference catalog, validates manifests,
checks them against a consumer configuration (ABI version and element
hashes), decodes facet permutation codes, and runs the reference kernels
concurrently to confirm they are pure.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	manifestCmd.Flags().IntVar(&order, "order", 1, "Lagrange order of the reference catalog")
	manifestCmd.Flags().StringVarP(&outPath, "out", "o", "catalog.yaml", "Output file (.yaml, .yml or .toml)")
	manifestCmd.Flags().StringVar(&registryPath, "registry", "", "Also store the forms in this registry database")

	checkCmd.Flags().StringVarP(&configPath, "config", "c", "consumer.yaml", "Consumer configuration")
	checkCmd.Flags().StringVar(&registryPath, "registry", "", "Registry database (overrides the configuration)")

	purityCmd.Flags().IntVar(&workers, "workers", 8, "Concurrent callers")
	purityCmd.Flags().IntVar(&order, "order", 2, "Lagrange order of the reference catalog")
	purityCmd.Flags().IntVar(&repetitions, "repetitions", 100, "Calls per worker")

	rootCmd.AddCommand(manifestCmd, validateCmd, checkCmd, decodeCmd, purityCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
