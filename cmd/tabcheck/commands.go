package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/notargets/tabulate/config"
	"github.com/notargets/tabulate/kernel"
	"github.com/notargets/tabulate/manifest"
	"github.com/notargets/tabulate/reference"
	"github.com/notargets/tabulate/registry"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	order        int
	outPath      string
	registryPath string
	configPath   string
	workers      int
	repetitions  int
	batch        int
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Write the manifest of the reference catalog",
	Args:  cobra.NoArgs,
	RunE:  runManifest,
}

var validateCmd = &cobra.Command{
	Use:   "validate <manifest>...",
	Short: "Check the structural invariants of manifests",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var checkCmd = &cobra.Command{
	Use:   "check <manifest>",
	Short: "Check a manifest against a consumer configuration",
	Long: `check compares the ABI version of a manifest with the consumer's, then
checks every form whose elements the configuration lists: each recorded
element hash must match the consumer's own element, and each integral's
coordinate element must match the consumer's coordinate element. With a
registry, outcomes are recorded and earlier successful checks are reused.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <code>...",
	Short: "Decode facet permutation codes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDecode,
}

func runManifest(cmd *cobra.Command, args []string) error {
	c, err := reference.Catalog(order)
	if err != nil {
		return err
	}
	m, err := manifest.FromCatalog(c)
	if err != nil {
		return err
	}
	if err := m.Save(outPath); err != nil {
		return err
	}
	logger.Info("manifest written",
		zap.String("path", outPath),
		zap.Int("order", order),
		zap.Int("forms", len(m.Forms)),
		zap.Int("expressions", len(m.Expressions)))

	if registryPath != "" {
		reg, err := registry.Open(cmd.Context(), registryPath, registry.WithLogger(logger))
		if err != nil {
			return err
		}
		defer reg.Close()
		if err := reg.PutAll(cmd.Context(), m); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d forms, %d expressions (ABI %s)\n",
		outPath, len(m.Forms), len(m.Expressions), m.Version)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	var failed error
	for _, path := range args {
		m, err := manifest.Load(path)
		if err == nil {
			err = m.Validate()
		}
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid\n", path)
			for _, e := range multierr.Errors(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "  %v\n", e)
			}
			failed = multierr.Append(failed, fmt.Errorf("%s: %w", path, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d forms, %d expressions)\n", path, len(m.Forms), len(m.Expressions))
	}
	return failed
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("consumer configuration %s: %w", configPath, err)
	}
	if !verbose {
		l, err := cfg.Logger()
		if err != nil {
			return err
		}
		logger = l
	}
	m, err := manifest.Load(args[0])
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	env := cfg.Environment()
	if err := m.Check(env); err != nil {
		return err
	}

	var reg *registry.Registry
	if path := registryPath; path != "" || cfg.Registry != "" {
		if path == "" {
			path = cfg.Registry
		}
		reg, err = registry.Open(ctx, path, registry.WithLogger(logger))
		if err != nil {
			return err
		}
		defer reg.Close()
	}

	var failed error
	for _, f := range m.Forms {
		name := f.Name
		if name == "" {
			name = f.Signature
		}
		hashes, err := cfg.ElementHashes(name)
		if err != nil {
			fmt.Fprintf(out, "%-12s skipped: %v\n", name, err)
			continue
		}
		if reg != nil {
			if _, _, gerr := reg.Get(ctx, f.Signature); errors.Is(gerr, registry.ErrNotFound) {
				if err := reg.Put(ctx, m.Version, f); err != nil {
					return err
				}
			}
			err = reg.Verify(ctx, f.Signature, env, hashes)
		} else {
			err = f.Check(env, hashes)
		}
		if err != nil {
			fmt.Fprintf(out, "%-12s FAIL\n", name)
			errs := multierr.Errors(errors.Unwrap(err))
			if len(errs) == 0 {
				errs = []error{err}
			}
			for _, e := range errs {
				fmt.Fprintf(out, "  %v\n", e)
			}
			failed = multierr.Append(failed, err)
			continue
		}
		fmt.Fprintf(out, "%-12s ok\n", name)
	}
	for _, e := range m.Expressions {
		if err := env.CheckCoordinate(fmt.Sprintf("expression %q coordinate element", e.Name), e.CoordinateElementHash); err != nil {
			fmt.Fprintf(out, "%-12s FAIL\n  %v\n", e.Name, err)
			failed = multierr.Append(failed, err)
			continue
		}
		fmt.Fprintf(out, "%-12s ok\n", e.Name)
	}
	return failed
}

func runDecode(cmd *cobra.Command, args []string) error {
	for _, a := range args {
		n, err := strconv.ParseUint(a, 10, 8)
		if err != nil {
			return fmt.Errorf("permutation code %q: %w", a, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", n, kernel.Permutation(n))
	}
	return nil
}
