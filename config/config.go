// Package config holds the consumer side configuration: the ABI version
// and elements a consumer was built with, from which it derives the
// identity environment that descriptors are checked against.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/notargets/tabulate/element"
	"github.com/notargets/tabulate/identity"
	"github.com/notargets/tabulate/kernel"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Consumer describes the program that calls generated kernels
type Consumer struct {
	Version           identity.Version   `yaml:"version"`
	CoordinateElement element.Descriptor `yaml:"coordinate_element"`

	// Elements of a form's arguments followed by its coefficients, keyed
	// by form name
	Forms map[string][]element.Descriptor `yaml:"forms,omitempty"`

	Precision kernel.Precision `yaml:"precision"`
	Registry  string           `yaml:"registry,omitempty"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the configuration of a consumer of the reference P1
// catalog on affine triangles
func Default() *Consumer {
	p1 := element.P(element.Triangle, 1)
	return &Consumer{
		Version:           identity.Current,
		CoordinateElement: p1.Vector(2),
		Forms: map[string][]element.Descriptor{
			"mass": {p1, p1},
			"load": {p1, p1, p1},
			"jump": {p1},
		},
		Precision: kernel.Float64,
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML configuration over the defaults. A missing file yields
// the defaults. A forms section replaces the default forms as a whole; forms
// it does not list are not configured.
func Load(path string) (*Consumer, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var top map[string]yaml.Node
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// yaml.v3 merges into a non-nil map
	if _, ok := top["forms"]; ok {
		cfg.Forms = nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Consumer) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Consumer) applyEnvOverrides() {
	if path := os.Getenv("TABULATE_REGISTRY"); path != "" {
		c.Registry = path
	}
	if level := os.Getenv("TABULATE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks every element and the logging level
func (c *Consumer) Validate() error {
	var err error
	if e := c.CoordinateElement.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("coordinate element: %w", e))
	}
	for name, list := range c.Forms {
		for i, d := range list {
			if e := d.Validate(); e != nil {
				err = multierr.Append(err, fmt.Errorf("form %q element %d: %w", name, i, e))
			}
		}
	}
	if c.Precision < kernel.Float32 || c.Precision > kernel.Complex128 {
		err = multierr.Append(err, fmt.Errorf("precision %d is not set", int(c.Precision)))
	}
	if _, e := zap.ParseAtomicLevel(c.Logging.Level); e != nil {
		err = multierr.Append(err, fmt.Errorf("logging level: %w", e))
	}
	return err
}

// Environment returns the identity environment descriptors are checked
// against
func (c *Consumer) Environment() identity.Environment {
	return identity.Environment{
		Version:           c.Version,
		CoordinateElement: c.CoordinateElement.Hash(),
	}
}

// ElementHashes returns the consumer's own hashes for the named form, in
// argument then coefficient order
func (c *Consumer) ElementHashes(form string) ([]identity.Hash, error) {
	list, ok := c.Forms[form]
	if !ok {
		return nil, fmt.Errorf("no elements configured for form %q", form)
	}
	out := make([]identity.Hash, len(list))
	for i, d := range list {
		out[i] = d.Hash()
	}
	return out, nil
}

// Logger builds the zap logger the configuration asks for
func (c *Consumer) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
