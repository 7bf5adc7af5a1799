// Package manifest records the kernel-free metadata of forms and
// expressions so it can be stored, diffed and checked against a consumer
// without loading any generated code. Files are YAML or TOML, chosen by
// extension.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/notargets/tabulate/catalog"
	"github.com/notargets/tabulate/expression"
	"github.com/notargets/tabulate/form"
	"github.com/notargets/tabulate/identity"
	"github.com/notargets/tabulate/kernel"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Manifest is the metadata of one generator run
type Manifest struct {
	Version     identity.Version     `yaml:"version" toml:"version"`
	Forms       []FormManifest       `yaml:"forms,omitempty" toml:"forms,omitempty"`
	Expressions []ExpressionManifest `yaml:"expressions,omitempty" toml:"expressions,omitempty"`
}

// FormManifest mirrors form.Form. Integrals are listed in ABI order, so
// Offsets partitions them by category.
type FormManifest struct {
	Name                         string             `yaml:"name,omitempty" toml:"name,omitempty"`
	Signature                    string             `yaml:"signature" toml:"signature"`
	Rank                         int                `yaml:"rank" toml:"rank"`
	CoefficientNames             []string           `yaml:"coefficient_names,omitempty" toml:"coefficient_names,omitempty"`
	OriginalCoefficientPositions []int              `yaml:"original_coefficient_positions,omitempty" toml:"original_coefficient_positions,omitempty"`
	ConstantNames                []string           `yaml:"constant_names,omitempty" toml:"constant_names,omitempty"`
	FiniteElementHashes          []identity.Hash    `yaml:"finite_element_hashes" toml:"finite_element_hashes"`
	Offsets                      []int              `yaml:"form_integral_offsets" toml:"form_integral_offsets"`
	Integrals                    []IntegralManifest `yaml:"integrals,omitempty" toml:"integrals,omitempty"`
}

// IntegralManifest mirrors form.Integral
type IntegralManifest struct {
	Type                   form.IntegralType  `yaml:"type" toml:"type"`
	SubdomainID            int                `yaml:"subdomain_id" toml:"subdomain_id"`
	EnabledCoefficients    []bool             `yaml:"enabled_coefficients,omitempty" toml:"enabled_coefficients,omitempty"`
	NeedsFacetPermutations bool               `yaml:"needs_facet_permutations" toml:"needs_facet_permutations"`
	CoordinateElementHash  identity.Hash      `yaml:"coordinate_element_hash" toml:"coordinate_element_hash"`
	Precisions             []kernel.Precision `yaml:"precisions" toml:"precisions"`
}

// ExpressionManifest mirrors expression.Expression
type ExpressionManifest struct {
	Name                         string             `yaml:"name" toml:"name"`
	Rank                         int                `yaml:"rank" toml:"rank"`
	CoefficientNames             []string           `yaml:"coefficient_names,omitempty" toml:"coefficient_names,omitempty"`
	OriginalCoefficientPositions []int              `yaml:"original_coefficient_positions,omitempty" toml:"original_coefficient_positions,omitempty"`
	ConstantNames                []string           `yaml:"constant_names,omitempty" toml:"constant_names,omitempty"`
	EntityDimension              int                `yaml:"entity_dimension" toml:"entity_dimension"`
	Points                       []float64          `yaml:"points,omitempty" toml:"points,omitempty"`
	ValueShape                   []int              `yaml:"value_shape,omitempty" toml:"value_shape,omitempty"`
	CoordinateElementHash        identity.Hash      `yaml:"coordinate_element_hash" toml:"coordinate_element_hash"`
	Precisions                   []kernel.Precision `yaml:"precisions" toml:"precisions"`
}

// FromForm records a form under an optional catalog name
func FromForm(name string, f *form.Form) FormManifest {
	fm := FormManifest{
		Name:                         name,
		Signature:                    f.Signature(),
		Rank:                         f.Rank(),
		CoefficientNames:             f.CoefficientNames(),
		OriginalCoefficientPositions: f.OriginalCoefficientPositions(),
		ConstantNames:                f.ConstantNames(),
		FiniteElementHashes:          f.FiniteElementHashes(),
		Offsets:                      f.Offsets(),
	}
	for _, t := range form.IntegralTypes {
		for _, in := range f.Integrals(t) {
			fm.Integrals = append(fm.Integrals, IntegralManifest{
				Type:                   in.Type(),
				SubdomainID:            in.SubdomainID(),
				EnabledCoefficients:    in.EnabledCoefficients(),
				NeedsFacetPermutations: in.NeedsFacetPermutations(),
				CoordinateElementHash:  in.CoordinateElementHash(),
				Precisions:             in.Precisions(),
			})
		}
	}
	return fm
}

// FromExpression records an expression
func FromExpression(e *expression.Expression) ExpressionManifest {
	return ExpressionManifest{
		Name:                         e.Name(),
		Rank:                         e.Rank(),
		CoefficientNames:             e.CoefficientNames(),
		OriginalCoefficientPositions: e.OriginalCoefficientPositions(),
		ConstantNames:                e.ConstantNames(),
		EntityDimension:              e.EntityDimension(),
		Points:                       e.RawPoints(),
		ValueShape:                   e.ValueShape(),
		CoordinateElementHash:        e.CoordinateElementHash(),
		Precisions:                   e.Precisions(),
	}
}

// FromCatalog records every descriptor of a catalog, forms and
// expressions each in name order
func FromCatalog(c *catalog.Catalog) (*Manifest, error) {
	m := &Manifest{Version: c.Version()}
	for _, name := range c.FormNames() {
		f, err := c.Form(name)
		if err != nil {
			return nil, err
		}
		m.Forms = append(m.Forms, FromForm(name, f))
	}
	for _, name := range c.ExpressionNames() {
		e, err := c.Expression(name)
		if err != nil {
			return nil, err
		}
		m.Expressions = append(m.Expressions, FromExpression(e))
	}
	return m, nil
}

type format int

const (
	formatYAML format = iota
	formatTOML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	default:
		return 0, fmt.Errorf("manifest %s: unknown extension, expected .yaml, .yml or .toml", path)
	}
}

// Marshal encodes the manifest in the format its path extension names
func (m *Manifest) Marshal(path string) ([]byte, error) {
	ft, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	if ft == formatTOML {
		return toml.Marshal(m)
	}
	return yaml.Marshal(m)
}

// Unmarshal decodes data in the format the path extension names
func Unmarshal(path string, data []byte) (*Manifest, error) {
	ft, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if ft == formatTOML {
		err = toml.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Load reads a manifest file
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Unmarshal(path, data)
}

// Save writes the manifest
func (m *Manifest) Save(path string) error {
	data, err := m.Marshal(path)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Form returns the form recorded under the given name or signature
func (m *Manifest) Form(key string) (FormManifest, bool) {
	for _, f := range m.Forms {
		if f.Name == key || f.Signature == key {
			return f, true
		}
	}
	return FormManifest{}, false
}
