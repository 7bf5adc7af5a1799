// Package catalog groups the forms and expressions one generator run
// produced under the ABI version they were generated for.
package catalog

import (
	"fmt"
	"sort"

	"github.com/notargets/tabulate/expression"
	"github.com/notargets/tabulate/form"
	"github.com/notargets/tabulate/identity"
	"go.uber.org/multierr"
)

// Catalog is an immutable set of named descriptors
type Catalog struct {
	version     identity.Version
	forms       map[string]*form.Form
	expressions map[string]*expression.Expression
}

// New builds a catalog. Names must be unique within forms and within
// expressions.
func New(version identity.Version, forms map[string]*form.Form,
	expressions map[string]*expression.Expression) (*Catalog, error) {
	var err error
	c := &Catalog{
		version:     version,
		forms:       make(map[string]*form.Form, len(forms)),
		expressions: make(map[string]*expression.Expression, len(expressions)),
	}
	for name, f := range forms {
		if name == "" || f == nil {
			err = multierr.Append(err, fmt.Errorf("form %q is unnamed or nil", name))
			continue
		}
		c.forms[name] = f
	}
	for name, e := range expressions {
		if name == "" || e == nil {
			err = multierr.Append(err, fmt.Errorf("expression %q is unnamed or nil", name))
			continue
		}
		c.expressions[name] = e
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Open checks the catalog's version against the consumer's before anything
// in it is used
func (c *Catalog) Open(env identity.Environment) (*Catalog, error) {
	if err := env.CheckVersion(c.version); err != nil {
		return nil, err
	}
	return c, nil
}

// Version returns the ABI version the descriptors were generated for
func (c *Catalog) Version() identity.Version { return c.version }

// Form returns the named form
func (c *Catalog) Form(name string) (*form.Form, error) {
	f, ok := c.forms[name]
	if !ok {
		return nil, fmt.Errorf("catalog has no form %q", name)
	}
	return f, nil
}

// Expression returns the named expression
func (c *Catalog) Expression(name string) (*expression.Expression, error) {
	e, ok := c.expressions[name]
	if !ok {
		return nil, fmt.Errorf("catalog has no expression %q", name)
	}
	return e, nil
}

// FormNames returns the form names in sorted order
func (c *Catalog) FormNames() []string {
	return sortedKeys(c.forms)
}

// ExpressionNames returns the expression names in sorted order
func (c *Catalog) ExpressionNames() []string {
	return sortedKeys(c.expressions)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
