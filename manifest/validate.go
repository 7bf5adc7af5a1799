package manifest

import (
	"fmt"

	"github.com/notargets/tabulate/form"
	"github.com/notargets/tabulate/identity"
	"go.uber.org/multierr"
)

// Validate checks the structural invariants of every recorded descriptor
func (m *Manifest) Validate() error {
	var err error
	seen := make(map[string]bool)
	for i := range m.Forms {
		f := &m.Forms[i]
		if seen[f.Signature] {
			err = multierr.Append(err, fmt.Errorf("form signature %q recorded twice", f.Signature))
		}
		seen[f.Signature] = true
		err = multierr.Append(err, f.Validate())
	}
	for i := range m.Expressions {
		err = multierr.Append(err, m.Expressions[i].Validate())
	}
	return err
}

// Validate checks a recorded form the way form.New checks a definition,
// plus the offsets partition
func (f *FormManifest) Validate() error {
	var err error
	if f.Signature == "" {
		err = multierr.Append(err, fmt.Errorf("signature is empty"))
	}
	if f.Rank < 0 {
		err = multierr.Append(err, fmt.Errorf("rank %d is negative", f.Rank))
	}
	nc := len(f.CoefficientNames)
	err = multierr.Append(err, positions(f.OriginalCoefficientPositions, nc))
	if want := f.Rank + nc; len(f.FiniteElementHashes) != want {
		err = multierr.Append(err, fmt.Errorf("%d element hashes, expected %d (rank + coefficients)",
			len(f.FiniteElementHashes), want))
	}

	if oerr := form.ValidateOffsets(f.Offsets, len(f.Integrals), len(f.Integrals)); oerr != nil {
		err = multierr.Append(err, oerr)
		return wrap(f.Signature, err)
	}
	for k, t := range form.IntegralTypes {
		prev := form.DefaultSubdomain - 1
		for i := f.Offsets[k]; i < f.Offsets[k+1]; i++ {
			in := f.Integrals[i]
			if in.Type != t {
				err = multierr.Append(err, fmt.Errorf("integral %d is %s but sits in the %s range", i, in.Type, t))
			}
			if in.SubdomainID < form.DefaultSubdomain {
				err = multierr.Append(err, fmt.Errorf("%s integral %d has invalid subdomain id %d", t, i, in.SubdomainID))
			}
			if in.SubdomainID <= prev {
				err = multierr.Append(err, fmt.Errorf("%s subdomain ids not strictly ascending at %d", t, i))
			}
			prev = in.SubdomainID
			if len(in.EnabledCoefficients) != nc {
				err = multierr.Append(err, fmt.Errorf("%s integral %d: mask has %d entries, form has %d coefficients",
					t, in.SubdomainID, len(in.EnabledCoefficients), nc))
			}
			if len(in.Precisions) == 0 {
				err = multierr.Append(err, fmt.Errorf("%s integral %d has no kernels", t, in.SubdomainID))
			}
		}
	}
	return wrap(f.Signature, err)
}

// Validate checks a recorded expression
func (e *ExpressionManifest) Validate() error {
	var err error
	if e.Name == "" {
		err = multierr.Append(err, fmt.Errorf("name is empty"))
	}
	if e.Rank < 0 {
		err = multierr.Append(err, fmt.Errorf("rank %d is negative", e.Rank))
	}
	err = multierr.Append(err, positions(e.OriginalCoefficientPositions, len(e.CoefficientNames)))
	if e.EntityDimension < 0 || e.EntityDimension > 3 {
		err = multierr.Append(err, fmt.Errorf("entity dimension %d out of range", e.EntityDimension))
	} else if e.EntityDimension == 0 {
		if len(e.Points) != 0 {
			err = multierr.Append(err, fmt.Errorf("vertex expression carries %d point coordinates", len(e.Points)))
		}
	} else if len(e.Points) == 0 || len(e.Points)%e.EntityDimension != 0 {
		err = multierr.Append(err, fmt.Errorf("%d point coordinates do not divide into dimension %d",
			len(e.Points), e.EntityDimension))
	}
	for i, s := range e.ValueShape {
		if s < 1 {
			err = multierr.Append(err, fmt.Errorf("value shape extent %d is %d", i, s))
		}
	}
	if len(e.Precisions) == 0 {
		err = multierr.Append(err, fmt.Errorf("no kernels"))
	}
	if err != nil {
		return fmt.Errorf("expression %q: %w", e.Name, err)
	}
	return nil
}

func positions(p []int, n int) error {
	if p == nil {
		return nil
	}
	if len(p) != n {
		return fmt.Errorf("%d original positions for %d coefficients", len(p), n)
	}
	for i, v := range p {
		if v < 0 {
			return fmt.Errorf("original position %d is negative", i)
		}
	}
	return nil
}

func wrap(signature string, err error) error {
	if err != nil {
		return fmt.Errorf("form %q: %w", signature, err)
	}
	return nil
}

// Check compares the manifest's version with the consumer's
func (m *Manifest) Check(env identity.Environment) error {
	return env.CheckVersion(m.Version)
}

// Check applies the identity gate to a recorded form: one element hash per
// argument then per coefficient, and the coordinate element of every
// integral. Every mismatch is reported.
func (f *FormManifest) Check(env identity.Environment, elements []identity.Hash) error {
	var err error
	if len(elements) != len(f.FiniteElementHashes) {
		err = multierr.Append(err, fmt.Errorf("consumer supplied %d element hashes, form has %d",
			len(elements), len(f.FiniteElementHashes)))
	} else {
		for i, recorded := range f.FiniteElementHashes {
			what := fmt.Sprintf("argument %d element", i)
			if c := i - f.Rank; c >= 0 && c < len(f.CoefficientNames) {
				what = fmt.Sprintf("coefficient %q element", f.CoefficientNames[c])
			}
			err = multierr.Append(err, identity.CheckHash(what, recorded, elements[i]))
		}
	}
	for _, in := range f.Integrals {
		what := fmt.Sprintf("%s integral %d coordinate element", in.Type, in.SubdomainID)
		err = multierr.Append(err, env.CheckCoordinate(what, in.CoordinateElementHash))
	}
	return wrap(f.Signature, err)
}
