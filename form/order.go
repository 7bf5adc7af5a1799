package form

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// Order arranges user data keyed by name into the positional order of names,
// which is how coefficients and constants are passed to a kernel. Missing
// and unknown names are both errors.
func Order[V any](names []string, byName map[string]V) ([]V, error) {
	var err error
	out := make([]V, len(names))
	known := make(map[string]bool, len(names))
	for i, n := range names {
		known[n] = true
		v, ok := byName[n]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("no value for %q", n))
			continue
		}
		out[i] = v
	}

	var unknown []string
	for n := range byName {
		if !known[n] {
			unknown = append(unknown, n)
		}
	}
	sort.Strings(unknown)
	for _, n := range unknown {
		err = multierr.Append(err, fmt.Errorf("%q is not one of %v", n, names))
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
