package identity

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the ABI version shared by a generator and its consumer.
// Released versions print as major.minor.maintenance, development
// versions carry a .devN suffix.
type Version struct {
	Major       int
	Minor       int
	Maintenance int
	Release     bool
	Dev         int // Only meaningful when Release is false
}

// Current is the ABI version implemented by this module
var Current = Version{Major: 0, Minor: 9, Maintenance: 0, Release: false, Dev: 0}

// ParseVersion parses "major.minor.maintenance" or "major.minor.maintenance.devN"
func ParseVersion(s string) (Version, error) {
	var v Version
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 && len(parts) != 4 {
		return v, fmt.Errorf("invalid version %q: expected major.minor.maintenance[.devN]", s)
	}

	nums := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return v, fmt.Errorf("invalid version %q: component %d is not a non-negative integer", s, i)
		}
		nums[i] = n
	}
	v.Major, v.Minor, v.Maintenance = nums[0], nums[1], nums[2]

	if len(parts) == 3 {
		v.Release = true
		return v, nil
	}

	dev := parts[3]
	if !strings.HasPrefix(dev, "dev") {
		return v, fmt.Errorf("invalid version %q: fourth component must be devN", s)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(dev, "dev"))
	if err != nil || n < 0 {
		return v, fmt.Errorf("invalid version %q: bad dev number", s)
	}
	v.Dev = n
	return v, nil
}

// String formats the version the way ParseVersion reads it
func (v Version) String() string {
	if v.Release {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Maintenance)
	}
	return fmt.Sprintf("%d.%d.%d.dev%d", v.Major, v.Minor, v.Maintenance, v.Dev)
}

// Compatible reports whether descriptors generated under v may be used by a
// consumer built against other. Any difference is incompatible.
func (v Version) Compatible(other Version) bool {
	return v == other
}

// Less orders versions; a development version precedes its release
func (v Version) Less(other Version) bool {
	switch {
	case v.Major != other.Major:
		return v.Major < other.Major
	case v.Minor != other.Minor:
		return v.Minor < other.Minor
	case v.Maintenance != other.Maintenance:
		return v.Maintenance < other.Maintenance
	case v.Release != other.Release:
		return !v.Release
	default:
		return v.Dev < other.Dev
	}
}

// MarshalText implements encoding.TextMarshaler
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
