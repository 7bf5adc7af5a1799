package identity

import "fmt"

// Environment is the consumer's side of the identity checks: the ABI
// version it was built against and the hash of its own coordinate element.
type Environment struct {
	Version           Version
	CoordinateElement Hash
}

// VersionMismatchError reports descriptors generated under a different ABI version
type VersionMismatchError struct {
	Generator Version
	Consumer  Version
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("ABI version mismatch: descriptors generated for %s, consumer built for %s",
		e.Generator, e.Consumer)
}

// HashMismatchError reports a descriptor generated against a different
// element or coordinate map than the one the consumer holds
type HashMismatchError struct {
	What     string // e.g. "coordinate element of cell integral 0"
	Recorded Hash
	Own      Hash
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("%s: descriptor generated for element %s, consumer has %s",
		e.What, e.Recorded, e.Own)
}

// CheckVersion returns a *VersionMismatchError unless the versions are compatible
func (env Environment) CheckVersion(generator Version) error {
	if !generator.Compatible(env.Version) {
		return &VersionMismatchError{Generator: generator, Consumer: env.Version}
	}
	return nil
}

// CheckCoordinate compares a recorded coordinate element hash with the environment's
func (env Environment) CheckCoordinate(what string, recorded Hash) error {
	return CheckHash(what, recorded, env.CoordinateElement)
}

// CheckHash returns a *HashMismatchError unless recorded equals own
func CheckHash(what string, recorded, own Hash) error {
	if recorded != own {
		return &HashMismatchError{What: what, Recorded: recorded, Own: own}
	}
	return nil
}
