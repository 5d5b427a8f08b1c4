// Package vigil provides the version information for vigil.
package vigil

// Version is the current version of vigil.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
