package vigil

import (
	"regexp"
	"testing"
)

var semver = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)

func TestVersion(t *testing.T) {
	t.Parallel()

	if !semver.MatchString(Version) {
		t.Errorf("Version = %q, want a semantic version", Version)
	}
	if GetVersion() != Version {
		t.Errorf("GetVersion() = %s, want %s", GetVersion(), Version)
	}
}
