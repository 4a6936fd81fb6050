package oci

import (
	"fmt"
	"regexp"
)

// SemVer formats a version, appending -dev when dev is non-empty.
func SemVer(major, minor, patch int, dev string) string {
	v := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if dev != "" {
		v += "-" + dev
	}
	return v
}

var semverRegexp = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?(?:\+([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)

// ValidSemVer reports whether v is a SemVer 2.0.0 string.
func ValidSemVer(v string) bool {
	return semverRegexp.MatchString(v)
}
