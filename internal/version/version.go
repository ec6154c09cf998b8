// Package version holds the build version of ruledns.
package version

// version is the build version.  It is overridden at build time with
// -ldflags "-X github.com/rafalfr/ruledns/internal/version.version=...".
var version = "dev"

// Version returns the current build version.
func Version() string {
	return version
}
