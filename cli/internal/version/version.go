// Package version holds the gitscribe version string. Release builds set it via:
// go build -ldflags "-X gitscribe/cli/internal/version.Version=v1.0.0"
package version

// Version is the gitscribe version. Set at build time for releases.
var Version = "dev"

// Commit is the short git commit hash, set at build time for dev builds.
var Commit = ""

// String returns the version for display in --version and doctor output.
// Dev builds with Commit set return "dev (abc1234)".
func String() string {
	if Version != "dev" || Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
