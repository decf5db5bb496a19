// Package version is the single source of build version information.
package version

// Overridable at build time:
// go build -ldflags "-X triage/internal/version.Version=1.3.0 -X triage/internal/version.Commit=$(git rev-parse HEAD)"
var (
	// Version is the semantic version.
	Version = "1.2.0"

	// Commit is the git commit hash, set at build time.
	Commit = "unknown"

	// BuildDate is the build timestamp, set at build time.
	BuildDate = "unknown"
)

// Full renders the complete multi-line version report.
func Full() string {
	return "triage version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
