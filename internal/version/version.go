package version

// Package version exposes build-time metadata stamped into the binary via ldflags.

const (
	defaultVersion   = "dev"
	defaultCommit    = "none"
	defaultBuildDate = "unknown"
)

var (
	// Version is the semantic version associated with this build.
	Version = defaultVersion
	// Commit is the VCS revision the binary was built from.
	Commit = defaultCommit
	// BuildDate is the UTC timestamp when the binary was built.
	BuildDate = defaultBuildDate
)

// Set overrides the build metadata. Empty values keep the current value.
func Set(version, commit, buildDate string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		Commit = commit
	}
	if buildDate != "" {
		BuildDate = buildDate
	}
}

// Summary returns a human-readable description of the build metadata.
func Summary() string {
	return Version + " (" + Commit + ", built " + BuildDate + ")"
}
