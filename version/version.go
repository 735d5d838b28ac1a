// Package version carries build-time identification, set through ldflags.
package version

//nolint:gochecknoglobals // set by the linker
var (
	name    = "sonance"
	version = "dev"
	commit  = "unknown"
)

// Name returns the binary name.
func Name() string {
	return name
}

// Version returns the build version.
func Version() string {
	return version
}

// Commit returns the VCS commit the binary was built from.
func Commit() string {
	return commit
}
