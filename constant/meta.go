// Package constant defines immutable application-level identifiers and defaults.
package constant

const (
	// Malgo is the canonical application identifier used for filesystem paths and CLI branding.
	Malgo = "malgo"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// UserAgent identifies malgo in requests against the MyAnimeList API.
	UserAgent = "malgo/" + Version + " (+https://github.com/malgo-cli/malgo)"
)

// Build metadata, overridable at link time via -ldflags.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
