// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// MyAnimeList API Credentials - these keys hold the OAuth2 client registration issued by MAL.
const (
	MALClientID     = "mal.client_id"
	MALClientSecret = "mal.client_secret"
	MALRedirectURI  = "mal.redirect_uri"
)

// Authentication Flow - these keys govern the token lifecycle and login behavior.
const (
	AuthCacheTokens  = "auth.cache_tokens"
	AuthStore        = "auth.store"
	AuthLoginTimeout = "auth.login_timeout"
)

// Search Interaction - these keys define defaults for discovery endpoints.
const (
	SearchLimit = "search.limit"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern terminal output behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
