package constant

// MyAnimeList endpoint roots. The OAuth2 endpoints live on the main site,
// the REST API on its own subdomain.
const (
	MALAuthURL  = "https://myanimelist.net/v1/oauth2/authorize"
	MALTokenURL = "https://myanimelist.net/v1/oauth2/token"
	MALAPIURL   = "https://api.myanimelist.net/v2"
)
