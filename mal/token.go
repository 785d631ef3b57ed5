// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import "time"

// expirySkew is the safety margin subtracted from a token's lifetime: a token
// within this window of its expiry is treated as already expired so that an
// in-flight request does not race the provider-side cutoff.
const expirySkew = time.Minute

// TokenSet is the credential bundle produced by a successful code exchange or
// refresh. A TokenSet is only ever replaced wholesale, never partially
// updated, so callers either see a complete session or none at all.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Complete reports whether both tokens are present. An incomplete set is
// treated as absent everywhere in this package.
func (t *TokenSet) Complete() bool {
	return t != nil && t.AccessToken != "" && t.RefreshToken != ""
}

// Live reports whether the access token itself is still within its expiry,
// with the safety margin applied. Liveness says nothing about refresh
// capability: a set without a refresh token can be live but never renewed.
func (t *TokenSet) Live() bool {
	return t != nil && t.AccessToken != "" && time.Now().Add(expirySkew).Before(t.ExpiresAt)
}

// Valid reports whether the set is complete and live.
func (t *TokenSet) Valid() bool {
	return t.Complete() && t.Live()
}

// clone returns a copy so callers cannot mutate the client's session state.
func (t *TokenSet) clone() *TokenSet {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// tokenResponse mirrors the token endpoint's wire format for both the code
// exchange and the refresh exchange.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// tokenSet converts the wire response into an absolute-expiry TokenSet.
func (r tokenResponse) tokenSet(now time.Time) *TokenSet {
	return &TokenSet{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		ExpiresAt:    now.Add(time.Duration(r.ExpiresIn) * time.Second),
	}
}
