// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Challenge holds the PKCE verifier/challenge pair and the CSRF state for a
// single login attempt. A Challenge is generated fresh per BeginLogin call
// and discarded after the code exchange.
type Challenge struct {
	// Verifier is the client-held secret, 128 characters from the base64url
	// alphabet (a subset of the RFC 3986 unreserved set).
	Verifier string

	// Challenge is the S256 derivation sent to the authorization endpoint:
	// base64url(sha256(verifier)) without padding.
	Challenge string

	// State is a random value echoed back on the redirect to bind the
	// callback to this login attempt.
	State string
}

// GenerateChallenge creates a new PKCE challenge from cryptographically
// secure randomness. 96 random bytes encode to the RFC 7636 maximum of 128
// verifier characters.
func GenerateChallenge() (*Challenge, error) {
	verifier, err := randomURLSafe(96)
	if err != nil {
		return nil, fmt.Errorf("generate code verifier: %w", err)
	}

	state, err := randomURLSafe(16)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	return &Challenge{
		Verifier:  verifier,
		Challenge: DeriveChallenge(verifier),
		State:     state,
	}, nil
}

// DeriveChallenge computes the S256 code challenge for a verifier. The
// derivation is deterministic: the same verifier always yields the same
// challenge.
func DeriveChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// randomURLSafe returns n random bytes encoded with unpadded base64url.
func randomURLSafe(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
