// Package cmd implements the command-line interface for malgo.
package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/malgo-cli/malgo/key"
	"github.com/malgo-cli/malgo/log"
	"github.com/malgo-cli/malgo/mal"
	"github.com/spf13/viper"
)

// tokenStore selects the storage backend from configuration. Caching can be
// switched off entirely, in which case tokens live only for the process.
func tokenStore() mal.TokenStore {
	if !viper.GetBool(key.AuthCacheTokens) {
		return nil
	}

	switch viper.GetString(key.AuthStore) {
	case "keyring":
		return mal.NewKeyringStore()
	default:
		return mal.NewFileStore("")
	}
}

// ensureClientID returns the configured MAL client ID, prompting for it
// interactively when unset and persisting the answer.
func ensureClientID() (string, error) {
	if id := viper.GetString(key.MALClientID); id != "" {
		return id, nil
	}

	input := survey.Input{
		Message: "MyAnimeList client ID is not set. Please enter it:",
		Help:    "Register an application at https://myanimelist.net/apiconfig to obtain one",
	}
	var response string
	if err := survey.AskOne(&input, &response); err != nil {
		return "", err
	}

	if response == "" {
		return "", errors.New("a MyAnimeList client ID is required")
	}

	viper.Set(key.MALClientID, response)
	switch err := viper.WriteConfig(); err.(type) {
	case viper.ConfigFileNotFoundError:
		if err := viper.SafeWriteConfig(); err != nil {
			return "", err
		}
	case nil:
	default:
		return "", err
	}

	return response, nil
}

// malClient builds the API client from the current configuration. Cache read
// failures are logged and ignored: the command proceeds without a restored
// session.
func malClient() (*mal.Client, error) {
	id, err := ensureClientID()
	if err != nil {
		return nil, err
	}

	client, err := mal.New(mal.Options{
		ClientID:     id,
		ClientSecret: viper.GetString(key.MALClientSecret),
		RedirectURI:  viper.GetString(key.MALRedirectURI),
		Store:        tokenStore(),
		LoginTimeout: time.Duration(viper.GetInt(key.AuthLoginTimeout)) * time.Second,
	})

	var cacheErr *mal.CacheError
	if errors.As(err, &cacheErr) {
		log.Warn(cacheErr)
		return client, nil
	}

	return client, err
}

// authorizedClient builds the client and fails fast when no session is held,
// so data commands give a clear hint instead of a raw 401.
func authorizedClient() (*mal.Client, error) {
	client, err := malClient()
	if err != nil {
		return nil, err
	}

	if !client.Authorized() {
		return nil, fmt.Errorf("not logged in, run `malgo auth login` first")
	}

	return client, nil
}
