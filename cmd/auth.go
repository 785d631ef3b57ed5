// Package cmd implements the command-line interface for malgo.
package cmd

import (
	"fmt"
	"time"

	"github.com/malgo-cli/malgo/color"
	"github.com/malgo-cli/malgo/icon"
	"github.com/malgo-cli/malgo/log"
	"github.com/malgo-cli/malgo/open"
	"github.com/malgo-cli/malgo/style"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

// authCmd manages the OAuth2 session with MyAnimeList.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the MyAnimeList OAuth2 session",
}

// authLoginCmd runs the OAuth2 PKCE authorization flow end to end.
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with MyAnimeList via OAuth2 PKCE",
	Long: `Run the OAuth2 PKCE authorization flow for MyAnimeList.
This command launches a local callback server and opens the system browser for secure authorization.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := malClient()
		if err != nil {
			return err
		}

		if client.Authorized() {
			fmt.Printf("%s already logged in\n", icon.Get(icon.Success))
			return nil
		}

		authURL, challenge, err := client.BeginLogin()
		if err != nil {
			return err
		}

		fmt.Printf("%s Opening browser to authorize with MyAnimeList\n", icon.Get(icon.Link))
		if err := open.Start(authURL); err != nil {
			log.Warn("failed to open browser: " + err.Error())
			fmt.Println("Please open the following URL in your browser:")
			fmt.Println(authURL)
		}

		fmt.Printf("%s Waiting for the login callback...\n", icon.Get(icon.Progress))

		token, err := client.CompleteLogin(cmd.Context(), challenge)
		if err != nil {
			// The session may still be usable in-memory when only persistence
			// failed.
			if token == nil {
				return err
			}
			log.Warn(err)
		}

		fmt.Printf(
			"%s logged in, session valid until %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Bold(token.ExpiresAt.Format(time.RFC1123)),
		)
		return nil
	},
}

// authStatusCmd reports whether a usable session is held and when it expires.
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the current session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := malClient()
		if err != nil {
			return err
		}

		token := client.Token()
		if token == nil {
			fmt.Printf("%s not logged in\n", icon.Get(icon.Lock))
			return nil
		}

		fmt.Printf(
			"%s logged in, access token expires %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Bold(token.ExpiresAt.Format(time.RFC1123)),
		)
		return nil
	},
}

// authLogoutCmd drops the session and removes the persisted token cache.
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the current session and forget cached tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := malClient()
		if err != nil {
			return err
		}

		if err := client.Logout(); err != nil {
			return err
		}

		fmt.Printf("%s logged out\n", icon.Get(icon.Success))
		return nil
	},
}
