// Package cmd implements the command-line interface for malgo.
package cmd

import (
	"fmt"

	"github.com/malgo-cli/malgo/color"
	"github.com/malgo-cli/malgo/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(whoamiCmd)
	whoamiCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
}

// whoamiCmd displays the authenticated user's profile and list statistics.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Display the authenticated user's profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := authorizedClient()
		if err != nil {
			return err
		}

		user, err := client.MyUserInfo(cmd.Context())
		if err != nil {
			return err
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			return printJSON(user)
		}

		fmt.Println(style.New().Bold(true).Foreground(color.HiPurple).Render(user.Name), style.Faint(fmt.Sprintf("#%d", user.ID)))

		if user.JoinedAt != nil {
			fmt.Printf("%s %s\n", style.Fg(color.Blue)("Joined:"), *user.JoinedAt)
		}

		if stats := user.AnimeStatistics; stats != nil {
			row := func(name string, value any) {
				fmt.Printf("%s %v\n", style.Fg(color.Blue)(name+":"), value)
			}

			row("Watching", stats.NumItemsWatching)
			row("Completed", stats.NumItemsCompleted)
			row("On hold", stats.NumItemsOnHold)
			row("Dropped", stats.NumItemsDropped)
			row("Plan to watch", stats.NumItemsPlanToWatch)
			row("Episodes", stats.NumEpisodes)
			row("Days watched", stats.NumDaysWatched)
			row("Mean score", stats.MeanScore)
		}

		return nil
	},
}
