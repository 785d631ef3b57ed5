// Package cmd implements the command-line interface for malgo.
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/malgo-cli/malgo/color"
	"github.com/malgo-cli/malgo/icon"
	"github.com/malgo-cli/malgo/mal"
	"github.com/malgo-cli/malgo/style"
	"github.com/malgo-cli/malgo/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

// listCmd groups the commands operating on the user's anime list.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Manage your MyAnimeList anime list",
}

// statusKindNames enumerates the bucket identifiers for flag completion.
func statusKindNames() []string {
	return lo.Map(mal.ListStatusKinds, func(k mal.ListStatusKind, _ int) string {
		return string(k)
	})
}

func init() {
	listCmd.AddCommand(listShowCmd)

	listShowCmd.Flags().StringP("status", "s", "", "Restrict the listing to one status bucket")
	listShowCmd.Flags().StringP("filter", "f", "", "Fuzzy-filter the listing by title")
	listShowCmd.Flags().IntP("limit", "l", 0, "Maximum number of entries to display")
	listShowCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	_ = listShowCmd.RegisterFlagCompletionFunc("status", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return statusKindNames(), cobra.ShellCompDirectiveNoFileComp
	})
}

// listShowCmd displays the user's anime list.
var listShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display your anime list",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := authorizedClient()
		if err != nil {
			return err
		}

		status := mal.ListStatusKind(lo.Must(cmd.Flags().GetString("status")))
		entries, err := client.UserAnimeList(cmd.Context(), status, resultLimit(cmd))
		if err != nil {
			return err
		}

		if filter := lo.Must(cmd.Flags().GetString("filter")); filter != "" {
			entries = lo.Filter(entries, func(e mal.UserListEntry, _ int) bool {
				return fuzzy.MatchFold(filter, e.Node.Title)
			})
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			return printJSON(entries)
		}

		for _, entry := range entries {
			printListEntry(entry)
		}
		fmt.Println(style.Faint(util.Quantify(len(entries), "entry", "entries")))
		return nil
	},
}

// printListEntry renders one list row with its watch state.
func printListEntry(entry mal.UserListEntry) {
	title := entry.Node.Title
	id := style.Faint(fmt.Sprintf("%8d", entry.Node.ID))

	if entry.ListStatus == nil {
		fmt.Printf("%s  %s\n", id, title)
		return
	}

	state := style.Fg(color.Cyan)(string(entry.ListStatus.Status))
	progress := style.Faint(fmt.Sprintf("ep %d", entry.ListStatus.NumEpisodesWatched))

	score := ""
	if entry.ListStatus.Score > 0 {
		score = style.Fg(color.Yellow)(fmt.Sprintf("★%d", entry.ListStatus.Score))
	}

	fmt.Printf("%s  %s %s %s %s\n", id, title, state, progress, score)
}

func init() {
	listCmd.AddCommand(listSetCmd)

	listSetCmd.Flags().StringP("status", "s", "", "Status bucket to move the entry into")
	listSetCmd.Flags().Int("score", -1, "Score from 1 to 10")
	listSetCmd.Flags().Int("episodes", -1, "Number of episodes watched")
	listSetCmd.Flags().Bool("rewatching", false, "Mark the entry as being rewatched")
	_ = listSetCmd.RegisterFlagCompletionFunc("status", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return statusKindNames(), cobra.ShellCompDirectiveNoFileComp
	})
}

// listSetCmd adds or updates a list entry. Only the attributes whose flags
// were set are sent, so unrelated state stays untouched server-side.
var listSetCmd = &cobra.Command{
	Use:   "set [id]",
	Short: "Add an anime to your list or update the existing entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid anime id: %s", args[0])
		}

		var update mal.ListUpdate
		if cmd.Flags().Changed("status") {
			status := lo.Must(cmd.Flags().GetString("status"))
			if !lo.Contains(statusKindNames(), status) {
				return fmt.Errorf("unknown status %q, valid: %s", status, strings.Join(statusKindNames(), ", "))
			}
			update.Status = mo.Some(mal.ListStatusKind(status))
		}
		if cmd.Flags().Changed("score") {
			update.Score = mo.Some(lo.Must(cmd.Flags().GetInt("score")))
		}
		if cmd.Flags().Changed("episodes") {
			update.EpisodesWatched = mo.Some(lo.Must(cmd.Flags().GetInt("episodes")))
		}
		if cmd.Flags().Changed("rewatching") {
			update.IsRewatching = mo.Some(lo.Must(cmd.Flags().GetBool("rewatching")))
		}

		client, err := authorizedClient()
		if err != nil {
			return err
		}

		status, err := client.UpdateListStatus(cmd.Context(), id, update)
		if err != nil {
			return err
		}

		fmt.Printf(
			"%s updated: %s, %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Cyan)(string(status.Status)),
			util.Quantify(status.NumEpisodesWatched, "episode watched", "episodes watched"),
		)
		return nil
	},
}

func init() {
	listCmd.AddCommand(listRemoveCmd)
}

// listRemoveCmd deletes an entry from the list.
var listRemoveCmd = &cobra.Command{
	Use:     "remove [id]",
	Short:   "Remove an anime from your list",
	Aliases: []string{"delete"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid anime id: %s", args[0])
		}

		client, err := authorizedClient()
		if err != nil {
			return err
		}

		if err := client.DeleteListItem(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Printf("%s removed %d from your list\n", style.Fg(color.Green)(icon.Get(icon.Success)), id)
		return nil
	},
}
