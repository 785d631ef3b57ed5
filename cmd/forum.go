// Package cmd implements the command-line interface for malgo.
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/malgo-cli/malgo/color"
	"github.com/malgo-cli/malgo/mal"
	"github.com/malgo-cli/malgo/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(forumCmd)
	forumCmd.PersistentFlags().BoolP("json", "j", false, "Format the output as JSON")
}

// forumCmd groups the MyAnimeList forum browsing commands.
var forumCmd = &cobra.Command{
	Use:   "forum",
	Short: "Browse the MyAnimeList forums",
}

func init() {
	forumCmd.AddCommand(forumBoardsCmd)
}

// forumBoardsCmd lists the discussion boards grouped by category.
var forumBoardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "Display the discussion boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := authorizedClient()
		if err != nil {
			return err
		}

		categories, err := client.ForumBoards(cmd.Context())
		if err != nil {
			return err
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			return printJSON(categories)
		}

		for i, category := range categories {
			fmt.Println(style.New().Bold(true).Foreground(color.HiPurple).Render(category.Title))

			for _, board := range category.Boards {
				fmt.Printf("%s  %s\n", style.Faint(fmt.Sprintf("%6d", board.ID)), board.Title)
			}

			if i < len(categories)-1 {
				fmt.Println()
			}
		}
		return nil
	},
}

func init() {
	forumCmd.AddCommand(forumTopicsCmd)

	forumTopicsCmd.Flags().IntP("board", "b", 0, "Restrict the listing to one board")
	forumTopicsCmd.Flags().IntP("limit", "l", 0, "Maximum number of topics to display")
}

// forumTopicsCmd searches forum topics.
var forumTopicsCmd = &cobra.Command{
	Use:   "topics [query]",
	Short: "Search forum topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := authorizedClient()
		if err != nil {
			return err
		}

		topics, err := client.ForumTopics(cmd.Context(), mal.ForumTopicsOptions{
			Query:   strings.Join(args, " "),
			BoardID: lo.Must(cmd.Flags().GetInt("board")),
			Limit:   resultLimit(cmd),
		})
		if err != nil {
			return err
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			return printJSON(topics)
		}

		for _, topic := range topics {
			locked := ""
			if topic.IsLocked {
				locked = style.Fg(color.Red)(" [locked]")
			}
			fmt.Printf(
				"%s  %s%s %s\n",
				style.Faint(fmt.Sprintf("%8d", topic.ID)),
				topic.Title,
				locked,
				style.Faint(fmt.Sprintf("(%d posts)", topic.NumberOfPosts)),
			)
		}
		return nil
	},
}

func init() {
	forumCmd.AddCommand(forumTopicCmd)
	forumTopicCmd.Flags().IntP("limit", "l", 0, "Maximum number of posts to display")
}

// forumTopicCmd displays the posts of one topic.
var forumTopicCmd = &cobra.Command{
	Use:   "topic [id]",
	Short: "Display the posts of a forum topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid topic id: %s", args[0])
		}

		client, err := authorizedClient()
		if err != nil {
			return err
		}

		detail, err := client.ForumTopicDetail(cmd.Context(), id, resultLimit(cmd))
		if err != nil {
			return err
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			return printJSON(detail)
		}

		fmt.Println(style.New().Bold(true).Foreground(color.HiPurple).Render(detail.Title))
		fmt.Println()

		for i, post := range detail.Posts {
			author := style.Fg(color.Cyan)(post.CreatedBy.Name)
			fmt.Printf("%s %s\n", author, style.Faint(post.CreatedAt))
			fmt.Println(post.Body)

			if i < len(detail.Posts)-1 {
				fmt.Println()
			}
		}
		return nil
	},
}
