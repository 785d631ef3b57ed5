// Package cmd implements the command-line interface for malgo.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/malgo-cli/malgo/color"
	"github.com/malgo-cli/malgo/key"
	"github.com/malgo-cli/malgo/mal"
	"github.com/malgo-cli/malgo/style"
	"github.com/malgo-cli/malgo/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(animeCmd)

	animeCmd.PersistentFlags().IntP("limit", "l", 0, "Maximum number of results to display")
	animeCmd.PersistentFlags().BoolP("json", "j", false, "Format the output as JSON")
}

// animeCmd groups the anime discovery commands.
var animeCmd = &cobra.Command{
	Use:   "anime",
	Short: "Search and browse anime on MyAnimeList",
}

// resultLimit resolves the effective result limit: the flag wins, then the
// configured default.
func resultLimit(cmd *cobra.Command) int {
	if limit := lo.Must(cmd.Flags().GetInt("limit")); limit > 0 {
		return limit
	}
	return viper.GetInt(key.SearchLimit)
}

// printJSON writes the value as a single JSON document to stdout.
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printAnimes renders a compact listing, truncated to the terminal width.
func printAnimes(animes []mal.Anime) {
	width, _, err := util.TerminalSize()
	if err != nil {
		width = 80
	}
	truncate := style.Truncate(width)

	for _, anime := range animes {
		id := style.Faint(fmt.Sprintf("%8d", anime.ID))
		fmt.Println(truncate(fmt.Sprintf("%s  %s", id, anime.Title)))
	}
}

func init() {
	animeCmd.AddCommand(animeSearchCmd)
}

// animeSearchCmd searches MAL for titles matching the query.
var animeSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search anime by title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := authorizedClient()
		if err != nil {
			return err
		}

		animes, err := client.SearchAnime(cmd.Context(), strings.Join(args, " "), resultLimit(cmd))
		if err != nil {
			return err
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			return printJSON(animes)
		}

		printAnimes(animes)
		fmt.Println(style.Faint(util.Quantify(len(animes), "result", "results")))
		return nil
	},
}

func init() {
	animeCmd.AddCommand(animeDetailsCmd)
	animeDetailsCmd.Flags().StringSliceP("fields", "f", []string{}, "Restrict the detail attributes to fetch")
}

// animeDetailsCmd fetches and renders the full detail record of one show.
var animeDetailsCmd = &cobra.Command{
	Use:   "details [id]",
	Short: "Display the detail record of an anime",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid anime id: %s", args[0])
		}

		client, err := authorizedClient()
		if err != nil {
			return err
		}

		fields := lo.Map(
			lo.Must(cmd.Flags().GetStringSlice("fields")),
			func(f string, _ int) mal.Field { return mal.Field(f) },
		)

		details, err := client.AnimeDetails(cmd.Context(), id, fields...)
		if err != nil {
			return err
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			return printJSON(details)
		}

		printDetails(details)
		return nil
	},
}

// printDetails renders the populated attributes of a detail record.
func printDetails(d *mal.AnimeDetails) {
	header := style.New().Bold(true).Foreground(color.HiPurple).Render
	label := style.Fg(color.Blue)

	fmt.Println(header(d.Title), style.Faint("#"+strconv.Itoa(d.ID)))

	row := func(name string, value any) {
		fmt.Printf("%s %v\n", label(name+":"), value)
	}

	if d.AlternativeTitles != nil && d.AlternativeTitles.En != "" {
		row("English", d.AlternativeTitles.En)
	}
	if d.MediaType != nil {
		row("Type", strings.ToUpper(*d.MediaType))
	}
	if d.Status != nil {
		row("Status", strings.ReplaceAll(*d.Status, "_", " "))
	}
	if d.NumEpisodes != nil {
		row("Episodes", *d.NumEpisodes)
	}
	if d.Mean != nil {
		row("Score", *d.Mean)
	}
	if d.Rank != nil {
		row("Rank", "#"+strconv.Itoa(*d.Rank))
	}
	if d.StartSeason != nil {
		row("Season", fmt.Sprintf("%s %d", util.Capitalize(string(d.StartSeason.Season)), d.StartSeason.Year))
	}
	if len(d.Genres) > 0 {
		names := lo.Map(d.Genres, func(g mal.Genre, _ int) string { return g.Name })
		row("Genres", strings.Join(names, ", "))
	}
	if len(d.Studios) > 0 {
		names := lo.Map(d.Studios, func(s mal.Studio, _ int) string { return s.Name })
		row("Studios", strings.Join(names, ", "))
	}
	if d.Synopsis != nil && *d.Synopsis != "" {
		width, _, err := util.TerminalSize()
		if err != nil {
			width = 80
		}
		fmt.Println()
		fmt.Println(style.New().Width(width).Render(*d.Synopsis))
	}
}

func init() {
	animeCmd.AddCommand(animeRankingCmd)
	animeRankingCmd.Flags().StringP("type", "t", "all", "Ranking chart to display")
	_ = animeRankingCmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"all", "airing", "upcoming", "tv", "movie", "bypopularity", "favorite"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// animeRankingCmd displays a ranking chart.
var animeRankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "Display a MyAnimeList ranking chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := authorizedClient()
		if err != nil {
			return err
		}

		ranking := mal.RankingType(lo.Must(cmd.Flags().GetString("type")))
		ranked, err := client.AnimeRanking(cmd.Context(), ranking, resultLimit(cmd))
		if err != nil {
			return err
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			return printJSON(ranked)
		}

		for _, entry := range ranked {
			rank := style.Fg(color.Yellow)(fmt.Sprintf("%4d.", entry.Rank))
			fmt.Printf("%s %s %s\n", rank, entry.Title, style.Faint("#"+strconv.Itoa(entry.ID)))
		}
		return nil
	},
}

func init() {
	animeCmd.AddCommand(animeSeasonCmd)
}

// animeSeasonCmd displays the shows of a broadcast season. Without arguments
// the current season is used.
var animeSeasonCmd = &cobra.Command{
	Use:   "season [year] [season]",
	Short: "Display the anime of a broadcast season",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, season := currentSeason()

		if len(args) >= 1 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year: %s", args[0])
			}
			year = parsed
		}
		if len(args) >= 2 {
			season = mal.Season(strings.ToLower(args[1]))
		}

		client, err := authorizedClient()
		if err != nil {
			return err
		}

		animes, err := client.SeasonalAnime(cmd.Context(), year, season, resultLimit(cmd))
		if err != nil {
			return err
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			return printJSON(animes)
		}

		fmt.Println(style.Bold(fmt.Sprintf("%s %d", util.Capitalize(string(season)), year)))
		printAnimes(animes)
		return nil
	},
}

// currentSeason derives the broadcast season of the current date.
func currentSeason() (int, mal.Season) {
	now := time.Now()
	switch now.Month() {
	case time.January, time.February, time.March:
		return now.Year(), mal.SeasonWinter
	case time.April, time.May, time.June:
		return now.Year(), mal.SeasonSpring
	case time.July, time.August, time.September:
		return now.Year(), mal.SeasonSummer
	default:
		return now.Year(), mal.SeasonFall
	}
}

func init() {
	animeCmd.AddCommand(animeSuggestionsCmd)
}

// animeSuggestionsCmd displays personalized suggestions.
var animeSuggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "Display personalized anime suggestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := authorizedClient()
		if err != nil {
			return err
		}

		animes, err := client.SuggestedAnime(cmd.Context(), resultLimit(cmd))
		if err != nil {
			return err
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			return printJSON(animes)
		}

		if len(animes) == 0 {
			fmt.Println(style.Faint("no suggestions yet, rate some anime first"))
			return nil
		}

		printAnimes(animes)
		return nil
	},
}

func init() {
	animeCmd.AddCommand(animeFindCmd)
}

// animeFindCmd resolves a free-form title to its closest MAL record using
// the local binding cache.
var animeFindCmd = &cobra.Command{
	Use:   "find [title]",
	Short: "Resolve a free-form title to the closest matching anime",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := authorizedClient()
		if err != nil {
			return err
		}

		anime, err := client.FindClosest(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			return printJSON(anime)
		}

		fmt.Printf("%s %s\n", style.Bold(anime.Title), style.Faint("#"+strconv.Itoa(anime.ID)))
		return nil
	},
}

func init() {
	animeCmd.AddCommand(animeSchemaCmd)
	animeSchemaCmd.Flags().Bool("list", false, "Generate the JSON Schema for list entries instead of detail records")
}

// animeSchemaCmd generates JSON schemas for the structured output shapes.
var animeSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schemas for structured command outputs",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true

		var schema *jsonschema.Schema
		switch {
		case lo.Must(cmd.Flags().GetBool("list")):
			schema = reflector.Reflect([]mal.UserListEntry{})
		default:
			schema = reflector.Reflect(&mal.AnimeDetails{})
		}

		handleErr(json.NewEncoder(os.Stdout).Encode(schema))
	},
}
