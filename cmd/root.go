// Package cmd implements the command-line interface for malgo.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/malgo-cli/malgo/color"
	"github.com/malgo-cli/malgo/constant"
	"github.com/malgo-cli/malgo/icon"
	"github.com/malgo-cli/malgo/key"
	"github.com/malgo-cli/malgo/log"
	"github.com/malgo-cli/malgo/style"
	"github.com/malgo-cli/malgo/util"
	"github.com/malgo-cli/malgo/version"
	"github.com/malgo-cli/malgo/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Initialize cleanup of localized temporary files on application startup.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point for the malgo application.
var rootCmd = &cobra.Command{
	Use:   constant.Malgo,
	Short: "A command-line client for the MyAnimeList API",
	Long: style.Fg(color.HiPurple)("malgo") + " " +
		style.New().Italic(true).Foreground(color.HiRed).Render("- a command-line client for the MyAnimeList API"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(
			os.Stderr,
			"%s %s %s\n",
			style.ErrorTitle("Error"),
			icon.Get(icon.Fail),
			strings.Trim(err.Error(), " \n"),
		)
		os.Exit(1)
	}
}
