package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "todocalendar",
	Short: "Telegram task planner with a month calendar",
	Long: `todocalendar keeps a personal task list with optional due days and shows
it as a month calendar, in Telegram or on the terminal.

It can run as:
  - A Telegram bot with scheduled reports (default)
  - A terminal calendar viewer
  - A one-shot importer for JSON task dumps`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "todocalendar version %s\n" .Version}}`)

	// Without a subcommand the bot runs.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "bot")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newBotCmd())
	rootCmd.AddCommand(newCalendarCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newVersionCmd())
}
