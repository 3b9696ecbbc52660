package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "aboard",
	Short: "Agent Board - filesystem task board for autonomous agent teams",
	Long: `Agent Board (aboard) is a coordination hub for teams of autonomous
agents working out of a shared directory. Tasks are plain markdown files
that move through status directories as work progresses.

It provides CLI commands for creating and moving tasks, commenting on
discussion threads, checking notifications, finding work by role, and
generating daily standup reports.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aboard %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
