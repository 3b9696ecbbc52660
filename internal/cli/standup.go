package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var standupDateFlag string

var standupCmd = &cobra.Command{
	Use:   "standup",
	Short: "Generate the daily standup report",
	Long: `Generate a markdown standup report from the board's current state and
the day's activity log, and write it to standup.md in the workspace.
Defaults to today; use --date to report on another day.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Standup == nil {
			return fmt.Errorf("standup generator not initialized")
		}

		report, err := Standup.Generate(standupDateFlag)
		if err != nil {
			return fmt.Errorf("generating standup: %w", err)
		}

		fmt.Print(report)
		return nil
	},
}

func init() {
	standupCmd.Flags().StringVar(&standupDateFlag, "date", "", "Report date (YYYY-MM-DD, defaults to today)")
	rootCmd.AddCommand(standupCmd)
}
