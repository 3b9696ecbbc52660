package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	activityAgentFlag  string
	activityTodayFlag  bool
	activitySearchFlag string
	activityCountFlag  int
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the shared activity log",
	Long: `Show recent lines from the shared activity log. Filter by agent,
restrict to today, or search message text.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Activity == nil {
			return fmt.Errorf("activity log not initialized")
		}

		var lines []string
		var err error
		switch {
		case activitySearchFlag != "":
			lines, err = Activity.Search(activitySearchFlag)
		case activityAgentFlag != "":
			lines, err = Activity.ByAgent(activityAgentFlag, activityCountFlag)
		case activityTodayFlag:
			lines, err = Activity.OnDate(time.Now().UTC().Format("2006-01-02"))
		default:
			lines, err = Activity.Recent(activityCountFlag)
		}
		if err != nil {
			return fmt.Errorf("reading activity log: %w", err)
		}

		if len(lines) == 0 {
			fmt.Println("No activity found.")
			return nil
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	activityCmd.Flags().StringVar(&activityAgentFlag, "agent", "", "Only show lines from this agent")
	activityCmd.Flags().BoolVar(&activityTodayFlag, "today", false, "Only show today's lines")
	activityCmd.Flags().StringVar(&activitySearchFlag, "search", "", "Only show lines matching this text")
	activityCmd.Flags().IntVarP(&activityCountFlag, "count", "n", 20, "Number of lines to show")
	rootCmd.AddCommand(activityCmd)
}
