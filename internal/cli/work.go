package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var workCmd = &cobra.Command{
	Use:   "work <role>",
	Short: "Find the next task for a role",
	Long: `Find the next task a role should pick up. Assigned tasks win, then
tasks mentioning @<role> in their content, then unassigned tasks in the
role's home status (pm: inbox, architect: in-planning, engineer:
ready-to-build, qa: ready-for-testing, security: in-progress, devops:
ready-to-deploy).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		task, err := Board.FindWork(args[0])
		if err != nil {
			return fmt.Errorf("finding work for %s: %w", args[0], err)
		}
		if task == nil {
			fmt.Printf("No work for %s right now.\n", args[0])
			return nil
		}

		printTask(task)
		return nil
	},
}

var mentionsCmd = &cobra.Command{
	Use:   "mentions <agent>",
	Short: "List tasks that mention an agent",
	Long: `List every task whose record contains @<agent> anywhere: description,
thread comments, or any other content.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		tasks, err := Board.FindMentions(args[0])
		if err != nil {
			return fmt.Errorf("finding mentions of %s: %w", args[0], err)
		}

		if len(tasks) == 0 {
			fmt.Printf("No tasks mention @%s.\n", args[0])
			return nil
		}

		for _, t := range tasks {
			fmt.Printf("%-10s %-17s %s\n", t.ID, t.Status, t.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workCmd)
	rootCmd.AddCommand(mentionsCmd)
}
