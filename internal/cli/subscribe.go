package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <agent> <task-id>",
	Short: "Subscribe an agent to a task's thread",
	Long: `Record an agent's interest in a task. Subscribing also adds the agent
to the task record's subscriber list so future comments fan out to it.
Subscribing twice is a no-op that keeps the original timestamp.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil || Subs == nil {
			return fmt.Errorf("board not initialized")
		}

		agent, taskID := args[0], args[1]

		task, err := Board.FindTask(taskID)
		if err != nil {
			return fmt.Errorf("subscribing %s to %s: %w", agent, taskID, err)
		}

		if !task.HasSubscriber(agent) {
			if _, err := Board.UpdateTask(taskID, map[string]any{
				"subscribers": append(task.Subscribers, agent),
			}); err != nil {
				return fmt.Errorf("subscribing %s to %s: %w", agent, taskID, err)
			}
		}

		if err := Subs.Subscribe(agent, taskID); err != nil {
			return fmt.Errorf("subscribing %s to %s: %w", agent, taskID, err)
		}

		fmt.Printf("Subscribed %s to %s\n", agent, taskID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(subscribeCmd)
}
