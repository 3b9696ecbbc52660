package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/agent-board/pkg/models"
	"gopkg.in/yaml.v3"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks (create, show, list, move, assign, comment, update)",
	Long: `Unified task management commands.

Create tasks into the inbox, inspect and list records, move them between
status directories, assign agents, append thread comments, and edit
record fields in place.`,
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new task in the inbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		descFlag, _ := cmd.Flags().GetString("description")
		priorityFlag, _ := cmd.Flags().GetString("priority")
		tagsFlag, _ := cmd.Flags().GetStringSlice("tags")

		if priorityFlag != "" && !models.ValidPriority(models.Priority(priorityFlag)) {
			return fmt.Errorf("invalid priority %q: must be one of P0, P1, P2, P3", priorityFlag)
		}

		task, err := Board.CreateTask(args[0], descFlag, models.Priority(priorityFlag), tagsFlag)
		if err != nil {
			return fmt.Errorf("creating task: %w", err)
		}

		fmt.Printf("Created task %s\n", task.ID)
		fmt.Printf("  Title:    %s\n", task.Title)
		fmt.Printf("  Status:   %s\n", task.Status)
		fmt.Printf("  Priority: %s\n", task.Priority)
		return nil
	},
}

// taskShowOutputFlag holds the --output flag value for "task show".
var taskShowOutputFlag string

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task's full record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		task, err := Board.FindTask(args[0])
		if err != nil {
			return fmt.Errorf("showing task %s: %w", args[0], err)
		}

		if taskShowOutputFlag == "yaml" {
			out, err := yaml.Marshal(task)
			if err != nil {
				return fmt.Errorf("encoding task %s: %w", task.ID, err)
			}
			fmt.Print(string(out))
			return nil
		}

		printTask(task)
		return nil
	},
}

var taskListStatusFlag []string

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks across the board",
	Long: `List tasks in pipeline order. Use --status to restrict the listing
to one or more status directories.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		statuses := make([]models.Status, 0, len(taskListStatusFlag))
		for _, s := range taskListStatusFlag {
			status := models.Status(s)
			if !models.ValidStatus(status) {
				return fmt.Errorf("invalid status %q", s)
			}
			statuses = append(statuses, status)
		}

		tasks, err := Board.ListTasks(statuses...)
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		for _, t := range tasks {
			assigned := "unassigned"
			if len(t.Assigned) > 0 {
				assigned = strings.Join(t.Assigned, ", ")
			}
			fmt.Printf("%-10s %-17s %-3s %-28s %s\n", t.ID, t.Status, t.Priority, assigned, t.Title)
		}
		return nil
	},
}

var taskMoveCmd = &cobra.Command{
	Use:   "move <task-id> <status>",
	Short: "Move a task to another status directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		task, err := Board.MoveTask(args[0], models.Status(args[1]))
		if err != nil {
			return fmt.Errorf("moving task %s: %w", args[0], err)
		}

		fmt.Printf("Moved %s to %s\n", task.ID, task.Status)
		return nil
	},
}

var taskAssignCmd = &cobra.Command{
	Use:   "assign <task-id> <agent>",
	Short: "Assign an agent to a task",
	Long: `Assign an agent to a task. The agent is also subscribed to the
task's thread. Assigning an agent twice is a no-op.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		task, err := Board.AssignTask(args[0], args[1])
		if err != nil {
			return fmt.Errorf("assigning task %s: %w", args[0], err)
		}

		fmt.Printf("Assigned %s to %s (assigned: %s)\n", args[1], task.ID, strings.Join(task.Assigned, ", "))
		return nil
	},
}

var taskCommentCmd = &cobra.Command{
	Use:   "comment <task-id> <agent> <message>",
	Short: "Append a comment to a task's thread",
	Long: `Append a comment to the task's discussion thread as the given agent.
The commenter is subscribed to the task, and every other subscriber
receives a pending notification.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		task, err := Board.AddComment(args[0], args[1], args[2])
		if err != nil {
			return fmt.Errorf("commenting on %s: %w", args[0], err)
		}

		fmt.Printf("Comment added to %s (%d in thread)\n", task.ID, len(task.Thread))
		return nil
	},
}

var taskUpdateSetFlag []string

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Update task record fields in place",
	Long: `Update named fields of a task record without moving it. Fields are
given as --set key=value pairs; assigned, subscribers, and tags take
comma-separated values. Unknown field names are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}
		if len(taskUpdateSetFlag) == 0 {
			return fmt.Errorf("no fields given: use --set key=value")
		}

		updates := make(map[string]any, len(taskUpdateSetFlag))
		for _, pair := range taskUpdateSetFlag {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid --set value %q: expected key=value", pair)
			}
			switch key {
			case "assigned", "subscribers", "tags":
				updates[key] = splitList(value)
			default:
				updates[key] = value
			}
		}

		task, err := Board.UpdateTask(args[0], updates)
		if err != nil {
			return fmt.Errorf("updating task %s: %w", args[0], err)
		}

		fmt.Printf("Updated %s\n", task.ID)
		return nil
	},
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printTask(t *models.Task) {
	fmt.Printf("%s: %s\n", t.ID, t.Title)
	fmt.Printf("  Status:      %s\n", t.Status)
	fmt.Printf("  Priority:    %s\n", t.Priority)
	if len(t.Assigned) > 0 {
		fmt.Printf("  Assigned:    %s\n", strings.Join(t.Assigned, ", "))
	}
	if len(t.Subscribers) > 0 {
		fmt.Printf("  Subscribers: %s\n", strings.Join(t.Subscribers, ", "))
	}
	if len(t.Tags) > 0 {
		fmt.Printf("  Tags:        %s\n", strings.Join(t.Tags, ", "))
	}
	fmt.Printf("  Created:     %s\n", t.Created.Format("2006-01-02 15:04 UTC"))
	fmt.Printf("  Updated:     %s\n", t.Updated.Format("2006-01-02 15:04 UTC"))
	if t.PRD != "" {
		fmt.Printf("  PRD:         %s\n", t.PRD)
	}
	if t.Plan != "" {
		fmt.Printf("  Plan:        %s\n", t.Plan)
	}
	if t.PR != "" {
		fmt.Printf("  PR:          %s\n", t.PR)
	}
	if t.Description != "" {
		fmt.Printf("\n%s\n", t.Description)
	}
	if len(t.Thread) > 0 {
		fmt.Println("\nThread:")
		for _, c := range t.Thread {
			fmt.Printf("  %s - %s\n    %s\n", c.Timestamp.Format(models.TimestampMinute), c.Agent, c.Message)
		}
	}
}

func init() {
	taskCreateCmd.Flags().String("description", "", "Task description")
	taskCreateCmd.Flags().String("priority", "", "Priority (P0, P1, P2, P3)")
	taskCreateCmd.Flags().StringSlice("tags", nil, "Comma-separated tags")

	taskShowCmd.Flags().StringVarP(&taskShowOutputFlag, "output", "o", "text", "Output format (text or yaml)")

	taskListCmd.Flags().StringSliceVar(&taskListStatusFlag, "status", nil, "Restrict listing to these statuses")

	taskUpdateCmd.Flags().StringArrayVar(&taskUpdateSetFlag, "set", nil, "Field to set, as key=value (repeatable)")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskAssignCmd)
	taskCmd.AddCommand(taskCommentCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	rootCmd.AddCommand(taskCmd)
}
