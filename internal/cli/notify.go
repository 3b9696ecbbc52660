package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/agent-board/pkg/models"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Check and acknowledge notifications",
	Long: `Commands for the shared notification ledger. Comments on subscribed
tasks produce pending notifications; reading them moves them to the
delivered section with a delivery timestamp.`,
}

var notifyCheckCmd = &cobra.Command{
	Use:   "check <agent>",
	Short: "List pending notifications without acknowledging them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Ledger == nil {
			return fmt.Errorf("notification ledger not initialized")
		}

		pending, err := Ledger.PendingFor(args[0])
		if err != nil {
			return fmt.Errorf("checking notifications for %s: %w", args[0], err)
		}

		printNotifications(args[0], pending)
		return nil
	},
}

var notifyReadCmd = &cobra.Command{
	Use:   "read <agent>",
	Short: "Read pending notifications and mark them delivered",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Ledger == nil {
			return fmt.Errorf("notification ledger not initialized")
		}

		pending, err := Ledger.PendingFor(args[0])
		if err != nil {
			return fmt.Errorf("reading notifications for %s: %w", args[0], err)
		}

		printNotifications(args[0], pending)

		if len(pending) > 0 {
			if err := Ledger.MarkDelivered(args[0]); err != nil {
				return fmt.Errorf("marking notifications delivered for %s: %w", args[0], err)
			}
			fmt.Printf("\nMarked %d notification(s) delivered.\n", len(pending))
		}
		return nil
	},
}

func printNotifications(agent string, pending []models.Notification) {
	if len(pending) == 0 {
		fmt.Printf("No pending notifications for @%s.\n", agent)
		return
	}

	fmt.Printf("Pending for @%s:\n", agent)
	for _, n := range pending {
		fmt.Printf("  %s  from %s", n.Time.Format(models.TimestampMinute), n.From)
		if n.TaskID != "" {
			fmt.Printf(" (%s)", n.TaskID)
		}
		fmt.Printf("\n    %s\n", n.Message)
	}
}

func init() {
	notifyCmd.AddCommand(notifyCheckCmd)
	notifyCmd.AddCommand(notifyReadCmd)
	rootCmd.AddCommand(notifyCmd)
}
