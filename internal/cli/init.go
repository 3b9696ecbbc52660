package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the board workspace",
	Long: `Initialize the workspace directory with the full board layout:
one directory per status under tasks/, an empty notification ledger,
and the activity log.

Safe to run on an existing workspace -- files and directories that
already exist are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		if err := Board.InitWorkspace(); err != nil {
			return fmt.Errorf("initializing workspace: %w", err)
		}

		fmt.Printf("Workspace initialized at %s\n", Workspace)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
