package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	boardmcp "github.com/valter-silva-au/agent-board/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the aboard MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the aboard MCP server on stdio",
	Long: `Start the aboard MCP server on stdio transport.

The server exposes the board as MCP tools that AI coding assistants can
call: create_task, get_task, list_tasks, move_task, add_comment,
assign_task, find_work, check_notifications, mark_delivered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		srv := boardmcp.NewServer(Board, Ledger, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
