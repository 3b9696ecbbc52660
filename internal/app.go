// Package internal provides the App struct that wires all components of the
// agent board together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/agent-board/internal/cli"
	"github.com/valter-silva-au/agent-board/internal/core"
	"github.com/valter-silva-au/agent-board/internal/observability"
	"github.com/valter-silva-au/agent-board/internal/storage"
)

// workspaceEnvVar overrides the workspace directory when set.
const workspaceEnvVar = "BOARD_WORKSPACE"

// App holds all service dependencies for the agent board.
type App struct {
	Workspace string

	// Configuration
	Config *core.Config

	// Storage layer
	Store  *storage.TaskStore
	Ledger *storage.Ledger
	Subs   *storage.SubscriptionStore

	// Observability
	Activity observability.ActivityLog

	// Core services
	Board   core.Board
	Standup *core.StandupGenerator
}

// NewApp creates and wires all components against the given workspace
// directory. Every component receives the workspace explicitly; there are
// no process-wide singletons.
func NewApp(workspace string) (*App, error) {
	app := &App{Workspace: workspace}

	if err := os.MkdirAll(workspace, 0o750); err != nil {
		return nil, fmt.Errorf("creating workspace %s: %w", workspace, err)
	}

	cfg, err := core.LoadConfig(workspace)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	app.Store = storage.NewTaskStore(workspace)
	app.Ledger = storage.NewLedger(workspace)
	app.Subs = storage.NewSubscriptionStore(workspace)

	app.Activity, err = observability.NewFileActivityLog(filepath.Join(workspace, "activity.log"))
	if err != nil {
		return nil, err
	}

	app.Board = core.NewBoard(app.Store, app.Ledger, app.Activity, cfg)
	app.Standup = core.NewStandupGenerator(workspace, app.Board, app.Activity, cfg.StandupSkipPatterns)

	// Wire CLI package-level variables.
	cli.Workspace = workspace
	cli.Config = app.Config
	cli.Board = app.Board
	cli.Ledger = app.Ledger
	cli.Subs = app.Subs
	cli.Activity = app.Activity
	cli.Standup = app.Standup

	return app, nil
}

// Close releases resources held by the App, currently the activity log
// file handle.
func (a *App) Close() error {
	if a.Activity != nil {
		return a.Activity.Close()
	}
	return nil
}

// ResolveWorkspace determines the workspace directory: the BOARD_WORKSPACE
// environment variable when set, otherwise ./workspace.
func ResolveWorkspace() string {
	if ws := os.Getenv(workspaceEnvVar); ws != "" {
		return ws
	}
	return "workspace"
}
