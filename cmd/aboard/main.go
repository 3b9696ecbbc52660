package main

import (
	"fmt"
	"os"

	app "github.com/valter-silva-au/agent-board/internal"
	"github.com/valter-silva-au/agent-board/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	workspace := app.ResolveWorkspace()

	application, err := app.NewApp(workspace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing aboard: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = application.Close() }()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
