package cli

import (
	"github.com/valter-silva-au/agent-board/internal/core"
	"github.com/valter-silva-au/agent-board/internal/observability"
	"github.com/valter-silva-au/agent-board/internal/storage"
)

// Service instances, set during app initialization in app.go.
var (
	Workspace string
	Config    *core.Config
	Board     core.Board
	Ledger    *storage.Ledger
	Subs      *storage.SubscriptionStore
	Activity  observability.ActivityLog
	Standup   *core.StandupGenerator
)
