package core

import (
	"fmt"

	"github.com/valter-silva-au/agent-board/pkg/models"
)

// DefaultRoleStatus maps each agent role to the status directory it pulls
// unassigned work from. Overridable via the roles section of .boardconfig.
func DefaultRoleStatus() map[string]models.Status {
	return map[string]models.Status{
		"pm":        models.StatusInbox,
		"architect": models.StatusInPlanning,
		"engineer":  models.StatusReadyToBuild,
		"qa":        models.StatusReadyForTesting,
		"security":  models.StatusInProgress, // reviews ongoing work
		"devops":    models.StatusReadyToDeploy,
	}
}

// FindWork returns the next task for a role. The fallback chain is fixed:
// first task assigned to the role, then first task mentioning @role, then
// the first unassigned task in the role's home status. The first satisfying
// rule wins; there is no scoring. Returns nil when no rule matches.
func (b *board) FindWork(role string) (*models.Task, error) {
	tasks, err := b.store.List()
	if err != nil {
		return nil, fmt.Errorf("finding work for %s: %w", role, err)
	}
	for _, task := range tasks {
		if task.IsAssigned(role) {
			return task, nil
		}
	}

	mentions, err := b.FindMentions(role)
	if err != nil {
		return nil, fmt.Errorf("finding work for %s: %w", role, err)
	}
	if len(mentions) > 0 {
		return mentions[0], nil
	}

	status, ok := b.cfg.RoleStatus[role]
	if !ok {
		return nil, nil
	}
	candidates, err := b.store.List(status)
	if err != nil {
		return nil, fmt.Errorf("finding work for %s: %w", role, err)
	}
	for _, task := range candidates {
		if len(task.Assigned) == 0 {
			return task, nil
		}
	}
	return nil, nil
}

// FindMentions returns every task whose raw record text contains @<agent>.
// The scan is a literal substring match, so @alice also matches @alice2.
func (b *board) FindMentions(agent string) ([]*models.Task, error) {
	mentions, err := b.store.ScanMentions(agent)
	if err != nil {
		return nil, fmt.Errorf("finding mentions of %s: %w", agent, err)
	}
	return mentions, nil
}
