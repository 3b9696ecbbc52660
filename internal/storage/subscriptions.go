package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/agent-board/pkg/models"
)

const agentsDirName = "agents"

// SubscriptionStore manages per-agent subscription files at
// <workspace>/agents/<agent>/subscriptions.json.
type SubscriptionStore struct {
	workspace string
}

// NewSubscriptionStore creates a SubscriptionStore rooted at workspace.
func NewSubscriptionStore(workspace string) *SubscriptionStore {
	return &SubscriptionStore{workspace: workspace}
}

func (s *SubscriptionStore) file(agent string) string {
	return filepath.Join(s.workspace, agentsDirName, agent, "subscriptions.json")
}

// Subscribe records agent's interest in taskID. Re-subscribing is a no-op
// that preserves the original subscribed_at timestamp.
func (s *SubscriptionStore) Subscribe(agent, taskID string) error {
	return withLock(s.workspace, func() error {
		subs, err := s.load(agent)
		if err != nil {
			return err
		}
		if _, exists := subs[taskID]; exists {
			return nil
		}
		subs[taskID] = models.Subscription{
			SubscribedAt: time.Now().UTC().Format(time.RFC3339),
			Reason:       "interaction",
		}
		return s.save(agent, subs)
	})
}

// IsSubscribed reports whether agent has a subscription for taskID.
func (s *SubscriptionStore) IsSubscribed(agent, taskID string) (bool, error) {
	subs, err := s.load(agent)
	if err != nil {
		return false, err
	}
	_, ok := subs[taskID]
	return ok, nil
}

func (s *SubscriptionStore) load(agent string) (map[string]models.Subscription, error) {
	data, err := os.ReadFile(s.file(agent)) //nolint:gosec // G304: reading subscription files from the managed agents directory
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]models.Subscription), nil
		}
		return nil, fmt.Errorf("reading subscriptions for %s: %w", agent, err)
	}

	subs := make(map[string]models.Subscription)
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("parsing subscriptions for %s: %w", agent, err)
	}
	return subs, nil
}

func (s *SubscriptionStore) save(agent string, subs map[string]models.Subscription) error {
	dir := filepath.Dir(s.file(agent))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating agent directory for %s: %w", agent, err)
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling subscriptions for %s: %w", agent, err)
	}
	if err := os.WriteFile(s.file(agent), data, 0o600); err != nil {
		return fmt.Errorf("writing subscriptions for %s: %w", agent, err)
	}
	return nil
}
