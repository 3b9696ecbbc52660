// Package core contains the business logic for the agent board: task
// lifecycle operations, notification fan-out, work discovery, and the
// standup generator.
package core

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/agent-board/pkg/models"
)

// SystemActor is the synthetic agent name recorded for board-initiated
// activity such as task creation and moves.
const SystemActor = "system"

// TaskStore is the persistence surface the board needs. Implemented by
// storage.TaskStore.
type TaskStore interface {
	EnsureLayout() error
	NextID() (string, error)
	Write(t *models.Task) error
	Get(id string) (*models.Task, error)
	Mutate(id string, fn func(*models.Task) error) (*models.Task, error)
	Move(id string, to models.Status) (*models.Task, models.Status, error)
	List(statuses ...models.Status) ([]*models.Task, error)
	ScanMentions(agent string) ([]*models.Task, error)
	RecordLink(t *models.Task) string
}

// NotificationSink receives the notifications produced by comment fan-out.
// Implemented by storage.Ledger.
type NotificationSink interface {
	Ensure() error
	Add(n models.Notification) error
}

// ActivityLogger records one line per board event. Implemented by
// observability.ActivityLog.
type ActivityLogger interface {
	Log(agent, message string) error
}

// Board defines the task coordination operations exposed to agents.
type Board interface {
	InitWorkspace() error
	CreateTask(title, description string, priority models.Priority, tags []string) (*models.Task, error)
	FindTask(id string) (*models.Task, error)
	UpdateTask(id string, updates map[string]any) (*models.Task, error)
	MoveTask(id string, to models.Status) (*models.Task, error)
	AddComment(id, agent, message string) (*models.Task, error)
	AssignTask(id, agent string) (*models.Task, error)
	FindWork(role string) (*models.Task, error)
	FindMentions(agent string) ([]*models.Task, error)
	ListTasks(statuses ...models.Status) ([]*models.Task, error)
}

// board implements Board by coordinating the task store, the notification
// ledger, and the activity feed. All collaborators are injected; there is
// no process-wide state.
type board struct {
	store    TaskStore
	ledger   NotificationSink
	activity ActivityLogger
	cfg      *Config
}

// NewBoard creates a Board with all dependencies injected. cfg may be nil,
// in which case defaults apply.
func NewBoard(store TaskStore, ledger NotificationSink, activity ActivityLogger, cfg *Config) Board {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &board{
		store:    store,
		ledger:   ledger,
		activity: activity,
		cfg:      cfg,
	}
}

// InitWorkspace creates the status directories and seeds an empty
// notification ledger. Safe to call on an existing workspace.
func (b *board) InitWorkspace() error {
	if err := b.store.EnsureLayout(); err != nil {
		return fmt.Errorf("initializing workspace: %w", err)
	}
	if err := b.ledger.Ensure(); err != nil {
		return fmt.Errorf("initializing workspace: %w", err)
	}
	return nil
}

// CreateTask allocates the next id and writes a new task into inbox.
func (b *board) CreateTask(title, description string, priority models.Priority, tags []string) (*models.Task, error) {
	id, err := b.store.NextID()
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	if priority == "" {
		priority = b.cfg.DefaultPriority
	}

	now := time.Now().UTC().Truncate(time.Second)
	task := &models.Task{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      models.StatusInbox,
		Priority:    priority,
		Tags:        tags,
		Created:     now,
		Updated:     now,
	}

	if err := b.store.Write(task); err != nil {
		return nil, fmt.Errorf("creating task %s: %w", id, err)
	}

	if err := b.activity.Log(SystemActor, fmt.Sprintf("Created task %s: %s", id, title)); err != nil {
		return nil, fmt.Errorf("creating task %s: logging activity: %w", id, err)
	}

	return task, nil
}

// FindTask locates a task by id, scanning status directories in pipeline order.
func (b *board) FindTask(id string) (*models.Task, error) {
	return b.store.Get(id)
}

// UpdateTask applies the named field updates and rewrites the record in
// place without a status change. Unknown field names are ignored, matching
// the board's historically permissive update contract; the behavior is
// pinned by tests.
func (b *board) UpdateTask(id string, updates map[string]any) (*models.Task, error) {
	task, err := b.store.Mutate(id, func(t *models.Task) error {
		return applyUpdates(t, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}
	return task, nil
}

func applyUpdates(t *models.Task, updates map[string]any) error {
	for key, value := range updates {
		switch key {
		case "title":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			t.Title = s
		case "description":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			t.Description = s
		case "priority":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			t.Priority = models.Priority(s)
		case "prd":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			t.PRD = s
		case "plan":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			t.Plan = s
		case "pr":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			t.PR = s
		case "assigned":
			v, err := listValue(key, value)
			if err != nil {
				return err
			}
			t.Assigned = v
		case "subscribers":
			v, err := listValue(key, value)
			if err != nil {
				return err
			}
			t.Subscribers = v
		case "tags":
			v, err := listValue(key, value)
			if err != nil {
				return err
			}
			t.Tags = v
		default:
			// Unknown field names are skipped, not rejected.
		}
	}

	// Agents assigned through an update are subscribed like AssignTask
	// subscribes them. Runs after the loop so a subscribers replacement in
	// the same call cannot undo it.
	if value, ok := updates["assigned"]; ok {
		agents, err := listValue("assigned", value)
		if err != nil {
			return err
		}
		for _, agent := range agents {
			t.Subscribe(agent)
		}
	}
	return nil
}

func stringValue(key string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case models.Priority:
		return string(v), nil
	default:
		return "", fmt.Errorf("field %s: unsupported value type %T", key, value)
	}
}

func listValue(key string, value any) ([]string, error) {
	v, ok := value.([]string)
	if !ok {
		return nil, fmt.Errorf("field %s: unsupported value type %T", key, value)
	}
	return v, nil
}

// MoveTask relocates a task to a new status directory and records the move
// in the activity feed.
func (b *board) MoveTask(id string, to models.Status) (*models.Task, error) {
	task, from, err := b.store.Move(id, to)
	if err != nil {
		return nil, fmt.Errorf("moving task %s: %w", id, err)
	}

	if err := b.activity.Log(SystemActor, fmt.Sprintf("Moved %s from %s to %s", id, from, to)); err != nil {
		return nil, fmt.Errorf("moving task %s: logging activity: %w", id, err)
	}

	return task, nil
}

// AddComment appends a comment to the task's thread, auto-subscribes the
// commenter, records the activity, and fans a pending notification out to
// every other subscriber.
func (b *board) AddComment(id, agent, message string) (*models.Task, error) {
	now := time.Now().UTC().Truncate(time.Minute)

	task, err := b.store.Mutate(id, func(t *models.Task) error {
		t.Thread = append(t.Thread, models.Comment{
			Timestamp: now,
			Agent:     agent,
			Message:   message,
		})
		t.Subscribe(agent)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("adding comment to %s: %w", id, err)
	}

	if err := b.activity.Log(agent, "Commented on "+id); err != nil {
		return nil, fmt.Errorf("adding comment to %s: logging activity: %w", id, err)
	}

	if err := b.notifySubscribers(task, agent, message, now); err != nil {
		return nil, fmt.Errorf("adding comment to %s: %w", id, err)
	}

	return task, nil
}

// notifySubscribers pushes one pending notification per subscriber, skipping
// the commenter. Messages are truncated to the configured limit.
func (b *board) notifySubscribers(task *models.Task, commenter, message string, at time.Time) error {
	for _, subscriber := range task.Subscribers {
		if subscriber == commenter {
			continue
		}
		err := b.ledger.Add(models.Notification{
			To:      subscriber,
			From:    commenter,
			Message: truncateMessage(message, b.cfg.NotifyTruncate),
			Time:    at,
			TaskID:  task.ID,
			Link:    b.store.RecordLink(task),
		})
		if err != nil {
			return fmt.Errorf("notifying %s: %w", subscriber, err)
		}
	}
	return nil
}

// truncateMessage caps a comment message at limit runes, appending an
// ellipsis when content was cut.
func truncateMessage(message string, limit int) string {
	if limit <= 0 {
		return message
	}
	runes := []rune(message)
	if len(runes) <= limit {
		return message
	}
	return string(runes[:limit]) + "..."
}

// AssignTask adds agent to the task's assigned set and auto-subscribes it.
// Assigning an already-assigned agent is a no-op that leaves the record
// untouched.
func (b *board) AssignTask(id, agent string) (*models.Task, error) {
	task, err := b.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("assigning task %s: %w", id, err)
	}
	if task.IsAssigned(agent) {
		return task, nil
	}

	task, err = b.store.Mutate(id, func(t *models.Task) error {
		if !t.IsAssigned(agent) {
			t.Assigned = append(t.Assigned, agent)
		}
		t.Subscribe(agent)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assigning task %s: %w", id, err)
	}
	return task, nil
}

// ListTasks returns tasks for the requested statuses, or every status in
// pipeline order when none are given.
func (b *board) ListTasks(statuses ...models.Status) ([]*models.Task, error) {
	return b.store.List(statuses...)
}
