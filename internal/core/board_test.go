package core

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/valter-silva-au/agent-board/internal/observability"
	"github.com/valter-silva-au/agent-board/internal/storage"
	"github.com/valter-silva-au/agent-board/pkg/models"
)

type testBoard struct {
	Board
	dir    string
	store  *storage.TaskStore
	ledger *storage.Ledger
}

func newTestBoard(t *testing.T) *testBoard {
	t.Helper()
	dir := t.TempDir()

	store := storage.NewTaskStore(dir)
	ledger := storage.NewLedger(dir)
	activity, err := observability.NewFileActivityLog(filepath.Join(dir, "activity.log"))
	if err != nil {
		t.Fatalf("creating activity log: %v", err)
	}
	t.Cleanup(func() { _ = activity.Close() })

	b := NewBoard(store, ledger, activity, nil)
	if err := b.InitWorkspace(); err != nil {
		t.Fatalf("initializing workspace: %v", err)
	}

	return &testBoard{Board: b, dir: dir, store: store, ledger: ledger}
}

func TestCreateTaskDefaults(t *testing.T) {
	tb := newTestBoard(t)

	task, err := tb.CreateTask("Add OAuth login", "Support PKCE flow.", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if task.ID != "task-001" {
		t.Fatalf("expected task-001, got %s", task.ID)
	}
	if task.Status != models.StatusInbox {
		t.Fatalf("expected inbox, got %s", task.Status)
	}
	if task.Priority != models.P2 {
		t.Fatalf("expected default priority P2, got %s", task.Priority)
	}
	if task.Created.IsZero() || !task.Created.Equal(task.Updated) {
		t.Fatalf("expected created == updated, got %v / %v", task.Created, task.Updated)
	}
}

func TestCreateTaskLifecycle(t *testing.T) {
	tb := newTestBoard(t)

	task, err := tb.CreateTask("Ship payments", "Stripe integration.", models.P0, []string{"payments"})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	if _, err := tb.AssignTask(task.ID, "alice"); err != nil {
		t.Fatalf("assigning: %v", err)
	}

	moved, err := tb.MoveTask(task.ID, models.StatusInProgress)
	if err != nil {
		t.Fatalf("moving: %v", err)
	}
	if moved.Status != models.StatusInProgress {
		t.Fatalf("expected in-progress, got %s", moved.Status)
	}

	commented, err := tb.AddComment(task.ID, "alice", "Started on the webhook handler.")
	if err != nil {
		t.Fatalf("commenting: %v", err)
	}
	if len(commented.Thread) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(commented.Thread))
	}

	got, err := tb.FindTask(task.ID)
	if err != nil {
		t.Fatalf("finding: %v", err)
	}
	if got.Status != models.StatusInProgress || len(got.Assigned) != 1 || len(got.Thread) != 1 {
		t.Fatalf("unexpected task state: %+v", got)
	}
}

func TestAssignAutoSubscribes(t *testing.T) {
	tb := newTestBoard(t)

	task, err := tb.CreateTask("Fix login bug", "", "", nil)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	got, err := tb.AssignTask(task.ID, "alice")
	if err != nil {
		t.Fatalf("assigning: %v", err)
	}
	if !got.HasSubscriber("alice") {
		t.Fatalf("expected alice subscribed, got %v", got.Subscribers)
	}
}

func TestAssignTwiceIsNoOp(t *testing.T) {
	tb := newTestBoard(t)

	task, err := tb.CreateTask("Fix login bug", "", "", nil)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	if _, err := tb.AssignTask(task.ID, "alice"); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	got, err := tb.AssignTask(task.ID, "alice")
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}
	if len(got.Assigned) != 1 {
		t.Fatalf("expected alice assigned once, got %v", got.Assigned)
	}
}

func TestCommentAutoSubscribesCommenter(t *testing.T) {
	tb := newTestBoard(t)

	task, err := tb.CreateTask("Fix login bug", "", "", nil)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	got, err := tb.AddComment(task.ID, "dave", "I can take a look at this.")
	if err != nil {
		t.Fatalf("commenting: %v", err)
	}
	if !got.HasSubscriber("dave") {
		t.Fatalf("expected commenter subscribed, got %v", got.Subscribers)
	}
}

func TestCommentFanOutSkipsCommenter(t *testing.T) {
	tb := newTestBoard(t)

	task, err := tb.CreateTask("Fix login bug", "", "", nil)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if _, err := tb.UpdateTask(task.ID, map[string]any{
		"subscribers": []string{"alice", "bob", "carol"},
	}); err != nil {
		t.Fatalf("setting subscribers: %v", err)
	}

	if _, err := tb.AddComment(task.ID, "alice", "Deployed a fix to staging."); err != nil {
		t.Fatalf("commenting: %v", err)
	}

	pending, err := tb.ledger.Pending()
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}

	var recipients []string
	for _, n := range pending {
		recipients = append(recipients, n.To)
	}
	sort.Strings(recipients)
	if strings.Join(recipients, ",") != "bob,carol" {
		t.Fatalf("expected exactly bob and carol notified, got %v", recipients)
	}
	for _, n := range pending {
		if n.From != "alice" || n.TaskID != task.ID {
			t.Fatalf("unexpected notification: %+v", n)
		}
		if n.Link != "tasks/inbox/"+task.ID+".md" {
			t.Fatalf("unexpected link %q", n.Link)
		}
	}
}

func TestCommentTruncatesNotificationMessage(t *testing.T) {
	tb := newTestBoard(t)

	task, err := tb.CreateTask("Fix login bug", "", "", nil)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if _, err := tb.UpdateTask(task.ID, map[string]any{
		"subscribers": []string{"bob"},
	}); err != nil {
		t.Fatalf("setting subscribers: %v", err)
	}

	long := strings.Repeat("x", 150)
	if _, err := tb.AddComment(task.ID, "alice", long); err != nil {
		t.Fatalf("commenting: %v", err)
	}

	pending, err := tb.ledger.PendingFor("bob")
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(pending))
	}
	if want := strings.Repeat("x", 100) + "..."; pending[0].Message != want {
		t.Fatalf("expected truncated message, got %q", pending[0].Message)
	}

	// The full comment stays intact on the task record.
	got, err := tb.FindTask(task.ID)
	if err != nil {
		t.Fatalf("finding: %v", err)
	}
	if got.Thread[0].Message != long {
		t.Fatalf("thread message was truncated: %q", got.Thread[0].Message)
	}
}

func TestCommentWithNewlinesSurvivesInLedger(t *testing.T) {
	tb := newTestBoard(t)

	task, err := tb.CreateTask("Fix login bug", "", "", nil)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if _, err := tb.UpdateTask(task.ID, map[string]any{
		"subscribers": []string{"bob"},
	}); err != nil {
		t.Fatalf("setting subscribers: %v", err)
	}

	if _, err := tb.AddComment(task.ID, "alice", "first line\nsecond line"); err != nil {
		t.Fatalf("commenting: %v", err)
	}
	// A second fan-out re-renders the whole ledger document.
	if _, err := tb.AddComment(task.ID, "carol", "follow-up"); err != nil {
		t.Fatalf("second comment: %v", err)
	}

	pending, err := tb.ledger.PendingFor("bob")
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(pending))
	}
	var messages []string
	for _, n := range pending {
		messages = append(messages, n.Message)
	}
	joined := strings.Join(messages, "|")
	if !strings.Contains(joined, "first line second line") {
		t.Fatalf("expected flattened message preserved, got %q", joined)
	}

	// The thread keeps the newline intact.
	got, err := tb.FindTask(task.ID)
	if err != nil {
		t.Fatalf("finding: %v", err)
	}
	if got.Thread[0].Message != "first line\nsecond line" {
		t.Fatalf("thread message altered: %q", got.Thread[0].Message)
	}
}

func TestUpdateAssignedAutoSubscribes(t *testing.T) {
	tb := newTestBoard(t)

	task, err := tb.CreateTask("Fix login bug", "", "", nil)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	got, err := tb.UpdateTask(task.ID, map[string]any{
		"assigned": []string{"bob", "carol"},
	})
	if err != nil {
		t.Fatalf("updating: %v", err)
	}
	for _, agent := range []string{"bob", "carol"} {
		if !got.HasSubscriber(agent) {
			t.Fatalf("expected %s subscribed, got %v", agent, got.Subscribers)
		}
	}
}

func TestUpdateTaskIgnoresUnknownFields(t *testing.T) {
	tb := newTestBoard(t)

	task, err := tb.CreateTask("Fix login bug", "Original description.", "", nil)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	got, err := tb.UpdateTask(task.ID, map[string]any{
		"title":        "Fix login redirect bug",
		"nonexistent":  "whatever",
		"another_fake": 42,
	})
	if err != nil {
		t.Fatalf("updating: %v", err)
	}
	if got.Title != "Fix login redirect bug" {
		t.Fatalf("title not updated: %q", got.Title)
	}
	if got.Description != "Original description." {
		t.Fatalf("description changed: %q", got.Description)
	}
}

func TestUpdateTaskRejectsWrongValueType(t *testing.T) {
	tb := newTestBoard(t)

	task, err := tb.CreateTask("Fix login bug", "", "", nil)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	if _, err := tb.UpdateTask(task.ID, map[string]any{"title": 42}); err == nil {
		t.Fatalf("expected error for non-string title")
	}
}

func TestMoveTaskNotFound(t *testing.T) {
	tb := newTestBoard(t)

	_, err := tb.MoveTask("task-404", models.StatusBlocked)
	var notFound *storage.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMoveTaskInvalidStatus(t *testing.T) {
	tb := newTestBoard(t)

	task, err := tb.CreateTask("Fix login bug", "", "", nil)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	_, err = tb.MoveTask(task.ID, models.Status("on-fire"))
	var invalid *storage.InvalidStatusError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStatusError, got %v", err)
	}
}

func TestListTasksAcrossStatuses(t *testing.T) {
	tb := newTestBoard(t)

	first, err := tb.CreateTask("First", "", "", nil)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if _, err := tb.CreateTask("Second", "", "", nil); err != nil {
		t.Fatalf("creating: %v", err)
	}
	if _, err := tb.MoveTask(first.ID, models.StatusInProgress); err != nil {
		t.Fatalf("moving: %v", err)
	}

	tasks, err := tb.ListTasks()
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
}
