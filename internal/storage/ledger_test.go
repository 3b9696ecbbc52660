package storage

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/agent-board/pkg/models"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger := NewLedger(t.TempDir())
	if err := ledger.Ensure(); err != nil {
		t.Fatalf("ensuring ledger: %v", err)
	}
	return ledger
}

func sampleNotification(to string) models.Notification {
	return models.Notification{
		To:      to,
		From:    "alice",
		Message: "Auth flow is ready for review.",
		Time:    time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		TaskID:  "task-001",
		Link:    "tasks/in-progress/task-001.md",
	}
}

func TestEnsureSeedsEmptyDocument(t *testing.T) {
	ledger := newTestLedger(t)

	data, err := os.ReadFile(ledger.path())
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}
	text := string(data)
	for _, want := range []string{"# Notifications", "## Pending", "## Delivered"} {
		if !strings.Contains(text, want) {
			t.Errorf("seeded ledger missing %q:\n%s", want, text)
		}
	}
}

func TestEnsureDoesNotOverwrite(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Add(sampleNotification("bob")); err != nil {
		t.Fatalf("adding: %v", err)
	}

	if err := ledger.Ensure(); err != nil {
		t.Fatalf("re-ensuring: %v", err)
	}

	pending, err := ledger.PendingFor("bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("ensure clobbered existing ledger, pending=%d", len(pending))
	}
}

func TestAddInsertsNewestFirst(t *testing.T) {
	ledger := newTestLedger(t)

	first := sampleNotification("bob")
	first.Message = "first"
	second := sampleNotification("bob")
	second.Message = "second"

	if err := ledger.Add(first); err != nil {
		t.Fatalf("adding first: %v", err)
	}
	if err := ledger.Add(second); err != nil {
		t.Fatalf("adding second: %v", err)
	}

	pending, err := ledger.PendingFor("bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].Message != "second" || pending[1].Message != "first" {
		t.Fatalf("expected newest first, got %q then %q", pending[0].Message, pending[1].Message)
	}
}

func TestPendingForFiltersByRecipient(t *testing.T) {
	ledger := newTestLedger(t)

	if err := ledger.Add(sampleNotification("bob")); err != nil {
		t.Fatalf("adding: %v", err)
	}
	if err := ledger.Add(sampleNotification("carol")); err != nil {
		t.Fatalf("adding: %v", err)
	}

	pending, err := ledger.PendingFor("bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 || pending[0].To != "bob" {
		t.Fatalf("expected only bob's notification, got %+v", pending)
	}
}

func TestNotificationFieldsSurviveRoundTrip(t *testing.T) {
	ledger := newTestLedger(t)

	n := sampleNotification("bob")
	if err := ledger.Add(n); err != nil {
		t.Fatalf("adding: %v", err)
	}

	pending, err := ledger.PendingFor("bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(pending))
	}

	got := pending[0]
	if got.From != n.From || got.Message != n.Message || got.TaskID != n.TaskID || got.Link != n.Link {
		t.Fatalf("fields mangled: %+v", got)
	}
	if !got.Time.Equal(n.Time) {
		t.Fatalf("time mangled: want %v, got %v", n.Time, got.Time)
	}
	if !got.DeliveredAt.IsZero() {
		t.Fatalf("fresh notification should not be delivered: %v", got.DeliveredAt)
	}
}

func TestMarkDeliveredMovesOnlyAgentEntries(t *testing.T) {
	ledger := newTestLedger(t)

	if err := ledger.Add(sampleNotification("bob")); err != nil {
		t.Fatalf("adding: %v", err)
	}
	if err := ledger.Add(sampleNotification("carol")); err != nil {
		t.Fatalf("adding: %v", err)
	}

	if err := ledger.MarkDelivered("bob"); err != nil {
		t.Fatalf("marking delivered: %v", err)
	}

	bobPending, err := ledger.PendingFor("bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bobPending) != 0 {
		t.Fatalf("expected bob's pending empty, got %+v", bobPending)
	}

	carolPending, err := ledger.PendingFor("carol")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(carolPending) != 1 {
		t.Fatalf("carol's notification should stay pending, got %+v", carolPending)
	}

	_, delivered, err := ledger.load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(delivered) != 1 || delivered[0].To != "bob" {
		t.Fatalf("expected bob's entry delivered, got %+v", delivered)
	}
	if delivered[0].DeliveredAt.IsZero() {
		t.Fatalf("delivered entry missing delivery timestamp")
	}
}

func TestMarkDeliveredIsIdempotent(t *testing.T) {
	ledger := newTestLedger(t)

	if err := ledger.Add(sampleNotification("bob")); err != nil {
		t.Fatalf("adding: %v", err)
	}
	if err := ledger.MarkDelivered("bob"); err != nil {
		t.Fatalf("first mark: %v", err)
	}

	before, err := os.ReadFile(ledger.path())
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}

	if err := ledger.MarkDelivered("bob"); err != nil {
		t.Fatalf("second mark: %v", err)
	}

	after, err := os.ReadFile(ledger.path())
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("second MarkDelivered changed the document:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}

func TestAddFlattensMultilineMessage(t *testing.T) {
	ledger := newTestLedger(t)

	n := sampleNotification("bob")
	n.Message = "first line\nsecond line"
	if err := ledger.Add(n); err != nil {
		t.Fatalf("adding: %v", err)
	}
	// A second Add re-parses and re-renders the first entry.
	if err := ledger.Add(sampleNotification("carol")); err != nil {
		t.Fatalf("adding second: %v", err)
	}

	pending, err := ledger.PendingFor("bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(pending))
	}
	if want := "first line second line"; pending[0].Message != want {
		t.Fatalf("expected %q, got %q", want, pending[0].Message)
	}
}

func TestAddWithoutEnsure(t *testing.T) {
	ledger := NewLedger(t.TempDir())

	// A missing document reads as empty; Add seeds it.
	if err := ledger.Add(sampleNotification("bob")); err != nil {
		t.Fatalf("adding: %v", err)
	}

	pending, err := ledger.PendingFor("bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(pending))
	}
}
