package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLog(t *testing.T) ActivityLog {
	t.Helper()
	log, err := NewFileActivityLog(filepath.Join(t.TempDir(), "activity.log"))
	if err != nil {
		t.Fatalf("creating activity log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestLogAppendsLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "activity.log")
	log, err := NewFileActivityLog(path)
	if err != nil {
		t.Fatalf("creating activity log: %v", err)
	}
	defer func() { _ = log.Close() }()

	if err := log.Log("alice", "Created task task-001"); err != nil {
		t.Fatalf("logging: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	line := strings.TrimSpace(string(data))

	parts := strings.SplitN(line, " | ", 3)
	if len(parts) != 3 {
		t.Fatalf("expected 3 fields, got %q", line)
	}
	if _, err := time.Parse(time.RFC3339, parts[0]); err != nil {
		t.Fatalf("bad timestamp %q: %v", parts[0], err)
	}
	if parts[1] != "alice" || parts[2] != "Created task task-001" {
		t.Fatalf("unexpected line %q", line)
	}
}

func TestRecentReturnsLastN(t *testing.T) {
	log := newTestLog(t)

	for _, msg := range []string{"one", "two", "three", "four"} {
		if err := log.Log("alice", msg); err != nil {
			t.Fatalf("logging: %v", err)
		}
	}

	lines, err := log.Recent(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], "three") || !strings.HasSuffix(lines[1], "four") {
		t.Fatalf("expected the last two lines in order, got %v", lines)
	}
}

func TestByAgentFilters(t *testing.T) {
	log := newTestLog(t)

	if err := log.Log("alice", "did a thing"); err != nil {
		t.Fatalf("logging: %v", err)
	}
	if err := log.Log("bob", "did another"); err != nil {
		t.Fatalf("logging: %v", err)
	}
	if err := log.Log("alicebot", "impostor line"); err != nil {
		t.Fatalf("logging: %v", err)
	}

	lines, err := log.ByAgent("alice", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "did a thing") {
		t.Fatalf("expected only alice's exact lines, got %v", lines)
	}
}

func TestOnDateFilters(t *testing.T) {
	log := newTestLog(t)

	if err := log.Log("alice", "today's work"); err != nil {
		t.Fatalf("logging: %v", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	lines, err := log.OnDate(today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line for today, got %v", lines)
	}

	lines, err = log.OnDate("1999-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected no lines for 1999, got %v", lines)
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	log := newTestLog(t)

	if err := log.Log("alice", "Deployed the auth service"); err != nil {
		t.Fatalf("logging: %v", err)
	}

	lines, err := log.Search("DEPLOYED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected case-insensitive match, got %v", lines)
	}
}

func TestReadersSeeWritesImmediately(t *testing.T) {
	log := newTestLog(t)

	if err := log.Log("alice", "first"); err != nil {
		t.Fatalf("logging: %v", err)
	}
	lines, err := log.Recent(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected the write to be visible, got %v", lines)
	}
}
