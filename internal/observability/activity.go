// Package observability provides the shared activity feed: an append-only
// log of every agent action in a workspace, one line per event.
package observability

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// activityTimeLayout is the timestamp prefix of every activity line.
const activityTimeLayout = time.RFC3339

// ActivityLog appends and reads workspace activity lines of the form
// "<timestamp> | <agent> | <message>".
type ActivityLog interface {
	Log(agent, message string) error
	Recent(n int) ([]string, error)
	OnDate(date string) ([]string, error)
	ByAgent(agent string, n int) ([]string, error)
	Search(query string) ([]string, error)
	Close() error
}

// fileActivityLog implements ActivityLog over a single append-only file.
type fileActivityLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewFileActivityLog opens (or creates) the activity log at path.
func NewFileActivityLog(path string) (ActivityLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: path is the workspace activity log
	if err != nil {
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	return &fileActivityLog{path: path, file: f}, nil
}

// Log appends one activity line. Appends are O_APPEND single writes, so
// concurrent writers interleave whole lines rather than bytes.
func (l *fileActivityLog) Log(agent, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s | %s | %s\n", time.Now().UTC().Format(activityTimeLayout), agent, message)
	if _, err := l.file.WriteString(line); err != nil {
		return fmt.Errorf("writing activity line: %w", err)
	}
	return nil
}

// Recent returns the n most recent activity lines.
func (l *fileActivityLog) Recent(n int) ([]string, error) {
	lines, err := l.readAll()
	if err != nil {
		return nil, err
	}
	return tail(lines, n), nil
}

// OnDate returns every line whose timestamp starts with the given
// YYYY-MM-DD date.
func (l *fileActivityLog) OnDate(date string) ([]string, error) {
	lines, err := l.readAll()
	if err != nil {
		return nil, err
	}
	var result []string
	for _, line := range lines {
		if strings.HasPrefix(line, date) {
			result = append(result, line)
		}
	}
	return result, nil
}

// ByAgent returns the n most recent lines recorded for the given agent.
func (l *fileActivityLog) ByAgent(agent string, n int) ([]string, error) {
	lines, err := l.readAll()
	if err != nil {
		return nil, err
	}
	marker := " | " + agent + " | "
	var result []string
	for _, line := range lines {
		if strings.Contains(line, marker) {
			result = append(result, line)
		}
	}
	return tail(result, n), nil
}

// Search returns every line containing query, case-insensitive.
func (l *fileActivityLog) Search(query string) ([]string, error) {
	lines, err := l.readAll()
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(query)
	var result []string
	for _, line := range lines {
		if strings.Contains(strings.ToLower(line), query) {
			result = append(result, line)
		}
	}
	return result, nil
}

// Close closes the underlying log file.
func (l *fileActivityLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing activity log: %w", err)
	}
	return nil
}

// readAll opens the log fresh for reading and returns every non-empty line.
func (l *fileActivityLog) readAll() ([]string, error) {
	f, err := os.Open(l.path) //nolint:gosec // G304: path is the workspace activity log
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning activity log: %w", err)
	}
	return lines, nil
}

func tail(lines []string, n int) []string {
	if n <= 0 || len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
