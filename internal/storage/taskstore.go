package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/valter-silva-au/agent-board/pkg/models"
)

const (
	tasksDirName    = "tasks"
	counterFileName = ".task_counter"
	taskIDPrefix    = "task-"
	taskIDPadWidth  = 3
)

// TaskStore owns the directory-per-status record layout under
// <workspace>/tasks. A task's on-disk location is a pure function of its id
// and current status; at most one record per id exists across all statuses.
type TaskStore struct {
	workspace string
}

// NewTaskStore creates a TaskStore rooted at the given workspace directory.
func NewTaskStore(workspace string) *TaskStore {
	return &TaskStore{workspace: workspace}
}

func (s *TaskStore) tasksDir() string {
	return filepath.Join(s.workspace, tasksDirName)
}

func (s *TaskStore) recordPath(status models.Status, id string) string {
	return filepath.Join(s.tasksDir(), string(status), id+".md")
}

// RecordLink returns the workspace-relative path of a task's record,
// suitable for embedding in notifications.
func (s *TaskStore) RecordLink(t *models.Task) string {
	return filepath.ToSlash(filepath.Join(tasksDirName, string(t.Status), t.ID+".md"))
}

// EnsureLayout creates a directory for every pipeline status.
func (s *TaskStore) EnsureLayout() error {
	for _, status := range models.Pipeline() {
		if err := os.MkdirAll(filepath.Join(s.tasksDir(), string(status)), 0o750); err != nil {
			return fmt.Errorf("creating status directory %s: %w", status, err)
		}
	}
	return nil
}

// NextID allocates the next task id in the form task-NNN. The id is
// max(counter file, highest numeric suffix on disk) + 1, so ids stay
// monotone even when the highest-numbered record has been removed
// out-of-band, and stay correct when the counter file is missing.
func (s *TaskStore) NextID() (string, error) {
	var id string
	err := withLock(s.workspace, func() error {
		max := 0

		counterPath := filepath.Join(s.workspace, counterFileName)
		data, err := os.ReadFile(counterPath)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("reading task counter: %w", err)
		}
		if err == nil {
			n, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
			if convErr != nil {
				return fmt.Errorf("parsing task counter %q: %w", strings.TrimSpace(string(data)), convErr)
			}
			max = n
		}

		for _, status := range models.Pipeline() {
			entries, err := os.ReadDir(filepath.Join(s.tasksDir(), string(status)))
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return fmt.Errorf("scanning status directory %s: %w", status, err)
			}
			for _, entry := range entries {
				if n, ok := numericSuffix(entry.Name()); ok && n > max {
					max = n
				}
			}
		}

		next := max + 1
		if err := os.WriteFile(counterPath, []byte(strconv.Itoa(next)), 0o600); err != nil {
			return fmt.Errorf("writing task counter: %w", err)
		}
		id = fmt.Sprintf("%s%0*d", taskIDPrefix, taskIDPadWidth, next)
		return nil
	})
	return id, err
}

// numericSuffix extracts the numeric portion of a task-NNN.md filename.
func numericSuffix(filename string) (int, bool) {
	if !strings.HasPrefix(filename, taskIDPrefix) || !strings.HasSuffix(filename, ".md") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(filename, taskIDPrefix), ".md"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Write persists a task record into its status directory.
func (s *TaskStore) Write(t *models.Task) error {
	return withLock(s.workspace, func() error {
		return s.writeRecord(t)
	})
}

// writeRecord encodes the task and renames it into place via a temp file so
// a crash mid-write never leaves a truncated record at the final path.
// Callers must hold the workspace lock.
func (s *TaskStore) writeRecord(t *models.Task) error {
	dir := filepath.Join(s.tasksDir(), string(t.Status))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating status directory %s: %w", t.Status, err)
	}

	tmp, err := os.CreateTemp(dir, "."+t.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp record for %s: %w", t.ID, err)
	}
	if _, err := tmp.Write(EncodeTask(t)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing record for %s: %w", t.ID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("closing record for %s: %w", t.ID, err)
	}
	if err := os.Rename(tmp.Name(), s.recordPath(t.Status, t.ID)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("placing record for %s: %w", t.ID, err)
	}
	return nil
}

// Locate finds the record file for a task id, scanning status directories in
// pipeline order. First match wins.
func (s *TaskStore) Locate(id string) (string, models.Status, error) {
	for _, status := range models.Pipeline() {
		path := s.recordPath(status, id)
		if _, err := os.Stat(path); err == nil {
			return path, status, nil
		}
	}
	return "", "", &NotFoundError{ID: id}
}

// Get reads and decodes the record for a task id.
func (s *TaskStore) Get(id string) (*models.Task, error) {
	path, _, err := s.Locate(id)
	if err != nil {
		return nil, err
	}
	return s.readRecord(path)
}

func (s *TaskStore) readRecord(path string) (*models.Task, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading records from the managed tasks directory
	if err != nil {
		return nil, fmt.Errorf("reading task record: %w", err)
	}
	return DecodeTask(path, data)
}

// Mutate applies fn to the current record under the workspace lock, bumps
// the updated timestamp, and rewrites the record in place. The task's status
// must not change inside fn; use Move for relocations.
func (s *TaskStore) Mutate(id string, fn func(*models.Task) error) (*models.Task, error) {
	var task *models.Task
	err := withLock(s.workspace, func() error {
		path, _, err := s.Locate(id)
		if err != nil {
			return err
		}
		task, err = s.readRecord(path)
		if err != nil {
			return err
		}
		if err := fn(task); err != nil {
			return err
		}
		task.Updated = time.Now().UTC().Truncate(time.Second)
		return s.writeRecord(task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Move relocates a task record to a new status directory: the record is
// written at the new location first, then the old file is removed, all under
// the workspace lock. Returns the moved task and its previous status.
func (s *TaskStore) Move(id string, to models.Status) (*models.Task, models.Status, error) {
	if !models.ValidStatus(to) {
		return nil, "", &InvalidStatusError{Status: string(to)}
	}

	var (
		task *models.Task
		from models.Status
	)
	err := withLock(s.workspace, func() error {
		oldPath, oldStatus, err := s.Locate(id)
		if err != nil {
			return err
		}
		task, err = s.readRecord(oldPath)
		if err != nil {
			return err
		}
		from = oldStatus

		task.Status = to
		task.Updated = time.Now().UTC().Truncate(time.Second)
		if err := s.writeRecord(task); err != nil {
			return err
		}
		if oldPath == s.recordPath(to, id) {
			return nil
		}
		if err := os.Remove(oldPath); err != nil {
			return fmt.Errorf("removing old record for %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return task, from, nil
}

// List returns tasks from the given statuses, or from every status in
// pipeline order when none are given. Within a status, records come back in
// directory-listing (filename) order.
func (s *TaskStore) List(statuses ...models.Status) ([]*models.Task, error) {
	if len(statuses) == 0 {
		statuses = models.Pipeline()
	}

	var tasks []*models.Task
	for _, status := range statuses {
		dir := filepath.Join(s.tasksDir(), string(status))
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("listing status directory %s: %w", status, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			task, err := s.readRecord(filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// ScanMentions returns every task whose raw record text contains the literal
// substring @<agent>, in scan order. The match is textual, so @alice also
// matches inside @alice2; callers needing exact identity must filter.
func (s *TaskStore) ScanMentions(agent string) ([]*models.Task, error) {
	pattern := "@" + agent

	var mentions []*models.Task
	for _, status := range models.Pipeline() {
		dir := filepath.Join(s.tasksDir(), string(status))
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("scanning status directory %s: %w", status, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(path) //nolint:gosec // G304: reading records from the managed tasks directory
			if err != nil {
				return nil, fmt.Errorf("reading task record: %w", err)
			}
			if !strings.Contains(string(data), pattern) {
				continue
			}
			task, err := DecodeTask(path, data)
			if err != nil {
				return nil, err
			}
			mentions = append(mentions, task)
		}
	}
	return mentions, nil
}
