package storage

import "fmt"

// NotFoundError indicates a task id is absent from every status directory.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}

// InvalidStatusError indicates a status outside the closed pipeline enum.
type InvalidStatusError struct {
	Status string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status: %s", e.Status)
}

// MalformedRecordError indicates a task record that fails to parse,
// identifying the source file so the caller can point at the bad record.
type MalformedRecordError struct {
	Path   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed task record %s: %s", e.Path, e.Reason)
}
