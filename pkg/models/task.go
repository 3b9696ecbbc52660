package models

import "time"

// Status represents a task's position in the delivery pipeline.
// Each status maps to a directory under <workspace>/tasks/.
type Status string

const (
	StatusInbox           Status = "inbox"
	StatusInDiscovery     Status = "in-discovery"
	StatusInPlanning      Status = "in-planning"
	StatusReadyToBuild    Status = "ready-to-build"
	StatusInProgress      Status = "in-progress"
	StatusReadyForTesting Status = "ready-for-testing"
	StatusInQA            Status = "in-qa"
	StatusReadyToDeploy   Status = "ready-to-deploy"
	StatusDeployed        Status = "deployed"
	// StatusBlocked is a side state reachable from any pipeline status.
	// Unlike deployed it is not terminal; blocked tasks re-enter the pipeline.
	StatusBlocked Status = "blocked"
)

// Pipeline returns every status in pipeline order, blocked last.
// Lookups that scan status directories use this order, so blocked
// is always checked after the normal delivery stages.
func Pipeline() []Status {
	return []Status{
		StatusInbox,
		StatusInDiscovery,
		StatusInPlanning,
		StatusReadyToBuild,
		StatusInProgress,
		StatusReadyForTesting,
		StatusInQA,
		StatusReadyToDeploy,
		StatusDeployed,
		StatusBlocked,
	}
}

// ValidStatus reports whether s is a member of the closed status enum.
func ValidStatus(s Status) bool {
	for _, v := range Pipeline() {
		if v == s {
			return true
		}
	}
	return false
}

// Priority represents the urgency level of a task.
type Priority string

const (
	P0 Priority = "P0"
	P1 Priority = "P1"
	P2 Priority = "P2"
	P3 Priority = "P3"
)

// ValidPriority reports whether p is one of P0..P3.
func ValidPriority(p Priority) bool {
	switch p {
	case P0, P1, P2, P3:
		return true
	}
	return false
}

// TimestampMinute is the minute-precision layout used for comment and
// notification timestamps in task records and the notification ledger.
const TimestampMinute = "2006-01-02T15:04"

// Comment is a single entry in a task's discussion thread.
// Timestamps carry minute precision; see TimestampMinute.
type Comment struct {
	Timestamp time.Time `yaml:"timestamp"`
	Agent     string    `yaml:"agent"`
	Message   string    `yaml:"message"`
}

// Task is the unit of work coordinated between agents. One task is stored
// as one markdown record at <workspace>/tasks/<status>/<id>.md.
type Task struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Status      Status    `yaml:"status"`
	Priority    Priority  `yaml:"priority"`
	Assigned    []string  `yaml:"assigned"`
	Subscribers []string  `yaml:"subscribers"`
	Tags        []string  `yaml:"tags"`
	Created     time.Time `yaml:"created"`
	Updated     time.Time `yaml:"updated"`
	PRD         string    `yaml:"prd,omitempty"`
	Plan        string    `yaml:"plan,omitempty"`
	PR          string    `yaml:"pr,omitempty"`
	Thread      []Comment `yaml:"thread,omitempty"`
}

// IsAssigned reports whether agent appears in the assigned set.
func (t *Task) IsAssigned(agent string) bool {
	return containsString(t.Assigned, agent)
}

// HasSubscriber reports whether agent appears in the subscriber set.
func (t *Task) HasSubscriber(agent string) bool {
	return containsString(t.Subscribers, agent)
}

// Subscribe adds agent to the subscriber set if not already present,
// preserving insertion order.
func (t *Task) Subscribe(agent string) {
	if !t.HasSubscriber(agent) {
		t.Subscribers = append(t.Subscribers, agent)
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
