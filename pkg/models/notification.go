package models

import "time"

// Notification is a single entry in the shared notification ledger.
// Notifications are ephemeral: they are not part of a task record and
// live only in <workspace>/notifications.md.
type Notification struct {
	To      string
	From    string
	Message string
	Time    time.Time
	TaskID  string
	Link    string
	// DeliveredAt is zero while the notification sits in the Pending
	// section and is stamped when it moves to Delivered.
	DeliveredAt time.Time
}

// Subscription records one agent's interest in a task. Stored per agent
// in agents/<agent>/subscriptions.json keyed by task id.
type Subscription struct {
	SubscribedAt string `json:"subscribed_at"`
	Reason       string `json:"reason"`
}
