package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valter-silva-au/agent-board/pkg/models"
)

const (
	ledgerFileName    = "notifications.md"
	ledgerTitle       = "# Notifications"
	pendingHeading    = "## Pending"
	deliveredHeading  = "## Delivered"
	entryMarker       = "### @"
	fieldFrom         = "From:"
	fieldMessage      = "Message:"
	fieldTime         = "Time:"
	fieldLink         = "Link:"
	fieldDelivered    = "Delivered:"
	ledgerParseLayout = models.TimestampMinute
)

// Ledger maintains the single shared notification document with its Pending
// and Delivered sections. Mutations rewrite the whole document from parsed
// entries under the workspace lock, so a corrupt splice can't accumulate.
type Ledger struct {
	workspace string
}

// NewLedger creates a Ledger over <workspace>/notifications.md.
func NewLedger(workspace string) *Ledger {
	return &Ledger{workspace: workspace}
}

func (l *Ledger) path() string {
	return filepath.Join(l.workspace, ledgerFileName)
}

// Ensure creates an empty ledger document if none exists.
func (l *Ledger) Ensure() error {
	return withLock(l.workspace, func() error {
		if _, err := os.Stat(l.path()); err == nil {
			return nil
		}
		return l.render(nil, nil)
	})
}

// Add inserts a notification at the head of the Pending section, so pending
// entries read most-recent-first.
func (l *Ledger) Add(n models.Notification) error {
	return withLock(l.workspace, func() error {
		pending, delivered, err := l.load()
		if err != nil {
			return err
		}
		pending = append([]models.Notification{n}, pending...)
		return l.render(pending, delivered)
	})
}

// Pending returns every pending notification in document order
// (most-recent-first).
func (l *Ledger) Pending() ([]models.Notification, error) {
	pending, _, err := l.load()
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// PendingFor returns the pending notifications addressed to agent in
// document order (most-recent-first).
func (l *Ledger) PendingFor(agent string) ([]models.Notification, error) {
	pending, _, err := l.load()
	if err != nil {
		return nil, err
	}
	var result []models.Notification
	for _, n := range pending {
		if n.To == agent {
			result = append(result, n)
		}
	}
	return result, nil
}

// MarkDelivered moves every pending notification addressed to agent into the
// Delivered section, stamping each with the delivery time and preserving
// their relative order. A second call with nothing pending is a no-op.
func (l *Ledger) MarkDelivered(agent string) error {
	return withLock(l.workspace, func() error {
		pending, delivered, err := l.load()
		if err != nil {
			return err
		}

		var kept, moved []models.Notification
		for _, n := range pending {
			if n.To == agent {
				moved = append(moved, n)
			} else {
				kept = append(kept, n)
			}
		}
		if len(moved) == 0 {
			return nil
		}

		now := time.Now().UTC().Truncate(time.Minute)
		for i := range moved {
			moved[i].DeliveredAt = now
		}
		return l.render(kept, append(delivered, moved...))
	})
}

// load reads the ledger and parses both sections. A missing file is an
// empty ledger.
func (l *Ledger) load() (pending, delivered []models.Notification, err error) {
	data, err := os.ReadFile(l.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading notification ledger: %w", err)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	pendingIdx := strings.Index(content, pendingHeading)
	deliveredIdx := strings.Index(content, deliveredHeading)
	if pendingIdx < 0 || deliveredIdx < 0 || deliveredIdx < pendingIdx {
		return nil, nil, fmt.Errorf("notification ledger %s: missing Pending/Delivered sections", l.path())
	}

	pending = parseEntries(content[pendingIdx+len(pendingHeading) : deliveredIdx])
	delivered = parseEntries(content[deliveredIdx+len(deliveredHeading):])
	return pending, delivered, nil
}

// parseEntries splits a section into ### @agent blocks and parses the
// field lines of each.
func parseEntries(section string) []models.Notification {
	var entries []models.Notification
	for _, chunk := range strings.Split(section, entryMarker)[1:] {
		agent, rest, _ := strings.Cut(chunk, "\n")
		n := models.Notification{To: strings.TrimSpace(agent)}

		for _, line := range strings.Split(rest, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, fieldFrom):
				from := strings.TrimSpace(strings.TrimPrefix(line, fieldFrom))
				if open := strings.LastIndex(from, "("); open >= 0 && strings.HasSuffix(from, ")") {
					n.TaskID = from[open+1 : len(from)-1]
					from = strings.TrimSpace(from[:open])
				}
				n.From = from
			case strings.HasPrefix(line, fieldMessage):
				n.Message = strings.TrimSpace(strings.TrimPrefix(line, fieldMessage))
			case strings.HasPrefix(line, fieldTime):
				if t, err := time.Parse(ledgerParseLayout, strings.TrimSpace(strings.TrimPrefix(line, fieldTime))); err == nil {
					n.Time = t
				}
			case strings.HasPrefix(line, fieldLink):
				n.Link = strings.TrimSpace(strings.TrimPrefix(line, fieldLink))
			case strings.HasPrefix(line, fieldDelivered):
				if t, err := time.Parse(ledgerParseLayout, strings.TrimSpace(strings.TrimPrefix(line, fieldDelivered))); err == nil {
					n.DeliveredAt = t
				}
			}
		}
		entries = append(entries, n)
	}
	return entries
}

// render writes the full ledger document from parsed entries via a temp
// file renamed into place. Callers must hold the workspace lock.
func (l *Ledger) render(pending, delivered []models.Notification) error {
	var b strings.Builder
	b.WriteString(ledgerTitle + "\n\n")
	b.WriteString(pendingHeading + "\n\n")
	for _, n := range pending {
		writeEntry(&b, n)
	}
	b.WriteString(deliveredHeading + "\n\n")
	for _, n := range delivered {
		writeEntry(&b, n)
	}

	tmp, err := os.CreateTemp(l.workspace, ".notifications-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp ledger: %w", err)
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing notification ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("closing notification ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path()); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("placing notification ledger: %w", err)
	}
	return nil
}

// flattenMessage collapses line breaks to spaces. The Message: field is a
// single line; anything after an embedded newline would be dropped by the
// next parse.
func flattenMessage(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}

func writeEntry(b *strings.Builder, n models.Notification) {
	b.WriteString(entryMarker + n.To + "\n")
	if n.TaskID != "" {
		b.WriteString(fmt.Sprintf("%s %s (%s)\n", fieldFrom, n.From, n.TaskID))
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n", fieldFrom, n.From))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", fieldMessage, flattenMessage(n.Message)))
	b.WriteString(fmt.Sprintf("%s %s\n", fieldTime, n.Time.Format(ledgerParseLayout)))
	if n.Link != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", fieldLink, n.Link))
	}
	if !n.DeliveredAt.IsZero() {
		b.WriteString(fmt.Sprintf("%s %s\n", fieldDelivered, n.DeliveredAt.Format(ledgerParseLayout)))
	}
	b.WriteString("\n")
}
