// Package storage implements the filesystem persistence layer for the agent
// board: the task record codec, the directory-per-status task store, the
// shared notification ledger, and per-agent subscription files.
package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/agent-board/pkg/models"
)

const (
	frontmatterFence = "---"
	recordTimeLayout = time.RFC3339
)

// EncodeTask serializes a task to its markdown record form: a frontmatter
// block of key: value pairs (list fields as JSON arrays), followed by the
// title heading, a Description section, and a Thread section when the task
// has comments.
func EncodeTask(t *models.Task) []byte {
	var b strings.Builder

	b.WriteString(frontmatterFence + "\n")
	writeField(&b, "id", t.ID)
	writeField(&b, "title", t.Title)
	writeField(&b, "status", string(t.Status))
	writeField(&b, "priority", string(t.Priority))
	writeField(&b, "created", t.Created.Format(recordTimeLayout))
	writeField(&b, "updated", t.Updated.Format(recordTimeLayout))
	writeListField(&b, "assigned", t.Assigned)
	writeListField(&b, "subscribers", t.Subscribers)
	writeListField(&b, "tags", t.Tags)
	if t.PRD != "" {
		writeField(&b, "prd", t.PRD)
	}
	if t.Plan != "" {
		writeField(&b, "plan", t.Plan)
	}
	if t.PR != "" {
		writeField(&b, "pr", t.PR)
	}
	b.WriteString(frontmatterFence + "\n")

	b.WriteString("\n# " + t.Title + "\n")
	b.WriteString("\n## Description\n")
	b.WriteString(t.Description + "\n")

	if len(t.Thread) > 0 {
		b.WriteString("\n## Thread\n")
		for _, c := range t.Thread {
			b.WriteString(fmt.Sprintf("\n### %s - %s\n", c.Timestamp.Format(models.TimestampMinute), c.Agent))
			b.WriteString(c.Message + "\n")
		}
	}

	return []byte(b.String())
}

func writeField(b *strings.Builder, key, value string) {
	b.WriteString(key + ": " + value + "\n")
}

// writeListField renders a list as a JSON array so values containing commas
// or spaces survive the round trip. Empty and nil lists render as [].
func writeListField(b *strings.Builder, key string, values []string) {
	if len(values) == 0 {
		b.WriteString(key + ": []\n")
		return
	}
	data, _ := json.Marshal(values)
	b.WriteString(key + ": " + string(data) + "\n")
}

// DecodeTask parses a markdown record back into a task. path is used only
// for error reporting. A document without both frontmatter fences fails
// with *MalformedRecordError.
func DecodeTask(path string, content []byte) (*models.Task, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	if !strings.HasPrefix(text, frontmatterFence+"\n") {
		return nil, &MalformedRecordError{Path: path, Reason: "missing opening frontmatter fence"}
	}
	rest := text[len(frontmatterFence)+1:]
	end := strings.Index(rest, "\n"+frontmatterFence+"\n")
	if end < 0 {
		return nil, &MalformedRecordError{Path: path, Reason: "missing closing frontmatter fence"}
	}
	fmText := rest[:end]
	body := rest[end+len(frontmatterFence)+2:]

	task := &models.Task{}
	for _, line := range strings.Split(fmText, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if err := setFrontmatterField(task, key, value); err != nil {
			return nil, &MalformedRecordError{Path: path, Reason: err.Error()}
		}
	}

	task.Description = extractSection(body, "## Description")

	if idx := strings.Index(body, "## Thread"); idx >= 0 {
		thread, err := parseThread(body[idx+len("## Thread"):])
		if err != nil {
			return nil, &MalformedRecordError{Path: path, Reason: err.Error()}
		}
		task.Thread = thread
	}

	return task, nil
}

// setFrontmatterField assigns one frontmatter key to its task field.
// Unknown keys are skipped so records written by newer versions still load.
func setFrontmatterField(task *models.Task, key, value string) error {
	switch key {
	case "id":
		task.ID = value
	case "title":
		task.Title = value
	case "status":
		task.Status = models.Status(value)
	case "priority":
		task.Priority = models.Priority(value)
	case "created":
		t, err := time.Parse(recordTimeLayout, value)
		if err != nil {
			return fmt.Errorf("created timestamp %q: %v", value, err)
		}
		task.Created = t
	case "updated":
		t, err := time.Parse(recordTimeLayout, value)
		if err != nil {
			return fmt.Errorf("updated timestamp %q: %v", value, err)
		}
		task.Updated = t
	case "assigned":
		return parseListField(key, value, &task.Assigned)
	case "subscribers":
		return parseListField(key, value, &task.Subscribers)
	case "tags":
		return parseListField(key, value, &task.Tags)
	case "prd":
		task.PRD = value
	case "plan":
		task.Plan = value
	case "pr":
		task.PR = value
	}
	return nil
}

func parseListField(key, value string, dest *[]string) error {
	if !strings.HasPrefix(value, "[") {
		return fmt.Errorf("%s: expected JSON array, got %q", key, value)
	}
	var values []string
	if err := json.Unmarshal([]byte(value), &values); err != nil {
		return fmt.Errorf("%s: %v", key, err)
	}
	// Empty arrays decode to nil so a fresh task and its decoded form compare equal.
	if len(values) == 0 {
		values = nil
	}
	*dest = values
	return nil
}

// extractSection returns the trimmed text between a section heading and the
// next top-level section (or end of document).
func extractSection(body, heading string) string {
	idx := strings.Index(body, heading)
	if idx < 0 {
		return ""
	}
	section := body[idx+len(heading):]
	if end := strings.Index(section, "\n## "); end >= 0 {
		section = section[:end]
	}
	return strings.TrimSpace(section)
}

// parseThread splits the thread section into comments. Each comment begins
// with a "### <timestamp> - <agent>" heading; everything up to the next
// heading is the message.
func parseThread(section string) ([]models.Comment, error) {
	if end := strings.Index(section, "\n## "); end >= 0 {
		section = section[:end]
	}

	var thread []models.Comment
	for _, chunk := range strings.Split(section, "\n### ")[1:] {
		header, message, _ := strings.Cut(chunk, "\n")
		tsText, agent, ok := strings.Cut(header, " - ")
		if !ok {
			return nil, fmt.Errorf("thread heading %q: missing timestamp separator", header)
		}
		ts, err := time.Parse(models.TimestampMinute, strings.TrimSpace(tsText))
		if err != nil {
			return nil, fmt.Errorf("thread timestamp %q: %v", tsText, err)
		}
		thread = append(thread, models.Comment{
			Timestamp: ts,
			Agent:     strings.TrimSpace(agent),
			Message:   strings.TrimSpace(message),
		})
	}
	return thread, nil
}
