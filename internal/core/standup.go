package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/valter-silva-au/agent-board/pkg/models"
)

// ActivityReader is the read side of the activity feed the standup needs.
type ActivityReader interface {
	OnDate(date string) ([]string, error)
}

// maxStandupActivities caps the key-activities section of a report.
const maxStandupActivities = 10

// StandupGenerator produces the daily digest: tasks completed, in progress,
// blocked, and awaiting review, plus the day's notable activity.
type StandupGenerator struct {
	workspace    string
	board        Board
	activity     ActivityReader
	skipPatterns []string
}

// NewStandupGenerator creates a StandupGenerator writing to
// <workspace>/standup.md.
func NewStandupGenerator(workspace string, board Board, activity ActivityReader, skipPatterns []string) *StandupGenerator {
	return &StandupGenerator{
		workspace:    workspace,
		board:        board,
		activity:     activity,
		skipPatterns: skipPatterns,
	}
}

type standupTask struct {
	Title     string
	Status    models.Status
	Assignees string
	Blocker   string
}

type standupReport struct {
	Date        string
	Completed   []standupTask
	InProgress  []standupTask
	Blocked     []standupTask
	NeedsReview []standupTask
	Activities  []string
	GeneratedAt string
}

// Generate builds the standup report for the given YYYY-MM-DD date (today
// when empty), writes it to standup.md, and returns the rendered markdown.
func (g *StandupGenerator) Generate(date string) (string, error) {
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	tasks, err := g.board.ListTasks()
	if err != nil {
		return "", fmt.Errorf("generating standup: %w", err)
	}

	report := standupReport{
		Date:        date,
		GeneratedAt: time.Now().UTC().Format("2006-01-02 15:04"),
	}

	for _, task := range tasks {
		switch task.Status {
		case models.StatusDeployed:
			if task.Updated.Format("2006-01-02") == date {
				report.Completed = append(report.Completed, summarize(task))
			}
		case models.StatusInProgress, models.StatusInQA, models.StatusInDiscovery, models.StatusInPlanning:
			report.InProgress = append(report.InProgress, summarize(task))
		case models.StatusBlocked:
			report.Blocked = append(report.Blocked, summarize(task))
		case models.StatusReadyToDeploy:
			report.NeedsReview = append(report.NeedsReview, summarize(task))
		}
	}

	report.Activities, err = g.keyActivities(date)
	if err != nil {
		return "", fmt.Errorf("generating standup: %w", err)
	}

	var buf bytes.Buffer
	if err := standupTemplate.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("generating standup: rendering: %w", err)
	}

	path := filepath.Join(g.workspace, "standup.md")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("generating standup: writing %s: %w", path, err)
	}

	return buf.String(), nil
}

func summarize(task *models.Task) standupTask {
	s := standupTask{
		Title:     task.Title,
		Status:    task.Status,
		Assignees: "unassigned",
	}
	if len(task.Assigned) > 0 {
		s.Assignees = strings.Join(task.Assigned, ", ")
	}
	// Surface the latest short comment as the likely blocker.
	if task.Status == models.StatusBlocked && len(task.Thread) > 0 {
		last := task.Thread[len(task.Thread)-1].Message
		if len(last) < 100 {
			s.Blocker = last
		}
	}
	return s
}

// keyActivities extracts the day's log messages, dropping routine lines
// matching a skip pattern and keeping the most recent entries.
func (g *StandupGenerator) keyActivities(date string) ([]string, error) {
	lines, err := g.activity.OnDate(date)
	if err != nil {
		return nil, fmt.Errorf("reading activity: %w", err)
	}

	var activities []string
	for _, line := range lines {
		parts := strings.SplitN(line, " | ", 3)
		if len(parts) != 3 {
			continue
		}
		message := parts[2]
		if g.isRoutine(message) {
			continue
		}
		activities = append(activities, message)
	}

	if len(activities) > maxStandupActivities {
		activities = activities[len(activities)-maxStandupActivities:]
	}
	return activities, nil
}

func (g *StandupGenerator) isRoutine(message string) bool {
	lower := strings.ToLower(message)
	for _, pattern := range g.skipPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

var standupTemplate = template.Must(template.New("standup").Parse(`# 📊 Daily Standup — {{.Date}}

## ✅ Completed Today

{{- range .Completed}}
- **{{.Title}}** ({{.Assignees}})
{{- end}}
{{- if not .Completed}}
- No tasks completed today
{{- end}}

## 🔄 In Progress

{{- range .InProgress}}
- **{{.Title}}** — {{.Status}} ({{.Assignees}})
{{- end}}
{{- if not .InProgress}}
- No tasks in progress
{{- end}}
{{- if .Blocked}}

## 🚫 Blocked

{{- range .Blocked}}
- **{{.Title}}** ({{.Assignees}})
{{- if .Blocker}}
  - Blocker: {{.Blocker}}
{{- end}}
{{- end}}
{{- end}}
{{- if .NeedsReview}}

## 👀 Needs Review

{{- range .NeedsReview}}
- **{{.Title}}**
  - Ready for deployment approval
{{- end}}
{{- end}}
{{- if .Activities}}

## 📝 Key Activities

{{- range .Activities}}
- {{.}}
{{- end}}
{{- end}}

## 📈 Summary

- Completed: {{len .Completed}}
- In Progress: {{len .InProgress}}
- Blocked: {{len .Blocked}}
- Needs Review: {{len .NeedsReview}}

---

*Generated: {{.GeneratedAt}}*
`))
