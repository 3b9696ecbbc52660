package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/agent-board/pkg/models"
)

// Board panel indices.
const (
	panelPipeline = iota
	panelNotifications
	panelActivity
	panelCount
)

type boardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	statusCounts map[models.Status]int
	pending      []models.Notification
	activity     []string

	// State.
	loading bool
	err     error
}

// boardDataMsg carries loaded data back to the model.
type boardDataMsg struct {
	statusCounts map[models.Status]int
	pending      []models.Notification
	activity     []string
	err          error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	statusActive  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusBlocked = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusWaiting = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	statusIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	agentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newBoardModel() boardModel {
	return boardModel{
		activePanel:  panelPipeline,
		loading:      true,
		statusCounts: make(map[models.Status]int),
	}
}

func (m boardModel) Init() tea.Cmd {
	return loadBoardData
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadBoardData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardDataMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusCounts = msg.statusCounts
		m.pending = msg.pending
		m.activity = msg.activity
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m boardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Agent Board ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading board...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	pipeline := m.renderPipelinePanel()
	notifications := m.renderNotificationsPanel()
	activity := m.renderActivityPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		pipeline = m.applyPanelStyle(panelPipeline, pipeline, colWidth-4)
		notifications = m.applyPanelStyle(panelNotifications, notifications, colWidth-4)
		activity = m.applyPanelStyle(panelActivity, activity, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, pipeline, notifications, activity)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		pipeline = m.applyPanelStyle(panelPipeline, pipeline, panelWidth)
		notifications = m.applyPanelStyle(panelNotifications, notifications, panelWidth)
		activity = m.applyPanelStyle(panelActivity, activity, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, pipeline, notifications, activity)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m boardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m boardModel) renderPipelinePanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Pipeline"))
	b.WriteString("\n")

	total := 0
	for _, status := range models.Pipeline() {
		count := m.statusCounts[status]
		total += count
		if count == 0 {
			continue
		}
		label := fmt.Sprintf("  %-18s %d", status, count)
		b.WriteString(styleForStatus(status).Render(label))
		b.WriteString("\n")
	}

	if total == 0 {
		b.WriteString("  Board is empty.")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d", total))

	return b.String()
}

func (m boardModel) renderNotificationsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Pending notifications"))
	b.WriteString("\n")

	if len(m.pending) == 0 {
		b.WriteString("  Nothing pending.")
		return b.String()
	}

	// Group counts per recipient for a compact overview.
	perAgent := make(map[string]int)
	for _, n := range m.pending {
		perAgent[n.To]++
	}
	agents := make([]string, 0, len(perAgent))
	for agent := range perAgent {
		agents = append(agents, agent)
	}
	sort.Strings(agents)

	for _, agent := range agents {
		b.WriteString(fmt.Sprintf("  %s %d pending\n", agentStyle.Render("@"+agent), perAgent[agent]))
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d notification(s)", len(m.pending)))

	return b.String()
}

func (m boardModel) renderActivityPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Recent activity"))
	b.WriteString("\n")

	if len(m.activity) == 0 {
		b.WriteString("  No activity yet.")
		return b.String()
	}

	for _, line := range m.activity {
		b.WriteString("  " + line + "\n")
	}

	return b.String()
}

func styleForStatus(status models.Status) lipgloss.Style {
	switch status {
	case models.StatusInProgress, models.StatusInQA:
		return statusActive
	case models.StatusDeployed:
		return statusDone
	case models.StatusBlocked:
		return statusBlocked
	case models.StatusReadyToDeploy, models.StatusReadyForTesting:
		return statusWaiting
	case models.StatusInbox:
		return statusIdle
	default:
		return lipgloss.NewStyle()
	}
}

func loadBoardData() tea.Msg {
	result := boardDataMsg{
		statusCounts: make(map[models.Status]int),
	}

	if Board != nil {
		tasks, err := Board.ListTasks()
		if err != nil {
			result.err = fmt.Errorf("loading tasks: %w", err)
			return result
		}
		for _, t := range tasks {
			result.statusCounts[t.Status]++
		}
	}

	if Ledger != nil {
		pending, err := Ledger.Pending()
		if err != nil {
			result.err = fmt.Errorf("loading notifications: %w", err)
			return result
		}
		result.pending = pending
	}

	if Activity != nil {
		lines, err := Activity.Recent(8)
		if err != nil {
			result.err = fmt.Errorf("loading activity: %w", err)
			return result
		}
		result.activity = lines
	}

	return result
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive TUI overview of the board",
	Long: `Launch an interactive terminal view showing the pipeline, pending
notifications per agent, and recent activity.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}
		p := tea.NewProgram(newBoardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
