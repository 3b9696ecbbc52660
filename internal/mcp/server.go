// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the agent board as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/valter-silva-au/agent-board/internal/core"
	"github.com/valter-silva-au/agent-board/pkg/models"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// NotificationLedger is the slice of the ledger the server needs.
type NotificationLedger interface {
	PendingFor(agent string) ([]models.Notification, error)
	MarkDelivered(agent string) error
}

// Server wraps board services and exposes them as MCP tools.
type Server struct {
	server *gomcp.Server
	board  core.Board
	ledger NotificationLedger
}

// NewServer creates a new MCP server with the given board dependencies.
// ledger may be nil if notifications are disabled.
func NewServer(board core.Board, ledger NotificationLedger, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		board:  board,
		ledger: ledger,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "aboard", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type createTaskInput struct {
	Title       string   `json:"title" jsonschema:"required,short task title"`
	Description string   `json:"description,omitempty" jsonschema:"longer task description"`
	Priority    string   `json:"priority,omitempty" jsonschema:"priority (P0, P1, P2, P3); defaults to the board's configured default"`
	Tags        []string `json:"tags,omitempty" jsonschema:"free-form tags"`
}

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier (e.g. task-042)"`
}

type taskOutput struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Assigned    []string `json:"assigned,omitempty"`
	Subscribers []string `json:"subscribers,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Created     string   `json:"created"`
	Updated     string   `json:"updated"`
	PRD         string   `json:"prd,omitempty"`
	Plan        string   `json:"plan,omitempty"`
	PR          string   `json:"pr,omitempty"`
	Comments    int      `json:"comments"`
}

type listTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter tasks by status (inbox, in-discovery, in-planning, ready-to-build, in-progress, ready-for-testing, in-qa, ready-to-deploy, deployed, blocked)"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type moveTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier"`
	Status string `json:"status" jsonschema:"required,the destination status"`
}

type moveTaskOutput struct {
	Message string `json:"message"`
}

type addCommentInput struct {
	TaskID  string `json:"task_id" jsonschema:"required,the task identifier"`
	Agent   string `json:"agent" jsonschema:"required,the commenting agent's name"`
	Message string `json:"message" jsonschema:"required,the comment text"`
}

type addCommentOutput struct {
	Message string `json:"message"`
}

type assignTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier"`
	Agent  string `json:"agent" jsonschema:"required,the agent to assign"`
}

type findWorkInput struct {
	Role string `json:"role" jsonschema:"required,the agent role (pm, architect, engineer, qa, security, devops)"`
}

type findWorkOutput struct {
	Found bool        `json:"found"`
	Task  *taskOutput `json:"task,omitempty"`
}

type checkNotificationsInput struct {
	Agent string `json:"agent" jsonschema:"required,the agent whose pending notifications to list"`
}

type notificationOutput struct {
	From    string `json:"from"`
	Message string `json:"message"`
	Time    string `json:"time"`
	TaskID  string `json:"task_id,omitempty"`
	Link    string `json:"link,omitempty"`
}

type checkNotificationsOutput struct {
	Notifications []notificationOutput `json:"notifications"`
	Count         int                  `json:"count"`
}

type markDeliveredInput struct {
	Agent string `json:"agent" jsonschema:"required,the agent whose pending notifications to acknowledge"`
}

type markDeliveredOutput struct {
	Message string `json:"message"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_task",
		Description: "Create a new task in the inbox. Returns the created task with its allocated id.",
	}, s.handleCreateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get task details by id. Returns the full task record including assignments, subscribers, and thread length.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks with an optional status filter, in pipeline order.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "move_task",
		Description: "Move a task to another status directory. Valid statuses: inbox, in-discovery, in-planning, ready-to-build, in-progress, ready-for-testing, in-qa, ready-to-deploy, deployed, blocked.",
	}, s.handleMoveTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_comment",
		Description: "Append a comment to a task's thread. The commenter is auto-subscribed and other subscribers receive pending notifications.",
	}, s.handleAddComment)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "assign_task",
		Description: "Assign an agent to a task and subscribe it to the thread. Idempotent.",
	}, s.handleAssignTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "find_work",
		Description: "Find the next task a role should pick up: assigned tasks first, then @mentions, then unassigned tasks in the role's home status.",
	}, s.handleFindWork)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "check_notifications",
		Description: "List an agent's pending notifications without acknowledging them.",
	}, s.handleCheckNotifications)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "mark_delivered",
		Description: "Acknowledge an agent's pending notifications, moving them to the delivered section.",
	}, s.handleMarkDelivered)
}

// --- Tool handlers ---

func (s *Server) handleCreateTask(_ context.Context, _ *gomcp.CallToolRequest, input createTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.Title == "" {
		return errorResult("title is required"), taskOutput{}, nil
	}
	if input.Priority != "" && !models.ValidPriority(models.Priority(input.Priority)) {
		return errorResult(fmt.Sprintf("invalid priority %q: must be one of P0, P1, P2, P3", input.Priority)), taskOutput{}, nil
	}

	task, err := s.board.CreateTask(input.Title, input.Description, models.Priority(input.Priority), input.Tags)
	if err != nil {
		return errorResult(fmt.Sprintf("creating task: %s", err)), taskOutput{}, nil
	}

	return nil, taskToOutput(task), nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, err := s.board.FindTask(input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %s: %s", input.TaskID, err)), taskOutput{}, nil
	}

	return nil, taskToOutput(task), nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	var statuses []models.Status
	if input.Status != "" {
		status := models.Status(input.Status)
		if !models.ValidStatus(status) {
			return errorResult(fmt.Sprintf("invalid status %q", input.Status)), listTasksOutput{}, nil
		}
		statuses = append(statuses, status)
	}

	tasks, err := s.board.ListTasks(statuses...)
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t)
	}

	return nil, out, nil
}

func (s *Server) handleMoveTask(_ context.Context, _ *gomcp.CallToolRequest, input moveTaskInput) (*gomcp.CallToolResult, moveTaskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), moveTaskOutput{}, nil
	}
	if input.Status == "" {
		return errorResult("status is required"), moveTaskOutput{}, nil
	}

	task, err := s.board.MoveTask(input.TaskID, models.Status(input.Status))
	if err != nil {
		return errorResult(fmt.Sprintf("moving task %s: %s", input.TaskID, err)), moveTaskOutput{}, nil
	}

	out := moveTaskOutput{
		Message: fmt.Sprintf("task %s moved to %s", task.ID, task.Status),
	}
	return nil, out, nil
}

func (s *Server) handleAddComment(_ context.Context, _ *gomcp.CallToolRequest, input addCommentInput) (*gomcp.CallToolResult, addCommentOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), addCommentOutput{}, nil
	}
	if input.Agent == "" {
		return errorResult("agent is required"), addCommentOutput{}, nil
	}
	if input.Message == "" {
		return errorResult("message is required"), addCommentOutput{}, nil
	}

	task, err := s.board.AddComment(input.TaskID, input.Agent, input.Message)
	if err != nil {
		return errorResult(fmt.Sprintf("adding comment to %s: %s", input.TaskID, err)), addCommentOutput{}, nil
	}

	out := addCommentOutput{
		Message: fmt.Sprintf("comment added to %s (%d in thread)", task.ID, len(task.Thread)),
	}
	return nil, out, nil
}

func (s *Server) handleAssignTask(_ context.Context, _ *gomcp.CallToolRequest, input assignTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}
	if input.Agent == "" {
		return errorResult("agent is required"), taskOutput{}, nil
	}

	task, err := s.board.AssignTask(input.TaskID, input.Agent)
	if err != nil {
		return errorResult(fmt.Sprintf("assigning task %s: %s", input.TaskID, err)), taskOutput{}, nil
	}

	return nil, taskToOutput(task), nil
}

func (s *Server) handleFindWork(_ context.Context, _ *gomcp.CallToolRequest, input findWorkInput) (*gomcp.CallToolResult, findWorkOutput, error) {
	if input.Role == "" {
		return errorResult("role is required"), findWorkOutput{}, nil
	}

	task, err := s.board.FindWork(input.Role)
	if err != nil {
		return errorResult(fmt.Sprintf("finding work for %s: %s", input.Role, err)), findWorkOutput{}, nil
	}
	if task == nil {
		return nil, findWorkOutput{Found: false}, nil
	}

	out := taskToOutput(task)
	return nil, findWorkOutput{Found: true, Task: &out}, nil
}

func (s *Server) handleCheckNotifications(_ context.Context, _ *gomcp.CallToolRequest, input checkNotificationsInput) (*gomcp.CallToolResult, checkNotificationsOutput, error) {
	if s.ledger == nil {
		return errorResult("notification ledger not available"), checkNotificationsOutput{}, nil
	}
	if input.Agent == "" {
		return errorResult("agent is required"), checkNotificationsOutput{}, nil
	}

	pending, err := s.ledger.PendingFor(input.Agent)
	if err != nil {
		return errorResult(fmt.Sprintf("checking notifications for %s: %s", input.Agent, err)), checkNotificationsOutput{}, nil
	}

	out := checkNotificationsOutput{
		Notifications: make([]notificationOutput, len(pending)),
		Count:         len(pending),
	}
	for i, n := range pending {
		out.Notifications[i] = notificationOutput{
			From:    n.From,
			Message: n.Message,
			Time:    n.Time.Format(models.TimestampMinute),
			TaskID:  n.TaskID,
			Link:    n.Link,
		}
	}

	return nil, out, nil
}

func (s *Server) handleMarkDelivered(_ context.Context, _ *gomcp.CallToolRequest, input markDeliveredInput) (*gomcp.CallToolResult, markDeliveredOutput, error) {
	if s.ledger == nil {
		return errorResult("notification ledger not available"), markDeliveredOutput{}, nil
	}
	if input.Agent == "" {
		return errorResult("agent is required"), markDeliveredOutput{}, nil
	}

	if err := s.ledger.MarkDelivered(input.Agent); err != nil {
		return errorResult(fmt.Sprintf("marking notifications delivered for %s: %s", input.Agent, err)), markDeliveredOutput{}, nil
	}

	out := markDeliveredOutput{
		Message: fmt.Sprintf("pending notifications for %s marked delivered", input.Agent),
	}
	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t *models.Task) taskOutput {
	return taskOutput{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Assigned:    t.Assigned,
		Subscribers: t.Subscribers,
		Tags:        t.Tags,
		Created:     t.Created.Format(time.RFC3339),
		Updated:     t.Updated.Format(time.RFC3339),
		PRD:         t.PRD,
		Plan:        t.Plan,
		PR:          t.PR,
		Comments:    len(t.Thread),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
