package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vinayprograms/kaal/internal/calendar"
	"github.com/vinayprograms/kaal/internal/metadata"
	"github.com/vinayprograms/kaal/internal/task"
)

// MCP Tool Input/Output types

type ViewArgs struct {
	Name string `json:"name,omitempty" jsonschema:"period name: YYYY-MM-DD for a day, YYYY-Www for a week, YYYY-Month for a month (empty for the current one)"`
}

type ViewResult struct {
	Name    string       `json:"name" jsonschema:"period name"`
	Period  string       `json:"period" jsonschema:"day, week or month"`
	Start   string       `json:"start" jsonschema:"first day of the window"`
	End     string       `json:"end" jsonschema:"last day of the window"`
	Note    string       `json:"note" jsonschema:"vault path of the periodic note"`
	Buckets []BucketInfo `json:"buckets" jsonschema:"tasks grouped by weekday (week, day) or day of month (month)"`
	Count   int          `json:"count" jsonschema:"number of tasks in the window"`
}

type BucketInfo struct {
	Key   string     `json:"key" jsonschema:"weekday name or day of month"`
	Date  string     `json:"date" jsonschema:"date of the bucket"`
	Tasks []TaskInfo `json:"tasks" jsonschema:"tasks in input order"`
}

type TaskInfo struct {
	Path        string     `json:"path" jsonschema:"vault path of the note holding the task"`
	Line        int        `json:"line" jsonschema:"0-based line of the task"`
	Status      string     `json:"status" jsonschema:"status symbol: space (open), x (done), - (cancelled)"`
	Description string     `json:"description" jsonschema:"task text without annotations"`
	Text        string     `json:"text" jsonschema:"raw task text"`
	Due         string     `json:"due,omitempty" jsonschema:"due date"`
	Scheduled   string     `json:"scheduled,omitempty" jsonschema:"scheduled date"`
	Completion  string     `json:"completion,omitempty" jsonschema:"completion date"`
	Start       string     `json:"start,omitempty" jsonschema:"start date"`
	Children    []TaskInfo `json:"children,omitempty" jsonschema:"nested tasks"`
}

type AgendaArgs struct {
	At string `json:"at,omitempty" jsonschema:"day as YYYY-MM-DD, RFC 3339 time or epoch milliseconds (empty for today)"`
}

type AgendaResult struct {
	Day   string     `json:"day" jsonschema:"agenda day"`
	Tasks []TaskInfo `json:"tasks" jsonschema:"open tasks due or scheduled by the day, plus tasks completed that day, nested"`
	Count int        `json:"count" jsonschema:"number of agenda tasks"`
}

type SetStatusArgs struct {
	Path   string `json:"path" jsonschema:"vault path of the note"`
	Line   int    `json:"line" jsonschema:"0-based line of the task"`
	Status string `json:"status" jsonschema:"new status: open, done or cancelled"`
}

type RescheduleArgs struct {
	Path string `json:"path" jsonschema:"vault path of the note"`
	Line int    `json:"line" jsonschema:"0-based line of the task"`
	Date string `json:"date" jsonschema:"YYYY-MM-DD, today, tomorrow or an offset such as +7 days, -1w, +1m"`
}

type AssignIDArgs struct {
	Path string `json:"path" jsonschema:"vault path of the note"`
	Line int    `json:"line" jsonschema:"0-based line of the task"`
}

type TaskActionResult struct {
	Success bool      `json:"success" jsonschema:"whether the task was updated"`
	Message string    `json:"message" jsonschema:"status message"`
	Task    *TaskInfo `json:"task,omitempty" jsonschema:"the task after the update"`
	ID      string    `json:"id,omitempty" jsonschema:"task id (assign_task_id only)"`
}

// MCPServer exposes the dashboard over the model context protocol.
type MCPServer struct {
	service *Service
	server  *mcp.Server
}

// NewMCPServer creates an MCP server for the dashboard.
func NewMCPServer(service *Service, version string) *MCPServer {
	s := &MCPServer{service: service}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "kaal",
		Version: version,
	}, nil)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport
func (s *MCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *MCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "day_view",
		Description: "Tasks due, scheduled or completed on one day. Use agenda instead for what is still to do today, including overdue work.",
	}, s.dayView)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "week_view",
		Description: "Tasks due, scheduled or completed during a Monday-to-Sunday week, grouped by weekday.",
	}, s.weekView)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "month_view",
		Description: "Tasks due, scheduled or completed during a calendar month, grouped by day of month.",
	}, s.monthView)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "agenda",
		Description: "PREFERRED: the daily agenda. Open tasks due or scheduled on or before the day, and tasks completed that day. Cancelled tasks are never listed.",
	}, s.agenda)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_task_status",
		Description: "Mark a task open, done or cancelled. Completing stamps today's completion date. The note is only written if the line still matches the task.",
	}, s.setStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reschedule_task",
		Description: "Move a task to a new date. Relative offsets are measured from the task's completion, due or scheduled date.",
	}, s.reschedule)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "assign_task_id",
		Description: "Give a task a stable id annotation, or return the one it has.",
	}, s.assignID)
}

// TaskToInfo converts a task and its children.
func TaskToInfo(t *task.Task) TaskInfo {
	info := TaskInfo{
		Path:        t.Path,
		Line:        t.Line,
		Status:      string(t.Status),
		Description: t.Description,
		Text:        t.Text,
		Due:         formatDate(t.Dates.Due),
		Scheduled:   formatDate(t.Dates.Scheduled),
		Completion:  formatDate(t.Dates.Completion),
		Start:       formatDate(t.Dates.Start),
	}
	for _, c := range t.Children {
		info.Children = append(info.Children, TaskToInfo(c))
	}
	return info
}

// ViewToResult converts a view for the wire.
func ViewToResult(v *View) ViewResult {
	r := ViewResult{
		Name:   v.Name,
		Period: string(v.Period),
		Start:  formatDate(v.Window.Start),
		End:    formatDate(v.Window.End),
		Note:   v.Note,
		Count:  v.Count,
	}
	for _, b := range v.Buckets {
		bi := BucketInfo{Key: b.Key, Date: formatDate(b.Date), Tasks: []TaskInfo{}}
		for _, t := range b.Tasks {
			bi.Tasks = append(bi.Tasks, TaskToInfo(t))
		}
		r.Buckets = append(r.Buckets, bi)
	}
	return r
}

// AgendaToResult converts an agenda for the wire.
func AgendaToResult(a *Agenda) AgendaResult {
	r := AgendaResult{Day: formatDate(a.Day.Start), Count: len(a.Tasks), Tasks: []TaskInfo{}}
	for _, t := range a.Forest {
		r.Tasks = append(r.Tasks, TaskToInfo(t))
	}
	return r
}

// ParseStatus maps a status word or symbol to the checkbox symbol.
func ParseStatus(s string) (rune, bool) {
	switch s {
	case "open", "todo", " ", "":
		return task.Open, true
	case "done", "x", "X", "complete", "completed":
		return task.Done, true
	case "cancelled", "canceled", "-":
		return task.Cancelled, true
	}
	return 0, false
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(metadata.DateLayout)
}

func (s *MCPServer) dayView(ctx context.Context, req *mcp.CallToolRequest, args ViewArgs) (*mcp.CallToolResult, ViewResult, error) {
	v, err := s.service.Day(ctx, args.Name)
	if err != nil {
		return nil, ViewResult{}, fmt.Errorf("failed to build day view: %w", err)
	}
	return nil, ViewToResult(v), nil
}

func (s *MCPServer) weekView(ctx context.Context, req *mcp.CallToolRequest, args ViewArgs) (*mcp.CallToolResult, ViewResult, error) {
	v, err := s.service.Week(ctx, args.Name)
	if err != nil {
		return nil, ViewResult{}, fmt.Errorf("failed to build week view: %w", err)
	}
	return nil, ViewToResult(v), nil
}

func (s *MCPServer) monthView(ctx context.Context, req *mcp.CallToolRequest, args ViewArgs) (*mcp.CallToolResult, ViewResult, error) {
	v, err := s.service.Month(ctx, args.Name)
	if err != nil {
		return nil, ViewResult{}, fmt.Errorf("failed to build month view: %w", err)
	}
	return nil, ViewToResult(v), nil
}

func (s *MCPServer) agenda(ctx context.Context, req *mcp.CallToolRequest, args AgendaArgs) (*mcp.CallToolResult, AgendaResult, error) {
	at := calendar.ParseInput(args.At, s.service.Calendar().Location())
	if args.At != "" && !at.Present() {
		return nil, AgendaResult{}, fmt.Errorf("invalid day %q", args.At)
	}
	a, err := s.service.Agenda(ctx, at)
	if err != nil {
		return nil, AgendaResult{}, fmt.Errorf("failed to build agenda: %w", err)
	}
	return nil, AgendaToResult(a), nil
}

func (s *MCPServer) setStatus(ctx context.Context, req *mcp.CallToolRequest, args SetStatusArgs) (*mcp.CallToolResult, TaskActionResult, error) {
	status, ok := ParseStatus(args.Status)
	if !ok {
		return nil, TaskActionResult{
			Success: false,
			Message: fmt.Sprintf("invalid status '%s': use open, done or cancelled", args.Status),
		}, nil
	}
	t, err := s.service.SetStatus(ctx, Ref{Path: args.Path, Line: args.Line}, status)
	if err != nil {
		s.service.logger.Printf("set_task_status %s:%d: %v", args.Path, args.Line, err)
		return nil, TaskActionResult{Success: false, Message: fmt.Sprintf("failed to update task: %v", err)}, nil
	}
	info := TaskToInfo(t)
	return nil, TaskActionResult{
		Success: true,
		Message: fmt.Sprintf("Updated task status to [%c]", status),
		Task:    &info,
	}, nil
}

func (s *MCPServer) reschedule(ctx context.Context, req *mcp.CallToolRequest, args RescheduleArgs) (*mcp.CallToolResult, TaskActionResult, error) {
	t, err := s.service.Reschedule(ctx, Ref{Path: args.Path, Line: args.Line}, args.Date)
	if err != nil {
		s.service.logger.Printf("reschedule_task %s:%d: %v", args.Path, args.Line, err)
		return nil, TaskActionResult{Success: false, Message: fmt.Sprintf("failed to reschedule task: %v", err)}, nil
	}
	info := TaskToInfo(t)
	return nil, TaskActionResult{Success: true, Message: "Rescheduled to " + info.Due, Task: &info}, nil
}

func (s *MCPServer) assignID(ctx context.Context, req *mcp.CallToolRequest, args AssignIDArgs) (*mcp.CallToolResult, TaskActionResult, error) {
	id, err := s.service.AssignID(ctx, Ref{Path: args.Path, Line: args.Line})
	if err != nil {
		s.service.logger.Printf("assign_task_id %s:%d: %v", args.Path, args.Line, err)
		return nil, TaskActionResult{Success: false, Message: fmt.Sprintf("failed to assign id: %v", err)}, nil
	}
	return nil, TaskActionResult{Success: true, Message: "Task id " + id, ID: id}, nil
}
