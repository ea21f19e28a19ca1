package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/ticktick-mcp/internal/logging"
)

// ToolInvocation is the audit record of one MCP tool call.
type ToolInvocation struct {
	Tool string

	// User is the configured TickTick username, empty in token mode.
	User     string
	AuthMode string

	ProjectID string
	TaskID    string
	ReadOnly  bool

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts timing a tool call.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{Tool: tool, StartTime: time.Now()}
}

// WithUser records who the session authenticates as.
func (ti *ToolInvocation) WithUser(user, authMode string) *ToolInvocation {
	ti.User = user
	ti.AuthMode = authMode
	return ti
}

// WithTarget records the project and task the call addressed.
func (ti *ToolInvocation) WithTarget(projectID, taskID string) *ToolInvocation {
	ti.ProjectID = projectID
	ti.TaskID = taskID
	return ti
}

// WithReadOnly marks whether the tool only reads.
func (ti *ToolInvocation) WithReadOnly(readOnly bool) *ToolInvocation {
	ti.ReadOnly = readOnly
	return ti
}

// WithSpanContext copies trace and span IDs from ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete stops the timer and records the outcome.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns the metric status label for the outcome.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the audit attributes. The username is hashed unless
// includeUser is set.
func (ti *ToolInvocation) LogAttrs(includeUser bool) []slog.Attr {
	attrs := []slog.Attr{
		logging.Tool(ti.Tool),
		slog.Duration(logging.KeyDuration, ti.Duration),
		slog.Bool("success", ti.Success),
		slog.Bool("read_only", ti.ReadOnly),
	}
	if ti.AuthMode != "" {
		attrs = append(attrs, logging.AuthMode(ti.AuthMode))
	}
	if ti.User != "" {
		if includeUser {
			attrs = append(attrs, slog.String("user", ti.User))
		} else {
			attrs = append(attrs, logging.UserHash(ti.User))
		}
	}
	if ti.ProjectID != "" {
		attrs = append(attrs, logging.Project(ti.ProjectID))
	}
	if ti.TaskID != "" {
		attrs = append(attrs, logging.Task(ti.TaskID))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}
	return attrs
}

// AuditLogger writes one log line per tool invocation.
type AuditLogger struct {
	logger      *slog.Logger
	enabled     bool
	includeUser bool
}

// NewAuditLogger creates an audit logger. A nil logger uses slog.Default().
func NewAuditLogger(logger *slog.Logger, config AuditConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:      logger.With(slog.String("component", "audit")),
		enabled:     config.Enabled,
		includeUser: config.IncludeUser,
	}
}

// LogToolInvocation writes ti at info level on success and warn on failure.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}
	attrs := ti.LogAttrs(al.includeUser)
	if ti.Success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "tool_executed", attrs...)
		return
	}
	al.logger.LogAttrs(context.Background(), slog.LevelWarn, "tool_failed", attrs...)
}
