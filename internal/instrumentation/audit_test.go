package instrumentation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/teemow/ticktick-mcp/internal/logging"
)

const (
	testUser    = "jane@example.com"
	testToolGet = "get_tasks"
)

func TestToolInvocation_Complete(t *testing.T) {
	ti := NewToolInvocation(testToolGet)
	if ti.StartTime.IsZero() {
		t.Fatal("StartTime should be set")
	}

	ti.Complete(true, nil)
	if !ti.Success || ti.Error != "" || ti.Status() != StatusSuccess {
		t.Errorf("unexpected success state: %+v", ti)
	}
	if ti.Duration < 0 {
		t.Error("Duration should not be negative")
	}

	ti = NewToolInvocation("delete_task").Complete(false, errors.New("ticktick delete task failed: 404"))
	if ti.Success || ti.Status() != StatusError {
		t.Error("expected failure state")
	}
	if !strings.Contains(ti.Error, "404") {
		t.Errorf("Error = %q", ti.Error)
	}
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation("complete_task").
		WithUser(testUser, "password").
		WithTarget("p1", "t1").
		WithReadOnly(false)
	ti.TraceID = "abc"
	ti.Complete(true, nil)

	toMap := func(attrs []slog.Attr) map[string]string {
		m := make(map[string]string, len(attrs))
		for _, a := range attrs {
			m[a.Key] = a.Value.String()
		}
		return m
	}

	hashed := toMap(ti.LogAttrs(false))
	if _, ok := hashed["user"]; ok {
		t.Error("username must not be logged in clear text by default")
	}
	if hashed[logging.KeyUserHash] != logging.AnonymizeUser(testUser) {
		t.Errorf("user_hash = %q", hashed[logging.KeyUserHash])
	}
	if hashed[logging.KeyProject] != "p1" || hashed[logging.KeyTask] != "t1" {
		t.Errorf("missing target attributes: %v", hashed)
	}
	if hashed[logging.KeyAuthMode] != "password" {
		t.Errorf("auth_mode = %q", hashed[logging.KeyAuthMode])
	}
	if hashed["trace_id"] != "abc" {
		t.Errorf("trace_id = %q", hashed["trace_id"])
	}

	plain := toMap(ti.LogAttrs(true))
	if plain["user"] != testUser {
		t.Errorf("user = %q, want %q", plain["user"], testUser)
	}
}

func TestToolInvocation_TokenModeHasNoUser(t *testing.T) {
	ti := NewToolInvocation(testToolGet).WithUser("", "token").Complete(true, nil)
	for _, a := range ti.LogAttrs(false) {
		if a.Key == logging.KeyUserHash || a.Key == "user" {
			t.Errorf("unexpected user attribute %q", a.Key)
		}
	}
}

func TestToolInvocation_WithSpanContext(t *testing.T) {
	withRecorder(t)
	ctx, span := StartToolSpan(context.Background(), testToolGet)
	defer span.End()

	ti := NewToolInvocation(testToolGet).WithSpanContext(ctx)
	if ti.TraceID == "" || ti.SpanID == "" {
		t.Error("expected trace context to be captured")
	}
}

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	al := NewAuditLogger(logger, AuditConfig{Enabled: true})
	al.LogToolInvocation(NewToolInvocation(testToolGet).WithUser(testUser, "password").Complete(true, nil))
	al.LogToolInvocation(NewToolInvocation("create_task").Complete(false, errors.New("title is required")))

	out := buf.String()
	if !strings.Contains(out, "tool_executed") || !strings.Contains(out, "tool_failed") {
		t.Errorf("missing audit messages in %q", out)
	}
	if strings.Contains(out, testUser) {
		t.Error("username leaked into audit log")
	}
	if !strings.Contains(out, "component=audit") {
		t.Error("missing component attribute")
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)), AuditConfig{Enabled: false})
	al.LogToolInvocation(NewToolInvocation(testToolGet).Complete(true, nil))
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}

	var nilLogger *AuditLogger
	nilLogger.LogToolInvocation(NewToolInvocation(testToolGet))
}
