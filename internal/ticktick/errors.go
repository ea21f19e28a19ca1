package ticktick

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports that no usable credential is configured.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return "ticktick: no usable credentials configured"
	}
	return "ticktick: " + e.Reason
}

// AuthenticationError reports a credential exchange rejected by the remote
// service. StatusCode is zero when the exchange failed at the transport level,
// in which case Message carries the transport error.
type AuthenticationError struct {
	StatusCode int
	Status     string
	Body       string
	Message    string
}

func (e *AuthenticationError) Error() string {
	var sb strings.Builder
	sb.WriteString("ticktick: authentication failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": %s", statusLine(e.StatusCode, e.Status))
	}
	if e.Body != "" {
		fmt.Fprintf(&sb, ": %s", e.Body)
	}
	if e.Message != "" {
		fmt.Fprintf(&sb, ": %s", e.Message)
	}
	return sb.String()
}

// RemoteError reports a failed call against the TickTick API.
// Op names the gateway operation that failed.
type RemoteError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ticktick %s failed", e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": %s", statusLine(e.StatusCode, e.Status))
	}
	if e.Body != "" {
		fmt.Fprintf(&sb, ": %s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the remote service answered 404.
func (e *RemoteError) NotFound() bool {
	return e.StatusCode == 404
}

// ValidationError reports a missing or malformed tool argument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// IsFatal reports whether err must abort the whole invocation rather than
// degrade to a partial result. Cancellation and deadline errors are fatal.
func IsFatal(err error) bool {
	var cfgErr *ConfigurationError
	var authErr *AuthenticationError
	return errors.As(err, &cfgErr) || errors.As(err, &authErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func statusLine(code int, status string) string {
	if status != "" {
		return status
	}
	return fmt.Sprintf("%d", code)
}
