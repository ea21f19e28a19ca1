package logging

import (
	"fmt"
	"io"
	"log/slog"
)

// MCPLogger adapts an slog.Logger to the printf-style logger interface the
// mcp-go HTTP transport accepts (Infof/Errorf).
type MCPLogger struct {
	logger *slog.Logger
}

// NewMCPLogger wraps logger. A nil logger uses slog.Default().
func NewMCPLogger(logger *slog.Logger) *MCPLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &MCPLogger{logger: logger.With(slog.String("component", "mcp"))}
}

// Infof logs a formatted message at info level.
func (a *MCPLogger) Infof(format string, v ...any) {
	a.logger.Info(fmt.Sprintf(format, v...))
}

// Errorf logs a formatted message at error level.
func (a *MCPLogger) Errorf(format string, v ...any) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

// Logger returns the wrapped slog.Logger.
func (a *MCPLogger) Logger() *slog.Logger {
	return a.logger
}

// NewLogger builds the process logger writing to w. The commands pass
// stderr; stdout belongs to the stdio transport.
func NewLogger(w io.Writer, debug, json bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
