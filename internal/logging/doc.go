// Package logging provides structured logging helpers for ticktick-mcp.
//
// All logging goes through log/slog. This package keeps attribute names
// consistent and makes sure credentials never reach the log output.
//
// # Usage Patterns
//
//	logger := logging.WithOperation(slog.Default(), "agenda.list_all_tasks")
//	logger.Warn("skipping project",
//	    logging.Project(id),
//	    logging.Err(err))
//
// Usernames are hashed with UserHash and bearer tokens are masked with
// SanitizeToken before they are logged.
package logging
