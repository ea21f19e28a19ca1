// Package cmd implements the command-line interface for ticktick-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server (default when no subcommand is given)
//   - agenda: Print today's and overdue tasks to the terminal
//   - auth login: Obtain an access token through the OAuth authorization code flow
//   - auth refresh: Exchange the configured refresh token for a new access token
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
