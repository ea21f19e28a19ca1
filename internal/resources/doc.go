// Package resources provides read-only MCP resources describing the TickTick
// connection: the session state and the project list.
package resources
