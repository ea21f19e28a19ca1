// Package ticktick is a client for the TickTick (and Dida365) Open API.
//
// It covers the three pieces every call goes through:
//
//   - ResolveCredentials picks the authentication mode from configuration.
//   - Session establishes the bearer credential once and caches it for the
//     process lifetime, performing an OAuth2 password grant when only a
//     username and password are configured.
//   - Client issues the project and task calls and maps failures onto the
//     typed errors in errors.go.
//
// # Error Kinds
//
// ConfigurationError and AuthenticationError are fatal for a tool invocation
// (see IsFatal). RemoteError carries the failing operation together with the
// HTTP status and response body. ValidationError is produced by the tool layer
// for missing arguments.
//
// # Inbox
//
// The inbox is not always part of the project list. ListInboxTasks queries it
// explicitly, trying two routes, and never fails for remote errors: an
// unavailable inbox is reported through InboxResult.Warning instead.
package ticktick
