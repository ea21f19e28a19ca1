package instrumentation

import "strings"

// Helpers that keep label and span name values bounded. Project and task
// IDs are unbounded, so they never end up in a metric label unless detailed
// labels are enabled explicitly.

// SpanName turns a human readable operation ("list project tasks") into a
// span name segment ("list_project_tasks").
func SpanName(operation string) string {
	return strings.Join(strings.Fields(strings.ToLower(operation)), "_")
}

// routeKeywords are the fixed path segments of the Open API. Any other
// segment is an identifier.
var routeKeywords = map[string]bool{
	"open":     true,
	"v1":       true,
	"project":  true,
	"task":     true,
	"data":     true,
	"complete": true,
	"inbox":    true,
}

// RoutePattern replaces identifiers in an API path with "{id}" and drops the
// query string, e.g. "/project/6123/task/abc" becomes "/project/{id}/task/{id}".
func RoutePattern(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s == "" || routeKeywords[s] {
			continue
		}
		segments[i] = "{id}"
	}
	return strings.Join(segments, "/")
}
