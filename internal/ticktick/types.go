package ticktick

import (
	"fmt"
	"strings"
	"time"
)

// Priority levels understood by TickTick. Any other integer is custom.
const (
	PriorityNone   = 0
	PriorityLow    = 1
	PriorityMedium = 3
	PriorityHigh   = 5
)

// InboxProjectID is the pseudo project identifier for the inbox.
const InboxProjectID = "inbox"

// Task is a TickTick task as returned by the Open API.
// Timestamps are kept as the remote strings and parsed on demand with ParseTime.
type Task struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"projectId"`
	Title         string          `json:"title"`
	Content       string          `json:"content,omitempty"`
	Desc          string          `json:"desc,omitempty"`
	IsAllDay      bool            `json:"isAllDay"`
	StartDate     string          `json:"startDate,omitempty"`
	DueDate       string          `json:"dueDate,omitempty"`
	CompletedTime string          `json:"completedTime,omitempty"`
	TimeZone      string          `json:"timeZone,omitempty"`
	Priority      int             `json:"priority"`
	Tags          []string        `json:"tags,omitempty"`
	Items         []ChecklistItem `json:"items,omitempty"`
	Status        int             `json:"status"`
	SortOrder     int64           `json:"sortOrder,omitempty"`
	Reminders     []string        `json:"reminders,omitempty"`
	RepeatFlag    string          `json:"repeatFlag,omitempty"`
	ParentID      string          `json:"parentId,omitempty"`
	Kind          string          `json:"kind,omitempty"`
	Etag          string          `json:"etag,omitempty"`
}

// Completed reports whether the task carries a completion timestamp.
func (t Task) Completed() bool {
	return t.CompletedTime != ""
}

// ChecklistItem is a sub item of a checklist task.
type ChecklistItem struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Status        int    `json:"status"`
	CompletedTime string `json:"completedTime,omitempty"`
	IsAllDay      bool   `json:"isAllDay,omitempty"`
	SortOrder     int64  `json:"sortOrder,omitempty"`
	StartDate     string `json:"startDate,omitempty"`
	TimeZone      string `json:"timeZone,omitempty"`
}

// Project is a TickTick project (list). Presentation fields are passed through.
type Project struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	SortOrder  int64  `json:"sortOrder,omitempty"`
	Closed     bool   `json:"closed,omitempty"`
	Muted      bool   `json:"muted,omitempty"`
	GroupID    string `json:"groupId,omitempty"`
	ViewMode   string `json:"viewMode,omitempty"`
	Permission string `json:"permission,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

// projectData is the payload of GET /project/{id}/data.
type projectData struct {
	Project *Project `json:"project,omitempty"`
	Tasks   []Task   `json:"tasks"`
}

// TaskInput is a partial task used for create and update calls.
// Nil fields are omitted from the request body.
type TaskInput struct {
	ID        string   `json:"id,omitempty"`
	ProjectID string   `json:"projectId,omitempty"`
	Title     *string  `json:"title,omitempty"`
	Content   *string  `json:"content,omitempty"`
	Desc      *string  `json:"desc,omitempty"`
	IsAllDay  *bool    `json:"isAllDay,omitempty"`
	StartDate *string  `json:"startDate,omitempty"`
	DueDate   *string  `json:"dueDate,omitempty"`
	TimeZone  *string  `json:"timeZone,omitempty"`
	Priority  *int     `json:"priority,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// timeLayouts lists the due date formats seen from the Open API and from
// callers, most specific first.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

// ParseTime parses a TickTick timestamp.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatTime renders t in the layout the Open API expects for dueDate/startDate.
func FormatTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000-0700")
}
