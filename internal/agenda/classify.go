package agenda

import (
	"time"

	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// DefaultTimezoneOffsetHours is the offset assumed by get_overdue_tasks when
// the caller does not pass one.
const DefaultTimezoneOffsetHours = 8

// DayShift is added to every due date before classification. Stored due
// dates from the service lag the user's calendar day by one.
const DayShift = 24 * time.Hour

const dateLayout = "2006-01-02"

// adjustedDue returns the shifted due date, or false when the task is
// completed, has no due date or the due date cannot be parsed.
func adjustedDue(task ticktick.Task) (time.Time, bool) {
	if task.Completed() || task.DueDate == "" {
		return time.Time{}, false
	}
	due, err := ticktick.ParseTime(task.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return due.Add(DayShift), true
}

func utcDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// IsDueToday reports whether the shifted due date falls on the same UTC
// calendar day as ref. All-day and timed tasks are treated alike.
func IsDueToday(task ticktick.Task, ref time.Time) bool {
	due, ok := adjustedDue(task)
	if !ok {
		return false
	}
	return utcDate(due) == utcDate(ref)
}

// IsOverdue reports whether the shifted due date lies before ref. All-day
// tasks compare UTC calendar days, timed tasks compare instants.
//
// offsetHours is accepted for callers that pass the user's timezone but it
// does not take part in either comparison.
func IsOverdue(task ticktick.Task, ref time.Time, offsetHours int) bool {
	due, ok := adjustedDue(task)
	if !ok {
		return false
	}
	if task.IsAllDay {
		// YYYY-MM-DD strings order like the dates they denote.
		return utcDate(due) < utcDate(ref)
	}
	return due.Before(ref)
}

// FilterDueToday returns the tasks due on ref's day, preserving order.
func FilterDueToday(tasks []ticktick.Task, ref time.Time) []ticktick.Task {
	out := make([]ticktick.Task, 0, len(tasks))
	for _, t := range tasks {
		if IsDueToday(t, ref) {
			out = append(out, t)
		}
	}
	return out
}

// FilterOverdue returns the tasks overdue at ref, preserving order.
func FilterOverdue(tasks []ticktick.Task, ref time.Time, offsetHours int) []ticktick.Task {
	out := make([]ticktick.Task, 0, len(tasks))
	for _, t := range tasks {
		if IsOverdue(t, ref, offsetHours) {
			out = append(out, t)
		}
	}
	return out
}
