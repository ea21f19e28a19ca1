package agenda

import (
	"fmt"

	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// DisplayTask is a task prepared for presentation.
type DisplayTask struct {
	ticktick.Task
	PriorityText string `json:"priorityText"`
}

// PriorityText maps a numeric priority to its label.
func PriorityText(priority int) string {
	switch priority {
	case ticktick.PriorityNone:
		return "None"
	case ticktick.PriorityLow:
		return "Low"
	case ticktick.PriorityMedium:
		return "Medium"
	case ticktick.PriorityHigh:
		return "High"
	default:
		return fmt.Sprintf("Custom (%d)", priority)
	}
}

// Display adds the priority label to a copy of task.
func Display(task ticktick.Task) DisplayTask {
	return DisplayTask{Task: task, PriorityText: PriorityText(task.Priority)}
}

// DisplayAll applies Display to every task. The result is never nil.
func DisplayAll(tasks []ticktick.Task) []DisplayTask {
	out := make([]DisplayTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Display(t))
	}
	return out
}
