package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/ticktick-mcp/internal/agenda"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

func displayTasks(tasks ...ticktick.Task) []agenda.DisplayTask {
	return agenda.DisplayAll(tasks)
}

func TestRenderAgenda(t *testing.T) {
	today := displayTasks(
		ticktick.Task{ID: "1", Title: "Pay rent", Priority: ticktick.PriorityHigh, DueDate: "2024-01-09T16:00:00.000+0000"},
		ticktick.Task{ID: "2", Title: "Call mom"},
	)
	overdue := displayTasks(
		ticktick.Task{ID: "3", Title: "File taxes", Priority: ticktick.PriorityLow},
	)

	t.Run("with failures", func(t *testing.T) {
		failures := []agenda.Failure{
			{Source: agenda.SourceProject, ProjectID: "p1", Err: errors.New("boom")},
		}

		var out bytes.Buffer
		require.NoError(t, renderAgenda(&out, today, overdue, failures))

		s := out.String()
		assert.Contains(t, s, "Today (2)")
		assert.Contains(t, s, "- Pay rent")
		assert.Contains(t, s, "[High]")
		assert.Contains(t, s, "due 2024-01-09T16:00:00.000+0000")
		assert.Contains(t, s, "Overdue (1)")
		assert.Contains(t, s, "[Low]")
		assert.Contains(t, s, "Skipped 1 source(s):")
		assert.Contains(t, s, "project p1: boom")
		assert.NotContains(t, s, "[None]")
	})

	t.Run("empty", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, renderAgenda(&out, nil, nil, nil))

		s := out.String()
		assert.Contains(t, s, "Today (0)")
		assert.Contains(t, s, "Overdue (0)")
		assert.Contains(t, s, "nothing")
		assert.NotContains(t, s, "Skipped")
	})
}

func TestWriteAgendaJSON(t *testing.T) {
	today := displayTasks(ticktick.Task{ID: "1", Title: "Pay rent", Priority: 7})
	failures := []agenda.Failure{{Source: "inbox", Err: errors.New("unavailable")}}

	var out bytes.Buffer
	require.NoError(t, writeAgendaJSON(&out, today, agenda.DisplayAll(nil), failures))

	var decoded struct {
		Today []struct {
			ID           string `json:"id"`
			PriorityText string `json:"priorityText"`
		} `json:"today"`
		Overdue []json.RawMessage `json:"overdue"`
		Skipped []string          `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))

	require.Len(t, decoded.Today, 1)
	assert.Equal(t, "Custom (7)", decoded.Today[0].PriorityText)
	assert.NotNil(t, decoded.Overdue)
	assert.Empty(t, decoded.Overdue)
	assert.Equal(t, []string{"inbox: unavailable"}, decoded.Skipped)
}
