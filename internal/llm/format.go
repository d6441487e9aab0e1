package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/chris/agenda/internal/db"
	"github.com/chris/agenda/internal/timeutil"
)

const (
	noTasks  = "No pending tasks."
	noEvents = "No scheduled events."
)

// TaskLine renders one task for the prompt, e.g.
// "[3] !!!Essay (due Thu Jan 18 at 11:59pm) - pending".
func TaskLine(t db.Task, loc *time.Location) string {
	var marker string
	switch t.Priority {
	case db.PriorityHigh:
		marker = "!!!"
	case db.PriorityLow:
		marker = "(low)"
	}
	var due string
	if t.Deadline != nil {
		due = " (due " + timeutil.Display(*t.Deadline, loc) + ")"
	}
	return fmt.Sprintf("[%d] %s%s%s - %s", t.ID, marker, t.Title, due, t.Status)
}

// EventLine renders one event for the prompt, e.g.
// "[7] Dentist - Thu Jan 18 at 2pm - 3pm at Main St". Calendar events carry
// their calendar id and a [gcal] tag.
func EventLine(e db.Event, loc *time.Location) string {
	id := fmt.Sprint(e.ID)
	if e.Source() == db.SourceCalendar {
		id = e.ExternalID
	}
	when := timeutil.Display(e.StartTime, loc)
	if when != "" && e.EndTime != nil {
		when += " - " + timeutil.Clock(e.EndTime.In(loc))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s - %s", id, e.Title, when)
	if e.Location != "" {
		b.WriteString(" at " + e.Location)
	}
	if e.Source() == db.SourceCalendar {
		b.WriteString(" [gcal]")
	}
	return b.String()
}

func TaskLines(tasks []db.Task, loc *time.Location) []string {
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = TaskLine(t, loc)
	}
	return lines
}

func EventLines(events []db.Event, loc *time.Location) []string {
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = EventLine(e, loc)
	}
	return lines
}

// FormatTasks joins task lines, or says there are none.
func FormatTasks(tasks []db.Task, loc *time.Location) string {
	if len(tasks) == 0 {
		return noTasks
	}
	return strings.Join(TaskLines(tasks, loc), "\n")
}

// FormatEvents joins event lines, or says there are none.
func FormatEvents(events []db.Event, loc *time.Location) string {
	if len(events) == 0 {
		return noEvents
	}
	return strings.Join(EventLines(events, loc), "\n")
}
