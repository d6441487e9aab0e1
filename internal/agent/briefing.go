package agent

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/chris/agenda/internal/calendar"
	"github.com/chris/agenda/internal/db"
	"github.com/chris/agenda/internal/llm"
	"github.com/chris/agenda/internal/timeutil"
)

// comingUpLimit caps the "Coming up" list of the daily briefing.
const comingUpLimit = 3

// TodayBriefing summarizes today's events, the tasks due by tonight and a
// few other pending tasks.
func (a *Agent) TodayBriefing(ctx context.Context) (string, error) {
	now := a.now().In(a.loc)
	start, end := timeutil.DayRange(now, a.loc)

	events, err := a.eventsBetween(start, end, func() ([]db.Event, error) {
		return calendar.TodayEvents(ctx, a.calendar, now, a.loc)
	})
	if err != nil {
		return "", err
	}
	due, err := a.db.ListTasksDueBy(end)
	if err != nil {
		return "", fmt.Errorf("listing tasks due today: %w", err)
	}
	pending, err := a.db.ListPendingTasks()
	if err != nil {
		return "", fmt.Errorf("listing pending tasks: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today (%s):\n\n", now.Format("Monday Jan 2"))

	if len(events) == 0 {
		b.WriteString("No events scheduled today.\n")
	}
	for _, e := range events {
		fmt.Fprintf(&b, "📅 %s\n", a.eventSummary(e))
	}
	b.WriteString("\n")

	if len(due) == 0 {
		b.WriteString("No tasks due today.\n")
	} else {
		b.WriteString("📋 Due today:\n")
		for _, t := range due {
			fmt.Fprintf(&b, "  - %s (by %s)\n", t.Title, timeutil.Display(*t.Deadline, a.loc))
		}
	}

	dueIDs := make(map[int64]bool, len(due))
	for _, t := range due {
		dueIDs[t.ID] = true
	}
	var upcoming []db.Task
	for _, t := range pending {
		if !dueIDs[t.ID] {
			upcoming = append(upcoming, t)
		}
		if len(upcoming) == comingUpLimit {
			break
		}
	}
	if len(upcoming) > 0 {
		b.WriteString("\n⚠️ Coming up:\n")
		for _, t := range upcoming {
			fmt.Fprintf(&b, "  - %s (%s)\n", t.Title, a.deadlineSummary(t, now))
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// WeekOverview lists this week's events and the tasks due by Sunday night.
func (a *Agent) WeekOverview(ctx context.Context) (string, error) {
	now := a.now().In(a.loc)
	start, end := timeutil.WeekRange(now, a.loc)

	events, err := a.eventsBetween(start, end, func() ([]db.Event, error) {
		return a.calendar.ListEvents(ctx, start, end)
	})
	if err != nil {
		return "", err
	}
	due, err := a.db.ListTasksDueBy(end)
	if err != nil {
		return "", fmt.Errorf("listing tasks due this week: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This week (%s - %s):\n\n", start.Format("Jan 2"), end.Format("Jan 2"))

	if len(events) == 0 {
		b.WriteString("No events this week.\n")
	} else {
		b.WriteString("Events:\n")
		for _, e := range events {
			fmt.Fprintf(&b, "  📅 %s - %s\n", e.Title, timeutil.Display(e.StartTime, a.loc))
		}
	}
	b.WriteString("\n")

	if len(due) == 0 {
		b.WriteString("No tasks due this week.")
	} else {
		b.WriteString("Tasks due:\n")
		for _, t := range due {
			fmt.Fprintf(&b, "  📋 %s (%s)\n", t.Title, timeutil.Display(*t.Deadline, a.loc))
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// PendingTasks lists every pending task in prompt form.
func (a *Agent) PendingTasks() (string, error) {
	tasks, err := a.db.ListPendingTasks()
	if err != nil {
		return "", fmt.Errorf("listing pending tasks: %w", err)
	}
	if len(tasks) == 0 {
		return "No pending tasks!", nil
	}
	return "Pending tasks:\n\n" + llm.FormatTasks(tasks, a.loc), nil
}

// eventsBetween merges bot events in [start, end] with the calendar events
// returned by external, ordered by start. external is only called when a
// calendar is configured; its faults are logged.
func (a *Agent) eventsBetween(start, end time.Time, external func() ([]db.Event, error)) ([]db.Event, error) {
	events, err := a.db.ListEventsBetween(start, end)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	if a.calendarReady() {
		ext, err := external()
		if err != nil {
			log.Printf("agent: reading calendar: %v", err)
		}
		events = append(ext, events...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events, nil
}

func (a *Agent) eventSummary(e db.Event) string {
	s := e.Title + " - " + timeutil.Display(e.StartTime, a.loc)
	if e.Location != "" {
		s += " at " + e.Location
	}
	if e.Source() == db.SourceCalendar {
		s += " [gcal]"
	}
	return s
}

func (a *Agent) deadlineSummary(t db.Task, now time.Time) string {
	if t.Deadline == nil {
		return "no deadline"
	}
	return timeutil.Display(*t.Deadline, a.loc) + ", " + humanize.RelTime(*t.Deadline, now, "ago", "from now")
}
