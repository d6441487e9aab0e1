package db

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority accepts low, medium or high in any case.
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return "", false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Source records where an event came from.
type Source string

const (
	SourceBot      Source = "bot"
	SourceCalendar Source = "calendar"
)

type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type Event struct {
	ID          int64      `json:"id,omitempty"`
	ExternalID  string     `json:"external_id,omitempty"` // calendar-side id of an imported event
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Location    string     `json:"location,omitempty"`
	CreatedAt   time.Time  `json:"created_at,omitempty"`

	source Source
}

// ImportedEvent builds a transient event read from an external calendar.
// Imported events are never written to the store.
func ImportedEvent(externalID, title string, start time.Time) Event {
	return Event{ExternalID: externalID, Title: title, StartTime: start, source: SourceCalendar}
}

// Source reports the event's provenance. The zero Event is bot-created.
func (e Event) Source() Source {
	if e.source == "" {
		return SourceBot
	}
	return e.source
}

// Turn is one audited exchange of the conversation log.
type Turn struct {
	ID          int64     `json:"id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
}

// Ref identifies a record by id, or failing that by a free-text title.
type Ref struct {
	ID    int64
	Title string
}

func (r Ref) empty() bool {
	return r.ID <= 0 && strings.TrimSpace(r.Title) == ""
}
