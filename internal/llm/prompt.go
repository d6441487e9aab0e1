package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/chris/agenda/internal/action"
	"github.com/chris/agenda/internal/db"
	"github.com/chris/agenda/internal/timeutil"
)

// PromptContext is everything the classifier sees besides the message itself.
type PromptContext struct {
	Now       time.Time
	Location  *time.Location
	Tasks     []db.Task  // pending
	Events    []db.Event // bot-created, this week
	Calendar  []db.Event // external calendar, next 7 days
	Recent    []db.Turn  // oldest first
	MaxTokens int        // budget for the context lists; 0 means unlimited
}

const promptHeader = `You are a personal task and calendar assistant. You communicate through short text messages.`

const promptCapabilities = `## Your Capabilities
1. ADD_TASK: Create a new task with a deadline
2. ADD_EVENT: Create a new event with a specific time
3. COMPLETE_TASK: Mark a task as done
4. DELETE_TASK: Remove a task
5. DELETE_EVENT: Remove an event
6. MODIFY_TASK: Change task details (deadline, title, priority)
7. MODIFY_EVENT: Change event details (time, title, location)
8. QUERY: Answer questions about schedule/tasks

## Response Format
IMPORTANT: Always respond with valid JSON only. No text before or after the JSON.

{
  "action": %s,
  "params": { ... action-specific parameters ... },
  "message": "Conversational response to send to user"
}

## Action Parameter Schemas

ADD_TASK:
{"title": "task title", "deadline": "ISO 8601 datetime", "priority": "low" | "medium" | "high", "description": "optional"}

ADD_EVENT:
{"title": "event title", "start_time": "ISO 8601 datetime", "end_time": "optional ISO 8601 datetime", "location": "optional", "description": "optional"}

COMPLETE_TASK:
{"task_id": number or null, "task_title": "title to fuzzy match if no ID"}

DELETE_TASK:
{"id": number or null, "title": "title to fuzzy match if no ID"}

DELETE_EVENT:
{"id": number or null, "title": "title to fuzzy match if no ID"}

MODIFY_TASK:
{"task_id": number or null, "task_title": "title to match if no ID", "new_title": "optional", "new_deadline": "optional ISO datetime", "new_priority": "optional"}

MODIFY_EVENT:
{"event_id": number or null, "event_title": "title to match if no ID", "new_title": "optional", "new_start_time": "optional ISO datetime", "new_end_time": "optional ISO datetime", "new_location": "optional"}

QUERY (for informational responses):
{}

## Style Guidelines
- Keep responses concise, this is texting
- Be conversational, not robotic
- Confirm actions clearly
- When listing items, keep it scannable but not overly formatted
- Proactively mention upcoming deadlines when relevant
- For today queries, include both calendar events and due tasks
- Use minimal emoji (a checkmark for confirmations is fine)

## Important Notes
- When the user refers to times like "tomorrow", "Friday" or "next week", calculate the ISO datetime from the current time above
- Default task deadline time is 11:59pm if no specific time given
- Default event duration is 1 hour if no end time specified
- Events tagged [gcal] live in the external calendar and cannot be changed here
- If input is ambiguous and you find multiple matches, ask for clarification in your message and use QUERY
- If no matching task/event is found, explain this in your message and use QUERY`

// BuildSystemPrompt renders the classifier's system prompt for pc.
func BuildSystemPrompt(pc PromptContext) string {
	loc := pc.Location
	if loc == nil {
		loc = time.UTC
	}

	sections := TrimSections([]Section{
		{Title: "Google Calendar Events (Next 7 Days)", Lines: EventLines(pc.Calendar, loc), Empty: noEvents},
		{Title: "Bot Events (This Week)", Lines: EventLines(pc.Events, loc), Empty: noEvents},
		{Title: "Pending Tasks from Database", Lines: TaskLines(pc.Tasks, loc), Empty: noTasks},
		{Title: "Recent Conversation", Lines: turnLines(pc.Recent), Empty: "No earlier messages.", KeepTail: true},
	}, pc.MaxTokens)

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n## Current Context\n")
	fmt.Fprintf(&b, "- Current date/time: %s (%s)\n", timeutil.Display(pc.Now, loc), timeutil.FormatISO(pc.Now.In(loc)))
	fmt.Fprintf(&b, "- User timezone: %s\n", loc.String())
	for _, s := range sections {
		fmt.Fprintf(&b, "\n## %s\n", s.Title)
		if len(s.Lines) == 0 {
			b.WriteString(s.Empty + "\n")
			continue
		}
		b.WriteString(strings.Join(s.Lines, "\n") + "\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, promptCapabilities, kindChoices())
	return b.String()
}

func kindChoices() string {
	quoted := make([]string, len(action.Kinds))
	for i, k := range action.Kinds {
		quoted[i] = `"` + string(k) + `"`
	}
	return strings.Join(quoted, " | ")
}

func turnLines(turns []db.Turn) []string {
	lines := make([]string, 0, 2*len(turns))
	for _, t := range turns {
		lines = append(lines, "User: "+oneLine(t.UserMessage), "You: "+oneLine(t.BotResponse))
	}
	return lines
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
