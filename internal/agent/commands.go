package agent

import (
	"context"
	"log"
	"strings"
)

const welcomeText = `Hey! I'm your personal task and calendar assistant.

You can text me naturally to:
- Add tasks: "finish essay by friday"
- Add events: "coffee with Jake tomorrow 3pm"
- Check schedule: "what do I have today"
- Mark complete: "done with the essay"
- Delete/modify: "cancel the meeting" or "move it to 4pm"

Commands:
/today - Today's briefing
/week - Week overview
/tasks - Pending tasks
/help - This message`

const helpText = `Task & Calendar Assistant

Natural language examples:
- "add task: finish homework by Friday"
- "meeting with advisor tomorrow 2pm"
- "what's due this week"
- "mark math pset as done"
- "cancel the dinner on Saturday"
- "move the meeting to 3pm"

Commands:
/today - Today's schedule and tasks
/week - Week overview
/tasks - All pending tasks
/help - Show this help`

// ParseCommand splits "/today@mybot extra" into "today". It returns false
// for text that is not a command.
func ParseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.Fields(text[1:])
	if len(name) == 0 {
		return "", false
	}
	cmd, _, _ := strings.Cut(name[0], "@")
	return strings.ToLower(cmd), cmd != ""
}

// HandleCommand answers a slash command. Unauthorized users get the refusal
// on /start and silence otherwise.
func (a *Agent) HandleCommand(ctx context.Context, userID, cmd string) string {
	if !a.IsAuthorized(userID) {
		if cmd == "start" {
			return msgUnauthorized
		}
		return ""
	}

	var (
		reply string
		err   error
	)
	switch cmd {
	case "start":
		reply = welcomeText
	case "help":
		reply = helpText
	case "today":
		reply, err = a.TodayBriefing(ctx)
	case "week":
		reply, err = a.WeekOverview(ctx)
	case "tasks":
		reply, err = a.PendingTasks()
	default:
		reply = "Unknown command. Try /help."
	}
	if err != nil {
		log.Printf("agent: /%s: %v", cmd, err)
		return msgFailure
	}
	return reply
}

// Respond routes one inbound text: slash commands to HandleCommand, anything
// else to HandleMessage.
func (a *Agent) Respond(ctx context.Context, userID, text string) string {
	if cmd, ok := ParseCommand(text); ok {
		return a.HandleCommand(ctx, userID, cmd)
	}
	return a.HandleMessage(ctx, userID, text)
}
