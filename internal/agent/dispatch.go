package agent

import (
	"fmt"
	"log"

	"github.com/chris/agenda/internal/action"
	"github.com/chris/agenda/internal/db"
	"github.com/chris/agenda/internal/llm"
)

// Fallback replies when a referenced record cannot be resolved or changed.
// They replace the classifier's message.
const (
	msgCompleteNotFound = "Couldn't find that task to mark complete. Can you be more specific?"
	msgDeleteTaskNF     = "Couldn't find that task to delete. Can you be more specific?"
	msgDeleteEventNF    = "Couldn't find that event to delete. Can you be more specific?"
	msgModifyTaskNF     = "Couldn't find that task to modify. Can you be more specific?"
	msgModifyTaskFailed = "Couldn't update that task. Can you try again?"
	msgModifyEventNF    = "Couldn't find that event to modify. Can you be more specific?"
	msgModifyEventFail  = "Couldn't update that event. Can you try again?"

	defaultTaskTitle  = "Untitled task"
	defaultEventTitle = "Untitled event"
)

// Dispatch executes a classified action against the store and returns the
// reply for the user. Faults never escape: errors and panics both become
// a generic retry message.
func (a *Agent) Dispatch(c llm.Classification) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatch %s: panic: %v", kindOf(c.Action), r)
			reply = msgFailure
		}
	}()

	out, err := a.dispatch(c.Action, c.Message)
	if err != nil {
		log.Printf("dispatch %s: %v", kindOf(c.Action), err)
		return msgFailure
	}
	return out
}

func (a *Agent) dispatch(act action.Action, message string) (string, error) {
	switch act := act.(type) {
	case action.AddTask:
		title := orDefault(act.Title, defaultTaskTitle)
		priority := act.Priority
		if priority == "" {
			priority = db.PriorityMedium
		}
		id, err := a.db.AddTask(title, act.Deadline, priority, act.Description)
		if err != nil {
			return "", err
		}
		log.Printf("dispatch: added task %d: %s", id, title)

	case action.AddEvent:
		title := orDefault(act.Title, defaultEventTitle)
		id, err := a.db.AddEvent(title, act.Start, act.End, act.Location, act.Description)
		if err != nil {
			return "", err
		}
		log.Printf("dispatch: added event %d: %s", id, title)

	case action.CompleteTask:
		ok, err := a.db.CompleteTask(act.Target)
		if err != nil {
			return "", err
		}
		if !ok {
			return msgCompleteNotFound, nil
		}

	case action.DeleteTask:
		ok, err := a.db.DeleteTask(act.Target)
		if err != nil {
			return "", err
		}
		if !ok {
			return msgDeleteTaskNF, nil
		}

	case action.DeleteEvent:
		ok, err := a.db.DeleteEvent(act.Target)
		if err != nil {
			return "", err
		}
		if !ok {
			return msgDeleteEventNF, nil
		}

	case action.ModifyTask:
		id, err := a.resolveTask(act.Target)
		if err != nil {
			return "", err
		}
		if id <= 0 {
			return msgModifyTaskNF, nil
		}
		// An empty update still reports the classifier's message.
		if u := act.Update(); !u.Empty() {
			ok, err := a.db.UpdateTask(id, u)
			if err != nil {
				return "", err
			}
			if !ok {
				return msgModifyTaskFailed, nil
			}
		}

	case action.ModifyEvent:
		id, err := a.resolveEvent(act.Target)
		if err != nil {
			return "", err
		}
		if id <= 0 {
			return msgModifyEventNF, nil
		}
		if u := act.Update(); !u.Empty() {
			ok, err := a.db.UpdateEvent(id, u)
			if err != nil {
				return "", err
			}
			if !ok {
				return msgModifyEventFail, nil
			}
		}

	case action.Query, nil:

	default:
		return "", fmt.Errorf("unhandled action %T", act)
	}
	return message, nil
}

func (a *Agent) resolveTask(ref db.Ref) (int64, error) {
	if ref.ID > 0 {
		return ref.ID, nil
	}
	if ref.Title == "" {
		return 0, nil
	}
	t, err := a.db.FuzzyMatchTask(ref.Title)
	if err != nil || t == nil {
		return 0, err
	}
	return t.ID, nil
}

func (a *Agent) resolveEvent(ref db.Ref) (int64, error) {
	if ref.ID > 0 {
		return ref.ID, nil
	}
	if ref.Title == "" {
		return 0, nil
	}
	e, err := a.db.FuzzyMatchEvent(ref.Title)
	if err != nil || e == nil {
		return 0, err
	}
	return e.ID, nil
}

func kindOf(act action.Action) action.Kind {
	if act == nil {
		return action.KindQuery
	}
	return act.Kind()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
