// Package action defines the classified intents the dispatcher executes.
// Each kind carries its own typed fields; the classifier adapter builds them
// straight from the model's JSON.
package action

import (
	"time"

	"github.com/chris/agenda/internal/db"
)

type Kind string

const (
	KindAddTask      Kind = "ADD_TASK"
	KindAddEvent     Kind = "ADD_EVENT"
	KindCompleteTask Kind = "COMPLETE_TASK"
	KindDeleteTask   Kind = "DELETE_TASK"
	KindDeleteEvent  Kind = "DELETE_EVENT"
	KindModifyTask   Kind = "MODIFY_TASK"
	KindModifyEvent  Kind = "MODIFY_EVENT"
	KindQuery        Kind = "QUERY"
)

// Kinds lists every action kind in prompt order.
var Kinds = []Kind{
	KindAddTask, KindAddEvent, KindCompleteTask, KindDeleteTask,
	KindDeleteEvent, KindModifyTask, KindModifyEvent, KindQuery,
}

// ParseKind maps a model-supplied kind name onto a Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Action is one classified intent.
type Action interface {
	Kind() Kind
}

type AddTask struct {
	Title       string
	Deadline    *time.Time
	Priority    db.Priority
	Description string
}

type AddEvent struct {
	Title       string
	Start       time.Time
	End         *time.Time
	Location    string
	Description string
}

type CompleteTask struct {
	Target db.Ref
}

type DeleteTask struct {
	Target db.Ref
}

type DeleteEvent struct {
	Target db.Ref
}

// ModifyTask changes only the fields that are set.
type ModifyTask struct {
	Target      db.Ref
	NewTitle    string
	NewDeadline *time.Time
	NewPriority db.Priority
}

// ModifyEvent changes only the fields that are set.
type ModifyEvent struct {
	Target      db.Ref
	NewTitle    string
	NewStart    *time.Time
	NewEnd      *time.Time
	NewLocation string
}

// Query answers without touching the store.
type Query struct{}

func (AddTask) Kind() Kind      { return KindAddTask }
func (AddEvent) Kind() Kind     { return KindAddEvent }
func (CompleteTask) Kind() Kind { return KindCompleteTask }
func (DeleteTask) Kind() Kind   { return KindDeleteTask }
func (DeleteEvent) Kind() Kind  { return KindDeleteEvent }
func (ModifyTask) Kind() Kind   { return KindModifyTask }
func (ModifyEvent) Kind() Kind  { return KindModifyEvent }
func (Query) Kind() Kind        { return KindQuery }

// Update returns the sparse store update carried by m.
func (m ModifyTask) Update() db.TaskUpdate {
	var u db.TaskUpdate
	if m.NewTitle != "" {
		u.SetTitle(m.NewTitle)
	}
	if m.NewDeadline != nil {
		u.SetDeadline(*m.NewDeadline)
	}
	if m.NewPriority != "" {
		u.SetPriority(m.NewPriority)
	}
	return u
}

// Update returns the sparse store update carried by m.
func (m ModifyEvent) Update() db.EventUpdate {
	var u db.EventUpdate
	if m.NewTitle != "" {
		u.SetTitle(m.NewTitle)
	}
	if m.NewStart != nil {
		u.SetStart(*m.NewStart)
	}
	if m.NewEnd != nil {
		u.SetEnd(*m.NewEnd)
	}
	if m.NewLocation != "" {
		u.SetLocation(m.NewLocation)
	}
	return u
}
