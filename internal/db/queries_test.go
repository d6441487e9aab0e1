package db

import (
	"errors"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

// --- Tasks ---

func TestAddAndGetTask(t *testing.T) {
	d := openTestDB(t)

	deadline := at("2024-01-18T23:59:00-06:00")
	id, err := d.AddTask("Essay", &deadline, PriorityHigh, "five pages")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	task, err := d.GetTask(id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task == nil {
		t.Fatal("expected task, got nil")
	}
	if task.Title != "Essay" || task.Description != "five pages" {
		t.Errorf("unexpected task fields: %+v", task)
	}
	if task.Priority != PriorityHigh {
		t.Errorf("expected priority high, got %q", task.Priority)
	}
	if task.Status != StatusPending {
		t.Errorf("expected status pending, got %q", task.Status)
	}
	if task.Deadline == nil || !task.Deadline.Equal(deadline) {
		t.Errorf("expected deadline %v, got %v", deadline, task.Deadline)
	}
	if task.CompletedAt != nil {
		t.Errorf("expected nil completed_at on pending task, got %v", task.CompletedAt)
	}
	if task.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestAddTask_DefaultPriority(t *testing.T) {
	d := openTestDB(t)

	id, _ := d.AddTask("Groceries", nil, "", "")
	task, _ := d.GetTask(id)
	if task.Priority != PriorityMedium {
		t.Errorf("expected medium priority, got %q", task.Priority)
	}
	if task.Deadline != nil {
		t.Errorf("expected nil deadline, got %v", task.Deadline)
	}
}

func TestGetTask_Missing(t *testing.T) {
	d := openTestDB(t)

	task, err := d.GetTask(42)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task != nil {
		t.Errorf("expected nil for missing task, got %+v", task)
	}
}

func TestListPendingTasks_Order(t *testing.T) {
	d := openTestDB(t)

	d.AddTask("undated", nil, "", "")
	d.AddTask("later", ptr(at("2024-01-20T10:00:00Z")), "", "")
	d.AddTask("sooner", ptr(at("2024-01-19T10:00:00Z")), "", "")
	doneID, _ := d.AddTask("finished", ptr(at("2024-01-01T10:00:00Z")), "", "")
	d.CompleteTask(Ref{ID: doneID})

	tasks, err := d.ListPendingTasks()
	if err != nil {
		t.Fatalf("ListPendingTasks: %v", err)
	}
	want := []string{"sooner", "later", "undated"}
	if len(tasks) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(tasks))
	}
	for i, w := range want {
		if tasks[i].Title != w {
			t.Errorf("position %d: expected %q, got %q", i, w, tasks[i].Title)
		}
	}
}

func TestListTasksDueBy(t *testing.T) {
	d := openTestDB(t)

	d.AddTask("b", ptr(at("2024-01-18T15:00:00Z")), "", "")
	d.AddTask("a", ptr(at("2024-01-18T09:00:00Z")), "", "")
	d.AddTask("too late", ptr(at("2024-01-19T09:00:00Z")), "", "")
	d.AddTask("undated", nil, "", "")
	doneID, _ := d.AddTask("done", ptr(at("2024-01-18T08:00:00Z")), "", "")
	d.CompleteTask(Ref{ID: doneID})

	tasks, err := d.ListTasksDueBy(at("2024-01-18T23:59:59Z"))
	if err != nil {
		t.Fatalf("ListTasksDueBy: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Title != "a" || tasks[1].Title != "b" {
		t.Errorf("expected [a b], got [%s %s]", tasks[0].Title, tasks[1].Title)
	}
}

func TestListTasksDueBy_Inclusive(t *testing.T) {
	d := openTestDB(t)

	cutoff := at("2024-01-18T12:00:00Z")
	d.AddTask("exact", &cutoff, "", "")

	tasks, _ := d.ListTasksDueBy(cutoff)
	if len(tasks) != 1 {
		t.Fatalf("expected deadline equal to cutoff to be included, got %d", len(tasks))
	}
}

func TestCompleteTask_ByID(t *testing.T) {
	d := openTestDB(t)
	now := at("2024-01-18T20:00:00Z")
	d.now = func() time.Time { return now }

	id, _ := d.AddTask("Essay", nil, "", "")
	ok, err := d.CompleteTask(Ref{ID: id})
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if !ok {
		t.Fatal("expected CompleteTask to report true")
	}

	task, _ := d.GetTask(id)
	if task.Status != StatusCompleted {
		t.Errorf("expected completed, got %q", task.Status)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Errorf("expected completed_at %v, got %v", now, task.CompletedAt)
	}
}

func TestCompleteTask_AlreadyCompleted(t *testing.T) {
	d := openTestDB(t)

	id, _ := d.AddTask("Essay", nil, "", "")
	d.CompleteTask(Ref{ID: id})
	first, _ := d.GetTask(id)

	d.now = func() time.Time { return time.Now().Add(time.Hour) }
	ok, err := d.CompleteTask(Ref{ID: id})
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if ok {
		t.Error("expected false completing an already completed task")
	}
	second, _ := d.GetTask(id)
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("completed_at changed from %v to %v", first.CompletedAt, second.CompletedAt)
	}
}

func TestCompleteTask_ByTitle(t *testing.T) {
	d := openTestDB(t)

	id, _ := d.AddTask("Essay for history", nil, "", "")
	ok, err := d.CompleteTask(Ref{Title: "essay"})
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if !ok {
		t.Fatal("expected fuzzy completion to succeed")
	}
	task, _ := d.GetTask(id)
	if task.Status != StatusCompleted {
		t.Errorf("expected completed, got %q", task.Status)
	}
}

func TestCompleteTask_NoMatch(t *testing.T) {
	d := openTestDB(t)

	d.AddTask("Essay", nil, "", "")
	for _, ref := range []Ref{{Title: "laundry"}, {ID: 999}, {}} {
		ok, err := d.CompleteTask(ref)
		if err != nil {
			t.Fatalf("CompleteTask(%+v): %v", ref, err)
		}
		if ok {
			t.Errorf("CompleteTask(%+v): expected false", ref)
		}
	}
}

func TestDeleteTask(t *testing.T) {
	d := openTestDB(t)

	id, _ := d.AddTask("Essay", nil, "", "")
	d.CompleteTask(Ref{ID: id})

	// Completed tasks can still be deleted by id.
	ok, err := d.DeleteTask(Ref{ID: id})
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if !ok {
		t.Fatal("expected delete to succeed")
	}
	task, _ := d.GetTask(id)
	if task != nil {
		t.Error("expected task to be gone")
	}

	ok, _ = d.DeleteTask(Ref{ID: id})
	if ok {
		t.Error("expected second delete to report false")
	}
}

func TestDeleteTask_ByTitle(t *testing.T) {
	d := openTestDB(t)

	d.AddTask("Call mom", nil, "", "")
	keep, _ := d.AddTask("Groceries", nil, "", "")

	ok, err := d.DeleteTask(Ref{Title: "MOM"})
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if !ok {
		t.Fatal("expected fuzzy delete to succeed")
	}
	tasks, _ := d.ListPendingTasks()
	if len(tasks) != 1 || tasks[0].ID != keep {
		t.Errorf("expected only Groceries to remain, got %+v", tasks)
	}
}

func TestUpdateTask(t *testing.T) {
	d := openTestDB(t)

	id, _ := d.AddTask("Essay", nil, PriorityLow, "")
	deadline := at("2024-01-19T17:00:00Z")
	var u TaskUpdate
	u.SetTitle("History essay").SetDeadline(deadline).SetPriority(PriorityHigh)

	ok, err := d.UpdateTask(id, u)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if !ok {
		t.Fatal("expected update to report true")
	}
	task, _ := d.GetTask(id)
	if task.Title != "History essay" {
		t.Errorf("expected new title, got %q", task.Title)
	}
	if task.Priority != PriorityHigh {
		t.Errorf("expected high, got %q", task.Priority)
	}
	if task.Deadline == nil || !task.Deadline.Equal(deadline) {
		t.Errorf("expected deadline %v, got %v", deadline, task.Deadline)
	}
}

func TestUpdateTask_Empty(t *testing.T) {
	d := openTestDB(t)

	id, _ := d.AddTask("Essay", nil, "", "")
	ok, err := d.UpdateTask(id, TaskUpdate{})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if ok {
		t.Error("expected empty update to report false")
	}
	task, _ := d.GetTask(id)
	if task.Title != "Essay" {
		t.Errorf("expected task unchanged, got %q", task.Title)
	}
}

func TestUpdateTask_Missing(t *testing.T) {
	d := openTestDB(t)

	var u TaskUpdate
	u.SetTitle("nope")
	ok, err := d.UpdateTask(123, u)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if ok {
		t.Error("expected false for missing task")
	}
}

func TestUpdateTask_StatusTracksCompletedAt(t *testing.T) {
	d := openTestDB(t)

	id, _ := d.AddTask("Essay", nil, "", "")

	var done TaskUpdate
	done.SetStatus(StatusCompleted)
	d.UpdateTask(id, done)
	task, _ := d.GetTask(id)
	if task.CompletedAt == nil {
		t.Fatal("expected completed_at after status=completed")
	}

	var reopen TaskUpdate
	reopen.SetStatus(StatusPending)
	d.UpdateTask(id, reopen)
	task, _ = d.GetTask(id)
	if task.Status != StatusPending {
		t.Errorf("expected pending, got %q", task.Status)
	}
	if task.CompletedAt != nil {
		t.Errorf("expected completed_at cleared on reopen, got %v", task.CompletedAt)
	}
}

// --- Events ---

func TestAddAndGetEvent(t *testing.T) {
	d := openTestDB(t)

	start := at("2024-01-18T14:00:00-06:00")
	end := at("2024-01-18T15:00:00-06:00")
	id, err := d.AddEvent("Dentist", start, &end, "Main St", "cleaning")
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	e, err := d.GetEvent(id)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if e == nil {
		t.Fatal("expected event, got nil")
	}
	if e.Title != "Dentist" || e.Location != "Main St" || e.Description != "cleaning" {
		t.Errorf("unexpected event fields: %+v", e)
	}
	if !e.StartTime.Equal(start) {
		t.Errorf("expected start %v, got %v", start, e.StartTime)
	}
	if e.EndTime == nil || !e.EndTime.Equal(end) {
		t.Errorf("expected end %v, got %v", end, e.EndTime)
	}
	if e.Source() != SourceBot {
		t.Errorf("expected bot source, got %q", e.Source())
	}
}

func TestAddEvent_EndBeforeStartStored(t *testing.T) {
	d := openTestDB(t)

	start := at("2024-01-18T15:00:00Z")
	end := at("2024-01-18T14:00:00Z")
	id, err := d.AddEvent("Backwards", start, &end, "", "")
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	e, _ := d.GetEvent(id)
	if e.EndTime == nil || !e.EndTime.Equal(end) {
		t.Errorf("expected end stored as given, got %v", e.EndTime)
	}
}

func TestListEventsBetween(t *testing.T) {
	d := openTestDB(t)

	d.AddEvent("Late", at("2024-01-18T18:00:00Z"), nil, "", "")
	d.AddEvent("Early", at("2024-01-18T08:00:00Z"), nil, "", "")
	d.AddEvent("Next day", at("2024-01-19T08:00:00Z"), nil, "", "")

	events, err := d.ListEventsBetween(at("2024-01-18T00:00:00Z"), at("2024-01-18T23:59:59Z"))
	if err != nil {
		t.Fatalf("ListEventsBetween: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Title != "Early" || events[1].Title != "Late" {
		t.Errorf("expected [Early Late], got [%s %s]", events[0].Title, events[1].Title)
	}
}

func TestDeleteEvent(t *testing.T) {
	d := openTestDB(t)

	id, _ := d.AddEvent("Dentist", at("2024-01-18T14:00:00Z"), nil, "", "")
	ok, err := d.DeleteEvent(Ref{Title: "dent"})
	if err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if !ok {
		t.Fatal("expected fuzzy delete to succeed")
	}
	e, _ := d.GetEvent(id)
	if e != nil {
		t.Error("expected event to be gone")
	}

	ok, _ = d.DeleteEvent(Ref{Title: "dent"})
	if ok {
		t.Error("expected false when nothing matches")
	}
}

func TestUpdateEvent(t *testing.T) {
	d := openTestDB(t)

	id, _ := d.AddEvent("Dentist", at("2024-01-18T14:00:00Z"), nil, "", "")
	start := at("2024-01-19T10:00:00Z")
	end := at("2024-01-19T11:00:00Z")
	var u EventUpdate
	u.SetStart(start).SetEnd(end).SetLocation("Oak Ave")

	ok, err := d.UpdateEvent(id, u)
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if !ok {
		t.Fatal("expected update to report true")
	}
	e, _ := d.GetEvent(id)
	if !e.StartTime.Equal(start) {
		t.Errorf("expected start %v, got %v", start, e.StartTime)
	}
	if e.EndTime == nil || !e.EndTime.Equal(end) {
		t.Errorf("expected end %v, got %v", end, e.EndTime)
	}
	if e.Location != "Oak Ave" {
		t.Errorf("expected location Oak Ave, got %q", e.Location)
	}
	if e.Title != "Dentist" {
		t.Errorf("expected title untouched, got %q", e.Title)
	}
}

func TestUpdateEvent_Empty(t *testing.T) {
	d := openTestDB(t)

	id, _ := d.AddEvent("Dentist", at("2024-01-18T14:00:00Z"), nil, "", "")
	ok, err := d.UpdateEvent(id, EventUpdate{})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if ok {
		t.Error("expected empty update to report false")
	}
}

// --- Fuzzy matching ---

func TestFuzzyMatchTask_ExactBeatsContainment(t *testing.T) {
	d := openTestDB(t)

	d.AddTask("Essay draft", nil, "", "")
	exact, _ := d.AddTask("essay", nil, "", "")

	task, err := d.FuzzyMatchTask("ESSAY")
	if err != nil {
		t.Fatalf("FuzzyMatchTask: %v", err)
	}
	if task == nil || task.ID != exact {
		t.Errorf("expected exact match %d, got %+v", exact, task)
	}
}

func TestFuzzyMatchTask_ShortestContainment(t *testing.T) {
	d := openTestDB(t)

	d.AddTask("Finish the history essay", nil, "", "")
	short, _ := d.AddTask("History essay", nil, "", "")

	task, _ := d.FuzzyMatchTask("essay")
	if task == nil || task.ID != short {
		t.Errorf("expected shortest title %d, got %+v", short, task)
	}
}

func TestFuzzyMatchTask_IgnoresCompleted(t *testing.T) {
	d := openTestDB(t)

	id, _ := d.AddTask("Essay", nil, "", "")
	d.CompleteTask(Ref{ID: id})

	task, err := d.FuzzyMatchTask("essay")
	if err != nil {
		t.Fatalf("FuzzyMatchTask: %v", err)
	}
	if task != nil {
		t.Errorf("expected no match among completed tasks, got %+v", task)
	}
}

func TestFuzzyMatchTask_EmptyQuery(t *testing.T) {
	d := openTestDB(t)

	d.AddTask("Essay", nil, "", "")
	for _, q := range []string{"", "   "} {
		task, err := d.FuzzyMatchTask(q)
		if err != nil {
			t.Fatalf("FuzzyMatchTask(%q): %v", q, err)
		}
		if task != nil {
			t.Errorf("FuzzyMatchTask(%q): expected nil, got %+v", q, task)
		}
	}
}

func TestFuzzyMatchEvent_MostRecentStart(t *testing.T) {
	d := openTestDB(t)

	d.AddEvent("Team meeting", at("2024-01-15T10:00:00Z"), nil, "", "")
	latest, _ := d.AddEvent("Project meeting", at("2024-01-22T10:00:00Z"), nil, "", "")
	d.AddEvent("Meeting prep", at("2024-01-18T10:00:00Z"), nil, "", "")

	e, err := d.FuzzyMatchEvent("meeting")
	if err != nil {
		t.Fatalf("FuzzyMatchEvent: %v", err)
	}
	if e == nil || e.ID != latest {
		t.Errorf("expected latest-starting event %d, got %+v", latest, e)
	}
}

func TestFuzzyMatchEvent_IncludesPast(t *testing.T) {
	d := openTestDB(t)

	past, _ := d.AddEvent("Dentist", at("2020-01-01T10:00:00Z"), nil, "", "")
	e, _ := d.FuzzyMatchEvent("dentist")
	if e == nil || e.ID != past {
		t.Errorf("expected past event to match, got %+v", e)
	}
}

// --- Conversation log ---

func TestRecentTurns(t *testing.T) {
	d := openTestDB(t)

	base := at("2024-01-18T10:00:00Z")
	for i, msg := range []string{"one", "two", "three", "four"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		d.now = func() time.Time { return ts }
		if _, err := d.AppendTurn(msg, "re: "+msg); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}

	turns, err := d.RecentTurns(3)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	want := []string{"two", "three", "four"}
	if len(turns) != len(want) {
		t.Fatalf("expected %d turns, got %d", len(want), len(turns))
	}
	for i, w := range want {
		if turns[i].UserMessage != w {
			t.Errorf("position %d: expected %q, got %q", i, w, turns[i].UserMessage)
		}
		if turns[i].BotResponse != "re: "+w {
			t.Errorf("position %d: unexpected response %q", i, turns[i].BotResponse)
		}
	}
}

func TestAppendTurn_EmptyResponse(t *testing.T) {
	d := openTestDB(t)

	if _, err := d.AppendTurn("hello", ""); err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}
	turns, _ := d.RecentTurns(5)
	if len(turns) != 1 || turns[0].BotResponse != "" {
		t.Errorf("expected one turn with empty response, got %+v", turns)
	}
}

// --- Errors ---

func TestStorageErrorAfterClose(t *testing.T) {
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d.Close()

	_, err = d.AddTask("Essay", nil, "", "")
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if se.Op != "creating task" {
		t.Errorf("expected op %q, got %q", "creating task", se.Op)
	}

	_, err = d.ListPendingTasks()
	if !errors.As(err, &se) {
		t.Errorf("expected StorageError from list, got %v", err)
	}
}
