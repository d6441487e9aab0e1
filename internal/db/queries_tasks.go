package db

import (
	"database/sql"
	"fmt"
	"time"
)

// TaskField tags a field that UpdateTask may change.
type TaskField int

const (
	TaskTitle TaskField = iota + 1
	TaskDescription
	TaskDeadline
	TaskPriority
	TaskStatus
)

var taskColumns = map[TaskField]string{
	TaskTitle:       "title",
	TaskDescription: "description",
	TaskDeadline:    "deadline",
	TaskPriority:    "priority",
	TaskStatus:      "status",
}

// TaskUpdate is a sparse set of task field changes.
type TaskUpdate struct {
	fields map[TaskField]any
}

func (u *TaskUpdate) set(f TaskField, v any) *TaskUpdate {
	if u.fields == nil {
		u.fields = make(map[TaskField]any)
	}
	u.fields[f] = v
	return u
}

func (u *TaskUpdate) SetTitle(title string) *TaskUpdate { return u.set(TaskTitle, title) }

func (u *TaskUpdate) SetDescription(desc string) *TaskUpdate {
	return u.set(TaskDescription, desc)
}

func (u *TaskUpdate) SetDeadline(t time.Time) *TaskUpdate { return u.set(TaskDeadline, t) }

func (u *TaskUpdate) SetPriority(p Priority) *TaskUpdate { return u.set(TaskPriority, p) }

func (u *TaskUpdate) SetStatus(s Status) *TaskUpdate { return u.set(TaskStatus, s) }

// Empty reports whether no field is set.
func (u TaskUpdate) Empty() bool { return len(u.fields) == 0 }

// Has reports whether f is part of the update.
func (u TaskUpdate) Has(f TaskField) bool {
	_, ok := u.fields[f]
	return ok
}

func (u TaskUpdate) assignments(now string) []assignment {
	var out []assignment
	// Iterate in tag order so generated SQL is stable.
	for f := TaskTitle; f <= TaskStatus; f++ {
		v, ok := u.fields[f]
		if !ok {
			continue
		}
		switch f {
		case TaskDeadline:
			t := v.(time.Time)
			v = nullTime(&t)
		case TaskDescription:
			v = nullStr(v.(string))
		case TaskPriority:
			v = string(v.(Priority))
		case TaskStatus:
			s := v.(Status)
			v = string(s)
			// completed_at tracks status so the two never disagree, and is
			// kept if the task was already completed.
			if s == StatusCompleted {
				out = append(out, assignment{column: "completed_at", value: now, expr: "COALESCE(completed_at, ?)"})
			} else {
				out = append(out, assignment{column: "completed_at", value: nil})
			}
		}
		out = append(out, assignment{column: taskColumns[f], value: v})
	}
	return out
}

const taskColumnsSQL = `id, title, COALESCE(description,''), COALESCE(deadline,''), priority, status,
	created_at, COALESCE(completed_at,'')`

// AddTask inserts a pending task and returns its id.
func (d *DB) AddTask(title string, deadline *time.Time, priority Priority, description string) (int64, error) {
	if priority == "" {
		priority = PriorityMedium
	}
	res, err := d.conn.Exec(
		"INSERT INTO tasks (title, description, deadline, priority, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		title, nullStr(description), nullTime(deadline), string(priority), string(StatusPending), d.stamp(),
	)
	if err != nil {
		return 0, fault("creating task", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fault("creating task", err)
	}
	return id, nil
}

// GetTask returns the task with id, or nil if there is none.
func (d *DB) GetTask(id int64) (*Task, error) {
	tasks, err := scanTasks(d.conn, "SELECT "+taskColumnsSQL+" FROM tasks WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

// ListPendingTasks returns pending tasks by deadline, undated tasks last.
func (d *DB) ListPendingTasks() ([]Task, error) {
	return scanTasks(d.conn,
		"SELECT "+taskColumnsSQL+" FROM tasks WHERE status = ? ORDER BY deadline IS NULL, deadline ASC, id ASC",
		string(StatusPending),
	)
}

// ListTasksDueBy returns pending tasks whose deadline is at or before cutoff.
func (d *DB) ListTasksDueBy(cutoff time.Time) ([]Task, error) {
	return scanTasks(d.conn,
		"SELECT "+taskColumnsSQL+` FROM tasks
			WHERE status = ? AND deadline IS NOT NULL AND deadline <= ?
			ORDER BY deadline ASC, id ASC`,
		string(StatusPending), nullTime(&cutoff),
	)
}

// CompleteTask marks a pending task completed, resolving ref.Title by fuzzy
// match when no id is given. It returns false if no pending task matched.
func (d *DB) CompleteTask(ref Ref) (bool, error) {
	if ref.empty() {
		return false, nil
	}
	var done bool
	err := d.withTx("completing task", func(tx *sql.Tx) error {
		id := ref.ID
		if id <= 0 {
			t, err := fuzzyMatchTask(tx, ref.Title)
			if err != nil || t == nil {
				return err
			}
			id = t.ID
		}
		res, err := tx.Exec(
			"UPDATE tasks SET status = ?, completed_at = ? WHERE id = ? AND status = ?",
			string(StatusCompleted), d.stamp(), id, string(StatusPending),
		)
		if err != nil {
			return fault("completing task", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fault("completing task", err)
		}
		done = n > 0
		return nil
	})
	return done, err
}

// DeleteTask removes a task regardless of status.
func (d *DB) DeleteTask(ref Ref) (bool, error) {
	if ref.empty() {
		return false, nil
	}
	var deleted bool
	err := d.withTx("deleting task", func(tx *sql.Tx) error {
		id := ref.ID
		if id <= 0 {
			t, err := fuzzyMatchTask(tx, ref.Title)
			if err != nil || t == nil {
				return err
			}
			id = t.ID
		}
		n, err := deleteRow(tx, "tasks", id)
		deleted = n > 0
		return err
	})
	return deleted, err
}

// UpdateTask applies u to the task with id. An empty update touches nothing
// and returns false.
func (d *DB) UpdateTask(id int64, u TaskUpdate) (bool, error) {
	if u.Empty() {
		return false, nil
	}
	return updateRow(d.conn, "tasks", id, u.assignments(d.stamp()))
}

// FuzzyMatchTask resolves a free-text title to a pending task, or nil.
func (d *DB) FuzzyMatchTask(query string) (*Task, error) {
	return fuzzyMatchTask(d.conn, query)
}

func fuzzyMatchTask(q querier, query string) (*Task, error) {
	// A single read feeds both match phases.
	pending, err := scanTasks(q,
		"SELECT "+taskColumnsSQL+" FROM tasks WHERE status = ? ORDER BY id ASC",
		string(StatusPending),
	)
	if err != nil {
		return nil, err
	}
	return matchTask(pending, query), nil
}

func deleteRow(q querier, table string, id int64) (int64, error) {
	res, err := q.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return 0, fault("deleting from "+table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fault("deleting from "+table, err)
	}
	return n, nil
}

func scanTasks(q querier, query string, args ...any) ([]Task, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fault("querying tasks", err)
	}
	defer rows.Close()
	var tasks []Task
	for rows.Next() {
		var t Task
		var deadline, created, completed, priority, status string
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &deadline, &priority, &status, &created, &completed); err != nil {
			return nil, fault("scanning task", err)
		}
		t.Priority = Priority(priority)
		t.Status = Status(status)
		if t.Deadline, err = parseOptTime(deadline); err != nil {
			return nil, fault("scanning task deadline", err)
		}
		if t.CreatedAt, err = parseTime(created); err != nil {
			return nil, fault("scanning task created_at", err)
		}
		if t.CompletedAt, err = parseOptTime(completed); err != nil {
			return nil, fault("scanning task completed_at", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fault("querying tasks", err)
	}
	return tasks, nil
}
