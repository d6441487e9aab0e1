package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/chris/agenda/internal/timeutil"
)

// StorageError reports a fault in the persistence layer. Records that simply
// do not exist are never reported as errors.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func fault(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

type assignment struct {
	column string
	value  any
	expr   string // replaces the bare placeholder when set
}

var allowedColumns = map[string]map[string]bool{
	"tasks":  {"title": true, "description": true, "deadline": true, "priority": true, "status": true, "completed_at": true},
	"events": {"title": true, "description": true, "start_time": true, "end_time": true, "location": true},
}

// updateRow applies assignments to one row and reports whether it matched.
func updateRow(q querier, table string, id int64, set []assignment) (bool, error) {
	if len(set) == 0 {
		return false, nil
	}
	allowed, ok := allowedColumns[table]
	if !ok {
		return false, fmt.Errorf("unknown table: %s", table)
	}
	setClauses := make([]string, 0, len(set))
	args := make([]any, 0, len(set)+1)
	for _, a := range set {
		if !allowed[a.column] {
			return false, fmt.Errorf("disallowed column %q for table %s", a.column, table)
		}
		placeholder := "?"
		if a.expr != "" {
			placeholder = a.expr
		}
		setClauses = append(setClauses, a.column+" = "+placeholder)
		args = append(args, a.value)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(setClauses, ", "))
	res, err := q.Exec(query, args...)
	if err != nil {
		return false, fault(fmt.Sprintf("updating %s %d", table, id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fault(fmt.Sprintf("updating %s %d", table, id), err)
	}
	return n > 0, nil
}

// withTx runs fn inside one transaction, committing only if fn succeeds.
func (d *DB) withTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fault(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fault(op, err)
	}
	return nil
}

func nullStr(s string) any {
	if s == "" || s == "null" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return timeutil.FormatStorage(*t)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return timeutil.ParseStorage(s)
}

func parseOptTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := timeutil.ParseStorage(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (d *DB) stamp() string {
	return timeutil.FormatStorage(d.now())
}
