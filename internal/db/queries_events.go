package db

import (
	"database/sql"
	"time"
)

// EventField tags a field that UpdateEvent may change.
type EventField int

const (
	EventTitle EventField = iota + 1
	EventDescription
	EventStart
	EventEnd
	EventLocation
)

var eventColumns = map[EventField]string{
	EventTitle:       "title",
	EventDescription: "description",
	EventStart:       "start_time",
	EventEnd:         "end_time",
	EventLocation:    "location",
}

// EventUpdate is a sparse set of event field changes.
type EventUpdate struct {
	fields map[EventField]any
}

func (u *EventUpdate) set(f EventField, v any) *EventUpdate {
	if u.fields == nil {
		u.fields = make(map[EventField]any)
	}
	u.fields[f] = v
	return u
}

func (u *EventUpdate) SetTitle(title string) *EventUpdate { return u.set(EventTitle, title) }

func (u *EventUpdate) SetDescription(desc string) *EventUpdate {
	return u.set(EventDescription, desc)
}

func (u *EventUpdate) SetStart(t time.Time) *EventUpdate { return u.set(EventStart, t) }

func (u *EventUpdate) SetEnd(t time.Time) *EventUpdate { return u.set(EventEnd, t) }

func (u *EventUpdate) SetLocation(loc string) *EventUpdate { return u.set(EventLocation, loc) }

func (u EventUpdate) Empty() bool { return len(u.fields) == 0 }

func (u EventUpdate) Has(f EventField) bool {
	_, ok := u.fields[f]
	return ok
}

func (u EventUpdate) assignments() []assignment {
	var out []assignment
	for f := EventTitle; f <= EventLocation; f++ {
		v, ok := u.fields[f]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case time.Time:
			v = nullTime(&x)
		case string:
			if f != EventTitle {
				v = nullStr(x)
			}
		}
		out = append(out, assignment{column: eventColumns[f], value: v})
	}
	return out
}

const eventColumnsSQL = `id, title, COALESCE(description,''), COALESCE(start_time,''), COALESCE(end_time,''),
	COALESCE(location,''), created_at`

// AddEvent inserts a bot-created event and returns its id. An end before the
// start is stored as given.
func (d *DB) AddEvent(title string, start time.Time, end *time.Time, location, description string) (int64, error) {
	res, err := d.conn.Exec(
		`INSERT INTO events (title, description, start_time, end_time, location, created_at, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, nullStr(description), nullTime(&start), nullTime(end), nullStr(location), d.stamp(), string(SourceBot),
	)
	if err != nil {
		return 0, fault("creating event", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fault("creating event", err)
	}
	return id, nil
}

// GetEvent returns the event with id, or nil if there is none.
func (d *DB) GetEvent(id int64) (*Event, error) {
	events, err := scanEvents(d.conn, "SELECT "+eventColumnsSQL+" FROM events WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// ListEventsBetween returns events starting within [start, end], ascending.
func (d *DB) ListEventsBetween(start, end time.Time) ([]Event, error) {
	return scanEvents(d.conn,
		"SELECT "+eventColumnsSQL+` FROM events
			WHERE start_time >= ? AND start_time <= ?
			ORDER BY start_time ASC, id ASC`,
		nullTime(&start), nullTime(&end),
	)
}

// DeleteEvent removes an event by id, or by fuzzy title when no id is given.
func (d *DB) DeleteEvent(ref Ref) (bool, error) {
	if ref.empty() {
		return false, nil
	}
	var deleted bool
	err := d.withTx("deleting event", func(tx *sql.Tx) error {
		id := ref.ID
		if id <= 0 {
			e, err := fuzzyMatchEvent(tx, ref.Title)
			if err != nil || e == nil {
				return err
			}
			id = e.ID
		}
		n, err := deleteRow(tx, "events", id)
		deleted = n > 0
		return err
	})
	return deleted, err
}

// UpdateEvent applies u to the event with id. An empty update touches nothing
// and returns false.
func (d *DB) UpdateEvent(id int64, u EventUpdate) (bool, error) {
	if u.Empty() {
		return false, nil
	}
	return updateRow(d.conn, "events", id, u.assignments())
}

// FuzzyMatchEvent resolves a free-text title to an event, or nil.
func (d *DB) FuzzyMatchEvent(query string) (*Event, error) {
	return fuzzyMatchEvent(d.conn, query)
}

func fuzzyMatchEvent(q querier, query string) (*Event, error) {
	all, err := scanEvents(q, "SELECT "+eventColumnsSQL+" FROM events ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	return matchEvent(all, query), nil
}

func scanEvents(q querier, query string, args ...any) ([]Event, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fault("querying events", err)
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		e := Event{source: SourceBot}
		var start, end, created string
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &start, &end, &e.Location, &created); err != nil {
			return nil, fault("scanning event", err)
		}
		if e.StartTime, err = parseTime(start); err != nil {
			return nil, fault("scanning event start_time", err)
		}
		if e.EndTime, err = parseOptTime(end); err != nil {
			return nil, fault("scanning event end_time", err)
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, fault("scanning event created_at", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fault("querying events", err)
	}
	return events, nil
}
