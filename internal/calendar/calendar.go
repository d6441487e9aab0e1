// Package calendar is a read-only view of the user's Google Calendar.
// Events read here are never written to the store.
package calendar

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/chris/agenda/internal/db"
	"github.com/chris/agenda/internal/timeutil"
)

// Reader lists external calendar events in a time window.
type Reader interface {
	Available() bool
	ListEvents(ctx context.Context, start, end time.Time) ([]db.Event, error)
}

type Options struct {
	CredentialsPath string
	TokenPath       string
	TokenBase64     string // written to TokenPath when that file is missing
	CalendarID      string
	Location        *time.Location
	Timeout         time.Duration
}

var _ Reader = (*Google)(nil)

// Google reads events through the Calendar v3 API.
type Google struct {
	srv        *gcal.Service
	calendarID string
	loc        *time.Location
	timeout    time.Duration
}

// NewGoogle builds a reader from an installed-app credentials file and a
// previously authorized token. Refreshed tokens are written back to
// TokenPath.
func NewGoogle(ctx context.Context, opts Options) (*Google, error) {
	if opts.TokenBase64 != "" {
		if err := bootstrapToken(opts.TokenPath, opts.TokenBase64); err != nil {
			return nil, err
		}
	}

	cfg, err := loadConfig(opts.CredentialsPath)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(opts.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("loading calendar token (run `agent auth` first): %w", err)
	}

	ts := oauth2.ReuseTokenSource(tok, &savingSource{
		base: cfg.TokenSource(ctx, tok),
		path: opts.TokenPath,
		last: tok.AccessToken,
	})
	srv, err := gcal.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	id := opts.CalendarID
	if id == "" {
		id = "primary"
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Google{srv: srv, calendarID: id, loc: loc, timeout: opts.Timeout}, nil
}

func loadConfig(credentialsPath string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("reading calendar credentials %s: %w", credentialsPath, err)
	}
	cfg, err := google.ConfigFromJSON(b, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar credentials: %w", err)
	}
	return cfg, nil
}

func (g *Google) Available() bool {
	return g != nil && g.srv != nil
}

// ListEvents returns single (expanded) events overlapping [start, end),
// ordered by start time.
func (g *Google) ListEvents(ctx context.Context, start, end time.Time) ([]db.Event, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var events []db.Event
	call := g.srv.Events.List(g.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			events = append(events, convertEvent(item, g.loc))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing calendar events: %w", err)
	}
	return events, nil
}

// convertEvent maps an API event onto the store's event shape. All-day
// events start at local midnight.
func convertEvent(item *gcal.Event, loc *time.Location) db.Event {
	title := item.Summary
	if title == "" {
		title = "Untitled Event"
	}
	e := db.ImportedEvent(item.Id, title, eventTime(item.Start, loc))
	e.Description = item.Description
	e.Location = item.Location
	if end := eventTime(item.End, loc); !end.IsZero() {
		e.EndTime = &end
	}
	return e
}

func eventTime(dt *gcal.EventDateTime, loc *time.Location) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t
		}
		log.Printf("calendar: bad dateTime %q", dt.DateTime)
	}
	if dt.Date != "" {
		if t, err := time.ParseInLocation(time.DateOnly, dt.Date, loc); err == nil {
			return t
		}
		log.Printf("calendar: bad date %q", dt.Date)
	}
	return time.Time{}
}

// TodayEvents lists events on the calendar day of now.
func TodayEvents(ctx context.Context, r Reader, now time.Time, loc *time.Location) ([]db.Event, error) {
	start, end := timeutil.DayRange(now, loc)
	return r.ListEvents(ctx, start, end)
}

// UpcomingEvents lists events from now through the next days days.
func UpcomingEvents(ctx context.Context, r Reader, now time.Time, days int) ([]db.Event, error) {
	return r.ListEvents(ctx, now, now.AddDate(0, 0, days))
}

// CheckAvailability reports whether no calendar event overlaps [start, end).
func CheckAvailability(ctx context.Context, r Reader, start, end time.Time) (bool, error) {
	events, err := r.ListEvents(ctx, start, end)
	if err != nil {
		return false, err
	}
	return len(events) == 0, nil
}
