// Package agent turns inbound messages into store mutations and replies.
package agent

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chris/agenda/internal/calendar"
	"github.com/chris/agenda/internal/db"
	"github.com/chris/agenda/internal/llm"
	"github.com/chris/agenda/internal/timeutil"
)

const (
	msgUnauthorized = "Sorry, this bot is configured for private use only."
	msgFailure      = "Something went wrong processing that. Try again?"

	// recentTurns is how much of the conversation log the classifier sees.
	recentTurns = 3
	// calendarDays is the look-ahead for external calendar context.
	calendarDays = 7
)

// Classifier is the intent classifier the agent consults per message.
type Classifier interface {
	Classify(ctx context.Context, text string, pc llm.PromptContext) llm.Classification
}

type Options struct {
	Location         *time.Location
	AllowedUserIDs   []string // empty allows everyone
	MaxContextTokens int
}

type Agent struct {
	db         *db.DB
	classifier Classifier
	calendar   calendar.Reader // nil when no calendar is configured
	loc        *time.Location
	allowed    map[string]bool
	now        func() time.Time

	MaxContextTokens int
}

func New(database *db.DB, classifier Classifier, cal calendar.Reader, opts Options) *Agent {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	allowed := make(map[string]bool, len(opts.AllowedUserIDs))
	for _, id := range opts.AllowedUserIDs {
		if id = strings.TrimSpace(id); id != "" {
			allowed[id] = true
		}
	}
	return &Agent{
		db:               database,
		classifier:       classifier,
		calendar:         cal,
		loc:              loc,
		allowed:          allowed,
		now:              time.Now,
		MaxContextTokens: opts.MaxContextTokens,
	}
}

// Location is the user's timezone.
func (a *Agent) Location() *time.Location { return a.loc }

// IsAuthorized reports whether userID may use the bot.
func (a *Agent) IsAuthorized(userID string) bool {
	return len(a.allowed) == 0 || a.allowed[userID]
}

// HandleMessage answers one natural-language message. Every path returns
// reply text; an empty string means there is nothing to send.
func (a *Agent) HandleMessage(ctx context.Context, userID, text string) string {
	if !a.IsAuthorized(userID) {
		log.Printf("agent: rejected message from unauthorized user %s", userID)
		return msgUnauthorized
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	turn := uuid.NewString()[:8]
	reply := a.reply(ctx, turn, text)

	if _, err := a.db.AppendTurn(text, reply); err != nil {
		log.Printf("agent[%s]: logging conversation: %v", turn, err)
	}
	return reply
}

func (a *Agent) reply(ctx context.Context, turn, text string) string {
	pc, err := a.gatherContext(ctx)
	if err != nil {
		log.Printf("agent[%s]: gathering context: %v", turn, err)
		return msgFailure
	}

	c := a.classifier.Classify(ctx, text, pc)
	log.Printf("agent[%s]: classified as %s", turn, kindOf(c.Action))

	return a.Dispatch(c)
}

// gatherContext reads store and calendar context concurrently. Calendar
// faults are logged and leave that list empty; store faults fail the turn.
func (a *Agent) gatherContext(ctx context.Context) (llm.PromptContext, error) {
	now := a.now().In(a.loc)
	pc := llm.PromptContext{Now: now, Location: a.loc, MaxTokens: a.MaxContextTokens}
	weekStart, weekEnd := timeutil.WeekRange(now, a.loc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := a.db.ListPendingTasks()
		pc.Tasks = tasks
		return err
	})
	g.Go(func() error {
		events, err := a.db.ListEventsBetween(weekStart, weekEnd)
		pc.Events = events
		return err
	})
	g.Go(func() error {
		turns, err := a.db.RecentTurns(recentTurns)
		if err != nil {
			log.Printf("agent: reading conversation log: %v", err)
		}
		pc.Recent = turns
		return nil
	})
	if a.calendarReady() {
		g.Go(func() error {
			events, err := calendar.UpcomingEvents(gctx, a.calendar, now, calendarDays)
			if err != nil {
				log.Printf("agent: reading calendar: %v", err)
				return nil
			}
			pc.Calendar = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return llm.PromptContext{}, err
	}
	return pc, nil
}

func (a *Agent) calendarReady() bool {
	return a.calendar != nil && a.calendar.Available()
}
