// Package scheduler pushes the daily briefing on a cron schedule.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
)

const deliverTimeout = 30 * time.Second

// Briefer builds the text that gets pushed.
type Briefer interface {
	TodayBriefing(ctx context.Context) (string, error)
}

// DeliverFunc sends text to the user through the active transport.
type DeliverFunc func(content string) error

type Scheduler struct {
	cron       *cron.Cron
	briefer    Briefer
	deliverFn  DeliverFunc
	webhookURL string
	client     *http.Client
}

// New returns a scheduler running in loc. deliver may be nil, in which case
// only the webhook is tried.
func New(b Briefer, deliver DeliverFunc, webhookURL string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		briefer:    b,
		deliverFn:  deliver,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: deliverTimeout},
	}
}

// AddBriefing registers the daily briefing under a standard five-field cron
// expression.
func (s *Scheduler) AddBriefing(expr string) error {
	if _, err := s.cron.AddFunc(expr, s.RunBriefing); err != nil {
		return fmt.Errorf("invalid cron %q: %w", expr, err)
	}
	log.Printf("scheduler: daily briefing scheduled with cron %q", expr)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("scheduler started")
}

// Stop halts the schedule and waits for a running briefing to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunBriefing builds and delivers one briefing.
func (s *Scheduler) RunBriefing() {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	text, err := s.briefer.TodayBriefing(ctx)
	if err != nil {
		log.Printf("scheduler[briefing]: building briefing: %v", err)
		return
	}
	if err := s.deliver(ctx, text); err != nil {
		log.Printf("scheduler[briefing]: %v", err)
		return
	}
	log.Println("scheduler[briefing]: delivered")
}

func (s *Scheduler) deliver(ctx context.Context, content string) error {
	if s.deliverFn != nil {
		err := s.deliverFn(content)
		if err == nil {
			return nil
		}
		if s.webhookURL == "" {
			return fmt.Errorf("direct send failed: %w", err)
		}
		log.Printf("scheduler: direct send failed, trying webhook: %v", err)
	}
	if s.webhookURL != "" {
		return s.postWebhook(ctx, content)
	}
	return fmt.Errorf("no delivery method available (no transport user and no webhook)")
}

func (s *Scheduler) postWebhook(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
