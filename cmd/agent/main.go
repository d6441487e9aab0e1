package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chris/agenda/config"
	"github.com/chris/agenda/internal/agent"
	"github.com/chris/agenda/internal/calendar"
	"github.com/chris/agenda/internal/db"
	"github.com/chris/agenda/internal/discord"
	"github.com/chris/agenda/internal/llm"
	"github.com/chris/agenda/internal/scheduler"
	"github.com/chris/agenda/internal/telegram"
)

func main() {
	cfg := config.Load()

	cmd := "run"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "run":
		run(ctx, cfg)
	case "auth":
		if err := calendar.Authorize(ctx, cfg.CalendarCredentialsPath, cfg.CalendarTokenPath, os.Stdout); err != nil {
			log.Fatalf("calendar authorization failed: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [run|auth]\n", os.Args[0])
		os.Exit(2)
	}
}

func run(ctx context.Context, cfg *config.Config) {
	if missing := cfg.Validate(); len(missing) > 0 {
		log.Fatalf("missing or invalid configuration: %s", strings.Join(missing, ", "))
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("%v", err)
	}

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	apiKey := cfg.AnthropicKey
	if cfg.LLMProvider == "openai" {
		apiKey = cfg.OpenAIKey
	}

	client, err := llm.NewClient(llm.ProviderConfig{
		Provider:  cfg.LLMProvider,
		APIKey:    apiKey,
		AuthToken: cfg.AnthropicToken,
		Model:     cfg.LLMModel,
		BaseURL:   cfg.OllamaBaseURL,
		Timeout:   cfg.LLMTimeout,
	})
	if err != nil {
		log.Fatalf("failed to create LLM client: %v", err)
	}

	ag := agent.New(database, llm.NewClassifier(client), openCalendar(ctx, cfg, loc), agent.Options{
		Location:         loc,
		AllowedUserIDs:   cfg.AllowedUserIDs,
		MaxContextTokens: cfg.MaxContextTokens,
	})

	switch {
	case cfg.TelegramToken != "":
		runTelegram(ctx, cfg, ag)
	case cfg.DiscordToken != "":
		runDiscord(ctx, cfg, ag)
	default:
		runCLI(ctx, cfg, ag)
	}
}

// openCalendar returns nil when the calendar is not set up; the bot then
// runs on its own events only.
func openCalendar(ctx context.Context, cfg *config.Config, loc *time.Location) calendar.Reader {
	g, err := calendar.NewGoogle(ctx, calendar.Options{
		CredentialsPath: cfg.CalendarCredentialsPath,
		TokenPath:       cfg.CalendarTokenPath,
		TokenBase64:     cfg.CalendarTokenBase64,
		CalendarID:      cfg.CalendarID,
		Location:        loc,
		Timeout:         cfg.CalendarTimeout,
	})
	if err != nil {
		log.Printf("calendar: disabled: %v", err)
		return nil
	}
	log.Printf("calendar: reading %s", cfg.CalendarID)
	return g
}

func runTelegram(ctx context.Context, cfg *config.Config, ag *agent.Agent) {
	bot, err := telegram.NewBot(cfg.TelegramToken, ag)
	if err != nil {
		log.Fatalf("failed to start Telegram bot: %v", err)
	}

	sched := startScheduler(cfg, ag, firstUser(cfg, bot.SendToUser))
	if sched != nil {
		defer sched.Stop()
	}

	log.Println("bot is running. Press Ctrl+C to exit.")
	if err := bot.Run(ctx); err != nil {
		log.Printf("telegram: %v", err)
	}
	log.Println("shutting down.")
}

func runDiscord(ctx context.Context, cfg *config.Config, ag *agent.Agent) {
	bot, err := discord.NewBot(cfg.DiscordToken, ag)
	if err != nil {
		log.Fatalf("failed to start Discord bot: %v", err)
	}
	defer bot.Close()

	sched := startScheduler(cfg, ag, firstUser(cfg, bot.SendDM))
	if sched != nil {
		defer sched.Stop()
	}

	log.Println("bot is running. Press Ctrl+C to exit.")
	<-ctx.Done()
	log.Println("shutting down.")
}

// firstUser binds a transport send function to the first allowed user. With
// no allow-list there is nobody to push to.
func firstUser(cfg *config.Config, send func(userID, content string) error) scheduler.DeliverFunc {
	if len(cfg.AllowedUserIDs) == 0 {
		return nil
	}
	userID := cfg.AllowedUserIDs[0]
	return func(content string) error { return send(userID, content) }
}

func startScheduler(cfg *config.Config, ag *agent.Agent, deliver scheduler.DeliverFunc) *scheduler.Scheduler {
	if cfg.BriefingCron == "" {
		return nil
	}
	if deliver == nil && cfg.DiscordWebhook == "" {
		log.Println("scheduler: BRIEFING_CRON set but no user or webhook to deliver to; skipping")
		return nil
	}
	sched := scheduler.New(ag, deliver, cfg.DiscordWebhook, ag.Location())
	if err := sched.AddBriefing(cfg.BriefingCron); err != nil {
		log.Printf("scheduler: %v", err)
		return nil
	}
	sched.Start()
	return sched
}

// runCLI talks to the agent over stdin as the first allowed user, so the
// allow-list does not lock out the local terminal.
func runCLI(ctx context.Context, cfg *config.Config, ag *agent.Agent) {
	userID := "cli"
	if len(cfg.AllowedUserIDs) > 0 {
		userID = cfg.AllowedUserIDs[0]
	}
	scanner := bufio.NewScanner(os.Stdin)

	// Check if stdin is a pipe (non-interactive)
	stat, _ := os.Stdin.Stat()
	isPipe := (stat.Mode() & os.ModeCharDevice) == 0

	if !isPipe {
		fmt.Print("agenda> ")
	}

	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			if !isPipe {
				fmt.Print("agenda> ")
			}
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		if reply := ag.Respond(ctx, userID, input); reply != "" {
			fmt.Println(reply)
		}

		if isPipe {
			break // single exchange in pipe mode
		}
		if ctx.Err() != nil {
			break
		}
		fmt.Print("agenda> ")
	}
}
