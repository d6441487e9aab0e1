package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LLMProvider    string // anthropic, openai, ollama
	AnthropicKey   string // API key (X-Api-Key header)
	AnthropicToken string // OAuth token (Authorization: Bearer header)
	OpenAIKey      string
	LLMModel       string
	OllamaBaseURL  string
	LLMTimeout     time.Duration

	TelegramToken  string
	DiscordToken   string
	DiscordWebhook string
	AllowedUserIDs []string // empty means anyone may talk to the bot

	DatabasePath string
	TimeZone     string

	CalendarCredentialsPath string
	CalendarTokenPath       string
	CalendarTokenBase64     string
	CalendarID              string
	CalendarTimeout         time.Duration

	BriefingCron     string
	MaxContextTokens int
}

func Load() *Config {
	_ = godotenv.Load() // ignore error if no .env

	allowed := os.Getenv("ALLOWED_USER_IDS")
	if allowed == "" {
		allowed = os.Getenv("ALLOWED_USER_ID")
	}

	return &Config{
		LLMProvider:    envOr("LLM_PROVIDER", "anthropic"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicToken: os.Getenv("ANTHROPIC_AUTH_TOKEN"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		LLMModel:       os.Getenv("LLM_MODEL"),
		OllamaBaseURL:  envOr("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		LLMTimeout:     envDuration("LLM_TIMEOUT", 30*time.Second),

		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		DiscordToken:   os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordWebhook: os.Getenv("DISCORD_WEBHOOK_URL"),
		AllowedUserIDs: splitList(allowed),

		DatabasePath: envOr("DATABASE_PATH", "./agenda.db"),
		TimeZone:     envOr("USER_TIMEZONE", "America/Chicago"),

		CalendarCredentialsPath: envOr("GOOGLE_CALENDAR_CREDENTIALS_PATH", "./credentials.json"),
		CalendarTokenPath:       envOr("GOOGLE_CALENDAR_TOKEN_PATH", "./token.json"),
		CalendarTokenBase64:     os.Getenv("GOOGLE_CALENDAR_TOKEN_BASE64"),
		CalendarID:              envOr("GOOGLE_CALENDAR_ID", "primary"),
		CalendarTimeout:         envDuration("CALENDAR_TIMEOUT", 15*time.Second),

		BriefingCron:     os.Getenv("BRIEFING_CRON"),
		MaxContextTokens: envInt("MAX_CONTEXT_TOKENS", 4000),
	}
}

// Validate returns the names of required settings that are missing.
func (c *Config) Validate() []string {
	var missing []string
	switch c.LLMProvider {
	case "anthropic":
		if c.AnthropicKey == "" && c.AnthropicToken == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	case "openai":
		if c.OpenAIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		missing = append(missing, "USER_TIMEZONE")
	}
	return missing
}

// Location resolves the configured user timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
