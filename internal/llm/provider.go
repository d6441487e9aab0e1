package llm

import (
	"fmt"
	"time"
)

type ProviderConfig struct {
	Provider  string
	APIKey    string
	AuthToken string // OAuth token (Bearer auth)
	Model     string
	BaseURL   string
	Timeout   time.Duration
}

func NewClient(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "anthropic", "":
		c := NewAnthropicClient(cfg.APIKey, cfg.AuthToken, cfg.Model)
		c.http.Timeout = cfg.Timeout
		return c, nil
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, "", cfg.Timeout), nil
	case "ollama":
		if cfg.Model == "" {
			cfg.Model = "llama3.1"
		}
		return NewOpenAIClient("ollama", cfg.Model, cfg.BaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
