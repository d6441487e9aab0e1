package llm

import "context"

type Message struct {
	Role    string `json:"role"` // user, assistant
	Content string `json:"content,omitempty"`
}

type Response struct {
	Content string
}

// Client sends one system prompt plus a message history to a model and
// returns its text reply.
type Client interface {
	Chat(ctx context.Context, systemPrompt string, messages []Message) (*Response, error)
}
