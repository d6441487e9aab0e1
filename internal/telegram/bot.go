// Package telegram is the Telegram message transport. It long-polls for
// updates and answers each message through the agent.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/chris/agenda/internal/agent"
	"github.com/chris/agenda/internal/chat"
)

const pollTimeout = 60 // seconds

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api   *tgbotapi.BotAPI
	out   sender
	agent *agent.Agent
}

func NewBot(token string, ag *agent.Agent) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to Telegram: %w", err)
	}
	log.Printf("telegram: authorized as @%s", api.Self.UserName)
	return &Bot{api: api, out: api, agent: ag}, nil
}

// Run handles updates until ctx is cancelled. Updates are handled one at a
// time so a turn finishes before the next message is read.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram update channel closed")
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if _, err := b.out.Request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("telegram: typing indicator: %v", err)
	}

	reply := b.agent.Respond(ctx, strconv.FormatInt(msg.From.ID, 10), text)
	if reply == "" {
		return
	}
	if err := b.send(msg.Chat.ID, reply); err != nil {
		log.Printf("telegram: %v", err)
	}
}

// SendToUser delivers text to a user's private chat. Telegram private chat
// ids equal the user id.
func (b *Bot) SendToUser(userID, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing Telegram user id %q: %w", userID, err)
	}
	return b.send(chatID, text)
}

func (b *Bot) send(chatID int64, text string) error {
	for _, chunk := range chat.SplitMessage(text, chat.TelegramLimit) {
		if _, err := b.out.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			return fmt.Errorf("sending Telegram message: %w", err)
		}
	}
	return nil
}
