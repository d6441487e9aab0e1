// Package discord is the Discord message transport.
package discord

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/chris/agenda/internal/agent"
	"github.com/chris/agenda/internal/chat"
)

type Bot struct {
	session *discordgo.Session
	agent   *agent.Agent
}

func NewBot(token string, ag *agent.Agent) (*Bot, error) {
	s, err := newSession(token)
	if err != nil {
		return nil, err
	}

	bot := &Bot{session: s, agent: ag}
	s.AddHandler(bot.onMessage)

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening Discord connection: %w", err)
	}

	log.Printf("discord: connected as %s", s.State.User.Username)
	return bot, nil
}

// newSession configures a gateway session that delivers events one at a
// time, so a turn finishes before the next message is handled.
func newSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}
	s.SyncEvents = true
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	return s, nil
}

// SendDM delivers content to a user's direct-message channel.
func (b *Bot) SendDM(userID, content string) error {
	ch, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("opening DM channel: %w", err)
	}
	return b.send(ch.ID, content)
}

func (b *Bot) send(channelID, content string) error {
	for _, chunk := range chat.SplitMessage(content, chat.DiscordLimit) {
		if _, err := b.session.ChannelMessageSend(channelID, chunk); err != nil {
			return fmt.Errorf("sending Discord message: %w", err)
		}
	}
	return nil
}

func (b *Bot) Close() {
	b.session.Close()
}
