package discord

import (
	"context"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	text, ok := addressedText(s.State.User.ID, m)
	if !ok {
		return
	}

	s.ChannelTyping(m.ChannelID)

	reply := b.agent.Respond(context.Background(), m.Author.ID, text)
	if reply == "" {
		return
	}
	if err := b.send(m.ChannelID, reply); err != nil {
		log.Printf("discord: %v", err)
	}
}

// addressedText returns the message text with the bot mention removed. It
// reports false for the bot's own messages and for guild messages that do
// not mention the bot.
func addressedText(botID string, m *discordgo.MessageCreate) (string, bool) {
	if m.Author == nil || m.Author.ID == botID {
		return "", false
	}

	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == botID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return "", false
	}

	content := strings.TrimSpace(stripMention(m.Content, botID))
	return content, content != ""
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}
