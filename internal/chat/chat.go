// Package chat holds helpers shared by the message transports.
package chat

import "strings"

// Platform message limits, in bytes.
const (
	DiscordLimit  = 2000
	TelegramLimit = 4096
)

// SplitMessage breaks s into chunks of at most maxLen bytes, preferring to
// cut after the last newline inside each window. Chunks never split a UTF-8
// sequence.
func SplitMessage(s string, maxLen int) []string {
	if maxLen <= 0 || len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end > len(s) {
			end = len(s)
		}
		if end < len(s) {
			if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
				end = idx + 1
			} else {
				end = runeBoundary(s, end)
			}
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}

// runeBoundary backs end off to the start of a rune. A window too small to
// hold the first rune is returned whole.
func runeBoundary(s string, end int) int {
	for i := end; i > 0; i-- {
		if s[i]&0xC0 != 0x80 {
			return i
		}
	}
	return end
}
