package llm

// charsPerToken is the average number of characters per token. Real
// tokenizers vary, but it is close enough for context budgeting.
const charsPerToken = 4

// EstimateTokens returns a rough token count for a string.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + charsPerToken - 1) / charsPerToken // round up
}

// EstimateMessageTokens returns the estimated token count for a single
// message, including role framing.
func EstimateMessageTokens(m Message) int {
	return 4 + EstimateTokens(m.Content)
}

// EstimateMessagesTokens returns the total estimated tokens for a slice of messages.
func EstimateMessagesTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateMessageTokens(m)
	}
	return total
}

// EstimateLinesTokens returns the estimated tokens for newline-joined lines.
func EstimateLinesTokens(lines []string) int {
	total := 0
	for _, l := range lines {
		total += EstimateTokens(l) + 1 // newline
	}
	return total
}
