package llm

// EstimateTokens returns a rough token count for text, assuming about four
// characters per token and rounding up.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
