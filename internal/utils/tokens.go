package utils

// Simple token estimation utilities.
// These approximate 1 token ~= 4 characters and do not match any specific tokenizer.

// CountTokens estimates the number of tokens in the given text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	// Ensure at least 1 token for any non-empty text
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TokenBreakdown adds the token estimate of each labeled section to into and returns it.
// A nil map is allocated.
func TokenBreakdown(into map[string]int, sections map[string]string) map[string]int {
	if into == nil {
		into = make(map[string]int, len(sections))
	}
	for k, v := range sections {
		into[k] += CountTokens(v)
	}
	return into
}
