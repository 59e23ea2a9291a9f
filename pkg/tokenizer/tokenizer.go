// Package tokenizer estimates token counts without a model vocabulary.
package tokenizer

import "unicode/utf8"

// CharsPerToken is the rough ratio used for English prose.
const CharsPerToken = 4

// CountTokens estimates the tokens in text. Non-empty text counts at least one.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return max(len(text)/CharsPerToken, 1)
}

// Truncate cuts text to roughly maxTokens tokens without splitting a
// multi-byte character.
func Truncate(text string, maxTokens int) string {
	limit := maxTokens * CharsPerToken
	if limit < 0 {
		limit = 0
	}
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
