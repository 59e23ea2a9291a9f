package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jaspreetkaur1509/Agri-bot/internal/llm"
)

const summarizePrompt = `Summarize the conversation so far into a concise paragraph.
Capture the crops, problems and field conditions discussed and any advice already given.
This summary will be used to maintain context in future messages.`

// Compact folds the older half of a long conversation into its Summary and
// returns the shortened copy. Conversations with at most keepAfter entries
// are returned unchanged. On gateway failure the input is returned with the
// error so the caller can continue with the full history.
func Compact(ctx context.Context, gw llm.Gateway, c Conversation, keepAfter int) (Conversation, error) {
	if keepAfter <= 0 || len(c.Entries) <= keepAfter {
		return c, nil
	}

	midpoint := len(c.Entries) / 2
	var sb strings.Builder
	if c.Summary != "" {
		fmt.Fprintf(&sb, "Existing summary: %s\n\n", c.Summary)
	}
	sb.WriteString("New messages to incorporate:\n")
	for _, e := range c.Entries[:midpoint] {
		fmt.Fprintf(&sb, "%s: %s\n", e.Role, e.Content)
	}

	resp, err := gw.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: summarizePrompt},
			{Role: "user", Content: sb.String()},
		},
		MaxTokens: 300,
		Endpoint:  "summary",
	})
	if err != nil {
		return c, fmt.Errorf("summarize conversation: %w", err)
	}

	out := c
	out.Summary = strings.TrimSpace(resp.Content)
	out.Entries = make([]Entry, len(c.Entries)-midpoint)
	copy(out.Entries, c.Entries[midpoint:])
	return out, nil
}
