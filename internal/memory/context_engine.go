package memory

import (
	"fmt"

	"github.com/jaspreetkaur1509/Agri-bot/internal/llm"
	"github.com/jaspreetkaur1509/Agri-bot/pkg/tokenizer"
)

// ContextEngine manages what goes into the LLM's context window.
// It assembles system prompt + summary + history + user message
// while respecting a token budget.
type ContextEngine struct {
	maxTokens    int
	systemBudget float64 // fraction of budget for system prompt and summary
	memoryBudget float64 // fraction for conversation history
	// remainder is left for the user message and the response
}

func NewContextEngine(maxTokens int) *ContextEngine {
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	return &ContextEngine{
		maxTokens:    maxTokens,
		systemBudget: 0.20,
		memoryBudget: 0.50,
	}
}

// ContextParts holds the components that will be assembled into the final prompt.
type ContextParts struct {
	SystemPrompt string
	Summary      string
	History      []Entry
	UserMessage  string
}

// AssembledContext is the final prompt ready for the LLM.
type AssembledContext struct {
	Messages    []llm.Message `json:"messages"`
	TotalTokens int           `json:"total_tokens"`
	Truncated   bool          `json:"truncated"`
}

// Assemble builds the final prompt within the token budget. History is kept
// newest first until the budget runs out; older turns are dropped whole.
func (ce *ContextEngine) Assemble(parts ContextParts) AssembledContext {
	var messages []llm.Message
	totalTokens := 0
	truncated := false

	systemBudget := int(float64(ce.maxTokens) * ce.systemBudget)
	systemPrompt := tokenizer.Truncate(parts.SystemPrompt, systemBudget)
	if systemPrompt != parts.SystemPrompt {
		truncated = true
	}
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	totalTokens += tokenizer.CountTokens(systemPrompt)

	if parts.Summary != "" {
		remaining := max(systemBudget-totalTokens, 0)
		summary := tokenizer.Truncate(parts.Summary, remaining)
		if summary != parts.Summary {
			truncated = true
		}
		if summary != "" {
			messages = append(messages, llm.Message{
				Role:    "system",
				Content: fmt.Sprintf("Previous conversation summary: %s", summary),
			})
			totalTokens += tokenizer.CountTokens(summary)
		}
	}

	memoryBudget := int(float64(ce.maxTokens) * ce.memoryBudget)
	historyTokens := 0
	start := len(parts.History)
	for i := len(parts.History) - 1; i >= 0; i-- {
		entryTokens := tokenizer.CountTokens(parts.History[i].Content)
		if historyTokens+entryTokens > memoryBudget {
			truncated = true
			break
		}
		historyTokens += entryTokens
		start = i
	}
	for _, e := range parts.History[start:] {
		messages = append(messages, llm.Message{Role: e.Role, Content: e.Content})
	}
	totalTokens += historyTokens

	messages = append(messages, llm.Message{Role: "user", Content: parts.UserMessage})
	totalTokens += tokenizer.CountTokens(parts.UserMessage)

	return AssembledContext{
		Messages:    messages,
		TotalTokens: totalTokens,
		Truncated:   truncated,
	}
}
