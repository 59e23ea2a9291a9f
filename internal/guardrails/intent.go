package guardrails

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jaspreetkaur1509/Agri-bot/internal/llm"
	"github.com/jaspreetkaur1509/Agri-bot/internal/prompt"
)

// Intent represents a classified farmer question.
type Intent struct {
	QueryType  prompt.QueryType `json:"query_type"`
	Confidence float64          `json:"confidence"`
	Fallback   bool             `json:"fallback,omitempty"` // classifier failed; QueryType is the default
}

// IntentDefinition describes a possible intent with examples.
type IntentDefinition struct {
	QueryType   prompt.QueryType `json:"query_type"`
	Description string           `json:"description"`
	Examples    []string         `json:"examples"`
}

// IntentClassifier maps free-text questions onto the supported query types.
type IntentClassifier struct {
	gateway  llm.Gateway
	intents  []IntentDefinition
	fallback prompt.QueryType
}

func NewIntentClassifier(gw llm.Gateway, intents []IntentDefinition) *IntentClassifier {
	if len(intents) == 0 {
		intents = DefaultIntents()
	}
	return &IntentClassifier{
		gateway:  gw,
		intents:  intents,
		fallback: prompt.CropAdvice,
	}
}

// DefaultIntents covers every prompt.QueryType.
func DefaultIntents() []IntentDefinition {
	return []IntentDefinition{
		{
			QueryType:   prompt.CropAdvice,
			Description: "choosing, sowing, growing or harvesting a crop",
			Examples:    []string{"Which rice variety suits clay soil?", "When should I sow wheat?"},
		},
		{
			QueryType:   prompt.PestManagement,
			Description: "insects, diseases, weeds and how to control them",
			Examples:    []string{"Aphids on my mustard", "How do I stop stem borer?"},
		},
		{
			QueryType:   prompt.SoilHealth,
			Description: "soil nutrients, pH, fertilizer and organic matter",
			Examples:    []string{"My soil pH is 8.5", "How much urea per acre?"},
		},
		{
			QueryType:   prompt.WeatherTips,
			Description: "rain, heat, frost and irrigation timing",
			Examples:    []string{"Heavy rain is forecast, what should I do?", "Protecting seedlings from frost"},
		},
	}
}

// Classify determines the query type of the farmer's message. Any failure
// yields the fallback type rather than an error.
func (c *IntentClassifier) Classify(ctx context.Context, text string) *Intent {
	var intentDesc strings.Builder
	for _, intent := range c.intents {
		fmt.Fprintf(&intentDesc, "- %s: %s (e.g. %s)\n", intent.QueryType.Slug(), intent.Description, strings.Join(intent.Examples, "; "))
	}

	resp, err := c.gateway.Chat(ctx, llm.ChatRequest{
		Endpoint: "intent",
		Messages: []llm.Message{
			{
				Role: "system",
				Content: fmt.Sprintf(`Classify the farmer's question into one of these topics:
%s
Reply with ONLY a JSON object: {"name": "topic-slug", "confidence": 0.0-1.0}`, intentDesc.String()),
			},
			{
				Role:    "user",
				Content: text,
			},
		},
		Temperature: 0,
		MaxTokens:   50,
	})
	if err != nil {
		slog.Warn("intent classification failed", "error", err)
		return c.fallbackIntent()
	}

	content := strings.TrimSpace(resp.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return c.fallbackIntent()
	}
	qt, err := prompt.ParseQueryType(raw.Name)
	if err != nil {
		return c.fallbackIntent()
	}

	return &Intent{QueryType: qt, Confidence: raw.Confidence}
}

func (c *IntentClassifier) fallbackIntent() *Intent {
	return &Intent{QueryType: c.fallback, Fallback: true}
}
