package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider talks to the Gemini API through the genai SDK. It is the
// default provider for leaf diagnosis since the Gemini models accept inline
// image parts.
type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Models() []string {
	return []string{
		"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.0-flash",
	}
}

func toGeminiContents(msgs []Message) (*genai.Content, []*genai.Content) {
	systemText, turns := systemAndTurns(msgs)

	var system *genai.Content
	if systemText != "" {
		system = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		parts := make([]*genai.Part, 0, len(m.Images)+1)
		for _, img := range m.Images {
			parts = append(parts, genai.NewPartFromBytes(img.Data, img.MimeType))
		}
		if m.Content != "" {
			parts = append(parts, genai.NewPartFromText(m.Content))
		}
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return system, contents
}

func geminiConfig(req ChatRequest, system *genai.Content) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{SystemInstruction: system}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.TopP > 0 {
		cfg.TopP = genai.Ptr(float32(req.TopP))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(req.Stop) > 0 {
		cfg.StopSequences = req.Stop
	}
	return cfg
}

func (p *GeminiProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	system, contents := toGeminiContents(req.Messages)
	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, geminiConfig(req, system))
	if err != nil {
		return nil, fmt.Errorf("gemini chat: %w", err)
	}

	var inputTokens, outputTokens, totalTokens int
	if u := resp.UsageMetadata; u != nil {
		inputTokens = int(u.PromptTokenCount)
		outputTokens = int(u.CandidatesTokenCount)
		totalTokens = int(u.TotalTokenCount)
	}

	model := resp.ModelVersion
	if model == "" {
		model = req.Model
	}

	return &ChatResponse{
		ID:           resp.ResponseID,
		Provider:     "gemini",
		Model:        model,
		Content:      resp.Text(),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  totalTokens,
		CostUSD:      CalculateCost(req.Model, inputTokens, outputTokens),
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

func (p *GeminiProvider) ChatCompletionStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	system, contents := toGeminiContents(req.Messages)
	cfg := geminiConfig(req, system)

	ch := make(chan StreamChunk, 64)
	go func() {
		defer close(ch)
		var last *genai.GenerateContentResponseUsageMetadata
		for resp, err := range p.client.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
			if err != nil {
				ch <- StreamChunk{Error: err, Done: true}
				return
			}
			if resp.UsageMetadata != nil {
				last = resp.UsageMetadata
			}
			if text := resp.Text(); text != "" {
				ch <- StreamChunk{Content: text}
			}
		}
		done := StreamChunk{Done: true}
		if last != nil {
			done.InputTokens = int(last.PromptTokenCount)
			done.OutputTokens = int(last.CandidatesTokenCount)
		}
		ch <- done
	}()

	return ch, nil
}
