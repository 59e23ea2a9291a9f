package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/jaspreetkaur1509/Agri-bot/internal/config"
)

type gateway struct {
	providers        map[string]Provider
	breakers         map[string]*gobreaker.CircuitBreaker
	defaultProvider  string
	defaultModel     string
	fallbackProvider string
	maxRetries       int
	recorders        []UsageRecorder
	newBackOff       func() backoff.BackOff
}

// NewGateway builds a provider for every configured API key.
func NewGateway(cfg config.LLMConfig, recorders ...UsageRecorder) Gateway {
	var providers []Provider

	if cfg.GeminiKey != "" {
		p, err := NewGeminiProvider(context.Background(), cfg.GeminiKey)
		if err != nil {
			slog.Warn("gemini provider unavailable", "error", err)
		} else {
			providers = append(providers, p)
		}
	}
	if cfg.OpenAIKey != "" {
		providers = append(providers, NewOpenAIProvider(cfg.OpenAIKey))
	}
	if cfg.AnthropicKey != "" {
		providers = append(providers, NewAnthropicProvider(cfg.AnthropicKey))
	}
	if cfg.OllamaURL != "" {
		providers = append(providers, NewOllamaProvider(cfg.OllamaURL))
	}

	return NewGatewayWithProviders(cfg, providers, recorders...)
}

// NewGatewayWithProviders wires an explicit provider set, each behind its own
// circuit breaker.
func NewGatewayWithProviders(cfg config.LLMConfig, providers []Provider, recorders ...UsageRecorder) Gateway {
	g := &gateway{
		providers:        make(map[string]Provider, len(providers)),
		breakers:         make(map[string]*gobreaker.CircuitBreaker, len(providers)),
		defaultProvider:  cfg.DefaultProvider,
		defaultModel:     cfg.DefaultModel,
		fallbackProvider: cfg.FallbackProvider,
		maxRetries:       cfg.MaxRetries,
		recorders:        recorders,
		newBackOff:       defaultBackOff,
	}

	failures := cfg.BreakerFailures
	if failures <= 0 {
		failures = 5
	}
	for _, p := range providers {
		name := p.Name()
		g.providers[name] = p
		g.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "llm-" + name,
			Timeout: cfg.BreakerOpenFor,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= uint32(failures)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			},
		})
	}

	return g
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return b
}

func (g *gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotConfigured, name)
	}
	return p, nil
}

func (g *gateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = g.defaultProvider
	}

	resp, err := g.chatWithRetry(ctx, providerName, req)
	if err != nil && g.fallbackProvider != "" && g.fallbackProvider != providerName && ctx.Err() == nil {
		slog.Warn("primary provider failed, trying fallback",
			"primary", providerName,
			"fallback", g.fallbackProvider,
			"error", err,
		)
		// The primary's model name means nothing to the fallback.
		req.Model = ""
		return g.chatWithRetry(ctx, g.fallbackProvider, req)
	}
	return resp, err
}

func (g *gateway) resolveModel(providerName string, p Provider, model string) string {
	if model != "" {
		return model
	}
	if providerName == g.defaultProvider && g.defaultModel != "" {
		return g.defaultModel
	}
	if models := p.Models(); len(models) > 0 {
		return models[0]
	}
	return ""
}

func (g *gateway) chatWithRetry(ctx context.Context, providerName string, req ChatRequest) (*ChatResponse, error) {
	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}
	req.Model = g.resolveModel(providerName, p, req.Model)
	breaker := g.breakers[providerName]

	var resp *ChatResponse
	attempt := 0
	op := func() error {
		attempt++
		out, err := breaker.Execute(func() (interface{}, error) {
			return p.ChatCompletion(ctx, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = out.(*ChatResponse)
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), uint64(max(g.maxRetries, 0))), ctx)
	err = backoff.RetryNotify(op, bo, func(err error, wait time.Duration) {
		slog.Debug("retrying LLM call", "provider", providerName, "attempt", attempt, "wait", wait, "error", err)
	})
	if err != nil {
		err = fmt.Errorf("%s chat failed after %d attempt(s): %w", providerName, attempt, err)
		g.record(ctx, UsageRecord{Provider: providerName, Model: req.Model, Endpoint: req.Endpoint, Err: err})
		return nil, err
	}

	g.record(ctx, UsageRecord{
		Provider:     resp.Provider,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		TotalTokens:  resp.TotalTokens,
		CostUSD:      resp.CostUSD,
		LatencyMs:    resp.LatencyMs,
		Endpoint:     req.Endpoint,
	})
	return resp, nil
}

func (g *gateway) record(ctx context.Context, rec UsageRecord) {
	rec.Timestamp = time.Now()
	for _, r := range g.recorders {
		r.RecordUsage(ctx, rec)
	}
}

// ChatStream opens the stream behind the provider's breaker and forwards its
// chunks. One usage record is written when the stream ends, from the Done
// chunk's token counts or the error that ended it.
func (g *gateway) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = g.defaultProvider
	}

	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}
	req.Model = g.resolveModel(providerName, p, req.Model)

	start := time.Now()
	out, err := g.breakers[providerName].Execute(func() (interface{}, error) {
		return p.ChatCompletionStream(ctx, req)
	})
	if err != nil {
		err = fmt.Errorf("%s chat stream: %w", providerName, err)
		g.record(ctx, UsageRecord{Provider: providerName, Model: req.Model, Endpoint: req.Endpoint, Err: err})
		return nil, err
	}
	upstream := out.(<-chan StreamChunk)

	ch := make(chan StreamChunk, 64)
	go func() {
		defer close(ch)

		rec := UsageRecord{Provider: providerName, Model: req.Model, Endpoint: req.Endpoint}
		recorded, forward := false, true
		for chunk := range upstream {
			if chunk.Error != nil && rec.Err == nil {
				rec.Err = chunk.Error
			}
			if chunk.Done && !recorded {
				g.recordStream(ctx, rec, chunk, start)
				recorded = true
			}
			if !forward {
				continue
			}
			select {
			case ch <- chunk:
			case <-ctx.Done():
				// Keep draining so the provider goroutine can exit.
				forward = false
			}
		}
		if !recorded {
			if rec.Err == nil {
				rec.Err = errStreamIncomplete
				if ctx.Err() != nil {
					rec.Err = ctx.Err()
				}
			}
			g.recordStream(ctx, rec, StreamChunk{}, start)
		}
	}()

	return ch, nil
}

var errStreamIncomplete = errors.New("stream closed before completion")

func (g *gateway) recordStream(ctx context.Context, rec UsageRecord, last StreamChunk, start time.Time) {
	rec.InputTokens = last.InputTokens
	rec.OutputTokens = last.OutputTokens
	rec.TotalTokens = last.InputTokens + last.OutputTokens
	if rec.Err == nil {
		rec.CostUSD = CalculateCost(rec.Model, rec.InputTokens, rec.OutputTokens)
	}
	rec.LatencyMs = time.Since(start).Milliseconds()
	g.record(ctx, rec)
}

func (g *gateway) ListModels() []ModelInfo {
	var models []ModelInfo
	for _, p := range g.providers {
		for _, m := range p.Models() {
			models = append(models, ModelInfo{
				Provider: p.Name(),
				Model:    m,
			})
		}
	}
	return models
}
