package guardrails

import (
	"context"
	"fmt"
	"strings"

	"github.com/jaspreetkaur1509/Agri-bot/internal/llm"
)

// GuardrailResult holds the outcome of a safety check.
type GuardrailResult struct {
	Allowed bool               `json:"allowed"`
	Flags   []string           `json:"flags,omitempty"`
	Scores  map[string]float64 `json:"scores,omitempty"`
	Reason  string             `json:"reason,omitempty"`
}

// Guardrail is a check applied to user input before it reaches the model.
type Guardrail interface {
	Check(ctx context.Context, text string) (*GuardrailResult, error)
	Name() string
}

// BlockedError is returned by Enforce when a guardrail rejects the input.
type BlockedError struct {
	Reason string
	Flags  []string
}

func (e *BlockedError) Error() string {
	if len(e.Flags) == 0 {
		return "input blocked: " + e.Reason
	}
	return fmt.Sprintf("input blocked: %s [%s]", e.Reason, strings.Join(e.Flags, ","))
}

// Pipeline chains multiple guardrails together.
type Pipeline struct {
	guards []Guardrail
}

func NewPipeline(guards ...Guardrail) *Pipeline {
	return &Pipeline{guards: guards}
}

func (p *Pipeline) Add(g Guardrail) {
	p.guards = append(p.guards, g)
}

// Check runs every guardrail and merges the results. It stops at the first
// rejection.
func (p *Pipeline) Check(ctx context.Context, text string) (*GuardrailResult, error) {
	combined := &GuardrailResult{
		Allowed: true,
		Scores:  make(map[string]float64),
	}

	for _, g := range p.guards {
		result, err := g.Check(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("guardrail %s: %w", g.Name(), err)
		}
		combined.Flags = append(combined.Flags, result.Flags...)
		for k, v := range result.Scores {
			combined.Scores[k] = v
		}
		if !result.Allowed {
			combined.Allowed = false
			combined.Reason = fmt.Sprintf("blocked by %s: %s", g.Name(), result.Reason)
			break
		}
	}

	return combined, nil
}

// Enforce is Check reduced to an error: nil when allowed, *BlockedError when not.
func (p *Pipeline) Enforce(ctx context.Context, text string) error {
	res, err := p.Check(ctx, text)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return &BlockedError{Reason: res.Reason, Flags: res.Flags}
	}
	return nil
}

// DefaultPipeline creates the input pipeline used for farmer questions. A nil
// gateway limits prompt-injection detection to the heuristic phase.
func DefaultPipeline(gw llm.Gateway, maxLen int) *Pipeline {
	if maxLen <= 0 {
		maxLen = 4000
	}
	return NewPipeline(
		NewInputLengthGuard(maxLen),
		NewContentFilter(),
		NewPromptInjectionDetector(gw),
	)
}

// InputLengthGuard rejects inputs that are too long.
type InputLengthGuard struct {
	maxLength int
}

func NewInputLengthGuard(maxLen int) *InputLengthGuard {
	return &InputLengthGuard{maxLength: maxLen}
}

func (g *InputLengthGuard) Name() string { return "input_length" }

func (g *InputLengthGuard) Check(_ context.Context, text string) (*GuardrailResult, error) {
	if n := len([]rune(text)); n > g.maxLength {
		return &GuardrailResult{
			Allowed: false,
			Reason:  fmt.Sprintf("input exceeds %d characters", g.maxLength),
			Flags:   []string{"input_too_long"},
		}, nil
	}
	return &GuardrailResult{Allowed: true}, nil
}
