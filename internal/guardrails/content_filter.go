package guardrails

import (
	"context"
	"strings"
)

type blockedCategory struct {
	name     string
	patterns []string
}

// ContentFilter rejects requests for harmful instructions using keyword
// heuristics. Pesticide and fertilizer questions are normal traffic here, so
// only phrasing aimed at people or other farms is listed.
type ContentFilter struct {
	categories []blockedCategory
}

func NewContentFilter() *ContentFilter {
	return &ContentFilter{
		categories: []blockedCategory{
			{"violence", []string{
				"how to make a bomb", "how to make explosives",
				"fertilizer bomb", "how to harm", "how to kill a person",
			}},
			{"poisoning", []string{
				"poison someone", "poison a person", "poison my neighbor",
				"poison the well", "contaminate a water supply",
			}},
			{"sabotage", []string{
				"destroy my neighbor's crop", "kill my neighbor's crop",
				"sabotage a farm", "burn a field",
			}},
			{"illegal", []string{
				"how to steal", "how to counterfeit",
				"smuggle pesticides", "sell banned pesticide",
			}},
		},
	}
}

func (f *ContentFilter) Name() string { return "content_filter" }

func (f *ContentFilter) Check(_ context.Context, text string) (*GuardrailResult, error) {
	lower := strings.ToLower(text)

	for _, c := range f.categories {
		for _, p := range c.patterns {
			if strings.Contains(lower, p) {
				return &GuardrailResult{
					Allowed: false,
					Reason:  "content policy violation: " + c.name,
					Flags:   []string{"blocked_" + c.name},
					Scores:  map[string]float64{c.name: 1.0},
				}, nil
			}
		}
	}

	return &GuardrailResult{Allowed: true}, nil
}
