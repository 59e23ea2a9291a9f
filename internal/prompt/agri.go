package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// QueryType is the topic a farmer picks for a chat question.
type QueryType string

const (
	CropAdvice     QueryType = "Crop Advice"
	PestManagement QueryType = "Pest Management"
	SoilHealth     QueryType = "Soil Health"
	WeatherTips    QueryType = "Weather Tips"
)

// QueryTypes lists the supported topics in display order.
var QueryTypes = []QueryType{CropAdvice, PestManagement, SoilHealth, WeatherTips}

var ErrUnknownQueryType = errors.New("unknown query type")

// ParseQueryType accepts the display form ("Pest Management") or a slug
// ("pest-management", "pest_management"), case-insensitively.
func ParseQueryType(s string) (QueryType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	for _, qt := range QueryTypes {
		if strings.ToLower(string(qt)) == norm {
			return qt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownQueryType, s)
}

// Slug returns the lower-case hyphenated form used as an intent label.
func (q QueryType) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(q)), " ", "-")
}

// FarmingTips are the static tips shown alongside every answer.
var FarmingTips = []string{
	"Rotate crops",
	"Monitor pests regularly",
	"Use organic fertilizers",
	"Adjust irrigation to weather",
}

const leafDiagnosisTemplate = `You are an expert plant pathologist.
Inspect this leaf image and return ONLY:

**TABLE**
Include:
- Disease / Condition Name
- Severity Level (1-10)
- Possible Cause
- Visible Symptoms
- Recommended Treatment

**SUMMARY**
- Max {{bullets}} bullets
- Actionable instructions
- Keep concise
`

const agronomistSystemTemplate = `You are an expert agronomist.
Always reply with:

**TABLE**
Columns must be relevant based on topic.

**SUMMARY**
- max {{bullets}} bullets
- actionable tips
- concise
`

// ChatUser frames a farmer's question with its topic.
const ChatUser = "[{{query_type}}] {{question}}"

// Variant is one of the deployable flavours of the assistant. They differ in
// summary length and whether speech features are offered.
type Variant struct {
	Name          string `json:"name"`
	SpeechEnabled bool   `json:"speech_enabled"`
	LeafBullets   int    `json:"leaf_bullets"`
	ChatBullets   int    `json:"chat_bullets"`
}

var variants = map[string]Variant{
	"full":    {Name: "full", SpeechEnabled: true, LeafBullets: 5, ChatBullets: 6},
	"text":    {Name: "text", SpeechEnabled: false, LeafBullets: 5, ChatBullets: 6},
	"compact": {Name: "compact", SpeechEnabled: true, LeafBullets: 3, ChatBullets: 3},
}

// LookupVariant returns the named variant. An empty name selects "full".
func LookupVariant(name string) (Variant, error) {
	if name == "" {
		name = "full"
	}
	v, ok := variants[strings.ToLower(name)]
	if !ok {
		return Variant{}, fmt.Errorf("unknown variant %q (want full, text or compact)", name)
	}
	return v, nil
}

// LeafDiagnosis is the vision prompt sent with a leaf photo.
func (v Variant) LeafDiagnosis() string {
	return mustRender(leafDiagnosisTemplate, map[string]string{"bullets": fmt.Sprint(v.LeafBullets)})
}

// AgronomistSystem is the system prompt for chat turns.
func (v Variant) AgronomistSystem() string {
	return mustRender(agronomistSystemTemplate, map[string]string{"bullets": fmt.Sprint(v.ChatBullets)})
}

// ChatMessage renders the user turn for a question of the given type.
func ChatMessage(qt QueryType, question string) string {
	return mustRender(ChatUser, map[string]string{
		"query_type": string(qt),
		"question":   strings.TrimSpace(question),
	})
}

func mustRender(tmpl string, vars map[string]string) string {
	out, err := Render(tmpl, vars)
	if err != nil {
		panic(err)
	}
	return out
}
