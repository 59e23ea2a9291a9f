package queue

const (
	TypeSpeechSynthesize = "speech:synthesize"
)

// SpeechSynthesizePayload asks the worker to read Text aloud and store the
// audio under JobID.
type SpeechSynthesizePayload struct {
	JobID string `json:"job_id"`
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}
