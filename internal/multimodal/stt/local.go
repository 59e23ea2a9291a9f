package stt

// LocalSTTConfig holds configuration for the local whisper.cpp STT backend.
type LocalSTTConfig struct {
	BaseURL string // default: "http://localhost:8178"
}

// LocalSTT points the Whisper client at a self-hosted server, for farms
// without reliable uplink. The server must expose /audio/transcriptions.
type LocalSTT struct {
	*OpenAISTT
}

func NewLocalSTT(cfg LocalSTTConfig) *LocalSTT {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8178"
	}
	return &LocalSTT{OpenAISTT: NewOpenAISTT(OpenAISTTConfig{BaseURL: baseURL})}
}

func (l *LocalSTT) Name() string { return "local-whisper" }
