// Package stt turns recorded farmer questions into text.
package stt

import (
	"context"

	"github.com/jaspreetkaur1509/Agri-bot/internal/config"
)

// TranscriptionRequest is one uploaded voice note. Filename carries the
// container format (webm, ogg, wav) to the backend.
type TranscriptionRequest struct {
	Audio    []byte `json:"-"`
	Filename string `json:"filename"`
	Language string `json:"language,omitempty"` // ISO-639-1, e.g. "pa", "hi"
	Prompt   string `json:"prompt,omitempty"`   // crop and pest vocabulary hints
}

type TranscriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

type STTProvider interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)
	Name() string
}

// New picks the backend named by STT_BACKEND. Requests that leave Language
// empty get the configured default.
func New(cfg config.STTConfig) STTProvider {
	var p STTProvider
	if cfg.Backend == "local" {
		p = NewLocalSTT(LocalSTTConfig{BaseURL: cfg.LocalBaseURL})
	} else {
		p = NewOpenAISTT(OpenAISTTConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	}
	return &defaultLanguage{STTProvider: p, language: cfg.Language}
}

type defaultLanguage struct {
	STTProvider
	language string
}

func (d *defaultLanguage) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	if req.Language == "" {
		req.Language = d.language
	}
	return d.STTProvider.Transcribe(ctx, req)
}
