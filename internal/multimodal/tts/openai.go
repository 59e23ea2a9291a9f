package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITTSConfig holds configuration for the OpenAI TTS backend.
type OpenAITTSConfig struct {
	APIKey  string
	BaseURL string // default: "https://api.openai.com/v1"
	Model   string // default: "tts-1"

	DefaultVoice string // default: "alloy"
}

// OpenAITTS reads answers aloud through the OpenAI speech endpoint.
type OpenAITTS struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

func NewOpenAITTS(cfg OpenAITTSConfig) *OpenAITTS {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: 2 * time.Minute}

	t := &OpenAITTS{
		client: openai.NewClientWithConfig(oc),
		model:  openai.TTSModel1,
		voice:  openai.VoiceAlloy,
	}
	if cfg.Model != "" {
		t.model = openai.SpeechModel(cfg.Model)
	}
	if cfg.DefaultVoice != "" {
		t.voice = openai.SpeechVoice(cfg.DefaultVoice)
	}
	return t
}

func (o *OpenAITTS) Name() string { return "openai-tts" }

// Synthesize returns MP3 audio. Markdown in the input is flattened first.
// The API infers the language from the text, so req.Language is not sent.
func (o *OpenAITTS) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	input := PlainText(req.Input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	voice := o.voice
	if req.Voice != "" {
		voice = openai.SpeechVoice(req.Voice)
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          o.model,
		Input:          input,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          req.Speed,
	})
	if err != nil {
		if code := upstreamStatus(err); code != 0 {
			return nil, fmt.Errorf("tts failed (status %d): %w", code, err)
		}
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	return &SynthesisResult{Audio: audio, ContentType: "audio/mpeg"}, nil
}

func upstreamStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
