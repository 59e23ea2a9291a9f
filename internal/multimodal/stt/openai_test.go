package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreetkaur1509/Agri-bot/internal/config"
)

func TestOpenAISTTTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "question.webm", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "RIFFdata", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"when should I water wheat","language":"english","duration":2.5}`))
	}))
	defer srv.Close()

	p := NewOpenAISTT(OpenAISTTConfig{APIKey: "sk-test", BaseURL: srv.URL})
	resp, err := p.Transcribe(context.Background(), TranscriptionRequest{
		Audio:    []byte("RIFFdata"),
		Filename: "uploads/question.webm",
		Language: "en",
	})
	require.NoError(t, err)
	assert.Equal(t, "when should I water wheat", resp.Text)
	assert.Equal(t, 2.5, resp.Duration)
}

func TestOpenAISTTErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad audio", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewOpenAISTT(OpenAISTTConfig{BaseURL: srv.URL})

	_, err := p.Transcribe(context.Background(), TranscriptionRequest{})
	assert.ErrorIs(t, err, ErrEmptyAudio)

	_, err = p.Transcribe(context.Background(), TranscriptionRequest{Audio: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestNewAppliesDefaultLanguage(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got = r.FormValue("language")
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	p := New(config.STTConfig{Backend: "local", LocalBaseURL: srv.URL, Language: "hi"})
	assert.Equal(t, "local-whisper", p.Name())

	_, err := p.Transcribe(context.Background(), TranscriptionRequest{Audio: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
}
