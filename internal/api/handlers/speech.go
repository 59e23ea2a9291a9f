package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaspreetkaur1509/Agri-bot/internal/chat"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal/stt"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal/tts"
	"github.com/jaspreetkaur1509/Agri-bot/internal/speech"
)

type SpeechHandler struct {
	tts           tts.TTSProvider
	stt           stt.STTProvider
	jobs          *speech.Service
	enabled       bool
	maxAudioBytes int64
}

func NewSpeechHandler(ttsProvider tts.TTSProvider, sttProvider stt.STTProvider, jobs *speech.Service, enabled bool, maxAudioBytes int64) *SpeechHandler {
	return &SpeechHandler{
		tts:           ttsProvider,
		stt:           sttProvider,
		jobs:          jobs,
		enabled:       enabled,
		maxAudioBytes: maxAudioBytes,
	}
}

// Speak converts text to audio synchronously.
func (h *SpeechHandler) Speak(w http.ResponseWriter, r *http.Request) {
	if !h.enabled || h.tts == nil {
		writeError(w, r, chat.ErrSpeechDisabled)
		return
	}

	var req tts.SynthesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Input == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "input text required"})
		return
	}
	if len([]rune(req.Input)) > speech.MaxInputChars {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "input text too long"})
		return
	}

	result, err := h.tts.Synthesize(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(result.Audio)
}

// Transcribe converts an uploaded "audio" file to text.
func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if !h.enabled || h.stt == nil {
		writeError(w, r, chat.ErrSpeechDisabled)
		return
	}

	up, err := readUpload(w, r, "audio", h.maxAudioBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.stt.Transcribe(r.Context(), stt.TranscriptionRequest{
		Audio:    up.Data,
		Filename: up.Filename,
		Language: r.FormValue("language"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Job serves queued read-aloud audio: 200 with the audio once done, 202
// while pending, 404 for unknown or expired IDs.
func (h *SpeechHandler) Job(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeError(w, r, chat.ErrSpeechDisabled)
		return
	}

	job, err := h.jobs.Job(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch job.Status {
	case speech.StatusDone:
		w.Header().Set("Content-Type", job.ContentType)
		w.WriteHeader(http.StatusOK)
		w.Write(job.Audio)
	case speech.StatusFailed:
		writeJSON(w, http.StatusBadGateway, map[string]string{"id": job.ID, "status": string(job.Status), "error": job.Error})
	default:
		w.Header().Set("Retry-After", "2")
		writeJSON(w, http.StatusAccepted, map[string]string{"id": job.ID, "status": string(job.Status)})
	}
}
