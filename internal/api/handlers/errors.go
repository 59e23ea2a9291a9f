package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jaspreetkaur1509/Agri-bot/internal/advisory"
	"github.com/jaspreetkaur1509/Agri-bot/internal/chat"
	"github.com/jaspreetkaur1509/Agri-bot/internal/diagnosis"
	"github.com/jaspreetkaur1509/Agri-bot/internal/guardrails"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal/stt"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal/tts"
	"github.com/jaspreetkaur1509/Agri-bot/internal/prompt"
	"github.com/jaspreetkaur1509/Agri-bot/internal/speech"
	"github.com/jaspreetkaur1509/Agri-bot/internal/weather"
)

var errBadRequest = errors.New("bad request")

// badRequest marks a request-shape problem found by the handler itself.
func badRequest(msg string) error {
	return &requestError{msg: msg}
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return errBadRequest }

func statusFor(err error) int {
	var (
		blocked *guardrails.BlockedError
		tooBig  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, advisory.ErrInvalidSample),
		errors.Is(err, prompt.ErrUnknownQueryType),
		errors.Is(err, chat.ErrEmptyQuestion),
		errors.Is(err, multimodal.ErrUnsupportedImage),
		errors.Is(err, weather.ErrInvalidCoordinates),
		errors.Is(err, stt.ErrEmptyAudio),
		errors.Is(err, tts.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.As(err, &blocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, diagnosis.ErrImageTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, speech.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrSpeechDisabled), errors.Is(err, weather.ErrNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusBadGateway
	}
}

// writeError maps err onto a status code and an {"error": ...} body. Field
// errors and guardrail flags are included when present.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := map[string]interface{}{"error": err.Error()}

	var (
		invalid *advisory.ValidationError
		blocked *guardrails.BlockedError
	)
	if errors.As(err, &invalid) {
		body["fields"] = invalid.Fields
	}
	if errors.As(err, &blocked) {
		body["error"] = "question rejected: " + blocked.Reason
		body["flags"] = blocked.Flags
	}

	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		slog.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}
