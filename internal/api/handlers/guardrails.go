package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jaspreetkaur1509/Agri-bot/internal/guardrails"
)

type GuardrailHandler struct {
	pipeline *guardrails.Pipeline
	intents  *guardrails.IntentClassifier
}

func NewGuardrailHandler(pipeline *guardrails.Pipeline, intents *guardrails.IntentClassifier) *GuardrailHandler {
	return &GuardrailHandler{pipeline: pipeline, intents: intents}
}

type textRequest struct {
	Text string `json:"text"`
}

func decodeText(r *http.Request) (string, bool) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", false
	}
	text := strings.TrimSpace(req.Text)
	return text, text != ""
}

// Check runs a question through the input guardrails without answering it.
func (h *GuardrailHandler) Check(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text required"})
		return
	}

	result, err := h.pipeline.Check(r.Context(), text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Classify returns the query type the chat would pick for a question.
func (h *GuardrailHandler) Classify(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text required"})
		return
	}
	writeJSON(w, http.StatusOK, h.intents.Classify(r.Context(), text))
}
