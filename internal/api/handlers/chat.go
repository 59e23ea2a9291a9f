package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jaspreetkaur1509/Agri-bot/internal/chat"
	"github.com/jaspreetkaur1509/Agri-bot/internal/memory"
	"github.com/jaspreetkaur1509/Agri-bot/internal/prompt"
)

type ChatHandler struct {
	svc           *chat.Service
	maxAudioBytes int64
}

func NewChatHandler(svc *chat.Service, maxAudioBytes int64) *ChatHandler {
	return &ChatHandler{svc: svc, maxAudioBytes: maxAudioBytes}
}

// chatRequest carries the conversation so far; the server keeps no chat
// state between requests.
type chatRequest struct {
	Conversation memory.Conversation `json:"conversation"`
	Question     string              `json:"question"`
	QueryType    string              `json:"query_type,omitempty"`
	Speak        bool                `json:"speak,omitempty"`
}

type chatResponse struct {
	Reply        *chat.Reply         `json:"reply"`
	Conversation memory.Conversation `json:"conversation"`
}

func parseQueryType(s string) (prompt.QueryType, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return prompt.ParseQueryType(s)
}

func (h *ChatHandler) decode(r *http.Request) (*chatRequest, chat.Question, error) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, chat.Question{}, badRequest("invalid request body")
	}
	qt, err := parseQueryType(req.QueryType)
	if err != nil {
		return nil, chat.Question{}, err
	}
	return &req, chat.Question{Text: req.Question, QueryType: qt, Speak: req.Speak}, nil
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	req, q, err := h.decode(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conv, reply, err := h.svc.Ask(r.Context(), req.Conversation, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, Conversation: conv})
}

type streamEvent struct {
	Content      string               `json:"content,omitempty"`
	Done         bool                 `json:"done,omitempty"`
	QueryType    prompt.QueryType     `json:"query_type,omitempty"`
	Truncated    bool                 `json:"truncated,omitempty"`
	Conversation *memory.Conversation `json:"conversation,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// AskStream answers over server-sent events. The last event carries the
// extended conversation.
func (h *ChatHandler) AskStream(w http.ResponseWriter, r *http.Request) {
	req, q, err := h.decode(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	stream, err := h.svc.AskStream(r.Context(), req.Conversation, q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(ev streamEvent) {
		data, _ := json.Marshal(ev)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	var answer strings.Builder
	for chunk := range stream.Chunks {
		if chunk.Error != nil {
			send(streamEvent{Error: chunk.Error.Error(), Done: true})
			return
		}
		if chunk.Content != "" {
			answer.WriteString(chunk.Content)
			send(streamEvent{Content: chunk.Content})
		}
		if chunk.Done {
			break
		}
	}

	conv := stream.Finish(answer.String())
	send(streamEvent{Done: true, QueryType: stream.QueryType, Truncated: stream.Truncated, Conversation: &conv})
}

// Voice accepts a multipart form with an "audio" recording, an optional
// JSON "conversation" field, "query_type" and "speak".
func (h *ChatHandler) Voice(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r, "audio", h.maxAudioBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var conv memory.Conversation
	if raw := r.FormValue("conversation"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &conv); err != nil {
			writeError(w, r, badRequest("invalid conversation"))
			return
		}
	}
	qt, err := parseQueryType(r.FormValue("query_type"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	next, reply, err := h.svc.AskAudio(r.Context(), conv, chat.AudioQuestion{
		Audio:     up.Data,
		Filename:  up.Filename,
		QueryType: qt,
		Speak:     formBool(r, "speak"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, Conversation: next})
}
