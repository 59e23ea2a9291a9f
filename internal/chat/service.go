// Package chat answers farmer questions with the agronomist prompt. The
// service is stateless: each call takes the conversation so far and returns
// the extended conversation alongside the reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jaspreetkaur1509/Agri-bot/internal/guardrails"
	"github.com/jaspreetkaur1509/Agri-bot/internal/llm"
	"github.com/jaspreetkaur1509/Agri-bot/internal/memory"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal/stt"
	"github.com/jaspreetkaur1509/Agri-bot/internal/prompt"
)

var (
	ErrEmptyQuestion  = errors.New("question is empty")
	ErrSpeechDisabled = errors.New("speech features are disabled")
)

// SpeechQueue schedules read-aloud synthesis and returns the job ID.
type SpeechQueue interface {
	EnqueueSpeech(ctx context.Context, text string) (string, error)
}

// Question is one farmer turn.
type Question struct {
	Text      string           `json:"question"`
	QueryType prompt.QueryType `json:"query_type,omitempty"` // empty: classify
	Speak     bool             `json:"speak,omitempty"`
}

// AudioQuestion is a spoken farmer turn.
type AudioQuestion struct {
	Audio     []byte
	Filename  string
	QueryType prompt.QueryType
	Speak     bool
}

// Reply is the assistant's answer to a Question.
type Reply struct {
	Text       string           `json:"text"`
	QueryType  prompt.QueryType `json:"query_type"`
	Provider   string           `json:"provider"`
	Model      string           `json:"model"`
	Truncated  bool             `json:"truncated"`
	Transcript string           `json:"transcript,omitempty"`
	AudioJobID string           `json:"audio_job_id,omitempty"`
}

type Options struct {
	Guards        *guardrails.Pipeline
	Intents       *guardrails.IntentClassifier
	STT           stt.STTProvider
	Speech        SpeechQueue
	HistoryWindow int // entries sent with each turn
	ContextTokens int
}

type Service struct {
	gateway llm.Gateway
	variant prompt.Variant
	opts    Options
	engine  *memory.ContextEngine
}

func NewService(gw llm.Gateway, variant prompt.Variant, opts Options) *Service {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 20
	}
	return &Service{
		gateway: gw,
		variant: variant,
		opts:    opts,
		engine:  memory.NewContextEngine(opts.ContextTokens),
	}
}

type turn struct {
	conv      memory.Conversation
	queryType prompt.QueryType
	userMsg   string
	request   llm.ChatRequest
	truncated bool
}

func (s *Service) prepare(ctx context.Context, conv memory.Conversation, q Question) (*turn, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, ErrEmptyQuestion
	}

	if s.opts.Guards != nil {
		if err := s.opts.Guards.Enforce(ctx, text); err != nil {
			return nil, err
		}
	}

	qt := q.QueryType
	if qt == "" {
		qt = prompt.CropAdvice
		if s.opts.Intents != nil {
			qt = s.opts.Intents.Classify(ctx, text).QueryType
		}
	}

	// Long conversations keep a summary instead of their oldest turns.
	if limit := 2 * s.opts.HistoryWindow; conv.Len() > limit {
		compacted, err := memory.Compact(ctx, s.gateway, conv, limit)
		if err != nil {
			slog.Warn("conversation compaction failed", "conversation_id", conv.ID, "error", err)
		}
		conv = compacted
	}

	userMsg := prompt.ChatMessage(qt, text)
	assembled := s.engine.Assemble(memory.ContextParts{
		SystemPrompt: s.variant.AgronomistSystem(),
		Summary:      conv.Summary,
		History:      conv.Window(s.opts.HistoryWindow),
		UserMessage:  userMsg,
	})

	return &turn{
		conv:      conv,
		queryType: qt,
		userMsg:   userMsg,
		request:   llm.ChatRequest{Messages: assembled.Messages, Endpoint: "chat"},
		truncated: assembled.Truncated,
	}, nil
}

func (t *turn) finish(answer, model string) memory.Conversation {
	assistant := memory.Entry{Role: "assistant", Content: answer}
	if model != "" {
		assistant.Metadata = map[string]string{"model": model}
	}
	return t.conv.Append(
		memory.Entry{Role: "user", Content: t.userMsg, Metadata: map[string]string{"query_type": string(t.queryType)}},
		assistant,
	)
}

// Ask answers q in the context of conv. On error conv is returned unchanged.
func (s *Service) Ask(ctx context.Context, conv memory.Conversation, q Question) (memory.Conversation, *Reply, error) {
	t, err := s.prepare(ctx, conv, q)
	if err != nil {
		return conv, nil, err
	}

	resp, err := s.gateway.Chat(ctx, t.request)
	if err != nil {
		return conv, nil, fmt.Errorf("chat: %w", err)
	}

	reply := &Reply{
		Text:      resp.Content,
		QueryType: t.queryType,
		Provider:  resp.Provider,
		Model:     resp.Model,
		Truncated: t.truncated,
	}
	if q.Speak {
		reply.AudioJobID = s.enqueueSpeech(ctx, resp.Content)
	}

	return t.finish(resp.Content, resp.Model), reply, nil
}

// AskAudio transcribes the recording and answers it like a typed question.
func (s *Service) AskAudio(ctx context.Context, conv memory.Conversation, q AudioQuestion) (memory.Conversation, *Reply, error) {
	if !s.variant.SpeechEnabled || s.opts.STT == nil {
		return conv, nil, ErrSpeechDisabled
	}

	tr, err := s.opts.STT.Transcribe(ctx, stt.TranscriptionRequest{Audio: q.Audio, Filename: q.Filename})
	if err != nil {
		return conv, nil, fmt.Errorf("transcribe: %w", err)
	}

	next, reply, err := s.Ask(ctx, conv, Question{Text: tr.Text, QueryType: q.QueryType, Speak: q.Speak})
	if err != nil {
		return conv, nil, err
	}
	reply.Transcript = strings.TrimSpace(tr.Text)
	return next, reply, nil
}

// Stream is an in-flight streamed answer. Call Finish with the concatenated
// chunks once the channel closes to obtain the extended conversation.
type Stream struct {
	Chunks    <-chan llm.StreamChunk
	QueryType prompt.QueryType
	Truncated bool

	turn *turn
}

func (st *Stream) Finish(answer string) memory.Conversation {
	return st.turn.finish(answer, "")
}

// AskStream is Ask with the answer delivered incrementally.
func (s *Service) AskStream(ctx context.Context, conv memory.Conversation, q Question) (*Stream, error) {
	t, err := s.prepare(ctx, conv, q)
	if err != nil {
		return nil, err
	}

	ch, err := s.gateway.ChatStream(ctx, t.request)
	if err != nil {
		return nil, fmt.Errorf("chat stream: %w", err)
	}
	return &Stream{Chunks: ch, QueryType: t.queryType, Truncated: t.truncated, turn: t}, nil
}

func (s *Service) enqueueSpeech(ctx context.Context, text string) string {
	if !s.variant.SpeechEnabled || s.opts.Speech == nil {
		return ""
	}
	id, err := s.opts.Speech.EnqueueSpeech(ctx, text)
	if err != nil {
		slog.Warn("speech enqueue failed", "error", err)
		return ""
	}
	return id
}

// Variant reports the variant this service answers with.
func (s *Service) Variant() prompt.Variant { return s.variant }
