// Package speech tracks read-aloud jobs. The API enqueues a job and returns
// its ID; the worker synthesizes the audio and stores it here until the
// client collects it.
package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jaspreetkaur1509/Agri-bot/internal/cache"
	"github.com/jaspreetkaur1509/Agri-bot/internal/queue"
	"github.com/jaspreetkaur1509/Agri-bot/pkg/chunker"
)

var ErrNotFound = errors.New("speech job not found")

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job is the stored state of one synthesis request.
type Job struct {
	ID          string    `json:"id"`
	Status      Status    `json:"status"`
	ContentType string    `json:"content_type,omitempty"`
	Audio       []byte    `json:"audio,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store keeps jobs under speech:<id> for a fixed TTL.
type Store struct {
	cache cache.Store
	ttl   time.Duration
}

func NewStore(c cache.Store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{cache: c, ttl: ttl}
}

func key(id string) string { return "speech:" + id }

func (s *Store) Put(ctx context.Context, job Job) error {
	return s.cache.Set(ctx, key(job.ID), job, s.ttl)
}

func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := s.cache.Get(ctx, key(id), &job); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Enqueuer is the queue side of the job lifecycle.
type Enqueuer interface {
	EnqueueSpeechSynthesize(ctx context.Context, payload queue.SpeechSynthesizePayload) error
}

// Service creates jobs for the chat and diagnosis services.
type Service struct {
	store *Store
	queue Enqueuer
	voice string
}

func NewService(store *Store, q Enqueuer, voice string) *Service {
	return &Service{store: store, queue: q, voice: voice}
}

// MaxInputChars is the longest text handed to a TTS backend.
const MaxInputChars = 4096

// EnqueueSpeech records a pending job and queues it for the worker. Text over
// MaxInputChars is clipped at the last paragraph or sentence break that fits.
func (s *Service) EnqueueSpeech(ctx context.Context, text string) (string, error) {
	text = chunker.Clip(text, MaxInputChars)
	job := Job{ID: uuid.NewString(), Status: StatusPending, CreatedAt: time.Now().UTC()}
	if err := s.store.Put(ctx, job); err != nil {
		return "", fmt.Errorf("store speech job: %w", err)
	}

	err := s.queue.EnqueueSpeechSynthesize(ctx, queue.SpeechSynthesizePayload{
		JobID: job.ID,
		Text:  text,
		Voice: s.voice,
	})
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		_ = s.store.Put(ctx, job)
		return "", err
	}
	return job.ID, nil
}

// Job returns the stored job.
func (s *Service) Job(ctx context.Context, id string) (*Job, error) {
	return s.store.Get(ctx, id)
}
