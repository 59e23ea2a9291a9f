// Package diagnosis inspects crop leaf photos with a vision model.
package diagnosis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jaspreetkaur1509/Agri-bot/internal/cache"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal"
	"github.com/jaspreetkaur1509/Agri-bot/internal/prompt"
)

var ErrImageTooLarge = errors.New("image too large")

// Analyzer is the vision capability; *multimodal.VisionService satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req multimodal.VisionRequest) (*multimodal.VisionResponse, error)
}

// SpeechQueue schedules read-aloud synthesis and returns the job ID.
type SpeechQueue interface {
	EnqueueSpeech(ctx context.Context, text string) (string, error)
}

// Image is an uploaded leaf photo.
type Image struct {
	Data     []byte
	MimeType string
	Filename string // client-side name, echoed in the Result; not part of the cache key
}

// Result is a diagnosis. Text is the model's TABLE + SUMMARY markdown.
type Result struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Filename   string    `json:"filename,omitempty"`
	Cached     bool      `json:"cached"`
	AudioJobID string    `json:"audio_job_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Options struct {
	Cache    cache.Store // nil disables caching
	CacheTTL time.Duration
	MaxBytes int64
	Model    string // cache key component; empty uses "default"
	Speech   SpeechQueue
}

type Service struct {
	vision  Analyzer
	variant prompt.Variant
	opts    Options
}

func NewService(vision Analyzer, variant prompt.Variant, opts Options) *Service {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 << 20
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.Model == "" {
		opts.Model = "default"
	}
	return &Service{vision: vision, variant: variant, opts: opts}
}

// Diagnose returns the model's assessment of img. Identical images are
// served from cache for the configured TTL; the cached Result keeps its
// original ID.
func (s *Service) Diagnose(ctx context.Context, img Image, speak bool) (*Result, error) {
	if int64(len(img.Data)) > s.opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrImageTooLarge, len(img.Data), s.opts.MaxBytes)
	}
	mime, err := multimodal.DetectImageType(img.Data, img.MimeType)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey(img.Data)
	if res, ok := s.lookup(ctx, key); ok {
		res.Cached = true
		res.Filename = img.Filename
		s.maybeSpeak(ctx, res, speak)
		return res, nil
	}

	resp, err := s.vision.Analyze(ctx, multimodal.VisionRequest{
		Images:   []multimodal.ImageInput{{Data: img.Data, MimeType: mime}},
		System:   "You analyze photos of crop leaves for farmers.",
		Prompt:   s.variant.LeafDiagnosis(),
		Endpoint: "diagnosis",
	})
	if err != nil {
		return nil, fmt.Errorf("diagnose: %w", err)
	}

	res := &Result{
		ID:        uuid.NewString(),
		Text:      resp.Content,
		Provider:  resp.Provider,
		Model:     resp.Model,
		CreatedAt: time.Now().UTC(),
	}
	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(ctx, key, res, s.opts.CacheTTL); err != nil {
			slog.Warn("diagnosis cache write failed", "error", err)
		}
	}
	res.Filename = img.Filename

	s.maybeSpeak(ctx, res, speak)
	return res, nil
}

func (s *Service) cacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("diagnosis:%s:%s:%s", s.opts.Model, s.variant.Name, hex.EncodeToString(sum[:]))
}

func (s *Service) lookup(ctx context.Context, key string) (*Result, bool) {
	if s.opts.Cache == nil {
		return nil, false
	}
	var res Result
	if err := s.opts.Cache.Get(ctx, key, &res); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("diagnosis cache read failed", "error", err)
		}
		return nil, false
	}
	return &res, true
}

func (s *Service) maybeSpeak(ctx context.Context, res *Result, speak bool) {
	if !speak || !s.variant.SpeechEnabled || s.opts.Speech == nil {
		return
	}
	id, err := s.opts.Speech.EnqueueSpeech(ctx, res.Text)
	if err != nil {
		slog.Warn("speech enqueue failed", "diagnosis_id", res.ID, "error", err)
		return
	}
	res.AudioJobID = id
}
