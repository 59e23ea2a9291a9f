package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal/tts"
	"github.com/jaspreetkaur1509/Agri-bot/internal/queue"
	"github.com/jaspreetkaur1509/Agri-bot/internal/speech"
)

// SpeechWorker turns queued answer text into audio.
type SpeechWorker struct {
	tts   tts.TTSProvider
	store *speech.Store
}

func NewSpeechWorker(provider tts.TTSProvider, store *speech.Store) *SpeechWorker {
	return &SpeechWorker{tts: provider, store: store}
}

func (w *SpeechWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.SpeechSynthesizePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	job, err := w.store.Get(ctx, payload.JobID)
	if err != nil {
		// Record expired or never written; synthesize anyway so the ID resolves.
		job = &speech.Job{ID: payload.JobID}
	}

	slog.Info("synthesizing speech", "job_id", payload.JobID, "backend", w.tts.Name(), "chars", len(payload.Text))

	res, err := w.tts.Synthesize(ctx, tts.SynthesisRequest{Input: payload.Text, Voice: payload.Voice})
	if err != nil {
		if finalAttempt(ctx) {
			job.Status = speech.StatusFailed
			job.Error = err.Error()
			if perr := w.store.Put(ctx, *job); perr != nil {
				slog.Error("failed to record speech failure", "job_id", payload.JobID, "error", perr)
			}
		}
		return fmt.Errorf("synthesize: %w", err)
	}

	job.Status = speech.StatusDone
	job.ContentType = res.ContentType
	job.Audio = res.Audio
	job.Error = ""
	if err := w.store.Put(ctx, *job); err != nil {
		return fmt.Errorf("store audio: %w", err)
	}

	slog.Info("speech ready", "job_id", payload.JobID, "bytes", len(res.Audio))
	return nil
}

func finalAttempt(ctx context.Context) bool {
	retried, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return true
	}
	return retried >= maxRetry
}
