package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreetkaur1509/Agri-bot/internal/cache"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal/tts"
	"github.com/jaspreetkaur1509/Agri-bot/internal/queue"
	"github.com/jaspreetkaur1509/Agri-bot/internal/speech"
)

type fakeTTS struct {
	got tts.SynthesisRequest
	err error
}

func (f *fakeTTS) Name() string { return "fake" }
func (f *fakeTTS) Synthesize(_ context.Context, req tts.SynthesisRequest) (*tts.SynthesisResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &tts.SynthesisResult{Audio: []byte("mp3"), ContentType: "audio/mpeg"}, nil
}

func task(t *testing.T, p queue.SpeechSynthesizePayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeSpeechSynthesize, data)
}

func TestSpeechWorkerStoresAudio(t *testing.T) {
	ctx := context.Background()
	store := speech.NewStore(cache.NewMemory(), time.Hour)
	require.NoError(t, store.Put(ctx, speech.Job{ID: "j1", Status: speech.StatusPending}))

	synth := &fakeTTS{}
	w := NewSpeechWorker(synth, store)
	require.NoError(t, w.ProcessTask(ctx, task(t, queue.SpeechSynthesizePayload{JobID: "j1", Text: "Apply compost", Voice: "nova"})))

	assert.Equal(t, "nova", synth.got.Voice)
	job, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, speech.StatusDone, job.Status)
	assert.Equal(t, "audio/mpeg", job.ContentType)
	assert.Equal(t, []byte("mp3"), job.Audio)
}

func TestSpeechWorkerRecordsFailure(t *testing.T) {
	ctx := context.Background()
	store := speech.NewStore(cache.NewMemory(), time.Hour)
	w := NewSpeechWorker(&fakeTTS{err: errors.New("tts down")}, store)

	err := w.ProcessTask(ctx, task(t, queue.SpeechSynthesizePayload{JobID: "j2", Text: "x"}))
	require.Error(t, err)

	job, err := store.Get(ctx, "j2")
	require.NoError(t, err)
	assert.Equal(t, speech.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "tts down")
}

func TestSpeechWorkerBadPayloadSkipsRetry(t *testing.T) {
	w := NewSpeechWorker(&fakeTTS{}, speech.NewStore(cache.NewMemory(), time.Hour))
	err := w.ProcessTask(context.Background(), asynq.NewTask(queue.TypeSpeechSynthesize, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
