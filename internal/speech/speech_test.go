package speech

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreetkaur1509/Agri-bot/internal/cache"
	"github.com/jaspreetkaur1509/Agri-bot/internal/queue"
)

type fakeEnqueuer struct {
	payloads []queue.SpeechSynthesizePayload
	err      error
}

func (f *fakeEnqueuer) EnqueueSpeechSynthesize(_ context.Context, p queue.SpeechSynthesizePayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, p)
	return nil
}

func TestEnqueueSpeech(t *testing.T) {
	ctx := context.Background()
	q := &fakeEnqueuer{}
	svc := NewService(NewStore(cache.NewMemory(), time.Hour), q, "alloy")

	id, err := svc.EnqueueSpeech(ctx, "Rotate crops")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Len(t, q.payloads, 1)
	assert.Equal(t, id, q.payloads[0].JobID)
	assert.Equal(t, "Rotate crops", q.payloads[0].Text)
	assert.Equal(t, "alloy", q.payloads[0].Voice)

	job, err := svc.Job(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
}

func TestEnqueueSpeechClipsLongText(t *testing.T) {
	q := &fakeEnqueuer{}
	svc := NewService(NewStore(cache.NewMemory(), time.Hour), q, "")

	first := strings.Repeat("Irrigate at dawn. ", 200)
	text := strings.TrimSpace(first) + "\n\n" + strings.Repeat("Mulch the beds. ", 100)
	_, err := svc.EnqueueSpeech(context.Background(), text)
	require.NoError(t, err)

	require.Len(t, q.payloads, 1)
	got := q.payloads[0].Text
	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxInputChars)
	assert.Equal(t, strings.TrimSpace(first), got)
}

func TestEnqueueSpeechFailureMarksJob(t *testing.T) {
	ctx := context.Background()
	store := NewStore(cache.NewMemory(), time.Hour)
	svc := NewService(store, &fakeEnqueuer{err: errors.New("redis down")}, "")

	_, err := svc.EnqueueSpeech(ctx, "x")
	assert.ErrorContains(t, err, "redis down")
}

func TestJobNotFound(t *testing.T) {
	svc := NewService(NewStore(cache.NewMemory(), 0), &fakeEnqueuer{}, "")
	_, err := svc.Job(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
