package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	type entry struct {
		Text  string `json:"text"`
		Score int    `json:"score"`
	}
	require.NoError(t, m.Set(ctx, "k", entry{Text: "rust", Score: 7}, 0))

	var got entry
	require.NoError(t, m.Get(ctx, "k", &got))
	assert.Equal(t, entry{Text: "rust", Score: 7}, got)

	require.NoError(t, m.Delete(ctx, "k"))
	assert.ErrorIs(t, m.Get(ctx, "k", &got), ErrMiss)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))

	var s string
	require.NoError(t, m.Get(ctx, "k", &s))
	assert.Equal(t, "v", s)

	now = now.Add(time.Minute)
	assert.ErrorIs(t, m.Get(ctx, "k", &s), ErrMiss)
}

func TestMemoryDecodeError(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", "text", 0))

	var n int
	err := m.Get(ctx, "k", &n)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
