package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortText(t *testing.T) {
	assert.Equal(t, []string{"Water early."}, Split("  Water early. ", 100))
	assert.Nil(t, Split("   ", 100))
	assert.Equal(t, []string{"abc"}, Split("abc", 0))
}

func TestSplitPrefersParagraphs(t *testing.T) {
	text := "Apply urea in two doses.\n\nIrrigate after each dose."
	assert.Equal(t, []string{"Apply urea in two doses.", "Irrigate after each dose."}, Split(text, 30))
}

func TestSplitSentencesKeepFullStop(t *testing.T) {
	text := "Scout the field weekly. Remove infected leaves. Spray neem oil at dusk."
	pieces := Split(text, 50)
	require.Len(t, pieces, 2)
	assert.Equal(t, "Scout the field weekly. Remove infected leaves.", pieces[0])
	assert.Equal(t, "Spray neem oil at dusk.", pieces[1])
}

func TestSplitRespectsBudget(t *testing.T) {
	text := strings.Repeat("ਪਾਣੀ ", 200) + strings.Repeat("x", 90)
	for _, p := range Split(text, 40) {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 40)
		assert.True(t, utf8.ValidString(p))
	}
}

func TestClip(t *testing.T) {
	text := "Scout the field weekly. Remove infected leaves. Spray neem oil at dusk."
	assert.Equal(t, "Scout the field weekly.", Clip(text, 30))
	assert.Equal(t, text, Clip(text, len(text)))
	assert.Equal(t, "abcd", Clip("abcdefgh", 4))
	assert.Equal(t, "short", Clip(" short ", 0))
}
