package multimodal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreetkaur1509/Agri-bot/internal/llm"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
)

type recordingGateway struct {
	llm.Gateway
	req  llm.ChatRequest
	resp *llm.ChatResponse
	err  error
}

func (g *recordingGateway) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	g.req = req
	return g.resp, g.err
}

func TestDetectImageType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		declared string
		want     string
		wantErr  bool
	}{
		{"declared png", nil, "image/png", "image/png", false},
		{"declared jpg alias", nil, "image/jpg", "image/jpeg", false},
		{"declared with params", nil, "IMAGE/JPEG; charset=binary", "image/jpeg", false},
		{"sniffed png", pngHeader, "", "image/png", false},
		{"sniffed jpeg behind octet-stream", jpegHeader, "application/octet-stream", "image/jpeg", false},
		{"gif rejected", []byte("GIF89a......"), "", "", true},
		{"text rejected", []byte("hello"), "text/plain", "", true},
		{"empty rejected", nil, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectImageType(tt.data, tt.declared)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedImage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyzeAttachesImages(t *testing.T) {
	gw := &recordingGateway{resp: &llm.ChatResponse{Content: "Leaf rust", Provider: "gemini", Model: "gemini-2.5-pro", InputTokens: 300}}
	v := NewVisionService(gw, "gemini", "")

	resp, err := v.Analyze(context.Background(), VisionRequest{
		Images:   []ImageInput{{Data: pngHeader}},
		System:   "You are a plant pathologist.",
		Prompt:   "Diagnose this leaf.",
		Endpoint: "diagnosis",
	})
	require.NoError(t, err)
	assert.Equal(t, "Leaf rust", resp.Content)
	assert.Equal(t, "gemini", resp.Provider)

	require.Len(t, gw.req.Messages, 2)
	assert.Equal(t, "gemini", gw.req.Provider)
	assert.Equal(t, "diagnosis", gw.req.Endpoint)
	assert.Equal(t, "You are a plant pathologist.", gw.req.Messages[0].Content)
	user := gw.req.Messages[1]
	assert.Equal(t, "Diagnose this leaf.", user.Content)
	require.Len(t, user.Images, 1)
	assert.Equal(t, "image/png", user.Images[0].MimeType)
}

func TestAnalyzeErrors(t *testing.T) {
	gw := &recordingGateway{err: errors.New("boom")}
	v := NewVisionService(gw, "", "")

	_, err := v.Analyze(context.Background(), VisionRequest{Prompt: "x"})
	assert.Error(t, err)

	_, err = v.Analyze(context.Background(), VisionRequest{Images: []ImageInput{{Data: []byte("GIF89a")}}})
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = v.Analyze(context.Background(), VisionRequest{Images: []ImageInput{{Data: jpegHeader}}})
	assert.ErrorContains(t, err, "boom")
}
