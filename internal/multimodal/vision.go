package multimodal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jaspreetkaur1509/Agri-bot/internal/llm"
)

// ErrUnsupportedImage is returned for images that are neither PNG nor JPEG.
var ErrUnsupportedImage = errors.New("unsupported image type: only png and jpeg are accepted")

// VisionService handles image understanding tasks using vision-capable LLMs.
type VisionService struct {
	gateway  llm.Gateway
	provider string
	model    string // empty uses the gateway default
}

func NewVisionService(gw llm.Gateway, provider, model string) *VisionService {
	return &VisionService{gateway: gw, provider: provider, model: model}
}

// ImageInput is a single uploaded image.
type ImageInput struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type,omitempty"` // sniffed from Data when empty
}

// VisionRequest holds the input for a vision task.
type VisionRequest struct {
	Images   []ImageInput `json:"images"`
	System   string       `json:"system,omitempty"`
	Prompt   string       `json:"prompt"`
	Endpoint string       `json:"-"`
}

// VisionResponse holds the output from a vision task.
type VisionResponse struct {
	Content      string  `json:"content"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// DetectImageType returns the canonical MIME type of an image, preferring the
// declared type when it is one of the accepted ones.
func DetectImageType(data []byte, declared string) (string, error) {
	switch normalizeMime(declared) {
	case "image/png":
		return "image/png", nil
	case "image/jpeg":
		return "image/jpeg", nil
	}
	if len(data) == 0 {
		return "", ErrUnsupportedImage
	}
	sniffed := http.DetectContentType(data)
	switch sniffed {
	case "image/png", "image/jpeg":
		return sniffed, nil
	}
	return "", fmt.Errorf("%w (got %s)", ErrUnsupportedImage, sniffed)
}

func normalizeMime(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	if m == "image/jpg" || m == "image/pjpeg" {
		return "image/jpeg"
	}
	return m
}

// Analyze sends images to a vision model with a prompt.
func (v *VisionService) Analyze(ctx context.Context, req VisionRequest) (*VisionResponse, error) {
	if len(req.Images) == 0 {
		return nil, fmt.Errorf("vision analyze: no images")
	}

	images := make([]llm.ImagePart, 0, len(req.Images))
	for _, img := range req.Images {
		mime, err := DetectImageType(img.Data, img.MimeType)
		if err != nil {
			return nil, err
		}
		images = append(images, llm.ImagePart{MimeType: mime, Data: img.Data})
	}

	system := req.System
	if system == "" {
		system = "You are a helpful assistant that can analyze images. Describe what you see accurately and thoroughly."
	}

	resp, err := v.gateway.Chat(ctx, llm.ChatRequest{
		Provider: v.provider,
		Model:    v.model,
		Endpoint: req.Endpoint,
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Prompt, Images: images},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision analyze: %w", err)
	}

	return &VisionResponse{
		Content:      resp.Content,
		Provider:     resp.Provider,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      resp.CostUSD,
	}, nil
}
