package ocr

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/infrastructure/gemini"
)

// VisionProvider recognizes text by asking a Gemini vision model to
// transcribe the image.
type VisionProvider struct {
	generator gemini.Generator
	images    domain.ImageStore
	prompt    string
	timeout   time.Duration
}

// NewVisionProvider creates a new vision provider. The prompt selects what
// is transcribed; it defaults to the ingredients prompt.
func NewVisionProvider(generator gemini.Generator, images domain.ImageStore, prompt string, timeout time.Duration) *VisionProvider {
	if prompt == "" {
		prompt = gemini.IngredientsOCRPrompt
	}
	return &VisionProvider{
		generator: generator,
		images:    images,
		prompt:    prompt,
		timeout:   timeout,
	}
}

// Name returns the provider name
func (p *VisionProvider) Name() string {
	return ProviderGemini
}

// Recognize returns the model's transcription of the image
func (p *VisionProvider) Recognize(ctx context.Context, imagePath string) (string, error) {
	data, err := p.images.Read(ctx, imagePath)
	if err != nil {
		return "", err
	}

	callCtx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.generator.GenerateContent(callCtx, p.prompt, gemini.Image{
		Format: gemini.ImageFormat(imagePath),
		Data:   data,
	})
	if err != nil {
		log.Printf("[OCR] gemini vision failed for %q: %v", imagePath, err)
		return "", domain.ProviderError(callCtx, err)
	}

	return strings.TrimSpace(text), nil
}
