package gemini

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/nutriscan/backend/internal/domain"
)

// Assistant implements domain.AssistantClient for free-form food questions
type Assistant struct {
	generator Generator
	images    domain.ImageStore
	timeout   time.Duration
}

// NewAssistant creates a new food assistant
func NewAssistant(generator Generator, images domain.ImageStore, timeout time.Duration) *Assistant {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Assistant{
		generator: generator,
		images:    images,
		timeout:   timeout,
	}
}

// Reply answers the question, attaching the photo when one is given
func (a *Assistant) Reply(ctx context.Context, prompt domain.AssistantPrompt) (string, error) {
	var images []Image
	if prompt.ImagePath != "" {
		data, err := a.images.Read(ctx, prompt.ImagePath)
		if err != nil {
			return "", err
		}
		images = append(images, Image{Format: ImageFormat(prompt.ImagePath), Data: data})
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.generator.GenerateContent(callCtx, BuildAssistantPrompt(prompt.Question), images...)
	if err != nil {
		log.Printf("[GEMINI] Assistant reply failed: %v", err)
		return "", domain.ProviderError(callCtx, err)
	}
	return strings.TrimSpace(text), nil
}
