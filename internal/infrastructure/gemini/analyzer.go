package gemini

import (
	"context"
	"log"
	"time"

	"github.com/nutriscan/backend/internal/domain"
)

// Generator produces text from a prompt and optional images
type Generator interface {
	GenerateContent(ctx context.Context, prompt string, images ...Image) (string, error)
}

// Analyzer implements domain.ReasoningClient on top of a Gemini generator.
// It never invents a result: every failure is returned to the caller.
type Analyzer struct {
	generator Generator
	images    domain.ImageStore
	timeout   time.Duration
}

// NewAnalyzer creates a new reasoning client
func NewAnalyzer(generator Generator, images domain.ImageStore, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Analyzer{
		generator: generator,
		images:    images,
		timeout:   timeout,
	}
}

// AnalyzeIngredients classifies an ingredient list
func (a *Analyzer) AnalyzeIngredients(ctx context.Context, prompt domain.IngredientPrompt) (map[string]any, error) {
	log.Printf("[GEMINI] Analyzing %d ingredient tokens", len(prompt.Tokens))
	return a.generate(ctx, BuildIngredientPrompt(prompt.Text, prompt.Tokens))
}

// AnalyzeProduct scores a product photo together with its catalog data
func (a *Analyzer) AnalyzeProduct(ctx context.Context, prompt domain.ProductPrompt) (map[string]any, error) {
	var images []Image
	if prompt.ImagePath != "" {
		data, err := a.images.Read(ctx, prompt.ImagePath)
		if err != nil {
			return nil, err
		}
		images = append(images, Image{Format: ImageFormat(prompt.ImagePath), Data: data})
	}

	log.Printf("[GEMINI] Analyzing product image %q", prompt.ImagePath)
	return a.generate(ctx, BuildProductPrompt(prompt.ProductData), images...)
}

func (a *Analyzer) generate(ctx context.Context, prompt string, images ...Image) (map[string]any, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.generator.GenerateContent(callCtx, prompt, images...)
	if err != nil {
		log.Printf("[GEMINI] Generation failed: %v", err)
		return nil, domain.ProviderError(callCtx, err)
	}

	doc, err := ExtractJSONObject(text)
	if err != nil {
		log.Printf("[GEMINI] Could not extract JSON from response: %s", truncate(text, 500))
		return nil, err
	}
	return doc, nil
}

// truncate keeps the first n runes of s
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
