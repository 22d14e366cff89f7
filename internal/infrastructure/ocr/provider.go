package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/infrastructure/gemini"
)

// Provider names accepted in configuration
const (
	ProviderTesseract   = "tesseract"
	ProviderGemini      = "gemini"
	ProviderRekognition = "rekognition"
)

// DefaultTimeout bounds a single recognition call
const DefaultTimeout = 30 * time.Second

// Options carries the dependencies a provider may need. Only the ones used
// by the selected provider have to be set.
type Options struct {
	Images  domain.ImageStore
	Timeout time.Duration

	// tesseract
	TesseractPath string
	Language      string
	Whitelist     string

	// gemini
	Generator gemini.Generator
	Prompt    string

	// rekognition
	Detector TextDetector
}

// New builds the provider selected by name
func New(name string, opts Options) (domain.OCRProvider, error) {
	if opts.Images == nil {
		return nil, fmt.Errorf("ocr provider %q requires an image store", name)
	}

	switch name {
	case ProviderTesseract:
		return NewTesseractProvider(opts.Images, TesseractConfig{
			Binary:    opts.TesseractPath,
			Language:  opts.Language,
			Whitelist: opts.Whitelist,
			Timeout:   opts.Timeout,
		}), nil
	case ProviderGemini:
		if opts.Generator == nil {
			return nil, fmt.Errorf("ocr provider %q requires a gemini client", name)
		}
		return NewVisionProvider(opts.Generator, opts.Images, opts.Prompt, opts.Timeout), nil
	case ProviderRekognition:
		if opts.Detector == nil {
			return nil, fmt.Errorf("ocr provider %q requires a rekognition client", name)
		}
		return NewRekognitionProvider(opts.Detector, opts.Images, opts.Timeout), nil
	}
	return nil, fmt.Errorf("unknown ocr provider %q", name)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
