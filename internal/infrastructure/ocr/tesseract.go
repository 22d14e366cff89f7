package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/nutriscan/backend/internal/domain"
)

// IngredientWhitelist restricts recognition to characters found on labels
const IngredientWhitelist = `abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789,.()-:;%/'" `

// CommandRunner runs name with args, feeding stdin, and returns stdout
type CommandRunner func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)

// TesseractConfig holds configuration for the local tesseract engine
type TesseractConfig struct {
	Binary    string
	Language  string
	Whitelist string
	Timeout   time.Duration
}

// TesseractProvider recognizes text with the tesseract command line tool.
// Image bytes are piped through stdin so no temporary files are written.
type TesseractProvider struct {
	images    domain.ImageStore
	binary    string
	language  string
	whitelist string
	timeout   time.Duration
	run       CommandRunner
}

// NewTesseractProvider creates a new tesseract provider
func NewTesseractProvider(images domain.ImageStore, config TesseractConfig) *TesseractProvider {
	binary := config.Binary
	if binary == "" {
		binary = "tesseract"
	}
	language := config.Language
	if language == "" {
		language = "eng"
	}

	return &TesseractProvider{
		images:    images,
		binary:    binary,
		language:  language,
		whitelist: config.Whitelist,
		timeout:   config.Timeout,
		run:       execRunner,
	}
}

// Name returns the provider name
func (p *TesseractProvider) Name() string {
	return ProviderTesseract
}

// Recognize returns the text tesseract reads in the image
func (p *TesseractProvider) Recognize(ctx context.Context, imagePath string) (string, error) {
	data, err := p.images.Read(ctx, imagePath)
	if err != nil {
		return "", err
	}

	callCtx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.run(callCtx, p.binary, p.args(), data)
	if err != nil {
		log.Printf("[OCR] tesseract failed for %q: %v", imagePath, err)
		return "", domain.ProviderError(callCtx, err)
	}

	text := strings.TrimSpace(string(out))
	log.Printf("[OCR] tesseract read %d characters from %q", len(text), imagePath)
	return text, nil
}

func (p *TesseractProvider) args() []string {
	args := []string{"stdin", "stdout", "-l", p.language}
	if p.whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+p.whitelist)
	}
	return args
}

func execRunner(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
