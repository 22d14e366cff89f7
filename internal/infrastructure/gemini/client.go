package gemini

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model name is configured
const DefaultModel = "gemini-2.0-flash"

// Image is an inline image part sent along with a prompt
type Image struct {
	// Format is the image subtype, e.g. "jpeg" or "png"
	Format string
	Data   []byte
}

// Client interacts with Google Gemini API using the official SDK
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient creates a new Gemini API client
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if modelName == "" {
		modelName = DefaultModel
	}

	return &Client{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Close closes the client connection
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// GenerateContent sends a prompt and optional images to Gemini and returns
// the concatenated text parts of the first candidate.
func (c *Client) GenerateContent(ctx context.Context, prompt string, images ...Image) (string, error) {
	parts := make([]genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, genai.ImageData(img.Format, img.Data))
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var fullText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fullText.WriteString(string(txt))
		}
	}

	return fullText.String(), nil
}

// ImageFormat derives the image subtype from a file name, defaulting to jpeg
func ImageFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	case ".heic":
		return "heic"
	case ".heif":
		return "heif"
	}
	return "jpeg"
}
