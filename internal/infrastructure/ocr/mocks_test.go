package ocr

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/infrastructure/gemini"
)

// MockImageStore serves images from memory
type MockImageStore struct {
	mu     sync.Mutex
	images map[string][]byte
}

func NewMockImageStore(images map[string][]byte) *MockImageStore {
	if images == nil {
		images = make(map[string][]byte)
	}
	return &MockImageStore{images: images}
}

func (m *MockImageStore) Read(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.images[path]
	if !ok {
		return nil, domain.ErrImageNotFound
	}
	return data, nil
}

func (m *MockImageStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[name] = data
	return name, nil
}

// MockGenerator returns a canned transcription
type MockGenerator struct {
	response   string
	err        error
	block      bool
	lastPrompt string
	lastImages []gemini.Image
}

func (m *MockGenerator) GenerateContent(ctx context.Context, prompt string, images ...gemini.Image) (string, error) {
	m.lastPrompt = prompt
	m.lastImages = images
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.response, m.err
}

// MockTextDetector returns canned Rekognition output
type MockTextDetector struct {
	output *rekognition.DetectTextOutput
	err    error
	input  *rekognition.DetectTextInput
}

func (m *MockTextDetector) DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return m.output, nil
}
