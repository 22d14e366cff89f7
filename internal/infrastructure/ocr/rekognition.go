package ocr

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/nutriscan/backend/internal/domain"
)

// TextDetector is the part of the Rekognition client used for OCR
type TextDetector interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// RekognitionProvider recognizes text with AWS Rekognition DetectText
type RekognitionProvider struct {
	detector TextDetector
	images   domain.ImageStore
	timeout  time.Duration
}

// NewRekognitionProvider creates a new Rekognition provider
func NewRekognitionProvider(detector TextDetector, images domain.ImageStore, timeout time.Duration) *RekognitionProvider {
	return &RekognitionProvider{
		detector: detector,
		images:   images,
		timeout:  timeout,
	}
}

// Name returns the provider name
func (p *RekognitionProvider) Name() string {
	return ProviderRekognition
}

// Recognize returns the detected lines joined by newlines
func (p *RekognitionProvider) Recognize(ctx context.Context, imagePath string) (string, error) {
	data, err := p.images.Read(ctx, imagePath)
	if err != nil {
		return "", err
	}

	callCtx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.detector.DetectText(callCtx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: data},
	})
	if err != nil {
		log.Printf("[OCR] rekognition failed for %q: %v", imagePath, err)
		return "", domain.ProviderError(callCtx, err)
	}

	var lines []string
	for _, detection := range out.TextDetections {
		if detection.Type != types.TextTypesLine {
			continue
		}
		if line := strings.TrimSpace(aws.ToString(detection.DetectedText)); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
