package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutriscan/backend/internal/domain"
)

// NoAssistantResponse is returned when the assistant answered with nothing
const NoAssistantResponse = "No response generated."

// AssistantService answers free-form food questions
type AssistantService struct {
	client domain.AssistantClient
}

// NewAssistantService creates a new assistant service
func NewAssistantService(client domain.AssistantClient) *AssistantService {
	return &AssistantService{client: client}
}

// Ask forwards a question and an optional stored photo to the assistant.
// Provider failures are returned to the caller.
func (s *AssistantService) Ask(ctx context.Context, question, imagePath string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}

	reply, err := s.client.Reply(ctx, domain.AssistantPrompt{Question: question, ImagePath: imagePath})
	if err != nil {
		return "", err
	}
	if reply = strings.TrimSpace(reply); reply == "" {
		return NoAssistantResponse, nil
	}
	return reply, nil
}
