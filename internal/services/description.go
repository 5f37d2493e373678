package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"eventhub/internal/domain"
)

// Prompt field limits, in runes.
const (
	maxPromptTitle    = 120
	maxPromptLocation = 120
	maxPromptDateTime = 80
	maxPromptNotes    = 600
)

type descriptionService struct {
	generator      domain.DescriptionGenerator
	contextTimeout time.Duration
}

// NewDescriptionService returns a DescriptionService backed by the given generator.
func NewDescriptionService(generator domain.DescriptionGenerator, timeout time.Duration) domain.DescriptionService {
	return &descriptionService{generator: generator, contextTimeout: timeout}
}

func clamp(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func (s *descriptionService) EnhanceDescription(ctx context.Context, prompt domain.DescriptionPrompt) (string, error) {
	prompt = domain.DescriptionPrompt{
		Title:    clamp(prompt.Title, maxPromptTitle),
		Location: clamp(prompt.Location, maxPromptLocation),
		DateTime: clamp(prompt.DateTime, maxPromptDateTime),
		Notes:    clamp(prompt.Notes, maxPromptNotes),
	}
	if prompt.Title == "" {
		return "", invalid("title is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate description: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrEmptyGeneration
	}
	return text, nil
}
