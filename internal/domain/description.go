package domain

import (
	"context"
	"errors"
)

// Text generation failures. Both mean the upstream provider let us down.
var (
	ErrEmptyGeneration  = errors.New("provider returned no description")
	ErrGenerationFailed = errors.New("description provider failed")
)

// DescriptionPrompt is the event metadata sent to the text-generation provider.
type DescriptionPrompt struct {
	Title    string
	Location string
	DateTime string
	Notes    string
}

// DescriptionGenerator produces suggested event descriptions.
type DescriptionGenerator interface {
	Generate(ctx context.Context, prompt DescriptionPrompt) (string, error)
}

// DescriptionService validates prompts and asks the generator for a description.
type DescriptionService interface {
	EnhanceDescription(ctx context.Context, prompt DescriptionPrompt) (string, error)
}
