package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	got  domain.DescriptionPrompt
	text string
	err  error
}

func (f *fakeGenerator) Generate(ctx context.Context, p domain.DescriptionPrompt) (string, error) {
	f.got = p
	return f.text, f.err
}

func TestDescriptionService_EnhanceDescription(t *testing.T) {
	ctx := context.Background()

	t.Run("clamps fields", func(t *testing.T) {
		gen := &fakeGenerator{text: "  A lively evening.  "}
		svc := NewDescriptionService(gen, time.Second)

		out, err := svc.EnhanceDescription(ctx, domain.DescriptionPrompt{
			Title:    strings.Repeat("é", 200),
			Location: strings.Repeat("l", 130),
			DateTime: strings.Repeat("d", 90),
			Notes:    strings.Repeat("n", 700),
		})
		require.NoError(t, err)
		assert.Equal(t, "A lively evening.", out)
		assert.Equal(t, 120, len([]rune(gen.got.Title)))
		assert.Len(t, gen.got.Location, 120)
		assert.Len(t, gen.got.DateTime, 80)
		assert.Len(t, gen.got.Notes, 600)
	})

	t.Run("title required", func(t *testing.T) {
		_, err := NewDescriptionService(&fakeGenerator{}, time.Second).EnhanceDescription(ctx, domain.DescriptionPrompt{Title: "  "})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("empty generation", func(t *testing.T) {
		_, err := NewDescriptionService(&fakeGenerator{text: " \n"}, time.Second).EnhanceDescription(ctx, domain.DescriptionPrompt{Title: "Go"})
		require.ErrorIs(t, err, domain.ErrEmptyGeneration)
	})

	t.Run("provider error wrapped", func(t *testing.T) {
		_, err := NewDescriptionService(&fakeGenerator{err: errBoom}, time.Second).EnhanceDescription(ctx, domain.DescriptionPrompt{Title: "Go"})
		require.ErrorIs(t, err, errBoom)
	})
}
