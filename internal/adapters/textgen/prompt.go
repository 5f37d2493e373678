package textgen

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventhub/internal/domain"
)

// Generation parameters shared by all providers.
const (
	temperature = 0.7
	maxTokens   = 250
)

// Config selects and configures the provider.
type Config struct {
	Provider     string
	GroqAPIKey   string
	GeminiAPIKey string
	Timeout      time.Duration
}

// New returns the configured DescriptionGenerator. Unknown providers fall back to groq.
func New(cfg Config, logger *slog.Logger) domain.DescriptionGenerator {
	client := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Provider {
	case "gemini":
		return NewGemini(client, geminiBaseURL, cfg.GeminiAPIKey)
	case "groq", "":
	default:
		logger.Warn("unknown AI provider, using groq", "provider", cfg.Provider)
	}
	return NewGroq(client, groqBaseURL, cfg.GroqAPIKey)
}

func buildPrompt(p domain.DescriptionPrompt) string {
	lines := []string{
		"Write a clear and attractive event description.",
		"Keep it professional and friendly.",
		"Return only the description text (no markdown headings).",
		"",
		"Title: " + p.Title,
	}
	if p.Location != "" {
		lines = append(lines, "Location: "+p.Location)
	}
	if p.DateTime != "" {
		lines = append(lines, "Date & Time: "+p.DateTime)
	}
	if p.Notes != "" {
		lines = append(lines, "Extra notes: "+p.Notes)
	}
	return strings.Join(lines, "\n")
}

// upstreamError builds the error for a non-2xx provider answer.
func upstreamError(provider string, status int, detail string) error {
	if detail == "" {
		detail = http.StatusText(status)
	}
	return fmt.Errorf("%w: %s returned %d: %s", domain.ErrGenerationFailed, provider, status, detail)
}
