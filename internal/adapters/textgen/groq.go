package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"eventhub/internal/domain"
)

const (
	groqBaseURL = "https://api.groq.com/openai/v1"
	groqModel   = "llama-3.1-8b-instant"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type groqClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewGroq returns a generator for Groq's OpenAI-compatible chat completions API.
func NewGroq(client *http.Client, baseURL, apiKey string) domain.DescriptionGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	return &groqClient{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

func (g *groqClient) Generate(ctx context.Context, prompt domain.DescriptionPrompt) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: GROQ_API_KEY is not set", domain.ErrGenerationFailed)
	}
	body, err := json.Marshal(chatRequest{
		Model:       groqModel,
		Messages:    []chatMessage{{Role: "user", Content: buildPrompt(prompt)}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	var data chatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&data)
	if resp.StatusCode != http.StatusOK {
		detail := ""
		if decodeErr == nil && data.Error != nil {
			detail = data.Error.Message
		}
		return "", upstreamError("groq", resp.StatusCode, detail)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decode groq response: %v", domain.ErrGenerationFailed, decodeErr)
	}
	if len(data.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(data.Choices[0].Message.Content), nil
}
