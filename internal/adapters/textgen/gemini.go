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
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel   = "gemini-1.5-flash"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type geminiClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewGemini returns a generator for the Gemini generateContent API.
func NewGemini(client *http.Client, baseURL, apiKey string) domain.DescriptionGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	return &geminiClient{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

func (g *geminiClient) Generate(ctx context.Context, prompt domain.DescriptionPrompt) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: GEMINI_API_KEY is not set", domain.ErrGenerationFailed)
	}
	var payload geminiRequest
	payload.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: buildPrompt(prompt)}}}}
	payload.GenerationConfig.Temperature = temperature
	payload.GenerationConfig.MaxOutputTokens = maxTokens
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, geminiModel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	var data geminiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&data)
	if resp.StatusCode != http.StatusOK {
		detail := ""
		if decodeErr == nil && data.Error != nil {
			detail = data.Error.Message
		}
		return "", upstreamError("gemini", resp.StatusCode, detail)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decode gemini response: %v", domain.ErrGenerationFailed, decodeErr)
	}
	if len(data.Candidates) == 0 || len(data.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return strings.TrimSpace(data.Candidates[0].Content.Parts[0].Text), nil
}
