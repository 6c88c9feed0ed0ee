package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mealhow/internal/config"
	"mealhow/internal/shared"
)

// OpenAIClient talks to the OpenAI REST API for chat completions and image generation.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	imageSize  string
	httpClient *http.Client
}

// NewOpenAIClient creates a new OpenAI API client sharing the given HTTP client.
func NewOpenAIClient(cfg *config.Config, httpClient *http.Client) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     cfg.OpenAIAPIKey,
		baseURL:    cfg.OpenAIBaseURL,
		model:      cfg.OpenAIModel,
		imageSize:  cfg.OpenAIImageSize,
		httpClient: httpClient,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateContent sends a single user-role prompt and returns the first choice.
func (c *OpenAIClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	var resp chatResponse
	err := c.post(ctx, "/v1/chat/completions", chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}, &resp)
	if err != nil {
		return ContentResponse{}, err
	}

	if len(resp.Choices) == 0 {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}

	return ContentResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: shared.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
			Model:            model,
		},
	}, nil
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenerateImageURL asks the image endpoint for one picture and returns its URL.
func (c *OpenAIClient) GenerateImageURL(ctx context.Context, prompt string) (string, error) {
	var resp imageResponse
	if err := c.post(ctx, "/v1/images/generations", imageRequest{Prompt: prompt, N: 1, Size: c.imageSize}, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("no image generated")
	}
	return resp.Data[0].URL, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("openai api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
