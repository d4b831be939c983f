package openai

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ecoadvisor-service/llm"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ImageContent struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client represents an OpenAI API client
type Client struct {
	apiKey string
	model  string
	client *http.Client
}

// NewClient creates a new OpenAI client
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{},
	}
}

// SourceName identifies this provider in responses and saved history
func (c *Client) SourceName() string {
	return "ChatGPT"
}

// encodeImageToDataURL converts image bytes to a base64 data URL
func encodeImageToDataURL(imageData []byte) string {
	mimeType := http.DetectContentType(imageData)
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))
}

// AnalyzeImage analyzes an image using OpenAI's vision API
func (c *Client) AnalyzeImage(imageData []byte, prompt string) (string, error) {
	promptContent := TextContent{
		Type: "text",
		Text: prompt,
	}

	imagePrompt := ImageContent{
		Type: "image_url",
		ImageURL: ImageURL{
			URL: encodeImageToDataURL(imageData),
		},
	}

	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role: "user",
				Content: []any{
					promptContent,
					imagePrompt,
				},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", openAIEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", llm.ErrNoContent
	}

	choice := chatResp.Choices[0]
	text := contentText(choice.Message.Content)

	switch choice.FinishReason {
	case "content_filter":
		return "", fmt.Errorf("%w (reason: %s)", llm.ErrBlocked, choice.FinishReason)
	case "length":
		return "", &llm.InterruptedError{Reason: choice.FinishReason, Partial: text}
	}

	if text == "" {
		return "", llm.ErrNoContent
	}
	return text, nil
}

// contentText extracts the text from a chat completion content value, which
// may be a plain string or a structured part list.
func contentText(content any) string {
	if s, ok := content.(string); ok {
		return s
	}

	parts, ok := content.([]any)
	if !ok {
		return ""
	}
	var text string
	for _, p := range parts {
		m, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := m["text"].(string); ok {
			text += s
		}
	}
	return text
}
