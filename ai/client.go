//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=../mocks/mock_completer.go -package=mocks
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Completer produces a single completion for a system/user prompt pair.
// The concrete client talks to an OpenAI-compatible chat endpoint; tests
// substitute a canned fake.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ImageGenerator renders one image for a prompt and returns its URL.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	endpoint       string
	imagesEndpoint string
	apiKey         string
	model          string
	imageModel     string
	http           *http.Client
}

func NewClient(endpoint, imagesEndpoint, apiKey, model, imageModel string, timeout time.Duration) *Client {
	return &Client{
		endpoint:       endpoint,
		imagesEndpoint: imagesEndpoint,
		apiKey:         apiKey,
		model:          model,
		imageModel:     imageModel,
		http:           &http.Client{Timeout: timeout},
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
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion endpoint returned %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion endpoint returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(imageRequest{
		Model:  c.imageModel,
		Prompt: prompt,
		N:      1,
		Size:   "1024x1024",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.imagesEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image endpoint returned %d", resp.StatusCode)
	}

	var parsed imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", fmt.Errorf("image endpoint returned no image")
	}
	return parsed.Data[0].URL, nil
}
