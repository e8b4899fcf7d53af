package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Config holds Gemini connection settings.
type Config struct {
	APIKey string
	Model  string
}

// Client issues JSON completions against Gemini.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient builds a Gemini client. An API key is required.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("gemini: api key required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: client, model: model}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// CompleteJSON sends both prompts as one user turn and returns the reply text.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	prompt := BuildPrompt(systemPrompt, userPrompt)
	if prompt == "" {
		return "", errors.New("gemini complete: prompt required")
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini complete: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", errors.New("gemini complete: empty response")
	}
	return text, nil
}

// HealthCheck verifies the key and model with a trivial request.
func (c *Client) HealthCheck(ctx context.Context) error {
	text, err := c.CompleteJSON(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ReplaceAll(text, " ", ""), `"ok":true`) {
		return fmt.Errorf("gemini health: unexpected response %q", text)
	}
	return nil
}

// BuildPrompt joins the instruction and payload into a single prompt.
func BuildPrompt(systemPrompt, userPrompt string) string {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case systemPrompt == "":
		return userPrompt
	case userPrompt == "":
		return systemPrompt
	}
	return systemPrompt + "\n\nRespond with a single JSON object and nothing else.\n\n" + userPrompt
}
