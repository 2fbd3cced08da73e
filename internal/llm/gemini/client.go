package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/stemsi/interview-sim/internal/llm"
)

const providerName = "gemini"

// DefaultModel is used when no model list is configured.
const DefaultModel = "gemini-2.5-flash"

// Client is a Gemini LLM client that tries each configured model in order.
type Client struct {
	client *genai.Client
	models []string
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, cfg genai.ClientConfig, models []string) (*Client, error) {
	if cfg.Backend == genai.BackendUnspecified {
		cfg.Backend = genai.BackendGeminiAPI
	}
	client, err := genai.NewClient(ctx, &cfg)
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}
	if len(models) == 0 {
		models = []string{DefaultModel}
	}
	return &Client{client: client, models: models}, nil
}

// Generate sends the prompt to the first model that answers with text.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		config.Temperature = &temp
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = req.MaxOutputTokens
	}

	var lastErr error
	for _, model := range c.models {
		if err := ctx.Err(); err != nil {
			return nil, classify(err, "Request abandoned")
		}

		startTime := time.Now()
		result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), config)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, classify(ctxErr, "Failed to generate content with "+model)
			}
			lastErr = classify(err, "Failed to generate content with "+model)
			continue
		}

		text := responseText(result)
		if text == "" {
			lastErr = &llm.ProviderError{
				Provider: providerName,
				Code:     llm.ErrCodeInvalidInput,
				Message:  "Empty response generated by " + model,
			}
			continue
		}

		return &llm.GenerateResponse{
			Text:     text,
			Provider: providerName,
			Model:    model,
			Latency:  time.Since(startTime),
		}, nil
	}
	return nil, lastErr
}

func (c *Client) Name() string {
	return providerName
}

// responseText concatenates the text parts of the first candidate.
func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 {
		return ""
	}
	content := result.Candidates[0].Content
	if content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func classify(err error, msg string) error {
	code := llm.ErrCodeServiceDown
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = llm.ErrCodeTimeout
	case strings.Contains(err.Error(), "429"), strings.Contains(strings.ToLower(err.Error()), "resource_exhausted"):
		code = llm.ErrCodeRateLimit
	}
	return &llm.ProviderError{
		Provider: providerName,
		Code:     code,
		Message:  msg,
		Err:      err,
	}
}
