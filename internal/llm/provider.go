package llm

import (
	"context"
	"errors"
	"time"
)

// GenerateRequest is one prompt sent to a model.
type GenerateRequest struct {
	System string
	Prompt string
	// JSON asks the provider for application/json output.
	JSON            bool
	Temperature     float32
	MaxOutputTokens int32
}

// GenerateResponse is the text a model produced.
type GenerateResponse struct {
	Text     string
	Provider string
	Model    string
	Latency  time.Duration
}

// Provider is a language-model backend.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	Name() string
}

// ProviderError is an error from an LLM provider.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Common error codes shared by providers.
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
)

// IsTimeout reports whether err came from a deadline, either the caller's
// context or a provider timeout code.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == ErrCodeTimeout
}
