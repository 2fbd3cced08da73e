package llm

import (
	"context"
	"fmt"
)

// Options configures a provider instance.
type Options struct {
	APIKey string
	Models []string
}

// ProviderFactory creates a new provider instance.
type ProviderFactory func(opts Options) (Provider, error)

// global registry of available providers
var providers = map[string]ProviderFactory{
	DisabledProviderName: func(Options) (Provider, error) { return Disabled{}, nil },
}

// RegisterProvider registers a provider factory with the given name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates a provider by name. An empty API key always yields the
// disabled provider so callers take their fallback paths.
func NewProvider(name string, opts Options) (Provider, error) {
	if opts.APIKey == "" {
		name = DisabledProviderName
	}
	factory, exists := providers[name]
	if !exists {
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
	return factory(opts)
}

// DisabledProviderName is the provider used when no API key is configured.
const DisabledProviderName = "disabled"

// Disabled fails every call immediately.
type Disabled struct{}

func (Disabled) Generate(context.Context, GenerateRequest) (*GenerateResponse, error) {
	return nil, &ProviderError{
		Provider: DisabledProviderName,
		Code:     ErrCodeAPIKey,
		Message:  "no API key configured",
	}
}

func (Disabled) Name() string { return DisabledProviderName }
