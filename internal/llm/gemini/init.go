package gemini

import (
	"context"

	"google.golang.org/genai"

	"github.com/stemsi/interview-sim/internal/llm"
)

// Register Gemini provider on package import
func init() {
	llm.RegisterProvider(providerName, func(opts llm.Options) (llm.Provider, error) {
		return NewClient(context.Background(), genai.ClientConfig{
			APIKey:  opts.APIKey,
			Backend: genai.BackendGeminiAPI,
		}, opts.Models)
	})
}
