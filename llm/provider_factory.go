package llm

import (
	"context"
	"fmt"
	"strings"
)

// Default models when only a provider name is given
const (
	DefaultOpenAIModel = "gpt-5.1"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// modelPrefixes routes a bare model name to its provider
var modelPrefixes = map[string]string{
	"gemini-": providerNameGemini,
}

// ProviderFactory builds the composer's provider from API keys and a
// provider name, a model name, or both
type ProviderFactory struct {
	keys map[string]string
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(openaiAPIKey, geminiAPIKey string) *ProviderFactory {
	return &ProviderFactory{keys: map[string]string{
		providerNameOpenAI: openaiAPIKey,
		providerNameGemini: geminiAPIKey,
	}}
}

// GetProvider returns the provider for providerName, or the one inferred from
// model when no name is given
func (f *ProviderFactory) GetProvider(ctx context.Context, model, providerName string) (Provider, error) {
	provider, _, err := f.Resolve(ctx, model, providerName)
	return provider, err
}

// Resolve returns the provider together with the model to send it. An empty
// model becomes the provider's default.
func (f *ProviderFactory) Resolve(ctx context.Context, model, providerName string) (Provider, string, error) {
	name := strings.ToLower(providerName)
	if name == "" {
		name = providerForModel(model)
	}

	provider, err := f.build(ctx, name)
	if err != nil {
		if model != "" && providerName == "" {
			return nil, "", fmt.Errorf("%w (model %q)", err, model)
		}
		return nil, "", err
	}

	if model == "" {
		model = DefaultModelFor(name)
	}
	return provider, model, nil
}

// DefaultModelFor returns the model used with a provider when none was chosen
func DefaultModelFor(providerName string) string {
	if strings.EqualFold(providerName, providerNameGemini) {
		return DefaultGeminiModel
	}
	return DefaultOpenAIModel
}

// providerForModel infers the provider from a model name; GPT models and
// anything unrecognised go to OpenAI
func providerForModel(model string) string {
	lower := strings.ToLower(model)
	for prefix, name := range modelPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return name
		}
	}
	return providerNameOpenAI
}

func (f *ProviderFactory) build(ctx context.Context, name string) (Provider, error) {
	switch name {
	case providerNameOpenAI, providerNameGemini:
	default:
		return nil, fmt.Errorf("unknown provider: %s (allowed: %s, %s)", name, providerNameOpenAI, providerNameGemini)
	}

	key := f.keys[name]
	if key == "" {
		return nil, fmt.Errorf("%s API key not configured", name)
	}

	if name == providerNameGemini {
		return NewGeminiProvider(ctx, key)
	}
	return NewOpenAIProvider(key), nil
}
