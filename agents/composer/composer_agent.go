package composer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Conceptual-Machines/lsys-music-go/config"
	"github.com/Conceptual-Machines/lsys-music-go/grammar"
	"github.com/Conceptual-Machines/lsys-music-go/llm"
	"github.com/Conceptual-Machines/lsys-music-go/metrics"
	"github.com/Conceptual-Machines/lsys-music-go/prompt"
)

const (
	// maxAttempts is the first request plus one retry with the parse error
	maxAttempts = 2
	toolName    = "lsystem_grammar"
	sourceName  = "composed"
)

// ErrInvalidGrammar is returned when the model never produced a parseable grammar
var ErrInvalidGrammar = errors.New("model did not produce a valid grammar")

// ComposerAgent writes L-system grammars from natural language descriptions
type ComposerAgent struct {
	provider     llm.Provider
	model        string
	systemPrompt string
	prompts      *prompt.ComposerPromptBuilder
	metrics      *metrics.SentryMetrics
}

// ComposerResult contains the generated grammar
type ComposerResult struct {
	Grammar    string              `json:"grammar"`
	Definition *grammar.Definition `json:"-"`
	Attempts   int                 `json:"attempts"`
	Usage      llm.Usage           `json:"usage"`
}

// NewComposerAgent creates a composer using the provider chosen by cfg
func NewComposerAgent(ctx context.Context, cfg *config.Config) (*ComposerAgent, error) {
	factory := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey)
	provider, model, err := factory.Resolve(ctx, cfg.Model, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	resolved := *cfg
	resolved.Model = model
	return NewComposerAgentWithProvider(&resolved, provider), nil
}

// NewComposerAgentWithProvider creates a composer with a specific LLM provider
func NewComposerAgentWithProvider(cfg *config.Config, provider llm.Provider) *ComposerAgent {
	prompts := prompt.NewComposerPromptBuilder()
	systemPrompt, err := prompts.BuildPrompt()
	if err != nil {
		log.Printf("⚠️  Failed to build composer prompt: %v", err)
	}

	model := cfg.Model
	if model == "" {
		model = llm.DefaultModelFor(provider.Name())
	}

	agent := &ComposerAgent{
		provider:     provider,
		model:        model,
		systemPrompt: systemPrompt,
		prompts:      prompts,
		metrics:      metrics.NewSentryMetrics(),
	}

	log.Printf("🎼 COMPOSER AGENT INITIALIZED:")
	log.Printf("   Provider: %s", provider.Name())
	log.Printf("   Model: %s", model)

	return agent
}

// Compose asks the model for a grammar matching description and validates it
// with the grammar parser. A rejected grammar is sent back once with the error.
func (a *ComposerAgent) Compose(ctx context.Context, description string) (*ComposerResult, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("description must not be empty")
	}

	startTime := time.Now()
	log.Printf("🎼 COMPOSER REQUEST STARTED (Model: %s)", a.model)

	transaction := sentry.StartTransaction(ctx, "composer.compose")
	defer transaction.Finish()
	transaction.SetTag("model", a.model)
	transaction.SetTag("provider", a.provider.Name())
	ctx = transaction.Context()

	inputArray := []map[string]any{llm.Message("user", description)}
	result := &ComposerResult{}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		request := &llm.GenerationRequest{
			Model:        a.model,
			SystemPrompt: a.systemPrompt,
			InputArray:   inputArray,
			CFGGrammar: &llm.CFGConfig{
				ToolName:    toolName,
				Description: llm.GetLSystemToolDescription(),
				Grammar:     llm.GetLSystemGrammar(),
				Syntax:      "lark",
			},
		}

		resp, err := a.provider.Generate(ctx, request)
		if err != nil {
			transaction.SetTag("success", "false")
			a.metrics.RecordGenerationDuration(ctx, time.Since(startTime), false)
			metrics.CaptureError(ctx, "compose", err)
			return nil, fmt.Errorf("provider request failed: %w", err)
		}
		addUsage(&result.Usage, resp.Usage)

		text := llm.StripCodeFences(resp.RawOutput)
		log.Printf("🎼 Grammar output (attempt %d):\n%s", attempt, text)

		def, err := grammar.Parse(sourceName, text)
		if err == nil {
			result.Grammar = text
			result.Definition = def

			duration := time.Since(startTime)
			a.metrics.RecordGenerationDuration(ctx, duration, true)
			a.metrics.RecordTokenUsage(ctx, a.model, result.Usage.TotalTokens,
				result.Usage.InputTokens, result.Usage.OutputTokens, result.Usage.ReasoningTokens)
			transaction.SetTag("success", "true")
			log.Printf("✅ COMPOSER COMPLETED in %v (%d rules, %d attempts)", duration, def.Rules, attempt)
			return result, nil
		}

		log.Printf("⚠️  Grammar rejected on attempt %d: %v", attempt, err)
		lastErr = err
		inputArray = append(inputArray,
			llm.Message("assistant", text),
			llm.Message("user", a.prompts.BuildRetryMessage(err)),
		)
	}

	transaction.SetTag("success", "false")
	a.metrics.RecordGenerationDuration(ctx, time.Since(startTime), false)
	err := fmt.Errorf("%w after %d attempts: %w", ErrInvalidGrammar, maxAttempts, lastErr)
	metrics.CaptureError(ctx, "compose", err)
	return nil, err
}

func addUsage(total *llm.Usage, u llm.Usage) {
	total.InputTokens += u.InputTokens
	total.OutputTokens += u.OutputTokens
	total.ReasoningTokens += u.ReasoningTokens
	total.TotalTokens += u.TotalTokens
}
