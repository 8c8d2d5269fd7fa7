package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const providerNameGemini = "gemini"

// GeminiProvider implements the Provider interface using the Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Generate runs one request. Gemini has no grammar-constrained tool, so a
// configured grammar is appended to the system instruction instead.
func (p *GeminiProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🎵 GEMINI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "gemini.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)

	contents, config := buildGeminiRequest(request)

	span := transaction.StartChild("gemini.api_call")
	resp, err := p.client.Models.GenerateContent(transaction.Context(), request.Model, contents, config)
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	text := StripCodeFences(resp.Text())
	if text == "" {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("gemini response did not include any output text")
	}

	result := &GenerationResponse{RawOutput: text}
	if u := resp.UsageMetadata; u != nil {
		result.Usage = Usage{
			InputTokens:     int(u.PromptTokenCount),
			OutputTokens:    int(u.CandidatesTokenCount),
			ReasoningTokens: int(u.ThoughtsTokenCount),
			TotalTokens:     int(u.TotalTokenCount),
		}
	}

	log.Printf("✅ GEMINI GENERATION COMPLETED in %v (%d chars, %d tokens)",
		time.Since(startTime), len(text), result.Usage.TotalTokens)
	transaction.SetTag("success", "true")
	return result, nil
}

// buildGeminiRequest maps the neutral request onto Gemini contents and config
func buildGeminiRequest(request *GenerationRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(request.InputArray))
	for _, item := range request.InputArray {
		role, hasRole := item["role"].(string)
		content, hasContent := item["content"].(string)
		if !hasRole || !hasContent {
			log.Printf("⚠️  Skipping invalid input item (missing role or content): %v", item)
			continue
		}

		geminiRole := genai.Role(genai.RoleUser)
		if role == assistantRole {
			geminiRole = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(content, geminiRole))
	}

	instruction := request.SystemPrompt
	if request.CFGGrammar != nil {
		instruction += "\n\nYour entire reply must match this " + request.CFGGrammar.Syntax +
			" grammar. Reply with the grammar file only, no commentary.\n" + request.CFGGrammar.Grammar
	}

	config := &genai.GenerateContentConfig{}
	if instruction != "" {
		config.SystemInstruction = genai.NewContentFromText(instruction, genai.RoleUser)
	}
	return contents, config
}
