package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const (
	// Role constants
	userRole      = "user"
	assistantRole = "assistant"
	developerRole = "developer"

	// Reasoning effort levels
	reasoningNone   = "none"
	reasoningMedium = "medium"
	reasoningHigh   = "high"

	customToolCallType = "custom_tool_call"
	messageType        = "message"
	outputTextType     = "output_text"

	// Provider name
	providerNameOpenAI = "openai"

	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	maxPreviewChars      = 200
)

// OpenAIProvider implements the Provider interface using OpenAI's Responses API
type OpenAIProvider struct {
	client     *openai.Client
	apiKey     string // Kept for raw HTTP requests carrying grammar tools
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return NewOpenAIProviderWithBaseURL(apiKey, defaultOpenAIBaseURL)
}

// NewOpenAIProviderWithBaseURL creates an OpenAI provider against a compatible endpoint
func NewOpenAIProviderWithBaseURL(apiKey, baseURL string) *OpenAIProvider {
	baseURL = strings.TrimSuffix(baseURL, "/")
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL+"/"),
	)
	return &OpenAIProvider{
		client:     &client,
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate runs one non-streaming request. Requests with a grammar go through a
// raw HTTP call since the custom tool payload is assembled by hand.
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🎵 OPENAI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)
	transaction.SetTag("cfg_enabled", fmt.Sprintf("%t", request.CFGGrammar != nil))

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	var (
		result *GenerationResponse
		err    error
	)
	if request.CFGGrammar != nil {
		result, err = p.generateWithCFG(transaction.Context(), params, request.CFGGrammar)
	} else {
		var resp *responses.Response
		resp, err = p.client.Responses.New(transaction.Context(), params)
		if err == nil {
			result, err = p.processResponse(resp)
		}
	}
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	p.logUsageStats(result.Usage)
	log.Printf("✅ OPENAI GENERATION COMPLETED in %v (%d chars)", time.Since(startTime), len(result.RawOutput))
	transaction.SetTag("success", "true")
	return result, nil
}

func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) responses.ResponseNewParams {
	inputItems := responses.ResponseInputParam{}

	for _, item := range request.InputArray {
		role, hasRole := item["role"].(string)
		content, hasContent := item["content"].(string)

		if !hasRole || !hasContent {
			log.Printf("⚠️  Skipping invalid input item (missing role or content): %v", item)
			continue
		}

		var roleEnum responses.EasyInputMessageRole
		switch role {
		case developerRole:
			roleEnum = responses.EasyInputMessageRoleDeveloper
		case assistantRole:
			roleEnum = responses.EasyInputMessageRoleAssistant
		default:
			roleEnum = responses.EasyInputMessageRoleUser
		}

		inputItems = append(inputItems,
			responses.ResponseInputItemParamOfMessage(content, roleEnum),
		)
	}

	var reasoningEffort shared.ReasoningEffort
	switch request.ReasoningMode {
	case reasoningNone:
		reasoningEffort = shared.ReasoningEffort("none")
	case reasoningMedium:
		reasoningEffort = responses.ReasoningEffortMedium
	case reasoningHigh:
		reasoningEffort = responses.ReasoningEffortHigh
	default:
		reasoningEffort = responses.ReasoningEffortLow
	}

	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
		Instructions: openai.String(request.SystemPrompt),
		Reasoning: shared.ReasoningParam{
			Effort: reasoningEffort,
		},
	}

	return params
}

// buildCFGTool builds the custom tool payload that constrains output to a grammar
func buildCFGTool(cfg *CFGConfig) map[string]any {
	syntax := cfg.Syntax
	if syntax == "" {
		syntax = "lark"
	}
	return map[string]any{
		"type":        "custom",
		"name":        cfg.ToolName,
		"description": cfg.Description,
		"format": map[string]any{
			"type":       "grammar",
			"syntax":     syntax,
			"definition": strings.TrimSpace(cfg.Grammar),
		},
	}
}

// rawResponse is the subset of a Responses API payload read on the raw HTTP path
type rawResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Name    string `json:"name"`
		Input   string `json:"input"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage struct {
		InputTokens         int `json:"input_tokens"`
		OutputTokens        int `json:"output_tokens"`
		TotalTokens         int `json:"total_tokens"`
		OutputTokensDetails struct {
			ReasoningTokens int `json:"reasoning_tokens"`
		} `json:"output_tokens_details"`
	} `json:"usage"`
}

func (p *OpenAIProvider) generateWithCFG(
	ctx context.Context, params responses.ResponseNewParams, cfg *CFGConfig,
) (*GenerationResponse, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	var paramsMap map[string]any
	if err := json.Unmarshal(paramsJSON, &paramsMap); err != nil {
		return nil, fmt.Errorf("failed to prepare request: %w", err)
	}

	paramsMap["tools"] = []any{buildCFGTool(cfg)}
	paramsMap["parallel_tool_calls"] = false
	log.Printf("🔧 CFG GRAMMAR CONFIGURED: %s (syntax: %s)", cfg.ToolName, cfg.Syntax)

	body, err := json.Marshal(paramsMap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	log.Printf("📤 Making raw HTTP request (JSON size: %d bytes)", len(body))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			log.Printf("⚠️  Failed to close response body: %v", closeErr)
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", httpResp.StatusCode, truncateString(string(respBody), maxPreviewChars))
	}

	var raw rawResponse
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	usage := Usage{
		InputTokens:     raw.Usage.InputTokens,
		OutputTokens:    raw.Usage.OutputTokens,
		ReasoningTokens: raw.Usage.OutputTokensDetails.ReasoningTokens,
		TotalTokens:     raw.Usage.TotalTokens,
	}

	// The grammar tool call is preferred; plain text is accepted as a fallback
	var text strings.Builder
	for _, item := range raw.Output {
		if item.Type == customToolCallType && item.Input != "" {
			log.Printf("🔧 Found CFG tool call %s (%d chars)", item.Name, len(item.Input))
			return &GenerationResponse{RawOutput: item.Input, Usage: usage}, nil
		}
		if item.Type == messageType {
			for _, c := range item.Content {
				if c.Type == outputTextType {
					text.WriteString(c.Text)
				}
			}
		}
	}

	output := StripCodeFences(text.String())
	if output == "" {
		return nil, fmt.Errorf("openai response did not include a grammar tool call or output text")
	}
	log.Printf("⚠️  No CFG tool call in response, using output text")
	return &GenerationResponse{RawOutput: output, Usage: usage}, nil
}

// processResponse converts an SDK Response to GenerationResponse
func (p *OpenAIProvider) processResponse(resp *responses.Response) (*GenerationResponse, error) {
	textOutput := StripCodeFences(resp.OutputText())
	log.Printf("📥 OPENAI RESPONSE: output_length=%d, output_items=%d, tokens=%d",
		len(textOutput), len(resp.Output), resp.Usage.TotalTokens)

	if textOutput == "" {
		return nil, fmt.Errorf("openai response did not include any output text")
	}

	return &GenerationResponse{
		RawOutput: textOutput,
		Usage: Usage{
			InputTokens:     int(resp.Usage.InputTokens),
			OutputTokens:    int(resp.Usage.OutputTokens),
			ReasoningTokens: int(resp.Usage.OutputTokensDetails.ReasoningTokens),
			TotalTokens:     int(resp.Usage.TotalTokens),
		},
	}, nil
}

// logUsageStats logs token usage statistics
func (p *OpenAIProvider) logUsageStats(usage Usage) {
	log.Printf("📊 USAGE: input=%d, output=%d, reasoning=%d, total=%d",
		usage.InputTokens, usage.OutputTokens, usage.ReasoningTokens, usage.TotalTokens)
}

// StripCodeFences removes a surrounding markdown code block from model output
func StripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	cleaned = strings.TrimPrefix(cleaned, "```")
	// Drop the info string (```lsys, ```text)
	if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 {
		cleaned = cleaned[nl+1:]
	} else {
		cleaned = ""
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// truncateString truncates a string to a maximum length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
