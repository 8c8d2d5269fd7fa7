package llm

import (
	"context"
)

// Provider is a text generation backend
type Provider interface {
	Name() string
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)
}

// GenerationRequest is a provider-neutral generation request
type GenerationRequest struct {
	Model         string
	SystemPrompt  string
	InputArray    []map[string]any // {"role": "user"|"assistant"|"developer", "content": "..."}
	ReasoningMode string           // none, low, medium, high
	CFGGrammar    *CFGConfig       // Optional grammar constraint on the output
}

// CFGConfig describes a context-free grammar the model output must follow.
// Providers that cannot enforce it still receive it as part of the instructions.
type CFGConfig struct {
	ToolName    string
	Description string
	Grammar     string
	Syntax      string // "lark" or "regex"
}

// Usage is token accounting for one request
type Usage struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	ReasoningTokens int `json:"reasoning_tokens"`
	TotalTokens     int `json:"total_tokens"`
}

// GenerationResponse carries the raw model output
type GenerationResponse struct {
	RawOutput string `json:"raw_output"`
	Usage     Usage  `json:"usage"`
}

// Message builds one InputArray entry
func Message(role, content string) map[string]any {
	return map[string]any{"role": role, "content": content}
}
