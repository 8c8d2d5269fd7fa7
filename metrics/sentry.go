package metrics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// InitSentry configures the global Sentry client. An empty DSN leaves Sentry
// disabled; every recording call below is then a no-op on the SDK side.
func InitSentry(dsn, release string) error {
	if dsn == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	log.Printf("📡 Sentry initialized (release %s)", release)
	return nil
}

// Flush waits for buffered events before the process exits
func Flush() {
	sentry.Flush(flushTimeout)
}

// CaptureError reports err to Sentry with the stage that produced it
func CaptureError(ctx context.Context, stage string, err error) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("stage", stage)
		hub.CaptureException(err)
	})
}

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// NewNoopMetrics creates a metrics client that records nothing
func NewNoopMetrics() *SentryMetrics {
	return &SentryMetrics{enabled: false}
}

// Enabled reports whether recording calls do anything
func (m *SentryMetrics) Enabled() bool {
	return m != nil && m.enabled
}

// RecordExpansion records one rewriting run: generations applied and final length
func (m *SentryMetrics) RecordExpansion(ctx context.Context, depth uint, symbols int, duration time.Duration) {
	if !m.Enabled() {
		return
	}

	span := sentry.StartSpan(ctx, "lsystem.expand")
	defer span.Finish()

	span.SetTag("depth", fmt.Sprintf("%d", depth))
	span.SetData("depth", depth)
	span.SetData("symbols", symbols)
	span.SetData("duration_ms", duration.Milliseconds())

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Expansion: depth %d, %d symbols", depth, symbols)
}

// RecordInterpretation records how many notes a sequence produced
func (m *SentryMetrics) RecordInterpretation(ctx context.Context, scale string, notes int, success bool) {
	if !m.Enabled() {
		return
	}

	span := sentry.StartSpan(ctx, "music.interpret")
	defer span.Finish()

	span.SetTag("scale", scale)
	span.SetTag("success", fmt.Sprintf("%t", success))
	span.SetData("notes", notes)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("Interpretation: %d notes", notes)
}

// RecordTokenUsage records LLM token usage metrics
func (m *SentryMetrics) RecordTokenUsage(ctx context.Context, model string, totalTokens, inputTokens, outputTokens, reasoningTokens int) {
	if !m.Enabled() {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("llm.model", model)
		transaction.SetData("llm.total_tokens", totalTokens)
		transaction.SetData("llm.input_tokens", inputTokens)
		transaction.SetData("llm.output_tokens", outputTokens)
		transaction.SetData("llm.reasoning_tokens", reasoningTokens)
	}

	span := sentry.StartSpan(ctx, "llm.token_usage")
	defer span.Finish()

	span.SetTag("model", model)
	span.SetData("total_tokens", totalTokens)
	span.SetData("input_tokens", inputTokens)
	span.SetData("output_tokens", outputTokens)
	span.SetData("reasoning_tokens", reasoningTokens)

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Token Usage: %s", model)
}

// RecordGenerationDuration records generation request duration
func (m *SentryMetrics) RecordGenerationDuration(ctx context.Context, duration time.Duration, success bool) {
	if !m.Enabled() {
		return
	}

	span := sentry.StartSpan(ctx, "generation.request")
	defer span.Finish()

	span.SetTag("success", fmt.Sprintf("%t", success))
	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("success", success)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("Generation Request: %t", success)
}
