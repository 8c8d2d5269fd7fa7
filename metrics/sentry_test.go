package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitSentry_EmptyDSN(t *testing.T) {
	assert.NoError(t, InitSentry("", "test"))
}

func TestInitSentry_InvalidDSN(t *testing.T) {
	err := InitSentry("not a dsn", "test")
	assert.Error(t, err)
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	assert.False(t, m.Enabled())

	var nilMetrics *SentryMetrics
	assert.False(t, nilMetrics.Enabled())

	// None of these may panic without an initialised client
	ctx := context.Background()
	nilMetrics.RecordExpansion(ctx, 3, 8, time.Millisecond)
	m.RecordInterpretation(ctx, "major", 4, true)
	m.RecordTokenUsage(ctx, "gpt-5.1", 10, 4, 6, 0)
	m.RecordGenerationDuration(ctx, time.Second, false)
}

func TestSentryMetrics_WithoutClient(t *testing.T) {
	m := NewSentryMetrics()
	assert.True(t, m.Enabled())

	ctx := context.Background()
	m.RecordExpansion(ctx, 5, 32, time.Millisecond)
	m.RecordInterpretation(ctx, "chromatic", 0, false)
	m.RecordTokenUsage(ctx, "gemini-2.5-flash", 10, 4, 6, 2)
	m.RecordGenerationDuration(ctx, time.Second, true)
	CaptureError(ctx, "test", errors.New("boom"))
	CaptureError(ctx, "test", nil)
}
