package retry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/hospital-assistant/pkg/llm"
	"github.com/ekaya-inc/hospital-assistant/pkg/retry"
)

// llm.Error declares its own retryability; retry must honor it even when
// wrapped.
func TestIsRetryable_WithLLMError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"endpoint error", llm.NewError(llm.ErrorTypeEndpoint, "server error", true, errors.New("HTTP 503")), true},
		{"rate limited", llm.NewError(llm.ErrorTypeRateLimited, "rate limited", true, errors.New("HTTP 429")), true},
		{"auth error", llm.NewError(llm.ErrorTypeAuth, "authentication failed", false, errors.New("HTTP 401")), false},
		{"unknown model", llm.NewError(llm.ErrorTypeModel, "model not found", false, errors.New("model does not exist")), false},
		{"wrapped endpoint error", fmt.Errorf("model groq: %w", llm.NewError(llm.ErrorTypeEndpoint, "server error", true, nil)), true},
		{"wrapped auth error", fmt.Errorf("model groq: %w", llm.NewError(llm.ErrorTypeAuth, "HTTP 503 while authenticating", false, nil)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retry.IsRetryable(tt.err))
		})
	}
}

func TestDoIfRetryable_WithLLMError(t *testing.T) {
	cfg := &retry.Config{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	t.Run("retries retryable llm.Error", func(t *testing.T) {
		calls := 0
		err := retry.DoIfRetryable(context.Background(), cfg, func() error {
			calls++
			if calls < 3 {
				return llm.NewError(llm.ErrorTypeEndpoint, "server error", true, errors.New("HTTP 503"))
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("fails immediately on non-retryable llm.Error", func(t *testing.T) {
		calls := 0
		want := llm.NewError(llm.ErrorTypeAuth, "authentication failed", false, errors.New("HTTP 401"))
		err := retry.DoIfRetryable(context.Background(), cfg, func() error {
			calls++
			return want
		})

		assert.Same(t, want, err)
		assert.Equal(t, 1, calls)
	})
}
