package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(retries int) *Config {
	return &Config{
		MaxRetries:   retries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 5*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.Multiplier)
}

func TestDatabaseStartupConfig(t *testing.T) {
	cfg := DatabaseStartupConfig()
	assert.Greater(t, cfg.MaxRetries, DefaultConfig().MaxRetries)
	assert.LessOrEqual(t, cfg.InitialDelay, cfg.MaxDelay)
}

func TestDo_Success(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_MaxRetriesExhausted(t *testing.T) {
	calls := 0
	last := errors.New("still failing")
	err := Do(context.Background(), fastConfig(2), func() error {
		calls++
		return last
	})

	assert.Same(t, last, err)
	assert.Equal(t, 3, calls, "initial attempt plus two retries")
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}

	calls := 0
	err := Do(ctx, cfg, func() error {
		calls++
		cancel()
		return errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_NilConfigUsesDefaults(t *testing.T) {
	calls := 0
	require.NoError(t, Do(context.Background(), nil, func() error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	b := newBackoff(&Config{InitialDelay: time.Millisecond, MaxDelay: 3 * time.Millisecond, Multiplier: 2})

	require.NoError(t, b.wait(context.Background()))
	assert.Equal(t, 2*time.Millisecond, b.delay)
	require.NoError(t, b.wait(context.Background()))
	assert.Equal(t, 3*time.Millisecond, b.delay)
	require.NoError(t, b.wait(context.Background()))
	assert.Equal(t, 3*time.Millisecond, b.delay)
}

func TestApplyJitter(t *testing.T) {
	assert.Equal(t, time.Second, applyJitter(time.Second, 0))

	for range 50 {
		d := applyJitter(time.Second, 0.1)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
}

func TestDoWithResult_SuccessAfterRetries(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(3), func() (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("not yet")
		}
		return "pool", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "pool", got)
	assert.Equal(t, 2, calls)
}

func TestDoWithResult_KeepsLastResultOnFailure(t *testing.T) {
	got, err := DoWithResult(context.Background(), fastConfig(1), func() (int, error) {
		return 7, errors.New("fail")
	})

	assert.Error(t, err)
	assert.Equal(t, 7, got)
}

type declaredError struct{ retryable bool }

func (e declaredError) Error() string     { return "declared 503" }
func (e declaredError) IsRetryable() bool { return e.retryable }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"i/o timeout", errors.New("read tcp: i/o timeout"), true},
		{"rate limited", errors.New("HTTP 429 Too Many Requests"), true},
		{"syntax error", errors.New("syntax error at or near SELECT"), false},
		{"canceled", fmt.Errorf("query: %w", context.Canceled), false},
		{"declares retryable", declaredError{retryable: true}, true},
		{"declares permanent despite 503 text", declaredError{retryable: false}, false},
		{"wrapped declaration", fmt.Errorf("op: %w", declaredError{retryable: false}), false},
		{"pg starting up", &pgconn.PgError{Code: "57P03", Message: "the database system is starting up"}, true},
		{"pg too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"pg bad password", &pgconn.PgError{Code: "28P01", Message: "password authentication failed for user \"postgres\""}, false},
		{"pg missing database", fmt.Errorf("connect: %w", &pgconn.PgError{Code: "3D000"}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestDoIfRetryable_RetriesTransient(t *testing.T) {
	calls := 0
	err := DoIfRetryable(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoIfRetryable_StopsOnPermanent(t *testing.T) {
	permanent := &pgconn.PgError{Code: "28P01"}
	calls := 0
	err := DoIfRetryable(context.Background(), fastConfig(3), func() error {
		calls++
		return permanent
	})

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestDoWithResultIfRetryable_Exhausted(t *testing.T) {
	calls := 0
	_, err := DoWithResultIfRetryable(context.Background(), fastConfig(2), func() (*struct{}, error) {
		calls++
		return nil, errors.New("service unavailable")
	})

	assert.EqualError(t, err, "service unavailable")
	assert.Equal(t, 3, calls)
}
