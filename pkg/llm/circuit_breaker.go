package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	// CircuitClosed means the provider is healthy and requests flow through.
	CircuitClosed CircuitState = iota
	// CircuitOpen means the provider has failed repeatedly and requests are rejected.
	CircuitOpen
	// CircuitHalfOpen means a single probe request is testing recovery.
	CircuitHalfOpen
)

// String returns a human-readable string for the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Threshold is the number of consecutive failures before the circuit trips.
	Threshold int
	// ResetAfter is how long the circuit stays open before a probe is allowed.
	ResetAfter time.Duration
}

// DefaultCircuitBreakerConfig returns the defaults used per provider.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  5,
		ResetAfter: 30 * time.Second,
	}
}

// CircuitBreaker trips open after N consecutive provider failures and lets
// one probe through once the reset period has elapsed.
type CircuitBreaker struct {
	mu               sync.RWMutex
	name             string
	consecutiveFails int
	threshold        int
	resetAfter       time.Duration
	lastFailure      time.Time
	state            CircuitState
	now              func() time.Time
}

// NewCircuitBreaker creates a circuit breaker for the named provider.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		name:       name,
		threshold:  config.Threshold,
		resetAfter: config.ResetAfter,
		state:      CircuitClosed,
		now:        time.Now,
	}
}

// Allow reports whether a request may proceed. An open circuit moves to
// half-open once the reset period has elapsed.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		since := cb.now().Sub(cb.lastFailure)
		if since > cb.resetAfter {
			cb.state = CircuitHalfOpen
			return nil
		}
		return NewError(ErrorTypeCircuitOpen,
			fmt.Sprintf("%s provider unavailable (failed %d times, last failure %v ago)",
				cb.name, cb.consecutiveFails, since.Round(time.Second)),
			true, nil)
	case CircuitHalfOpen:
		return NewError(ErrorTypeCircuitOpen,
			fmt.Sprintf("%s provider recovery probe in flight", cb.name), true, nil)
	default:
		return fmt.Errorf("circuit breaker in unknown state: %v", cb.state)
	}
}

// RecordSuccess resets the failure count and closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails = 0
	cb.state = CircuitClosed
}

// RecordFailure counts a failure and trips the circuit at the threshold.
// A failed probe reopens the circuit immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails++
	cb.lastFailure = cb.now()

	if cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
		return
	}

	if cb.consecutiveFails >= cb.threshold {
		cb.state = CircuitOpen
	}
}

// RecordInconclusive ends a call that neither proves nor disproves provider
// health. The failure count is untouched; a half-open circuit goes back to
// open without a new failure timestamp, so the next call is let through again.
func (cb *CircuitBreaker) RecordInconclusive() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// ConsecutiveFailures returns the current count of consecutive failures.
func (cb *CircuitBreaker) ConsecutiveFailures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.consecutiveFails
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails = 0
	cb.state = CircuitClosed
}

// guardedModel routes every Chat call through a provider circuit breaker.
type guardedModel struct {
	inner   ChatModel
	breaker *CircuitBreaker
	logger  *zap.Logger
}

func newGuardedModel(inner ChatModel, breaker *CircuitBreaker, logger *zap.Logger) *guardedModel {
	return &guardedModel{inner: inner, breaker: breaker, logger: logger}
}

func (g *guardedModel) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if err := g.breaker.Allow(); err != nil {
		g.logger.Warn("Provider circuit open, rejecting request",
			zap.String("model", g.inner.GetModel()),
			zap.String("run_id", RunID(ctx)))
		return nil, err
	}

	resp, err := g.inner.Chat(ctx, req)
	if err != nil {
		// Auth and model rejections come from a reachable provider, and a
		// cancelled caller says nothing about it. Neither counts either way.
		switch t := GetErrorType(err); {
		case t == ErrorTypeAuth || t == ErrorTypeModel || ctx.Err() != nil:
			g.breaker.RecordInconclusive()
		default:
			g.breaker.RecordFailure()
		}
		return nil, err
	}

	g.breaker.RecordSuccess()
	return resp, nil
}

func (g *guardedModel) GetModel() string {
	return g.inner.GetModel()
}
