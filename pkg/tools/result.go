package tools

import (
	"errors"
	"fmt"

	"github.com/ekaya-inc/hospital-assistant/pkg/apperrors"
)

// Result is the outcome of a tool invocation. It is either a success
// carrying display text or a failure carrying the cause and a short phrase
// describing what the tool was doing ("retrieving appointments").
//
// Text renders either variant. Failures are turned into text only here, so
// the agent and the protocol servers can relay Text() without re-formatting.
type Result struct {
	text   string
	cause  error
	action string
}

// Success builds a successful result.
func Success(text string) Result {
	return Result{text: text}
}

// Failure builds a failed result.
func Failure(action string, cause error) Result {
	return Result{action: action, cause: cause}
}

// IsError reports whether the result is a failure.
func (r Result) IsError() bool {
	return r.cause != nil
}

// Err returns the failure cause, or nil for successes.
func (r Result) Err() error {
	return r.cause
}

// IsUnknownTool reports whether the call named a tool that does not exist.
func (r Result) IsUnknownTool() bool {
	return errors.Is(r.cause, apperrors.ErrUnknownTool)
}

// Text renders the result for a model or protocol client.
func (r Result) Text() string {
	if r.cause == nil {
		return r.text
	}
	return fmt.Sprintf("Error %s: %s", r.action, ErrorMessage(r.cause))
}
