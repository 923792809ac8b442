package tools

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ekaya-inc/hospital-assistant/pkg/apperrors"
)

// ErrorMessage extracts a clean, user-facing message from a pipeline error.
// PostgreSQL errors yield the server message without SQLSTATE; wrapped
// database errors lose their "database error: " prefix.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}

	var unknown *UnknownToolError
	if errors.As(err, &unknown) {
		return "Unknown tool: " + unknown.Name
	}

	msg := err.Error()

	if idx := strings.Index(msg, " (SQLSTATE"); idx != -1 {
		msg = msg[:idx]
	}

	prefixes := []string{
		apperrors.ErrDatabase.Error() + ": ",
		"ERROR: ",
	}
	for _, prefix := range prefixes {
		msg = strings.TrimPrefix(msg, prefix)
	}

	return msg
}

// IsInputError reports whether err was caused by the caller's arguments
// rather than by the database. Input errors are logged at DEBUG.
func IsInputError(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidFilter) ||
		errors.Is(err, apperrors.ErrMissingRequiredField) ||
		errors.Is(err, apperrors.ErrUnknownTool)
}

// UnknownToolError is returned for calls to a tool name not in the registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "unknown tool: " + e.Name
}

func (e *UnknownToolError) Unwrap() error {
	return apperrors.ErrUnknownTool
}
