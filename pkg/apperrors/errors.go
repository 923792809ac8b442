package apperrors

import "errors"

var (
	ErrDatabase             = errors.New("database error")
	ErrUnknownTool          = errors.New("unknown tool")
	ErrInvalidFilter        = errors.New("invalid filter value")
	ErrMissingRequiredField = errors.New("missing required field")

	// Configuration errors. These are raised before any network I/O.
	ErrUnknownModel      = errors.New("unknown model")
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrMissingCredential = errors.New("missing provider credential")
)
