package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/ekaya-inc/hospital-assistant/pkg/apperrors"
	"github.com/ekaya-inc/hospital-assistant/pkg/jsonutil"
)

// FilterKind is the declared semantic type of a filter field.
type FilterKind int

const (
	// KindID is an integer id compared with equality.
	KindID FilterKind = iota
	// KindText is free text matched case-insensitively as a substring.
	KindText
	// KindDate is an ISO date (YYYY-MM-DD) compared against the date part of a timestamp.
	KindDate
)

// String returns the JSON-schema type name for the kind.
func (k FilterKind) String() string {
	switch k {
	case KindID:
		return "number"
	default:
		return "string"
	}
}

// Filter declares one optional (or required) filter field of an entity.
type Filter struct {
	Name        string
	Column      string
	Kind        FilterKind
	Description string
}

// AppliedFilter is a filter that produced a predicate, with its normalized value.
type AppliedFilter struct {
	Name  string
	Kind  FilterKind
	Value any
}

// Entity describes one queryable shape: its base SELECT, filter fields in
// predicate order, required fields and ordering.
type Entity struct {
	Name     string // table name, e.g. "medical_records"
	Noun     string // singular display noun, e.g. "medical record"
	Base     string
	Filters  []Filter
	Required []string
	OrderBy  string
}

// Option adjusts a statement built from an entity.
type Option func(*Builder)

// WithLimit caps the result size.
func WithLimit(n int) Option {
	return func(b *Builder) { b.Limit(n) }
}

// Build translates filters into a parameterized statement.
// Absent or empty filters, zero ids on optional filters and unrecognized keys
// are omitted. A required id of 0 is a real lookup. A missing required filter
// or a value of the wrong shape is an error.
func (e Entity) Build(filters map[string]any, opts ...Option) (*Statement, error) {
	applied := make([]AppliedFilter, 0, len(e.Filters))
	var suspicious []*InjectionCheckResult

	for _, f := range e.Filters {
		raw, ok := filters[f.Name]
		if !ok || raw == nil {
			continue
		}
		value, present, err := normalize(f, raw, e.IsRequired(f.Name))
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		if f.Kind == KindText {
			if res := CheckParameterForInjection(f.Name, value); res != nil {
				suspicious = append(suspicious, res)
			}
		}
		applied = append(applied, AppliedFilter{Name: f.Name, Kind: f.Kind, Value: value})
	}

	for _, name := range e.Required {
		if !hasApplied(applied, name) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingRequiredField, name)
		}
	}

	b := NewBuilder(e.Base)
	for _, a := range applied {
		column := e.column(a.Name)
		switch a.Kind {
		case KindID:
			b.Equal(column, a.Value)
		case KindText:
			b.ContainsFold(column, a.Value.(string))
		case KindDate:
			b.OnDate(column, a.Value.(string))
		}
	}
	if e.OrderBy != "" {
		b.OrderBy(e.OrderBy)
	}
	for _, opt := range opts {
		opt(b)
	}

	stmt := b.Build()
	stmt.Applied = applied
	stmt.Suspicious = suspicious
	return stmt, nil
}

// IsRequired reports whether the named filter must be present.
func (e Entity) IsRequired(name string) bool {
	for _, r := range e.Required {
		if r == name {
			return true
		}
	}
	return false
}

func (e Entity) column(name string) string {
	for _, f := range e.Filters {
		if f.Name == name {
			return f.Column
		}
	}
	return name
}

func hasApplied(applied []AppliedFilter, name string) bool {
	for _, a := range applied {
		if a.Name == name {
			return true
		}
	}
	return false
}

// normalize coerces a raw filter value to its kind. present is false for
// values that mean "not given" (zero id on an optional filter, blank text).
func normalize(f Filter, raw any, required bool) (value any, present bool, err error) {
	switch f.Kind {
	case KindID:
		if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
			return nil, false, nil
		}
		id, err := jsonutil.FlexibleInt64(raw)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidFilter, f.Name, err)
		}
		if id == 0 && !required {
			return nil, false, nil
		}
		return id, true, nil

	case KindText:
		s, ok := jsonutil.FlexibleString(raw)
		if !ok {
			return nil, false, fmt.Errorf("%w: %s must be a string", apperrors.ErrInvalidFilter, f.Name)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, false, nil
		}
		return s, true, nil

	case KindDate:
		s, ok := raw.(string)
		if !ok {
			return nil, false, fmt.Errorf("%w: %s must be a YYYY-MM-DD string", apperrors.ErrInvalidFilter, f.Name)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, false, nil
		}
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return nil, false, fmt.Errorf("%w: %s must be a YYYY-MM-DD date, got %q", apperrors.ErrInvalidFilter, f.Name, s)
		}
		return s, true, nil
	}
	return nil, false, fmt.Errorf("%w: %s has unknown kind", apperrors.ErrInvalidFilter, f.Name)
}
