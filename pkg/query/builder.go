// Package query builds parameterized SELECT statements for the hospital
// entities. Building never touches the database.
package query

import (
	"strconv"
	"strings"
)

// Statement is a finished SQL statement and its positional parameters.
// Placeholder $n always refers to Params[n-1].
type Statement struct {
	SQL    string
	Params []any

	// Applied lists the filters that produced predicates, in predicate order.
	Applied []AppliedFilter

	// Suspicious lists free-text values that look like SQL injection attempts.
	// They are still bound as parameters; this is informational only.
	Suspicious []*InjectionCheckResult
}

// predicate pairs a fragment renderer with the single parameter it binds.
type predicate struct {
	render func(placeholder string) string
	param  any
}

// Builder accumulates (predicate, parameter) pairs and renders placeholders
// from list position only when Build is called, so placeholder numbering
// cannot drift from the parameter list.
type Builder struct {
	base       string
	predicates []predicate
	orderBy    string
	limit      int
}

// NewBuilder starts a statement from a base SELECT (without WHERE).
func NewBuilder(base string) *Builder {
	return &Builder{base: base}
}

// Equal adds "column = $n".
func (b *Builder) Equal(column string, value any) *Builder {
	b.predicates = append(b.predicates, predicate{
		render: func(ph string) string { return column + " = " + ph },
		param:  value,
	})
	return b
}

// ContainsFold adds a case-insensitive partial match on column.
func (b *Builder) ContainsFold(column string, value string) *Builder {
	b.predicates = append(b.predicates, predicate{
		render: func(ph string) string { return "LOWER(" + column + ") LIKE LOWER(" + ph + ")" },
		param:  "%" + value + "%",
	})
	return b
}

// OnDate compares the calendar date of a timestamp column with an ISO date.
func (b *Builder) OnDate(column string, isoDate string) *Builder {
	b.predicates = append(b.predicates, predicate{
		render: func(ph string) string { return "DATE(" + column + ") = " + ph },
		param:  isoDate,
	})
	return b
}

// OrderBy sets the ORDER BY clause (without the keywords).
func (b *Builder) OrderBy(clause string) *Builder {
	b.orderBy = clause
	return b
}

// Limit caps the number of rows. Zero means no LIMIT clause.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Build renders the statement.
func (b *Builder) Build() *Statement {
	var sb strings.Builder
	sb.WriteString(b.base)
	sb.WriteString(" WHERE 1=1")

	params := make([]any, 0, len(b.predicates))
	for _, p := range b.predicates {
		params = append(params, p.param)
		sb.WriteString(" AND ")
		sb.WriteString(p.render("$" + strconv.Itoa(len(params))))
	}

	if b.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.orderBy)
	}
	if b.limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}

	return &Statement{
		SQL:    sb.String(),
		Params: params,
	}
}
