// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package query

import (
	"fmt"
	"strings"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw condition with its arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddIn adds "column IN (?, ...)". An empty ids slice adds a condition that
// matches nothing, so callers never widen a query by accident.
func (wb *WhereBuilder) AddIn(column string, ids []int64) *WhereBuilder {
	if len(ids) == 0 {
		wb.clauses = append(wb.clauses, "1=0")
		return wb
	}
	wb.clauses = append(wb.clauses, wb.in(column, ids))
	return wb
}

// AnyIn adds "(c1 IN (...) OR c2 IN (...))" with ids bound once per column.
func (wb *WhereBuilder) AnyIn(columns []string, ids []int64) *WhereBuilder {
	if len(ids) == 0 || len(columns) == 0 {
		wb.clauses = append(wb.clauses, "1=0")
		return wb
	}
	parts := make([]string, len(columns))
	for i, column := range columns {
		parts[i] = wb.in(column, ids)
	}
	wb.clauses = append(wb.clauses, "("+strings.Join(parts, " OR ")+")")
	return wb
}

func (wb *WhereBuilder) in(column string, ids []int64) string {
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		wb.args = append(wb.args, id)
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", "))
}

// Build joins the clauses with AND. Returns ("1=1", []) if none were added.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with "WHERE " prefix.
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added to the builder.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
