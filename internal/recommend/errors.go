// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package recommend

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed request. It is the only error kind
// Recommend surfaces to callers; everything downstream of validation
// degrades gracefully to the heuristic-only path.
type ValidationError struct {
	// Field is the offending request field.
	Field string

	// Message describes the violation.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
}

// AsValidationError returns the wrapped *ValidationError, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// validate checks request invariants. Budget inversion and out-of-range
// values are rejected before any filtering runs, never silently corrected.
func (q *Query) validate(limits Limits) error {
	if q.MinRating < 0 || q.MinRating > 5 {
		return &ValidationError{Field: "min_rating", Message: fmt.Sprintf("must be in [0,5], got %g", q.MinRating)}
	}
	if q.BudgetMin != nil && *q.BudgetMin < 0 {
		return &ValidationError{Field: "budget_min", Message: "must be non-negative"}
	}
	if q.BudgetMax != nil && *q.BudgetMax < 0 {
		return &ValidationError{Field: "budget_max", Message: "must be non-negative"}
	}
	if q.BudgetMin != nil && q.BudgetMax != nil && *q.BudgetMin > *q.BudgetMax {
		return &ValidationError{Field: "budget_max", Message: "must be greater than or equal to budget_min"}
	}
	if q.MaxResults < 0 {
		return &ValidationError{Field: "max_results", Message: "must be positive"}
	}
	if limits.MaxContextLen > 0 && len(q.Context) > limits.MaxContextLen {
		return &ValidationError{Field: "context", Message: fmt.Sprintf("exceeds %d bytes", limits.MaxContextLen)}
	}
	return nil
}
