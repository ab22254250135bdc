// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/raghavbk/savora/internal/recommend"
)

// validate is the shared validator instance; validators are safe for
// concurrent use and cache struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// recommendationRequest is the POST /api/v1/recommendations body.
// Structural bounds are enforced here with validator tags; semantic
// rules (budget inversion, context length) live in the engine.
type recommendationRequest struct {
	Location   string   `json:"location" validate:"required,min=1,max=120"`
	Cuisines   []string `json:"cuisines" validate:"max=20,dive,min=1,max=60"`
	MinRating  float64  `json:"min_rating" validate:"gte=0,lte=5"`
	BudgetMin  *int     `json:"budget_min" validate:"omitempty,gte=0"`
	BudgetMax  *int     `json:"budget_max" validate:"omitempty,gte=0"`
	MaxResults int      `json:"max_results" validate:"gte=0,lte=100"`
	UseLLM     bool     `json:"use_llm"`
	Context    string   `json:"context" validate:"max=2000"`
}

// toQuery converts the request body to an engine query.
func (req *recommendationRequest) toQuery(requestID string) recommend.Query {
	return recommend.Query{
		Location:   req.Location,
		Cuisines:   req.Cuisines,
		MinRating:  req.MinRating,
		BudgetMin:  req.BudgetMin,
		BudgetMax:  req.BudgetMax,
		MaxResults: req.MaxResults,
		UseLLM:     req.UseLLM,
		Context:    req.Context,
		RequestID:  requestID,
	}
}

// validateRequest runs validator tags and converts the first failure to
// an APIError.
func validateRequest(v any) *APIError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := strings.ToLower(fe.Field())
		return &APIError{
			Code:    codeValidationError,
			Message: fmt.Sprintf("invalid value for %s (constraint: %s)", field, fe.Tag()),
			Details: map[string]any{
				"field":      field,
				"constraint": fe.Tag(),
			},
		}
	}
	return &APIError{
		Code:    codeValidationError,
		Message: "invalid request body",
	}
}
