// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate collects field-level input errors for the series service
// and reports them as one VALIDATION_ERROR.
package validate

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
)

var (
	// Series, file and reader IDs are canonical UUID strings (v7 for new rows).
	uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// Validator accumulates failures across chained rules. Use one per operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required rejects empty and whitespace-only values.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen counts runes, so "Ōkami" is five characters.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// Range accepts min <= value <= max.
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.add(field, fmt.Sprintf("Must be between %d and %d", min, max))
	}
	return v
}

// UUID accepts either letter case.
func (v *Validator) UUID(field, value string) *Validator {
	if !uuidRegex.MatchString(strings.ToLower(value)) {
		v.add(field, "Must be a valid UUID")
	}
	return v
}

// OneOf compares case-sensitively.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if slices.Contains(allowed, value) {
		return v
	}
	v.add(field, fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom records message when failed is true, e.g.
//
//	v.Custom("end_year", end < start, "Must not precede start_year")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err ends the chain: nil, or one VALIDATION_ERROR listing every failure in order.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors lets callers skip expensive checks once the input is already rejected.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}
