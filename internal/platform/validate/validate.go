// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate collects field-level failures from service inputs and
// reports them as one VALIDATION_ERROR.
package validate

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
)

var (
	// handleRegex matches login names: ASCII letters, digits, dot, dash and
	// underscore, starting with a letter or digit.
	handleRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

	// ErrBodyTooLarge is returned when the request body exceeds the limit.
	ErrBodyTooLarge = apperr.ValidationError("Request body too large")
)

// Validator accumulates failures across a chain of rule calls. Only the first
// failure of each field is kept, so "required" is not followed by "too short"
// for the same empty value. The zero value is ready to use; it is not safe
// for concurrent use.
type Validator struct {
	errs []apperr.FieldError
}

// check records message for field when failed is true and field has no
// failure yet.
func (v *Validator) check(field string, failed bool, message string) *Validator {
	if !failed {
		return v
	}
	if slices.ContainsFunc(v.errs, func(existing apperr.FieldError) bool { return existing.Field == field }) {
		return v
	}
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
	return v
}

// # Text

// Required fails on a blank value.
func (v *Validator) Required(field, value string) *Validator {
	return v.check(field, strings.TrimSpace(value) == "", "This field is required")
}

// MinLen and MaxLen count characters, not bytes.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	return v.check(field, utf8.RuneCountInString(value) < min, fmt.Sprintf("Minimum %d characters", min))
}

func (v *Validator) MaxLen(field, value string, max int) *Validator {
	return v.check(field, utf8.RuneCountInString(value) > max, fmt.Sprintf("Maximum %d characters", max))
}

// Handle fails unless value is a login name. Empty values are left to
// [Validator.Required].
func (v *Validator) Handle(field, value string) *Validator {
	return v.check(field, value != "" && !handleRegex.MatchString(value), "Only letters, digits, dots, dashes and underscores")
}

// Email accepts a bare RFC 5322 address; display-name forms are rejected.
func (v *Validator) Email(field, value string) *Validator {
	address, err := mail.ParseAddress(value)
	return v.check(field, err != nil || address.Address != value, "Must be a valid email address")
}

// OneOf fails unless value is one of allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	return v.check(field, !slices.Contains(allowed, value), "Must be one of: "+strings.Join(allowed, ", "))
}

// # Links

// URL fails unless value is an absolute http(s) URL with a host.
func (v *Validator) URL(field, value string) *Validator {
	parsed, err := url.Parse(value)
	invalid := err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https")
	return v.check(field, invalid, "Must be a valid http(s) URL")
}

// OptionalURL is [Validator.URL] for values that may be empty.
func (v *Validator) OptionalURL(field, value string) *Validator {
	if value == "" {
		return v
	}
	return v.URL(field, value)
}

// # Numbers & Custom Rules

// Range is inclusive on both ends.
func (v *Validator) Range(field string, value, min, max int) *Validator {
	return v.check(field, value < min || value > max, fmt.Sprintf("Must be between %d and %d", min, max))
}

// Custom adds message when failed is true.
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	return v.check(field, failed, message)
}

// # Result

// Err returns the collected failures as one VALIDATION_ERROR, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// Invalid is a single-field VALIDATION_ERROR.
func Invalid(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{Field: field, Message: message})
}
