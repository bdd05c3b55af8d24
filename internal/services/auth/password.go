// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"fmt"
	"strings"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// PasswordValidator validates passwords against the configured policy
type PasswordValidator struct {
	MinLength int
}

// ValidationError represents a single password validation error
type ValidationError struct {
	Code    string
	Message string
	Limit   int // the violated bound, if any
}

func (e ValidationError) Error() string {
	return e.Message
}

// PasswordValidationError wraps multiple validation errors
type PasswordValidationError struct {
	Errors []ValidationError
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return e.Errors[0].Message
}

// Messages returns all error messages
func (e *PasswordValidationError) Messages() []string {
	messages := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		messages[i] = err.Message
	}
	return messages
}

// Validate checks a password and returns nil or a *PasswordValidationError.
func (v *PasswordValidator) Validate(password string) error {
	var errs []ValidationError

	if len([]rune(password)) < v.MinLength {
		errs = append(errs, ValidationError{
			Code:    "min_length",
			Message: fmt.Sprintf("Password must be at least %d characters long.", v.MinLength),
			Limit:   v.MinLength,
		})
	}

	if len(password) > maxPasswordBytes {
		errs = append(errs, ValidationError{
			Code:    "max_length",
			Message: fmt.Sprintf("Password must be at most %d bytes long.", maxPasswordBytes),
			Limit:   maxPasswordBytes,
		})
	}

	if password != "" && strings.TrimSpace(password) == "" {
		errs = append(errs, ValidationError{
			Code:    "blank",
			Message: "Password cannot consist of whitespace only.",
		})
	}

	if len(errs) == 0 {
		return nil
	}
	return &PasswordValidationError{Errors: errs}
}
