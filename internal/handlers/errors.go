// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/godfactor/internal/i18n"
	"codeberg.org/oliverandrich/godfactor/internal/repository"
	authsvc "codeberg.org/oliverandrich/godfactor/internal/services/auth"
	"codeberg.org/oliverandrich/godfactor/internal/services/ledger"
	"codeberg.org/oliverandrich/godfactor/internal/services/moderation"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Error codes returned in the "error" field of every error response.
const (
	CodeUnauthenticated      = "Unauthenticated"
	CodeForbidden            = "Forbidden"
	CodeDuplicateIdentity    = "DuplicateIdentity"
	CodeDuplicateInteraction = "DuplicateInteraction"
	CodeValidation           = "ValidationError"
	CodeNotFound             = "NotFound"
	CodeInvalidTransition    = "InvalidTransition"
	CodeConflict             = "Conflict"
	CodeRateLimited          = "RateLimited"
	CodeMethodNotAllowed     = "MethodNotAllowed"
	CodeInternal             = "InternalError"
)

// APIError is an error with a status, a code and a localizable message.
type APIError struct {
	Status    int
	Code      string
	MessageID string
	Data      map[string]any
	Fields    map[string]string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.MessageID
}

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var (
	ErrUnauthenticated    = &APIError{Status: http.StatusUnauthorized, Code: CodeUnauthenticated, MessageID: "error.unauthenticated"}
	ErrInvalidCredentials = &APIError{Status: http.StatusUnauthorized, Code: CodeUnauthenticated, MessageID: "error.invalid_credentials"}
	ErrForbidden          = &APIError{Status: http.StatusForbidden, Code: CodeForbidden, MessageID: "error.forbidden"}
	ErrRateLimited        = &APIError{Status: http.StatusTooManyRequests, Code: CodeRateLimited, MessageID: "error.rate_limited"}
	ErrBadRequest         = &APIError{Status: http.StatusBadRequest, Code: CodeValidation, MessageID: "error.validation"}
	ErrNotFound           = &APIError{Status: http.StatusNotFound, Code: CodeNotFound, MessageID: "error.not_found"}
	ErrInternal           = &APIError{Status: http.StatusInternalServerError, Code: CodeInternal, MessageID: "error.internal"}
)

// toAPIError maps service, validation and framework errors onto the API
// error taxonomy. Unknown errors become InternalError.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var pve *authsvc.PasswordValidationError
	if errors.As(err, &pve) {
		return passwordError(pve)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		return &APIError{Status: http.StatusBadRequest, Code: CodeValidation, MessageID: "error.validation", Fields: fields}
	}

	switch {
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, authsvc.ErrDuplicateIdentity):
		return &APIError{Status: http.StatusConflict, Code: CodeDuplicateIdentity, MessageID: "error.duplicate_identity"}
	case errors.Is(err, ledger.ErrDuplicateInteraction):
		return &APIError{Status: http.StatusBadRequest, Code: CodeDuplicateInteraction, MessageID: "error.duplicate_interaction"}
	case errors.Is(err, ledger.ErrInvalidKind), errors.Is(err, ledger.ErrInvalidSubject):
		return &APIError{Status: http.StatusBadRequest, Code: CodeValidation, MessageID: "error.invalid_kind"}
	case errors.Is(err, moderation.ErrInvalidTransition):
		return &APIError{Status: http.StatusConflict, Code: CodeInvalidTransition, MessageID: "error.invalid_transition"}
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return &APIError{Status: http.StatusConflict, Code: CodeConflict, MessageID: "error.conflict"}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fromHTTPError(he)
	}

	return ErrInternal
}

func passwordError(pve *authsvc.PasswordValidationError) *APIError {
	apiErr := &APIError{Status: http.StatusBadRequest, Code: CodeValidation, MessageID: "error.validation"}
	if len(pve.Errors) == 0 {
		return apiErr
	}
	first := pve.Errors[0]
	switch first.Code {
	case "min_length":
		apiErr.MessageID = "error.password_too_short"
		apiErr.Data = map[string]any{"Min": first.Limit}
	case "max_length":
		apiErr.MessageID = "error.password_too_long"
		apiErr.Data = map[string]any{"Max": first.Limit}
	case "blank":
		apiErr.MessageID = "error.password_blank"
	}
	apiErr.Fields = map[string]string{"password": first.Code}
	return apiErr
}

func fromHTTPError(he *echo.HTTPError) *APIError {
	switch he.Code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusMethodNotAllowed:
		return &APIError{Status: he.Code, Code: CodeMethodNotAllowed, MessageID: "error.method_not_allowed"}
	case http.StatusRequestEntityTooLarge:
		return &APIError{Status: he.Code, Code: CodeValidation, MessageID: "error.body_too_large"}
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	if he.Code >= 400 && he.Code < 500 {
		return &APIError{Status: he.Code, Code: CodeValidation, MessageID: "error.validation"}
	}
	return ErrInternal
}

// HTTPErrorHandler writes every error as an ErrorResponse. Internal errors
// are logged with their cause and answered with a generic message.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	resp := ErrorResponse{
		Error:   apiErr.Code,
		Message: i18n.TData(c.Request().Context(), apiErr.MessageID, apiErr.Data),
		Fields:  apiErr.Fields,
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(apiErr.Status)
	} else {
		err = c.JSON(apiErr.Status, resp)
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}

