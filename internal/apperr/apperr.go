package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInvalidState      = "INVALID_STATE"
	CodeOverReturn        = "OVER_RETURN"
	CodeAlreadyClosed     = "ALREADY_CLOSED"
	CodeNotFound          = "NOT_FOUND"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeConflict          = "CONFLICT"
	CodeInternalError     = "INTERNAL_ERROR"
)

// AppError is a domain error carrying its code and HTTP status
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a single detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithDetails replaces the error details
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Wrap attaches the underlying cause
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func InsufficientStock(warehouseID, itemID, available, requested int) *AppError {
	return New(CodeInsufficientStock, "insufficient stock", http.StatusConflict).
		WithDetails(map[string]string{
			"warehouse_id": fmt.Sprint(warehouseID),
			"item_id":      fmt.Sprint(itemID),
			"available":    fmt.Sprint(available),
			"requested":    fmt.Sprint(requested),
		})
}

func InvalidTransition(from, to string) *AppError {
	return New(CodeInvalidTransition, fmt.Sprintf("cannot move from %s to %s", from, to), http.StatusConflict).
		WithDetails(map[string]string{"from": from, "to": to})
}

// InvalidTransitionFor reports an action that the current state does not allow
func InvalidTransitionFor(action, state string) *AppError {
	return New(CodeInvalidTransition, fmt.Sprintf("cannot %s while %s", action, state), http.StatusConflict).
		WithDetails(map[string]string{"action": action, "state": state})
}

func InvalidState(message string) *AppError {
	return New(CodeInvalidState, message, http.StatusConflict)
}

func OverReturn(message string) *AppError {
	return New(CodeOverReturn, message, http.StatusConflict)
}

func AlreadyClosed(warehouseID int, yearMonth string) *AppError {
	return New(CodeAlreadyClosed, "closing period is already closed", http.StatusConflict).
		WithDetails(map[string]string{
			"warehouse_id": fmt.Sprint(warehouseID),
			"year_month":   yearMonth,
		})
}

func NotFound(resource string, id any) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).
		WithDetail("id", fmt.Sprint(id))
}

func Validation(message string) *AppError {
	return New(CodeValidationError, message, http.StatusBadRequest)
}

// ValidationFields creates a validation error with per-field details
func ValidationFields(message string, fields map[string]string) *AppError {
	return Validation(message).WithDetails(fields)
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func Internal(err error) *AppError {
	return New(CodeInternalError, "an internal error occurred", http.StatusInternalServerError).Wrap(err)
}

// As returns the AppError in err's chain, if any
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// From converts any error to an AppError; unknown errors become INTERNAL_ERROR
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return Internal(err)
}

// CodeOf returns the code of err, or "" for nil
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return From(err).Code
}

// Is reports whether err carries the given code
func Is(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
