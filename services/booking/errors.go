package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Rejection reasons reported to callers.
const (
	CodeTimeConflict     = "TIME_CONFLICT"
	CodeTemporaryFailure = "TEMPORARY_FAILURE"
)

// BookingError is a rejected request that the caller may present verbatim.
type BookingError struct {
	Code    string
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error { return e.Err }

// Is matches on Code so errors.Is(err, ErrTimeConflict) works for wrapped instances.
func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	return ok && t.Code == e.Code
}

var (
	ErrTimeConflict     = &BookingError{Code: CodeTimeConflict, Message: "requested periods overlap an approved reservation"}
	ErrTemporaryFailure = &BookingError{Code: CodeTemporaryFailure, Message: "reservation could not be processed, retry later"}
)

func temporaryFailure(msg string, err error) error {
	return &BookingError{Code: CodeTemporaryFailure, Message: msg, Err: err}
}

// ValidationError captures malformed candidate fields. It is returned before any store access.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v.FieldErrors[f]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// Reason returns the rejection code carried by err, or "" if err is not a BookingError.
func Reason(err error) string {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
