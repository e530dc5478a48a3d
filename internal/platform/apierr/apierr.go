package apierr

import (
	"errors"
	"fmt"
)

// Codes used across handlers and services.
const (
	CodeUnauthorized     = "unauthorized"
	CodeValidation       = "validation"
	CodeConversionFailed = "conversion_failed"
	CodeBadRequest       = "bad_request"
	CodeNoRatings        = "no_ratings"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Code extracts the error code, or "" for non-API errors.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
