package apierr

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
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

// From classifies err by the sentinel it wraps. An *Error already in the chain wins.
// fallbackCode is used for the 500 case.
func From(err error, fallbackCode string) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		return New(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, pkgerrors.ErrConflict):
		return New(http.StatusConflict, "conflict", err)
	case errors.Is(err, pkgerrors.ErrNotConfigured):
		return New(http.StatusNotImplemented, "not_configured", err)
	}
	if fallbackCode == "" {
		fallbackCode = "internal_error"
	}
	return New(http.StatusInternalServerError, fallbackCode, err)
}
