package gateway

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidQuery marks request parameters that cannot describe a frame.
var ErrInvalidQuery = errors.New("invalid query")

// FriendlyError carries the code and message returned to HTTP clients.
type FriendlyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *FriendlyError) Error() string {
	return e.Message
}

func (e *FriendlyError) Unwrap() error { return e.Cause }

func mapQueryError(param string, err error) error {
	if err == nil {
		return nil
	}
	var numErr *strconv.NumError
	switch {
	case errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange):
		return &FriendlyError{Code: "PARAM_OUT_OF_RANGE", Message: fmt.Sprintf("%s is out of range", param), Cause: fmt.Errorf("%w: %w", ErrInvalidQuery, err)}
	case errors.As(err, &numErr):
		return &FriendlyError{Code: "PARAM_NOT_A_NUMBER", Message: fmt.Sprintf("%s must be a number", param), Cause: fmt.Errorf("%w: %w", ErrInvalidQuery, err)}
	case errors.Is(err, ErrInvalidQuery):
		return &FriendlyError{Code: "INVALID_QUERY", Message: fmt.Sprintf("%s is invalid: %v", param, err), Cause: err}
	}
	return &FriendlyError{Code: "INVALID_QUERY", Message: fmt.Sprintf("%s is invalid", param), Cause: fmt.Errorf("%w: %w", ErrInvalidQuery, err)}
}
