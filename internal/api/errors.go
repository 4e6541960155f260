package api

import (
	"errors"
	"fmt"
)

// Startup failures. Each maps to one banner on the landing screen.
var (
	ErrPrimeConfig = errors.New("failed to add config")
	ErrPartNumber  = errors.New("failed to read part number")
	ErrNoTests     = errors.New("tests not available")
)

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
}

// NoTestsError carries the part number that has no tests.
type NoTestsError struct {
	PartNumber string
}

func (e *NoTestsError) Error() string {
	return fmt.Sprintf("tests not available for %s", e.PartNumber)
}

func (e *NoTestsError) Unwrap() error { return ErrNoTests }
