package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline error taxonomy. Every stage failure is translated into one of
// these before it leaves the component that produced it.
var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrExtraction          = errors.New("text extraction failed")
	ErrValidation          = errors.New("validation failed")
	ErrPipeline            = errors.New("pipeline error")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDatabase            = errors.New("database error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
