package usecase

import (
	"errors"
	"strings"
)

var (
	ErrInvalidGrade = errors.New("grade inválida")
	ErrDuplicateEAN = errors.New("EAN duplicado")
	ErrEmptyCode    = errors.New("código vacío")
	ErrInvalidInput = errors.New("datos inválidos")
)

// GradeError carries the issues that blocked a grade from being saved.
type GradeError struct {
	Issues []string
	Err    error
}

func (e *GradeError) Error() string {
	return ErrInvalidGrade.Error() + ": " + strings.Join(e.Issues, "; ")
}

func (e *GradeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidGrade, e.Err}
	}
	return []error{ErrInvalidGrade}
}

// DuplicateError lists EAN-13 codes and SKUs already used by other products.
type DuplicateError struct {
	Codes []string
	SKUs  []string
}

func (e *DuplicateError) Error() string {
	msg := ErrDuplicateEAN.Error() + ": " + strings.Join(e.Codes, ", ")
	if len(e.SKUs) > 0 {
		msg += "; SKU en uso: " + strings.Join(e.SKUs, ", ")
	}
	return msg
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateEAN }

// ValidationError wraps the messages produced by the struct validator.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidInput.Error() + ": " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
