package ean

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyDigits indicates the cleaned input exceeds the requested width.
	ErrTooManyDigits = errors.New("ean: valor con más dígitos que el ancho permitido")
	// ErrInvalidLength indicates an EAN-13 without exactly 13 digits.
	ErrInvalidLength = errors.New("ean: el EAN-13 debe tener 13 dígitos")
	// ErrChecksumMismatch indicates a wrong check digit.
	ErrChecksumMismatch = errors.New("ean: dígito verificador inválido")
	// ErrInvalidGTIN indicates a GTIN with an unsupported length or a wrong check digit.
	ErrInvalidGTIN = errors.New("ean: GTIN inválido")
)

// FormatError carries the offending value of a normalization failure.
type FormatError struct {
	Value string
	Width int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("ean: valor %q excede %d dígitos", e.Value, e.Width)
}

func (e *FormatError) Unwrap() error { return ErrTooManyDigits }
