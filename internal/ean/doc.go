// Package ean builds and checks the EAN-13 codes used by the variant grid.
//
// Internal layout of a generated code:
//
//	[reference:4][base:4][axis1:2][axis2:2][check:1]
//
// The check digit follows the GS1 mod-10 rule over 1-based positions:
// weight 1 on odd positions, weight 3 on even positions. The same rule is
// used for generation, validation and GTIN checks.
//
// Errors:
//
//   - ErrTooManyDigits: the input has more digits than the target width.
//   - ErrInvalidLength: a code to validate does not have 13 digits.
//   - ErrChecksumMismatch: the stored check digit is not the computed one.
package ean
