package ean

import "strconv"

// CheckDigit returns the GS1 check digit for a 12-digit base.
// Positions are 1-based: odd positions weigh 1, even positions weigh 3.
func CheckDigit(base12 string) (int, error) {
	s, err := Normalize(base12, 12)
	if err != nil {
		return 0, err
	}
	return weightedCheck(s), nil
}

func weightedCheck(digits string) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		d := int(digits[i] - '0')
		if (i+1)%2 == 0 {
			sum += 3 * d
		} else {
			sum += d
		}
	}
	return (10 - sum%10) % 10
}

// Validate checks a complete EAN-13. Spaces and hyphens are tolerated,
// anything else must be exactly 13 digits with a matching check digit.
func Validate(code string) error {
	s := onlyDigits(code)
	if len(s) != 13 || len(stripSeparators(code)) != 13 {
		return ErrInvalidLength
	}
	if int(s[12]-'0') != weightedCheck(s[:12]) {
		return ErrChecksumMismatch
	}
	return nil
}

// IsValid reports whether Validate succeeds.
func IsValid(code string) bool { return Validate(code) == nil }

func stripSeparators(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '-', '\t':
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// ValidateGTIN accepts GTIN-8/12/13/14. Weights are applied from the
// right, which for 13 digits matches the left-to-right rule of CheckDigit.
func ValidateGTIN(code string) error {
	s := onlyDigits(code)
	switch len(s) {
	case 8, 12, 13, 14:
	default:
		return ErrInvalidGTIN
	}
	body := s[:len(s)-1]
	sum := 0
	for i := 0; i < len(body); i++ {
		d := int(body[len(body)-1-i] - '0')
		if i%2 == 0 {
			sum += 3 * d
		} else {
			sum += d
		}
	}
	if strconv.Itoa((10-sum%10)%10) != s[len(s)-1:] {
		return ErrInvalidGTIN
	}
	return nil
}
