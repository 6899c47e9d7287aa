package ean

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalize keeps only the digits of v and left-pads them with zeros to
// width. It never truncates: more than width digits is a *FormatError.
// A nil or blank value yields width zeros.
func Normalize(v any, width int) (string, error) {
	s := onlyDigits(toString(v))
	if len(s) > width {
		return "", &FormatError{Value: s, Width: width}
	}
	if len(s) == width {
		return s, nil
	}
	return strings.Repeat("0", width-len(s)) + s, nil
}

// MustNormalize is Normalize for internal call sites whose input is
// already known to fit.
func MustNormalize(v any, width int) string {
	s, err := Normalize(v, width)
	if err != nil {
		panic(err)
	}
	return s
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		// generic JSON decodes integers as float64
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
