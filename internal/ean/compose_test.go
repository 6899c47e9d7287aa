package ean

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_Scenario(t *testing.T) {
	e12, err := Compose12("1234", "0456", "01", "01")
	require.NoError(t, err)
	assert.Equal(t, "123404560101", e12)

	code, err := Compose("1234", "0456", "01", "01")
	require.NoError(t, err)
	assert.Equal(t, "1234045601017", code)
}

func TestCompose_Defaults(t *testing.T) {
	code, err := Compose(12, 456, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "001204560000", code[:12])
	require.NoError(t, Validate(code))
}

func TestCompose_RoundTrip(t *testing.T) {
	for ref := 0; ref < 10000; ref += 797 {
		for base := 0; base < 10000; base += 1231 {
			for a1 := 0; a1 < 100; a1 += 13 {
				for a2 := 0; a2 < 100; a2 += 17 {
					code, err := Compose(ref, base, a1, a2)
					require.NoError(t, err)
					require.Len(t, code, 13)
					require.NoError(t, Validate(code), code)
					require.Equal(t, fmt.Sprintf("%04d%04d%02d%02d", ref, base, a1, a2), code[:12])
				}
			}
		}
	}
}

func TestCompose_Overflow(t *testing.T) {
	_, err := Compose("12345", "0456", "01", "01")
	assert.ErrorIs(t, err, ErrTooManyDigits)
	_, err = Compose("1234", "0456", "100", "01")
	assert.ErrorIs(t, err, ErrTooManyDigits)
}

func TestParseCodeMap(t *testing.T) {
	m, err := ParseCodeMap("PP=01\nP:02\r\nM 03, Gris Oscuro=4;\n\nsolo")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"pp":          "01",
		"p":           "02",
		"m":           "03",
		"gris oscuro": "04",
	}, m)

	empty, err := ParseCodeMap("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseCodeMap("XG=123")
	assert.ErrorIs(t, err, ErrTooManyDigits)
}
