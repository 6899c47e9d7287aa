package ean

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		in    any
		width int
		want  string
	}{
		{"pads", "7", 2, "07"},
		{"exact", "1234", 4, "1234"},
		{"strips", "12-3a4", 4, "1234"},
		{"nil", nil, 4, "0000"},
		{"blank", "   ", 2, "00"},
		{"int", 456, 4, "0456"},
		{"int64", int64(9), 2, "09"},
		{"json number", json.Number("12"), 4, "0012"},
		{"float from json", float64(3), 2, "03"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in, tc.width)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalize_NeverTruncates(t *testing.T) {
	_, err := Normalize("12345", 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyDigits))

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "12345", fe.Value)
	assert.Equal(t, 4, fe.Width)

	_, err = Normalize(100, 2)
	assert.ErrorIs(t, err, ErrTooManyDigits)
}

func TestMustNormalize_Panics(t *testing.T) {
	assert.Equal(t, "01", MustNormalize(1, 2))
	assert.Panics(t, func() { MustNormalize("123", 2) })
}
