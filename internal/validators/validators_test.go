package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `validate:"required"`
	GTIN string `validate:"omitempty,gtin"`
	NCM  string `validate:"omitempty,ncm"`
	Ref  string `validate:"omitempty,digits4"`
}

func TestCustomTags(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(sample{Name: "Camiseta", GTIN: "4006381333931", NCM: "61091000", Ref: "0456"}))
	require.NoError(t, v.Struct(sample{Name: "Camiseta"}))

	err := v.Struct(sample{GTIN: "4006381333932", NCM: "6109", Ref: "12345"})
	require.Error(t, err)
	assert.Equal(t, []string{
		"Name es obligatorio",
		"GTIN: GTIN/EAN inválido",
		"NCM: el NCM debe tener 8 dígitos",
		"Ref: se esperan hasta 4 dígitos",
	}, Messages(err))
}

func TestMessages_NonValidationError(t *testing.T) {
	assert.Nil(t, Messages(nil))
	assert.Equal(t, []string{"x"}, Messages(assertErr("x")))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
