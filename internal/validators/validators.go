package validators

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phenrril/crontex/internal/ean"
)

var (
	ncmRegex     = regexp.MustCompile(`^[0-9]{8}$`)
	digits4Regex = regexp.MustCompile(`^[0-9]{1,4}$`)
)

// New returns a validator with the catalog tags registered:
// gtin, ncm and digits4.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("gtin", GTINValidator)
	_ = v.RegisterValidation("ncm", NCMValidator)
	_ = v.RegisterValidation("digits4", Digits4Validator)
	return v
}

func GTINValidator(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return ean.ValidateGTIN(s) == nil
}

func NCMValidator(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return ncmRegex.MatchString(strings.TrimSpace(s))
}

// Digits4Validator accepts references and bases: one to four digits.
func Digits4Validator(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return digits4Regex.MatchString(strings.TrimSpace(s))
}

// Messages flattens a validation error into one line per field.
func Messages(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		out = append(out, message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s es obligatorio", fe.Field())
	case "gtin":
		return fmt.Sprintf("%s: GTIN/EAN inválido", fe.Field())
	case "ncm":
		return fmt.Sprintf("%s: el NCM debe tener 8 dígitos", fe.Field())
	case "digits4":
		return fmt.Sprintf("%s: se esperan hasta 4 dígitos", fe.Field())
	case "gte":
		return fmt.Sprintf("%s no puede ser negativo", fe.Field())
	case "max":
		return fmt.Sprintf("%s excede el largo máximo (%s)", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s no es válido (%s)", fe.Field(), fe.Tag())
	}
}
