package grade

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/phenrril/crontex/internal/domain"
)

var (
	ErrMalformed = errors.New("grade: JSON malformado")
	ErrNotObject = errors.New("grade: estructura de la grade inválida")
)

const (
	issueMalformed  = "Grade inválida (JSON malformado)."
	issueNotObject  = "Estructura de la grade inválida."
	issueMultiSize  = "Más de un parámetro marcado como SIZE."
	issueMultiColor = "Más de un parámetro marcado como COLOR."
)

// Normalize canonicalizes a grade payload. It never fails: structural
// problems are returned as human readable issues next to a best-effort
// grade. raw may be a decoded JSON object, a domain.Grade, or JSON text.
func Normalize(raw any) (domain.Grade, []string) {
	switch x := raw.(type) {
	case nil:
		return emptyGrade(), nil
	case domain.Grade:
		return normalizeMap(gradeToMap(x))
	case *domain.Grade:
		if x == nil {
			return emptyGrade(), nil
		}
		return normalizeMap(gradeToMap(*x))
	case map[string]any:
		return normalizeMap(x)
	case string:
		return normalizeText([]byte(x))
	case []byte:
		return normalizeText(x)
	case json.RawMessage:
		return normalizeText(x)
	default:
		return emptyGrade(), []string{issueNotObject}
	}
}

// Parse is the strict entry point for request bodies: malformed JSON or a
// non-object payload is an error instead of an issue.
func Parse(data []byte) (domain.Grade, []string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return emptyGrade(), nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return domain.Grade{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return domain.Grade{}, nil, ErrNotObject
	}
	g, issues := normalizeMap(m)
	return g, issues, nil
}

// IsEmpty reports whether no axis carries values.
func IsEmpty(g domain.Grade) bool {
	for _, a := range g.Axes {
		if len(a.Values) > 0 {
			return false
		}
	}
	return true
}

func emptyGrade() domain.Grade {
	return domain.Grade{Axes: []domain.Axis{}, Orientation: domain.OrientationColumns}
}

func normalizeText(data []byte) (domain.Grade, []string) {
	if len(bytes.TrimSpace(data)) == 0 {
		return emptyGrade(), nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return emptyGrade(), []string{issueMalformed}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return emptyGrade(), []string{issueNotObject}
	}
	return normalizeMap(m)
}

func gradeToMap(g domain.Grade) map[string]any {
	b, err := json.Marshal(g)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func normalizeMap(payload map[string]any) (domain.Grade, []string) {
	var issues []string
	out := emptyGrade()
	if o := str(payload["orientacao"]); o == string(domain.OrientationColumns) || o == string(domain.OrientationRows) {
		out.Orientation = domain.Orientation(o)
	}

	params, _ := payload["parametros"].([]any)
	sizeCount, colorCount := 0, 0
	seenKeys := map[string]struct{}{}
	for _, p := range params {
		pm, ok := p.(map[string]any)
		if !ok {
			continue
		}
		axis := domain.Axis{
			Key:    str(pm["chave"]),
			Role:   parseRole(pm["role"]),
			Values: []domain.Value{},
		}
		key := AxisKey(axis, len(out.Axes))
		if _, dup := seenKeys[key]; dup {
			issues = append(issues, fmt.Sprintf("Parámetro duplicado '%s'.", key))
		}
		seenKeys[key] = struct{}{}
		switch axis.Role {
		case domain.RoleSize:
			sizeCount++
		case domain.RoleColor:
			colorCount++
		}

		rawVals, _ := pm["valores"].([]any)
		seenCodes := map[string]struct{}{}
		seenLabels := map[string]struct{}{}
		for _, rv := range rawVals {
			label, code, ok := valueParts(rv)
			if !ok || label == "" {
				continue
			}
			if _, dup := seenLabels[label]; dup {
				issues = append(issues, fmt.Sprintf("Valor duplicado '%s' en '%s'.", label, key))
			}
			seenLabels[label] = struct{}{}

			item := domain.Value{Label: label}
			if axis.Role.HasCode() {
				if !isCode2(code) {
					issues = append(issues, fmt.Sprintf("Código inválido en '%s' → '%s'. Se esperan 2 dígitos (00..99).", key, label))
				} else {
					if _, dup := seenCodes[code]; dup {
						issues = append(issues, fmt.Sprintf("Código duplicado '%s' en '%s'.", code, key))
					}
					seenCodes[code] = struct{}{}
					item.Code = code
				}
			}
			axis.Values = append(axis.Values, item)
		}
		out.Axes = append(out.Axes, axis)
	}

	if sizeCount > 1 {
		issues = append(issues, issueMultiSize)
	}
	if colorCount > 1 {
		issues = append(issues, issueMultiColor)
	}
	return out, issues
}

func parseRole(v any) domain.Role {
	switch r := domain.Role(strings.ToLower(str(v))); r {
	case domain.RoleSize, domain.RoleColor, domain.RoleAttr:
		return r
	default:
		return domain.RoleAttr
	}
}

// valueParts accepts {"label","code"} or a bare string (older payloads).
func valueParts(v any) (label, code string, ok bool) {
	switch x := v.(type) {
	case map[string]any:
		return str(x["label"]), str(x["code"]), true
	case string:
		return strings.TrimSpace(x), "", true
	default:
		return "", "", false
	}
}

func isCode2(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

func str(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
