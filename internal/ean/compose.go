package ean

import (
	"regexp"
	"strconv"
	"strings"
)

// Compose12 builds the 12-digit base [ref:4][base:4][axis1:2][axis2:2].
func Compose12(ref, base, axis1, axis2 any) (string, error) {
	parts := [4]struct {
		v any
		w int
	}{{ref, 4}, {base, 4}, {axis1, 2}, {axis2, 2}}
	var b strings.Builder
	b.Grow(12)
	for _, p := range parts {
		s, err := Normalize(p.v, p.w)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// Compose returns the full EAN-13 for the given parts.
func Compose(ref, base, axis1, axis2 any) (string, error) {
	e12, err := Compose12(ref, base, axis1, axis2)
	if err != nil {
		return "", err
	}
	return e12 + strconv.Itoa(weightedCheck(e12)), nil
}

var (
	codeMapLineRe = regexp.MustCompile(`[\r\n,;]+`)
	codeMapSepRe  = regexp.MustCompile(`[:=\s]+`)
)

// ParseCodeMap reads "Nombre=NN", "Nombre:NN" or "Nombre NN" entries,
// separated by new lines, commas or semicolons. Names are lower-cased.
// Entries without a code are ignored; a code with more than two digits
// is an error.
func ParseCodeMap(text string) (map[string]string, error) {
	out := map[string]string{}
	for _, raw := range codeMapLineRe.Split(text, -1) {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		parts := codeMapSepRe.Split(t, -1)
		if len(parts) < 2 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(strings.Join(parts[:len(parts)-1], " ")))
		if name == "" {
			continue
		}
		code, err := Normalize(parts[len(parts)-1], 2)
		if err != nil {
			return nil, err
		}
		out[name] = code
	}
	return out, nil
}
