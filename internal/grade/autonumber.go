package grade

import (
	"errors"
	"fmt"

	"github.com/phenrril/crontex/internal/domain"
)

// MaxCodes is the largest number of distinct values a code axis can hold.
const MaxCodes = 99

var ErrCodeOverflow = errors.New("grade: más de 99 valores distintos en un parámetro")

// Autonumber assigns "01", "02", ... to labels by first appearance.
// Repeated labels keep the code of their first occurrence.
func Autonumber(labels []string) (map[string]string, error) {
	out := make(map[string]string, len(labels))
	n := 0
	for _, l := range labels {
		if l == "" {
			continue
		}
		if _, ok := out[l]; ok {
			continue
		}
		n++
		if n > MaxCodes {
			return nil, ErrCodeOverflow
		}
		out[l] = fmt.Sprintf("%02d", n)
	}
	return out, nil
}

// axisCodes prefers the explicit codes of an axis when every value has a
// valid one and no code repeats; otherwise it autonumbers the labels.
func axisCodes(a domain.Axis) (map[string]string, error) {
	if len(a.Values) == 0 {
		return map[string]string{}, nil
	}
	explicit := make(map[string]string, len(a.Values))
	used := make(map[string]struct{}, len(a.Values))
	for _, v := range a.Values {
		if !isCode2(v.Code) {
			return Autonumber(a.Labels())
		}
		if prev, ok := explicit[v.Label]; ok {
			if prev != v.Code {
				return Autonumber(a.Labels())
			}
			continue
		}
		if _, dup := used[v.Code]; dup {
			return Autonumber(a.Labels())
		}
		used[v.Code] = struct{}{}
		explicit[v.Label] = v.Code
	}
	return explicit, nil
}
