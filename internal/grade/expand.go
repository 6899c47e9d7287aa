package grade

import (
	"fmt"

	"github.com/phenrril/crontex/internal/domain"
)

// Placeholder stands in for an axis without values.
const Placeholder = "—"

// AxisKey returns the combo key of axis i.
func AxisKey(a domain.Axis, i int) string {
	if a.Key != "" {
		return a.Key
	}
	return fmt.Sprintf("param_%d", i+1)
}

// Expand returns the Cartesian product of every axis, iterating the last
// axis fastest. An axis without values contributes Placeholder; a grade
// without axes yields one empty combo.
func Expand(axes []domain.Axis) []domain.Combo {
	combos := []domain.Combo{{}}
	for i, a := range axes {
		key := AxisKey(a, i)
		vals := a.Labels()
		if len(vals) == 0 {
			vals = []string{Placeholder}
		}
		next := make([]domain.Combo, 0, len(combos)*len(vals))
		for _, prefix := range combos {
			for _, v := range vals {
				c := make(domain.Combo, len(prefix), len(prefix)+1)
				copy(c, prefix)
				next = append(next, append(c, domain.Attr{Key: key, Value: v}))
			}
		}
		combos = next
	}
	return combos
}
