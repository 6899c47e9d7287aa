package grade

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phenrril/crontex/internal/domain"
	"github.com/phenrril/crontex/internal/ean"
)

var ErrDuplicateAxis = errors.New("grade: parámetro duplicado")

// Input is what Generate needs from the owning product.
type Input struct {
	Ref         string
	Base        string
	ProductCode string
	Grade       domain.Grade
}

// Result holds the generated rows plus the summary persisted with them.
// Grade is the input grade with the codes used on the two code axes.
type Result struct {
	Rows  []domain.GradeRow
	Meta  domain.GradeMeta
	Grade domain.Grade
}

// SelectAxes returns the indexes of the axes whose codes feed the EAN-13
// (-1 when absent) and the policy used to pick them.
func SelectAxes(axes []domain.Axis) (size, color int, policy string) {
	size, color = -1, -1
	for i, a := range axes {
		switch a.Role {
		case domain.RoleSize:
			if size < 0 {
				size = i
			}
		case domain.RoleColor:
			if color < 0 {
				color = i
			}
		}
	}
	if size >= 0 || color >= 0 {
		return size, color, domain.PolicyRole
	}
	if len(axes) >= 1 {
		size = 0
	}
	if len(axes) >= 2 {
		color = 1
	}
	return size, color, domain.PolicyPositional
}

// Generate expands the grade and derives one EAN-13 and one SKU per combo.
// Ref and Base must fit in 4 digits each.
func Generate(in Input) (Result, error) {
	ref, err := ean.Normalize(in.Ref, 4)
	if err != nil {
		return Result{}, err
	}
	base, err := ean.Normalize(in.Base, 4)
	if err != nil {
		return Result{}, err
	}

	axes := in.Grade.Axes
	seenKeys := make(map[string]struct{}, len(axes))
	for i, a := range axes {
		k := AxisKey(a, i)
		if _, dup := seenKeys[k]; dup {
			return Result{}, fmt.Errorf("%w: '%s'", ErrDuplicateAxis, k)
		}
		seenKeys[k] = struct{}{}
	}
	sizeIdx, colorIdx, policy := SelectAxes(axes)
	codes := make([]map[string]string, len(axes))
	for _, idx := range []int{sizeIdx, colorIdx} {
		if idx < 0 {
			continue
		}
		m, err := axisCodes(axes[idx])
		if err != nil {
			return Result{}, err
		}
		codes[idx] = m
	}

	prefix := strings.TrimSpace(in.ProductCode)
	if prefix == "" {
		prefix = ref + base
	}

	combos := Expand(axes)
	rows := make([]domain.GradeRow, 0, len(combos))
	for _, c := range combos {
		code13, err := ean.Compose(ref, base, codeAt(c, codes, sizeIdx), codeAt(c, codes, colorIdx))
		if err != nil {
			return Result{}, err
		}
		rows = append(rows, domain.GradeRow{
			Combo: c,
			EAN13: code13,
			SKU:   DerivedSKU(prefix, c, codes),
		})
	}

	meta := domain.GradeMeta{
		Ref:        ref,
		Base:       base,
		MapTamanho: map[string]string{},
		MapCor:     map[string]string{},
		Policy:     policy,
		Count:      len(rows),
	}
	if sizeIdx >= 0 {
		meta.ParamTamanho = AxisKey(axes[sizeIdx], sizeIdx)
		meta.MapTamanho = codes[sizeIdx]
	}
	if colorIdx >= 0 {
		meta.ParamCor = AxisKey(axes[colorIdx], colorIdx)
		meta.MapCor = codes[colorIdx]
	}

	return Result{Rows: rows, Meta: meta, Grade: withCodes(in.Grade, codes)}, nil
}

func codeAt(c domain.Combo, codes []map[string]string, idx int) string {
	if idx < 0 || idx >= len(c) {
		return "00"
	}
	if code, ok := codes[idx][c[idx].Value]; ok {
		return code
	}
	return "00"
}

// DerivedSKU joins prefix with one part per axis: the value's code on the
// code axes, its label elsewhere. Placeholder values add nothing.
func DerivedSKU(prefix string, c domain.Combo, codes []map[string]string) string {
	parts := []string{prefix}
	for i, a := range c {
		if a.Value == Placeholder || a.Value == "" {
			continue
		}
		if i < len(codes) && codes[i] != nil {
			if code, ok := codes[i][a.Value]; ok {
				parts = append(parts, code)
				continue
			}
		}
		parts = append(parts, a.Value)
	}
	return strings.Join(parts, "-")
}

func withCodes(g domain.Grade, codes []map[string]string) domain.Grade {
	out := domain.Grade{Orientation: g.Orientation, Axes: make([]domain.Axis, len(g.Axes))}
	for i, a := range g.Axes {
		na := domain.Axis{Key: a.Key, Role: a.Role, Values: make([]domain.Value, len(a.Values))}
		for j, v := range a.Values {
			if codes[i] != nil {
				v.Code = codes[i][v.Label]
			}
			na.Values[j] = v
		}
		out.Axes[i] = na
	}
	return out
}

// DistinctEANs returns the EAN-13 codes of rows without repeats, in order.
// Rows that differ only on cosmetic axes share a code.
func DistinctEANs(rows []domain.GradeRow) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.EAN13]; ok {
			continue
		}
		seen[r.EAN13] = struct{}{}
		out = append(out, r.EAN13)
	}
	return out
}

// DuplicateSKUs returns the SKUs shared by more than one row, each once.
// Labels containing the separator can make two combos join to the same SKU.
func DuplicateSKUs(rows []domain.GradeRow) []string {
	seen := make(map[string]struct{}, len(rows))
	flagged := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.SKU]; !ok {
			seen[r.SKU] = struct{}{}
			continue
		}
		if _, ok := flagged[r.SKU]; ok {
			continue
		}
		flagged[r.SKU] = struct{}{}
		out = append(out, r.SKU)
	}
	return out
}
