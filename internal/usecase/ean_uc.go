package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/crontex/internal/domain"
	"github.com/phenrril/crontex/internal/ean"
	"github.com/phenrril/crontex/internal/grade"
)

type EANUC struct {
	Products domain.ProductRepo
}

// BulkRequest mirrors the bulk generator form: code maps are free text
// ("PP=01\nP=02"), sizes and colors are the labels to combine.
type BulkRequest struct {
	Referencia string   `json:"referencia" validate:"omitempty,max=8"`
	Base       string   `json:"base" validate:"omitempty,max=8"`
	MapSize    string   `json:"map_size"`
	MapColor   string   `json:"map_color"`
	Sizes      []string `json:"sizes" validate:"max=99"`
	Colors     []string `json:"colors" validate:"max=99"`
}

// BulkItem is one generated code. EAN13 and DV are nil when the size or
// color has no code in its map.
type BulkItem struct {
	TamName string  `json:"tamName"`
	CorName string  `json:"corName"`
	EAN13   *string `json:"ean13"`
	DV      *int    `json:"dv"`
}

// CheckResult describes a single EAN-13 lookup.
type CheckResult struct {
	EAN13 string `json:"ean13"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
	InUse bool   `json:"in_use"`
}

// GenerateBulk crosses sizes with colors. A size without code yields a
// single item with color placeholder; a color without code yields an
// item without EAN.
func (uc *EANUC) GenerateBulk(req BulkRequest) ([]BulkItem, error) {
	ref, err := ean.Normalize(req.Referencia, 4)
	if err != nil {
		return nil, fmt.Errorf("referencia: %w", err)
	}
	base, err := ean.Normalize(req.Base, 4)
	if err != nil {
		return nil, fmt.Errorf("base: %w", err)
	}
	sizeMap, err := ean.ParseCodeMap(req.MapSize)
	if err != nil {
		return nil, fmt.Errorf("map_size: %w", err)
	}
	colorMap, err := ean.ParseCodeMap(req.MapColor)
	if err != nil {
		return nil, fmt.Errorf("map_color: %w", err)
	}

	items := make([]BulkItem, 0, len(req.Sizes)*max(len(req.Colors), 1))
	for _, s := range req.Sizes {
		tn := strings.TrimSpace(s)
		tt, ok := sizeMap[strings.ToLower(tn)]
		if !ok {
			items = append(items, BulkItem{TamName: tn, CorName: grade.Placeholder})
			continue
		}
		for _, c := range req.Colors {
			cn := strings.TrimSpace(c)
			cc, ok := colorMap[strings.ToLower(cn)]
			if !ok {
				items = append(items, BulkItem{TamName: tn, CorName: cn})
				continue
			}
			e13, err := ean.Compose(ref, base, tt, cc)
			if err != nil {
				return nil, err
			}
			dv := int(e13[12] - '0')
			items = append(items, BulkItem{TamName: tn, CorName: cn, EAN13: &e13, DV: &dv})
		}
	}
	return items, nil
}

// Check validates code and, when it is well formed, looks it up among the
// saved variants. A failed lookup is logged and reported as not in use.
func (uc *EANUC) Check(ctx context.Context, code string) CheckResult {
	res := CheckResult{EAN13: strings.TrimSpace(code)}
	if err := ean.Validate(code); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Valid = true
	res.EAN13 = ean.MustNormalize(code, 13)
	if uc.Products == nil {
		return res
	}
	rep := ean.FindDuplicates(ctx, []string{res.EAN13}, func(ctx context.Context, e string) (bool, error) {
		return uc.Products.EANInUse(ctx, e, uuid.Nil)
	})
	for _, le := range rep.LookupErrors {
		log.Warn().Err(le.Err).Str("ean", le.EAN).Msg("no se pudo verificar el EAN")
	}
	res.InUse = rep.HasDuplicates()
	return res
}
