package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/crontex/internal/domain"
	"github.com/phenrril/crontex/internal/ean"
	"github.com/phenrril/crontex/internal/grade"
	"github.com/phenrril/crontex/internal/validators"
)

type ProductUC struct {
	Products domain.ProductRepo
	Validate *validator.Validate
	// DefaultRef stands in for an empty Product.Reference.
	DefaultRef string
}

// GradePreview is what the grade editor shows before saving.
type GradePreview struct {
	Grade      domain.Grade      `json:"grade"`
	Rows       []domain.GradeRow `json:"rows"`
	Meta       domain.GradeMeta  `json:"meta"`
	Duplicates []string          `json:"duplicates"`
	// DuplicateSKUs lists generated SKUs already used by other products.
	DuplicateSKUs []string `json:"duplicate_skus"`
	Issues        []string `json:"issues"`
}

func (uc *ProductUC) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	if f.PageSize == 0 {
		f.PageSize = 20
	}
	return uc.Products.List(ctx, f)
}

func (uc *ProductUC) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyCode
	}
	return uc.Products.FindByCode(ctx, code)
}

func (uc *ProductUC) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if id == uuid.Nil {
		return nil, errors.New("product id")
	}
	return uc.Products.FindByID(ctx, id)
}

func (uc *ProductUC) Create(ctx context.Context, p *domain.Product) error {
	if p == nil {
		return errors.New("product nil")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	p.GTIN = strings.TrimSpace(p.GTIN)
	if err := uc.check(p); err != nil {
		return err
	}
	return uc.Products.Save(ctx, p)
}

func (uc *ProductUC) Update(ctx context.Context, p *domain.Product) error {
	if p == nil || p.ID == uuid.Nil {
		return errors.New("product id")
	}
	if err := uc.check(p); err != nil {
		return err
	}
	return uc.Products.Save(ctx, p)
}

func (uc *ProductUC) Categories(ctx context.Context) ([]string, error) {
	return uc.Products.DistinctCategories(ctx)
}

// --- Variants ---

func (uc *ProductUC) CreateVariant(ctx context.Context, v *domain.Variant) error {
	if v == nil {
		return errors.New("variant nil")
	}
	if v.ProductID == uuid.Nil {
		return errors.New("product id")
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.EAN != "" {
		if err := ean.Validate(v.EAN); err != nil {
			return err
		}
	}
	return uc.Products.SaveVariant(ctx, v)
}

func (uc *ProductUC) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("variant id")
	}
	return uc.Products.DeleteVariant(ctx, id)
}

func (uc *ProductUC) ListVariants(ctx context.Context, productID uuid.UUID) ([]domain.Variant, error) {
	if productID == uuid.Nil {
		return nil, errors.New("product id")
	}
	return uc.Products.ListVariants(ctx, productID)
}

func (uc *ProductUC) SearchByEAN(ctx context.Context, code string) (*domain.Product, *domain.Variant, error) {
	e := strings.TrimSpace(code)
	if e == "" {
		return nil, nil, errors.New("ean vacío")
	}
	if n, err := ean.Normalize(e, 13); err == nil {
		e = n
	}
	return uc.Products.FindVariantByEAN(ctx, e)
}

func (uc *ProductUC) SearchBySKU(ctx context.Context, sku string) (*domain.Product, *domain.Variant, error) {
	s := strings.TrimSpace(sku)
	if s == "" {
		return nil, nil, errors.New("sku vacío")
	}
	return uc.Products.FindVariantBySKU(ctx, s)
}

// --- Grade ---

// PreviewGrade normalizes raw and generates its rows without saving.
// Collisions with other products are reported in Duplicates; lookup
// failures are logged and do not block the preview.
func (uc *ProductUC) PreviewGrade(ctx context.Context, code string, raw any) (*GradePreview, error) {
	p, err := uc.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	g, issues := grade.Normalize(raw)
	out := &GradePreview{Grade: g, Rows: []domain.GradeRow{}, Duplicates: []string{}, DuplicateSKUs: []string{}, Issues: issues}
	if out.Issues == nil {
		out.Issues = []string{}
	}
	if len(issues) > 0 {
		return out, nil
	}

	res, err := grade.Generate(uc.gradeInput(p, g))
	if err != nil {
		out.Issues = append(out.Issues, err.Error())
		return out, nil
	}
	out.Grade, out.Rows, out.Meta = res.Grade, res.Rows, res.Meta
	out.Issues = append(out.Issues, skuIssues(res.Rows)...)

	rep := ean.FindDuplicates(ctx, grade.DistinctEANs(res.Rows), func(ctx context.Context, e string) (bool, error) {
		return uc.Products.EANInUse(ctx, e, p.ID)
	})
	for _, le := range rep.LookupErrors {
		log.Warn().Err(le.Err).Str("ean", le.EAN).Str("product", p.Code).Msg("no se pudo verificar el EAN")
	}
	if rep.HasDuplicates() {
		out.Duplicates = rep.Codes
	}

	for _, sku := range distinctSKUs(res.Rows) {
		used, err := uc.Products.SKUInUse(ctx, sku, p.ID)
		if err != nil {
			log.Warn().Err(err).Str("sku", sku).Str("product", p.Code).Msg("no se pudo verificar el SKU")
			continue
		}
		if used {
			out.DuplicateSKUs = append(out.DuplicateSKUs, sku)
		}
	}
	return out, nil
}

// SaveGrade replaces the product's grade and its generated variants in
// one transaction. An empty grade clears both.
func (uc *ProductUC) SaveGrade(ctx context.Context, id uuid.UUID, raw any) (*domain.Product, error) {
	if id == uuid.Nil {
		return nil, errors.New("product id")
	}
	g, issues := grade.Normalize(raw)
	if len(issues) > 0 {
		return nil, &GradeError{Issues: issues}
	}

	err := uc.Products.ReplaceGrade(ctx, id, func(ctx context.Context, p *domain.Product, in domain.GradeLookup) ([]domain.Variant, error) {
		if grade.IsEmpty(g) {
			p.Grade, p.GradeRows, p.GradeMeta = nil, nil, nil
			return nil, nil
		}
		res, err := grade.Generate(uc.gradeInput(p, g))
		if err != nil {
			return nil, &GradeError{Issues: []string{err.Error()}, Err: err}
		}
		if issues := skuIssues(res.Rows); len(issues) > 0 {
			return nil, &GradeError{Issues: issues}
		}
		dupes, err := ean.CheckUnique(ctx, grade.DistinctEANs(res.Rows), ean.ExistsFunc(in.EANInUse))
		if err != nil {
			return nil, err
		}
		var skus []string
		for _, sku := range distinctSKUs(res.Rows) {
			used, err := in.SKUInUse(ctx, sku)
			if err != nil {
				return nil, err
			}
			if used {
				skus = append(skus, sku)
			}
		}
		if len(dupes) > 0 || len(skus) > 0 {
			return nil, &DuplicateError{Codes: dupes, SKUs: skus}
		}

		meta := res.Meta
		p.Grade, p.GradeRows, p.GradeMeta = &res.Grade, res.Rows, &meta
		return variantsFromRows(p, res.Rows), nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("product", id.String()).Msg("grade guardada")
	return uc.Products.FindByID(ctx, id)
}

func (uc *ProductUC) gradeInput(p *domain.Product, g domain.Grade) grade.Input {
	ref := strings.TrimSpace(p.Reference)
	if ref == "" {
		ref = uc.DefaultRef
	}
	return grade.Input{Ref: ref, Base: p.Base, ProductCode: p.Code, Grade: g}
}

// skuIssues reports rows of the same grade whose SKUs join to the same text.
func skuIssues(rows []domain.GradeRow) []string {
	var out []string
	for _, sku := range grade.DuplicateSKUs(rows) {
		out = append(out, fmt.Sprintf("SKU duplicado '%s' en la grade.", sku))
	}
	return out
}

func distinctSKUs(rows []domain.GradeRow) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.SKU]; ok {
			continue
		}
		seen[r.SKU] = struct{}{}
		out = append(out, r.SKU)
	}
	return out
}

func variantsFromRows(p *domain.Product, rows []domain.GradeRow) []domain.Variant {
	out := make([]domain.Variant, 0, len(rows))
	for i, r := range rows {
		out = append(out, domain.Variant{
			ID:         uuid.New(),
			ProductID:  p.ID,
			SKU:        r.SKU,
			EAN:        r.EAN13,
			Attributes: r.Combo.Map(),
			Position:   i,
			Price:      p.Price,
		})
	}
	return out
}

func (uc *ProductUC) check(p *domain.Product) error {
	if uc.Validate == nil {
		return nil
	}
	if err := uc.Validate.Struct(p); err != nil {
		return &ValidationError{Messages: validators.Messages(err)}
	}
	return nil
}
