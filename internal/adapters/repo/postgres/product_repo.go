package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/crontex/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Save(ctx context.Context, p *domain.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit("Variants").Save(p).Error
}

func (r *ProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Preload("Variants", orderByPosition).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *ProductRepo) FindByCode(ctx context.Context, code string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Preload("Variants", orderByPosition).First(&p, "code = ?", code).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	var list []domain.Product
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(f.Query)) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR LOWER(brand) LIKE ? OR gtin LIKE ?", like, like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	offset := (f.Page - 1) * f.PageSize
	if err := q.Order("name asc").Offset(offset).Limit(f.PageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *ProductRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	cats := []string{}
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Distinct("category").Where("category <> ''").Order("category asc").Pluck("category", &cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

// --- Variants ---

func (r *ProductRepo) SaveVariant(ctx context.Context, v *domain.Variant) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *ProductRepo) ListVariants(ctx context.Context, productID uuid.UUID) ([]domain.Variant, error) {
	var list []domain.Variant
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("position asc, created_at asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ProductRepo) DeleteVariant(ctx context.Context, variantID uuid.UUID) error {
	if variantID == uuid.Nil {
		return errors.New("variant id vacío")
	}
	return r.db.WithContext(ctx).Where("id = ?", variantID).Delete(&domain.Variant{}).Error
}

func (r *ProductRepo) FindVariantByEAN(ctx context.Context, ean string) (*domain.Product, *domain.Variant, error) {
	return r.findVariant(ctx, "ean = ?", ean)
}

func (r *ProductRepo) FindVariantBySKU(ctx context.Context, sku string) (*domain.Product, *domain.Variant, error) {
	return r.findVariant(ctx, "sku = ?", sku)
}

func (r *ProductRepo) findVariant(ctx context.Context, cond string, arg string) (*domain.Product, *domain.Variant, error) {
	var v domain.Variant
	if err := r.db.WithContext(ctx).Order("position asc").First(&v, cond, arg).Error; err != nil {
		return nil, nil, notFound(err)
	}
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", v.ProductID).Error; err != nil {
		return nil, nil, notFound(err)
	}
	return &p, &v, nil
}

func (r *ProductRepo) EANInUse(ctx context.Context, ean string, exceptProduct uuid.UUID) (bool, error) {
	return codeInUse(r.db.WithContext(ctx), "ean", ean, exceptProduct)
}

func (r *ProductRepo) SKUInUse(ctx context.Context, sku string, exceptProduct uuid.UUID) (bool, error) {
	return codeInUse(r.db.WithContext(ctx), "sku", sku, exceptProduct)
}

// codeInUse counts variants of other products whose column equals code.
// column is always a constant of this package.
func codeInUse(db *gorm.DB, column, code string, exceptProduct uuid.UUID) (bool, error) {
	var n int64
	q := db.Model(&domain.Variant{}).Where(column+" = ?", code)
	if exceptProduct != uuid.Nil {
		q = q.Where("product_id <> ?", exceptProduct)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReplaceGrade locks the product, lets apply rebuild its grade and swaps
// the product's variants for the returned ones. Nothing is written when
// apply fails.
func (r *ProductRepo) ReplaceGrade(ctx context.Context, productID uuid.UUID, apply domain.GradeApplyFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Product
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&p, "id = ?", productID).Error; err != nil {
			return notFound(err)
		}

		variants, err := apply(ctx, &p, domain.GradeLookup{
			EANInUse: func(_ context.Context, ean string) (bool, error) {
				return codeInUse(tx, "ean", ean, productID)
			},
			SKUInUse: func(_ context.Context, sku string) (bool, error) {
				return codeInUse(tx, "sku", sku, productID)
			},
		})
		if err != nil {
			return err
		}

		if err := tx.Where("product_id = ?", productID).Delete(&domain.Variant{}).Error; err != nil {
			return err
		}
		if len(variants) > 0 {
			for i := range variants {
				if variants[i].ID == uuid.Nil {
					variants[i].ID = uuid.New()
				}
				variants[i].ProductID = productID
			}
			if err := tx.CreateInBatches(&variants, 200).Error; err != nil {
				return err
			}
		}
		return tx.Model(&p).Select("grade", "grade_rows", "grade_meta").Updates(&p).Error
	})
}

func orderByPosition(db *gorm.DB) *gorm.DB { return db.Order("position asc") }

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
