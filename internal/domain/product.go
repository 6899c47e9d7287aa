package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("no encontrado")

type Product struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Code         string         `gorm:"uniqueIndex;size:64" validate:"required,max=64"`
	ExternalID   string         `gorm:"size:50;index"`
	Name         string         `gorm:"size:255" validate:"required,max=255"`
	Unit         string         `gorm:"size:10"`
	NCM          string         `gorm:"size:8;index" validate:"omitempty,ncm"`
	Origin       string         `gorm:"size:50"`
	Price        float64        `gorm:"type:decimal(12,2);default:0" validate:"gte=0"`
	CostPrice    float64        `gorm:"type:decimal(12,2);default:0" validate:"gte=0"`
	StockQty     float64        `gorm:"type:decimal(12,3);default:0" validate:"gte=0"`
	Notes        string         `gorm:"type:text"`
	Status       string         `gorm:"size:30"`
	SupplierCode string         `gorm:"size:100"`
	SupplierName string         `gorm:"size:150"`
	Location     string         `gorm:"size:150"`
	GTIN         string         `gorm:"size:14;index" validate:"omitempty,gtin"`
	Brand        string         `gorm:"size:100"`
	Category     string         `gorm:"size:150;index"`
	Active       bool           `gorm:"not null;index"`
	Reference    string         `gorm:"size:4" validate:"omitempty,digits4"`
	Base         string         `gorm:"size:4" validate:"omitempty,digits4"`
	Grade        *Grade         `gorm:"type:jsonb;serializer:json"`
	GradeRows    []GradeRow     `gorm:"type:jsonb;serializer:json"`
	GradeMeta    *GradeMeta     `gorm:"type:jsonb;serializer:json"`
	Extra        map[string]any `gorm:"type:jsonb;serializer:json"`
	Variants     []Variant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Variant struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID         `gorm:"type:uuid;index"`
	SKU        string            `gorm:"size:160;uniqueIndex"`
	EAN        string            `gorm:"size:20;index"`
	Attributes map[string]string `gorm:"type:jsonb;serializer:json"`
	Position   int               `gorm:"type:int;default:0"`
	Price      float64           `gorm:"type:decimal(12,2);default:0"`
	Stock      int               `gorm:"type:int;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ProductFilter struct {
	Query    string
	Category string
	Active   *bool
	Page     int
	PageSize int
}

// InUseFunc reports whether another product already uses code.
type InUseFunc func(ctx context.Context, code string) (bool, error)

// GradeLookup holds the lookups bound to the ReplaceGrade transaction.
type GradeLookup struct {
	EANInUse InUseFunc
	SKUInUse InUseFunc
}

// GradeApplyFunc gets the locked product and the lookups of the same
// transaction, and returns the variants that replace the current ones.
type GradeApplyFunc func(ctx context.Context, p *Product, in GradeLookup) ([]Variant, error)

type ProductRepo interface {
	Save(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByCode(ctx context.Context, code string) (*Product, error)
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	SaveVariant(ctx context.Context, v *Variant) error
	ListVariants(ctx context.Context, productID uuid.UUID) ([]Variant, error)
	DeleteVariant(ctx context.Context, id uuid.UUID) error
	FindVariantByEAN(ctx context.Context, ean string) (*Product, *Variant, error)
	FindVariantBySKU(ctx context.Context, sku string) (*Product, *Variant, error)
	// EANInUse reports whether a variant of another product uses ean.
	EANInUse(ctx context.Context, ean string, exceptProduct uuid.UUID) (bool, error)
	// SKUInUse reports whether a variant of another product uses sku.
	SKUInUse(ctx context.Context, sku string, exceptProduct uuid.UUID) (bool, error)
	ReplaceGrade(ctx context.Context, productID uuid.UUID, apply GradeApplyFunc) error
}
