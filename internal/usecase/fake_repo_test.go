package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/phenrril/crontex/internal/domain"
)

// memRepo is an in-memory domain.ProductRepo.
type memRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]domain.Product
	variants map[uuid.UUID]domain.Variant
	eanErr   error
	saves    int
}

func newMemRepo() *memRepo {
	return &memRepo{products: map[uuid.UUID]domain.Product{}, variants: map[uuid.UUID]domain.Variant{}}
}

func (r *memRepo) Save(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneProduct(p)
	out.Variants = r.variantsOf(id)
	return &out, nil
}

func (r *memRepo) FindByCode(_ context.Context, code string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Code == code {
			out := cloneProduct(p)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Product
	for _, p := range r.products {
		if f.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (r *memRepo) DistinctCategories(context.Context) ([]string, error) { return []string{}, nil }

func (r *memRepo) SaveVariant(_ context.Context, v *domain.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[v.ID] = *v
	return nil
}

func (r *memRepo) ListVariants(_ context.Context, productID uuid.UUID) ([]domain.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.variantsOf(productID), nil
}

func (r *memRepo) DeleteVariant(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.variants, id)
	return nil
}

func (r *memRepo) FindVariantByEAN(_ context.Context, code string) (*domain.Product, *domain.Variant, error) {
	return r.findVariant(func(v domain.Variant) bool { return v.EAN == code })
}

func (r *memRepo) FindVariantBySKU(_ context.Context, sku string) (*domain.Product, *domain.Variant, error) {
	return r.findVariant(func(v domain.Variant) bool { return v.SKU == sku })
}

func (r *memRepo) EANInUse(_ context.Context, code string, except uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.eanInUse(code, except)
}

func (r *memRepo) SKUInUse(_ context.Context, sku string, except uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skuInUse(sku, except)
}

func (r *memRepo) ReplaceGrade(ctx context.Context, productID uuid.UUID, apply domain.GradeApplyFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p := cloneProduct(stored)
	vs, err := apply(ctx, &p, domain.GradeLookup{
		EANInUse: func(_ context.Context, code string) (bool, error) { return r.eanInUse(code, productID) },
		SKUInUse: func(_ context.Context, sku string) (bool, error) { return r.skuInUse(sku, productID) },
	})
	if err != nil {
		return err
	}
	for id, v := range r.variants {
		if v.ProductID == productID {
			delete(r.variants, id)
		}
	}
	for _, v := range vs {
		r.variants[v.ID] = v
	}
	r.products[productID] = p
	return nil
}

func (r *memRepo) eanInUse(code string, except uuid.UUID) (bool, error) {
	if r.eanErr != nil {
		return false, r.eanErr
	}
	for _, v := range r.variants {
		if v.EAN == code && v.ProductID != except {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) skuInUse(sku string, except uuid.UUID) (bool, error) {
	if r.eanErr != nil {
		return false, r.eanErr
	}
	for _, v := range r.variants {
		if v.SKU == sku && v.ProductID != except {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) findVariant(match func(domain.Variant) bool) (*domain.Product, *domain.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.variants {
		if match(v) {
			p := cloneProduct(r.products[v.ProductID])
			vv := v
			return &p, &vv, nil
		}
	}
	return nil, nil, domain.ErrNotFound
}

func (r *memRepo) variantsOf(id uuid.UUID) []domain.Variant {
	out := []domain.Variant{}
	for _, v := range r.variants {
		if v.ProductID == id {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func cloneProduct(p domain.Product) domain.Product {
	if p.Extra != nil {
		m := make(map[string]any, len(p.Extra))
		for k, v := range p.Extra {
			m[k] = v
		}
		p.Extra = m
	}
	p.Variants = nil
	return p
}
