package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/crontex/internal/domain"
	"github.com/phenrril/crontex/internal/grade"
	"github.com/phenrril/crontex/internal/validators"
)

const scenarioGrade = `{"parametros":[
	{"chave":"TAM","valores":["PP","P","M"]},
	{"chave":"COR","valores":["Preto","Branco"]}
]}`

func newProductUC(t *testing.T) (*ProductUC, *memRepo, *domain.Product) {
	t.Helper()
	repo := newMemRepo()
	uc := &ProductUC{Products: repo, Validate: validators.New()}
	p := &domain.Product{Code: "CAM-001", Name: "Camiseta", Reference: "1234", Base: "0456", Price: 99.9}
	require.NoError(t, uc.Create(context.Background(), p))
	return uc, repo, p
}

func TestCreate_Validates(t *testing.T) {
	uc := &ProductUC{Products: newMemRepo(), Validate: validators.New()}
	err := uc.Create(context.Background(), &domain.Product{Name: "x", GTIN: "123", Reference: "99999"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Len(t, ve.Messages, 3)
}

func TestSaveGrade_CreatesVariants(t *testing.T) {
	uc, repo, p := newProductUC(t)
	ctx := context.Background()

	saved, err := uc.SaveGrade(ctx, p.ID, scenarioGrade)
	require.NoError(t, err)
	require.NotNil(t, saved.GradeMeta)
	assert.Equal(t, 6, saved.GradeMeta.Count)
	assert.Len(t, saved.GradeRows, 6)
	require.Len(t, saved.Variants, 6)

	first := saved.Variants[0]
	assert.Equal(t, "CAM-001-01-01", first.SKU)
	assert.Equal(t, "1234045601017", first.EAN)
	assert.Equal(t, map[string]string{"TAM": "PP", "COR": "Preto"}, first.Attributes)
	assert.Equal(t, 99.9, first.Price)

	// saving again replaces instead of appending
	_, err = uc.SaveGrade(ctx, p.ID, scenarioGrade)
	require.NoError(t, err)
	vs, err := repo.ListVariants(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, vs, 6)

	_, v, err := uc.SearchByEAN(ctx, "1234045601024")
	require.NoError(t, err)
	assert.Equal(t, "CAM-001-01-02", v.SKU)
}

func TestSaveGrade_EmptyClears(t *testing.T) {
	uc, repo, p := newProductUC(t)
	ctx := context.Background()
	_, err := uc.SaveGrade(ctx, p.ID, scenarioGrade)
	require.NoError(t, err)

	saved, err := uc.SaveGrade(ctx, p.ID, `{"parametros":[]}`)
	require.NoError(t, err)
	assert.Nil(t, saved.Grade)
	assert.Nil(t, saved.GradeMeta)
	vs, _ := repo.ListVariants(ctx, p.ID)
	assert.Empty(t, vs)
}

func TestSaveGrade_Issues(t *testing.T) {
	uc, _, p := newProductUC(t)
	_, err := uc.SaveGrade(context.Background(), p.ID, `{"parametros":[{"chave":"TAM","valores":["P","P"]}]}`)

	var ge *GradeError
	require.ErrorAs(t, err, &ge)
	assert.ErrorIs(t, err, ErrInvalidGrade)
	assert.Equal(t, []string{"Valor duplicado 'P' en 'TAM'."}, ge.Issues)
}

func TestSaveGrade_OverflowIsGradeError(t *testing.T) {
	uc, _, p := newProductUC(t)
	vals := make([]any, 0, 100)
	for i := 0; i < 100; i++ {
		vals = append(vals, string(rune('A'+i%26))+string(rune('a'+i/26)))
	}
	raw := map[string]any{"parametros": []any{map[string]any{"chave": "TAM", "valores": vals}}}

	_, err := uc.SaveGrade(context.Background(), p.ID, raw)
	assert.ErrorIs(t, err, ErrInvalidGrade)
	assert.ErrorIs(t, err, grade.ErrCodeOverflow)
}

func TestSaveGrade_DuplicateAcrossProducts(t *testing.T) {
	uc, _, p := newProductUC(t)
	ctx := context.Background()
	_, err := uc.SaveGrade(ctx, p.ID, scenarioGrade)
	require.NoError(t, err)

	other := &domain.Product{Code: "CAM-002", Name: "Otra", Reference: "1234", Base: "0456"}
	require.NoError(t, uc.Create(ctx, other))
	_, err = uc.SaveGrade(ctx, other.ID, `{"parametros":[{"chave":"TAM","valores":["PP"]},{"chave":"COR","valores":["Preto"]}]}`)

	var de *DuplicateError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []string{"1234045601017"}, de.Codes)
	assert.ErrorIs(t, err, ErrDuplicateEAN)

	got, err := uc.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Grade, "nothing is written on conflict")
}

func TestSaveGrade_LookupErrorAborts(t *testing.T) {
	uc, repo, p := newProductUC(t)
	repo.eanErr = errors.New("db caída")
	_, err := uc.SaveGrade(context.Background(), p.ID, scenarioGrade)
	assert.ErrorIs(t, err, repo.eanErr)
}

func TestSaveGrade_NotFound(t *testing.T) {
	uc, _, _ := newProductUC(t)
	_, err := uc.SaveGrade(context.Background(), uuid.New(), scenarioGrade)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPreviewGrade(t *testing.T) {
	uc, repo, p := newProductUC(t)
	ctx := context.Background()

	prev, err := uc.PreviewGrade(ctx, p.Code, scenarioGrade)
	require.NoError(t, err)
	assert.Empty(t, prev.Issues)
	assert.Empty(t, prev.Duplicates)
	assert.Len(t, prev.Rows, 6)
	assert.Equal(t, domain.PolicyPositional, prev.Meta.Policy)

	// preview never writes
	vs, _ := repo.ListVariants(ctx, p.ID)
	assert.Empty(t, vs)

	prev, err = uc.PreviewGrade(ctx, p.Code, `[1,2]`)
	require.NoError(t, err)
	assert.NotEmpty(t, prev.Issues)
	assert.Empty(t, prev.Rows)
}

func TestPreviewGrade_FailOpen(t *testing.T) {
	uc, repo, p := newProductUC(t)
	repo.eanErr = errors.New("timeout")
	prev, err := uc.PreviewGrade(context.Background(), p.Code, scenarioGrade)
	require.NoError(t, err)
	assert.Empty(t, prev.Duplicates)
	assert.Len(t, prev.Rows, 6)
}

func TestPreviewGrade_FlagsOtherProducts(t *testing.T) {
	uc, _, p := newProductUC(t)
	ctx := context.Background()
	_, err := uc.SaveGrade(ctx, p.ID, scenarioGrade)
	require.NoError(t, err)

	other := &domain.Product{Code: "CAM-002", Name: "Otra", Reference: "1234", Base: "0456"}
	require.NoError(t, uc.Create(ctx, other))
	prev, err := uc.PreviewGrade(ctx, other.Code, scenarioGrade)
	require.NoError(t, err)
	assert.Len(t, prev.Duplicates, 6)

	// the owner itself is not a duplicate
	prev, err = uc.PreviewGrade(ctx, p.Code, scenarioGrade)
	require.NoError(t, err)
	assert.Empty(t, prev.Duplicates)
}

func TestDefaultRef(t *testing.T) {
	repo := newMemRepo()
	uc := &ProductUC{Products: repo, DefaultRef: "7"}
	p := &domain.Product{Code: "X", Name: "X", Base: "1"}
	require.NoError(t, uc.Create(context.Background(), p))

	prev, err := uc.PreviewGrade(context.Background(), "X", `{"parametros":[{"chave":"TAM","valores":["P"]}]}`)
	require.NoError(t, err)
	require.Len(t, prev.Rows, 1)
	assert.Equal(t, "000700010100", prev.Rows[0].EAN13[:12])
}

func TestSearch_EmptyInput(t *testing.T) {
	uc, _, _ := newProductUC(t)
	_, _, err := uc.SearchByEAN(context.Background(), " ")
	assert.Error(t, err)
	_, _, err = uc.SearchBySKU(context.Background(), "")
	assert.Error(t, err)
	_, err = uc.GetByCode(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyCode)
}

func TestSaveGrade_SKUCollisionAcrossProducts(t *testing.T) {
	repo := newMemRepo()
	uc := &ProductUC{Products: repo, Validate: validators.New()}
	ctx := context.Background()
	a := &domain.Product{Code: "CAM", Name: "Camiseta", Reference: "1234", Base: "0001"}
	b := &domain.Product{Code: "CAM-01", Name: "Camiseta lisa", Reference: "1234", Base: "0002"}
	require.NoError(t, uc.Create(ctx, a))
	require.NoError(t, uc.Create(ctx, b))

	_, err := uc.SaveGrade(ctx, a.ID, `{"parametros":[{"chave":"TAM","valores":["P"]},{"chave":"COR","valores":["Preto"]}]}`)
	require.NoError(t, err)

	single := `{"parametros":[{"chave":"TAM","valores":["P"]}]}`
	prev, err := uc.PreviewGrade(ctx, b.Code, single)
	require.NoError(t, err)
	assert.Empty(t, prev.Duplicates)
	assert.Equal(t, []string{"CAM-01-01"}, prev.DuplicateSKUs)

	_, err = uc.SaveGrade(ctx, b.ID, single)
	var de *DuplicateError
	require.ErrorAs(t, err, &de)
	assert.Empty(t, de.Codes)
	assert.Equal(t, []string{"CAM-01-01"}, de.SKUs)

	vs, err := repo.ListVariants(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestSaveGrade_SKUCollisionInsideGrade(t *testing.T) {
	uc, repo, p := newProductUC(t)
	ctx := context.Background()
	raw := `{"parametros":[
		{"chave":"TAM","valores":["P"]},
		{"chave":"COR","valores":["Preto"]},
		{"chave":"A","valores":["a-b","a"]},
		{"chave":"B","valores":["c","b-c"]}
	]}`
	issue := "SKU duplicado 'CAM-001-01-01-a-b-c' en la grade."

	prev, err := uc.PreviewGrade(ctx, p.Code, raw)
	require.NoError(t, err)
	assert.Equal(t, []string{issue}, prev.Issues)
	assert.Len(t, prev.Rows, 4)

	_, err = uc.SaveGrade(ctx, p.ID, raw)
	var ge *GradeError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, []string{issue}, ge.Issues)

	vs, err := repo.ListVariants(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, vs)
}
