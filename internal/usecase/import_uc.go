package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/crontex/internal/domain"
	"github.com/phenrril/crontex/internal/validators"
)

// ImportColumn binds a spreadsheet header to a product field.
type ImportColumn struct {
	Header   string
	Required bool
	Set      func(p *domain.Product, v string) (bool, error)
}

// ImportSchema is the Bling export layout. Headers not listed here are
// kept in Product.Extra.
var ImportSchema = []ImportColumn{
	{Header: "ID", Set: setString(func(p *domain.Product) *string { return &p.ExternalID })},
	{Header: "Código", Required: true, Set: setString(func(p *domain.Product) *string { return &p.Code })},
	{Header: "Descrição", Required: true, Set: setString(func(p *domain.Product) *string { return &p.Name })},
	{Header: "Unidade", Set: setString(func(p *domain.Product) *string { return &p.Unit })},
	{Header: "NCM", Set: setDigits(func(p *domain.Product) *string { return &p.NCM })},
	{Header: "Origem", Set: setString(func(p *domain.Product) *string { return &p.Origin })},
	{Header: "Preço", Set: setNumber(func(p *domain.Product) *float64 { return &p.Price })},
	{Header: "Preço de custo", Set: setNumber(func(p *domain.Product) *float64 { return &p.CostPrice })},
	{Header: "Observações", Set: setString(func(p *domain.Product) *string { return &p.Notes })},
	{Header: "Situação", Set: setStatus},
	{Header: "Estoque", Set: setNumber(func(p *domain.Product) *float64 { return &p.StockQty })},
	{Header: "Cód no fornecedor", Set: setString(func(p *domain.Product) *string { return &p.SupplierCode })},
	{Header: "Fornecedor", Set: setString(func(p *domain.Product) *string { return &p.SupplierName })},
	{Header: "Localização", Set: setString(func(p *domain.Product) *string { return &p.Location })},
	{Header: "GTIN/EAN", Set: setDigits(func(p *domain.Product) *string { return &p.GTIN })},
	{Header: "Marca", Set: setString(func(p *domain.Product) *string { return &p.Brand })},
	{Header: "Categoria do produto", Set: setString(func(p *domain.Product) *string { return &p.Category })},
}

const maxImportSamples = 3

type ImportResult struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Skipped int              `json:"skipped"`
	Errors  []string         `json:"errors"`
	Samples []map[string]any `json:"samples"`
}

type ImportUC struct {
	Products  domain.ProductRepo
	Validate  *validator.Validate
	ReadSheet func(r io.Reader) ([][]string, error)
}

var ErrMissingHeaders = errors.New("faltan columnas obligatorias")

// ImportXLSX reads the first sheet of r and upserts one product per row.
func (uc *ImportUC) ImportXLSX(ctx context.Context, r io.Reader) (*ImportResult, error) {
	if uc.ReadSheet == nil {
		return nil, errors.New("lector de planillas no configurado")
	}
	rows, err := uc.ReadSheet(r)
	if err != nil {
		return nil, fmt.Errorf("leer planilla: %w", err)
	}
	return uc.ImportRows(ctx, rows)
}

// ImportRows upserts products by code. The first non-empty row is the
// header. Existing products only take non-empty cells.
func (uc *ImportUC) ImportRows(ctx context.Context, rows [][]string) (*ImportResult, error) {
	res := &ImportResult{Errors: []string{}, Samples: []map[string]any{}}

	hdrIdx := -1
	for i, r := range rows {
		if !blankRow(r) {
			hdrIdx = i
			break
		}
	}
	if hdrIdx < 0 {
		return nil, errors.New("planilla sin encabezado")
	}
	headers := make([]string, len(rows[hdrIdx]))
	for i, h := range rows[hdrIdx] {
		headers[i] = strings.TrimSpace(h)
	}

	cols := make([]*ImportColumn, len(headers))
	present := map[string]bool{}
	for i, h := range headers {
		for j := range ImportSchema {
			if strings.EqualFold(ImportSchema[j].Header, h) {
				cols[i] = &ImportSchema[j]
				present[ImportSchema[j].Header] = true
				break
			}
		}
	}
	var missing []string
	for _, c := range ImportSchema {
		if c.Required && !present[c.Header] {
			missing = append(missing, c.Header)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingHeaders, strings.Join(missing, ", "))
	}
	codeCol := -1
	for i, c := range cols {
		if c != nil && c.Header == "Código" {
			codeCol = i
		}
	}

	log.Info().Int("rows", len(rows)-hdrIdx-1).Int("columns", len(headers)).Msg("importando planilla")

	for i := hdrIdx + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line := i + 1
		row := rows[i]
		if blankRow(row) {
			continue
		}
		code := strings.TrimSpace(cell(row, codeCol))
		if code == "" {
			res.Skipped++
			continue
		}

		p, err := uc.Products.FindByCode(ctx, code)
		created := false
		switch {
		case errors.Is(err, domain.ErrNotFound):
			p = &domain.Product{ID: uuid.New(), Code: code, Active: true}
			created = true
		case err != nil:
			res.Errors = append(res.Errors, fmt.Sprintf("Fila %d: %v", line, err))
			continue
		}

		changed, rowErr := applyRow(p, headers, cols, row)
		if rowErr != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Fila %d: %v", line, rowErr))
			continue
		}
		if created && strings.TrimSpace(p.Name) == "" {
			p.Name = p.Code
		}
		if !created && !changed {
			res.Skipped++
			continue
		}
		if uc.Validate != nil {
			if err := uc.Validate.Struct(p); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("Fila %d: %s", line, strings.Join(validators.Messages(err), "; ")))
				continue
			}
		}
		if err := uc.Products.Save(ctx, p); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Fila %d: %v", line, err))
			log.Warn().Err(err).Int("line", line).Msg("fila no importada")
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
		if len(res.Samples) < maxImportSamples {
			res.Samples = append(res.Samples, sample(headers, cols, row))
		}
	}

	log.Info().Int("created", res.Created).Int("updated", res.Updated).Int("skipped", res.Skipped).Int("errors", len(res.Errors)).Msg("importación terminada")
	return res, nil
}

func applyRow(p *domain.Product, headers []string, cols []*ImportColumn, row []string) (bool, error) {
	changed := false
	for i, h := range headers {
		v := strings.TrimSpace(cell(row, i))
		if v == "" || h == "" {
			continue
		}
		c := cols[i]
		if c == nil {
			if p.Extra == nil {
				p.Extra = map[string]any{}
			}
			if cur, ok := p.Extra[h]; !ok || cur != v {
				p.Extra[h] = v
				changed = true
			}
			continue
		}
		ch, err := c.Set(p, v)
		if err != nil {
			return false, fmt.Errorf("%s: %w", c.Header, err)
		}
		changed = changed || ch
	}
	return changed, nil
}

func sample(headers []string, cols []*ImportColumn, row []string) map[string]any {
	out := map[string]any{}
	for i, c := range cols {
		if c == nil {
			continue
		}
		if v := strings.TrimSpace(cell(row, i)); v != "" {
			out[headers[i]] = v
		}
	}
	return out
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func setString(field func(p *domain.Product) *string) func(*domain.Product, string) (bool, error) {
	return func(p *domain.Product, v string) (bool, error) {
		f := field(p)
		if *f == v {
			return false, nil
		}
		*f = v
		return true, nil
	}
}

// setDigits drops the punctuation spreadsheets add to NCM and GTIN cells.
func setDigits(field func(p *domain.Product) *string) func(*domain.Product, string) (bool, error) {
	return func(p *domain.Product, v string) (bool, error) {
		d := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, v)
		if d == "" {
			return false, fmt.Errorf("valor sin dígitos %q", v)
		}
		f := field(p)
		if *f == d {
			return false, nil
		}
		*f = d
		return true, nil
	}
}

func setNumber(field func(p *domain.Product) *float64) func(*domain.Product, string) (bool, error) {
	return func(p *domain.Product, v string) (bool, error) {
		n, err := ParseBRNumber(v)
		if err != nil {
			return false, err
		}
		f := field(p)
		if *f == n {
			return false, nil
		}
		*f = n
		return true, nil
	}
}

func setStatus(p *domain.Product, v string) (bool, error) {
	changed := p.Status != v
	p.Status = v
	active := !strings.EqualFold(v, "Inativo")
	if p.Active != active {
		p.Active = active
		changed = true
	}
	return changed, nil
}

// ParseBRNumber reads "1.234,56", "R$ 10,5" or plain "12.5". With a comma
// present dots are thousand separators; without one, several dots are
// too and a single dot is the decimal point.
func ParseBRNumber(s string) (float64, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(t, "R$")
	t = strings.ReplaceAll(strings.TrimSpace(t), " ", "")
	switch {
	case strings.Contains(t, ","):
		t = strings.ReplaceAll(t, ".", "")
		t = strings.ReplaceAll(t, ",", ".")
	case strings.Count(t, ".") > 1:
		t = strings.ReplaceAll(t, ".", "")
	}
	n, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("número inválido %q", s)
	}
	return n, nil
}
