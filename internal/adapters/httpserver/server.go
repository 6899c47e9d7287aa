package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/crontex/internal/adapters/spreadsheet"
	"github.com/phenrril/crontex/internal/domain"
	"github.com/phenrril/crontex/internal/ean"
	"github.com/phenrril/crontex/internal/grade"
	"github.com/phenrril/crontex/internal/usecase"
	"github.com/phenrril/crontex/internal/validators"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Server struct {
	mux       *http.ServeMux
	products  *usecase.ProductUC
	eans      *usecase.EANUC
	imports   *usecase.ImportUC
	validate  *validator.Validate
	maxImport int64
}

func New(p *usecase.ProductUC, e *usecase.EANUC, i *usecase.ImportUC, v *validator.Validate, maxImportMB int) http.Handler {
	if v == nil {
		v = validators.New()
	}
	if maxImportMB <= 0 {
		maxImportMB = 48
	}
	s := &Server{
		mux:       http.NewServeMux(),
		products:  p,
		eans:      e,
		imports:   i,
		validate:  v,
		maxImport: int64(maxImportMB) << 20,
	}
	s.routes()
	return Chain(s.mux,
		RequestID,
		Recovery,
		Logging,
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.HandleFunc("/api/products", s.apiProducts)
	// /api/products/{code}[/variants[/{id}] | /grade[/preview | .xlsx]]
	s.mux.HandleFunc("/api/products/", s.apiProductByCode)
	s.mux.HandleFunc("/api/categories", s.apiCategories)

	s.mux.HandleFunc("/api/variants/lookup", s.apiVariantLookup)

	s.mux.HandleFunc("/api/ean/generate", s.apiEANGenerate)
	s.mux.HandleFunc("/api/ean/validate", s.apiEANValidate)

	s.mux.HandleFunc("/admin/import/xlsx", s.handleAdminImportXLSX)
}

type productRequest struct {
	Code      *string  `json:"code" validate:"omitempty,max=64"`
	Name      *string  `json:"name" validate:"omitempty,max=255"`
	Unit      *string  `json:"unit" validate:"omitempty,max=10"`
	NCM       *string  `json:"ncm" validate:"omitempty,ncm"`
	Price     *float64 `json:"price" validate:"omitempty,gte=0"`
	CostPrice *float64 `json:"cost_price" validate:"omitempty,gte=0"`
	StockQty  *float64 `json:"stock_qty" validate:"omitempty,gte=0"`
	GTIN      *string  `json:"gtin" validate:"omitempty,gtin"`
	Brand     *string  `json:"brand"`
	Category  *string  `json:"category"`
	Active    *bool    `json:"active"`
	Reference *string  `json:"reference" validate:"omitempty,digits4"`
	Base      *string  `json:"base" validate:"omitempty,digits4"`
	Notes     *string  `json:"notes"`
}

func (req productRequest) apply(p *domain.Product) {
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setStr(&p.Code, req.Code)
	setStr(&p.Name, req.Name)
	setStr(&p.Unit, req.Unit)
	setStr(&p.NCM, req.NCM)
	setStr(&p.GTIN, req.GTIN)
	setStr(&p.Brand, req.Brand)
	setStr(&p.Category, req.Category)
	setStr(&p.Reference, req.Reference)
	setStr(&p.Base, req.Base)
	setStr(&p.Notes, req.Notes)
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.CostPrice != nil {
		p.CostPrice = *req.CostPrice
	}
	if req.StockQty != nil {
		p.StockQty = *req.StockQty
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
}

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		f := domain.ProductFilter{
			Query:    q.Get("q"),
			Category: q.Get("category"),
			Page:     atoiDefault(q.Get("page"), 1),
			PageSize: atoiDefault(q.Get("page_size"), 50),
		}
		if a := q.Get("active"); a != "" {
			b, err := strconv.ParseBool(a)
			if err != nil {
				http.Error(w, "active", http.StatusBadRequest)
				return
			}
			f.Active = &b
		}
		if f.PageSize > 200 {
			f.PageSize = 200
		}
		list, total, err := s.products.List(r.Context(), f)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if list == nil {
			list = []domain.Product{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list, "total": total})
	case http.MethodPost:
		var req productRequest
		if !s.decode(w, r, &req) {
			return
		}
		p := &domain.Product{Active: true}
		req.apply(p)
		if err := s.products.Create(r.Context(), p); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	default:
		http.Error(w, "method", http.StatusMethodNotAllowed)
	}
}

func (s *Server) apiProductByCode(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/products/")
	code, sub, _ := strings.Cut(rest, "/")
	code, err := url.PathUnescape(code)
	if err != nil || strings.TrimSpace(code) == "" {
		http.Error(w, "code", http.StatusBadRequest)
		return
	}

	switch {
	case sub == "":
		s.apiProduct(w, r, code)
	case sub == "variants" || strings.HasPrefix(sub, "variants/"):
		s.apiProductVariants(w, r, code, strings.TrimPrefix(strings.TrimPrefix(sub, "variants"), "/"))
	case sub == "grade":
		s.apiProductGrade(w, r, code)
	case sub == "grade/preview":
		s.apiProductGradePreview(w, r, code)
	case sub == "grade.xlsx":
		s.apiProductGradeExport(w, r, code)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) apiProduct(w http.ResponseWriter, r *http.Request, code string) {
	p, err := s.products.GetByCode(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut, http.MethodPatch:
		var req productRequest
		if !s.decode(w, r, &req) {
			return
		}
		req.apply(p)
		p.Variants = nil
		if err := s.products.Update(r.Context(), p); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	default:
		http.Error(w, "method", http.StatusMethodNotAllowed)
	}
}

func (s *Server) apiProductVariants(w http.ResponseWriter, r *http.Request, code, idStr string) {
	p, err := s.products.GetByCode(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	switch {
	case r.Method == http.MethodGet && idStr == "":
		list, err := s.products.ListVariants(r.Context(), p.ID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list})
	case r.Method == http.MethodPost && idStr == "":
		var req struct {
			SKU        string            `json:"sku" validate:"required,max=160"`
			EAN        string            `json:"ean" validate:"omitempty,max=20"`
			Attributes map[string]string `json:"attributes"`
			Price      float64           `json:"price" validate:"gte=0"`
			Stock      int               `json:"stock" validate:"gte=0"`
		}
		if !s.decode(w, r, &req) {
			return
		}
		v := &domain.Variant{ProductID: p.ID, SKU: strings.TrimSpace(req.SKU), EAN: strings.TrimSpace(req.EAN), Attributes: req.Attributes, Price: req.Price, Stock: req.Stock}
		if err := s.products.CreateVariant(r.Context(), v); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	case r.Method == http.MethodDelete && idStr != "":
		id, err := uuid.Parse(idStr)
		if err != nil {
			http.Error(w, "variant id", http.StatusBadRequest)
			return
		}
		if err := s.products.DeleteVariant(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "id": id})
	default:
		http.Error(w, "method", http.StatusMethodNotAllowed)
	}
}

// apiProductGrade returns the saved grade on GET and replaces it on PUT/POST.
func (s *Server) apiProductGrade(w http.ResponseWriter, r *http.Request, code string) {
	p, err := s.products.GetByCode(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, gradeView(p))
	case http.MethodPut, http.MethodPost:
		raw, ok := s.readGrade(w, r)
		if !ok {
			return
		}
		saved, err := s.products.SaveGrade(r.Context(), p.ID, raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, gradeView(saved))
	default:
		http.Error(w, "method", http.StatusMethodNotAllowed)
	}
}

func (s *Server) apiProductGradePreview(w http.ResponseWriter, r *http.Request, code string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", http.StatusMethodNotAllowed)
		return
	}
	raw, ok := s.readGrade(w, r)
	if !ok {
		return
	}
	prev, err := s.products.PreviewGrade(r.Context(), code, raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if len(prev.Issues) > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, prev)
}

func (s *Server) apiProductGradeExport(w http.ResponseWriter, r *http.Request, code string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", http.StatusMethodNotAllowed)
		return
	}
	p, err := s.products.GetByCode(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := spreadsheet.WriteGrade(&buf, p); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote("grade-"+p.Code+".xlsx"))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) apiCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", http.StatusMethodNotAllowed)
		return
	}
	cats, err := s.products.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cats})
}

func (s *Server) apiVariantLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	var (
		p   *domain.Product
		v   *domain.Variant
		err error
	)
	switch {
	case q.Get("ean") != "":
		p, v, err = s.products.SearchByEAN(r.Context(), q.Get("ean"))
	case q.Get("sku") != "":
		p, v, err = s.products.SearchBySKU(r.Context(), q.Get("sku"))
	default:
		http.Error(w, "ean o sku", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p.Variants = nil
	writeJSON(w, http.StatusOK, map[string]any{"product": p, "variant": v})
}

func (s *Server) apiEANGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", http.StatusMethodNotAllowed)
		return
	}
	var req usecase.BulkRequest
	if !s.decode(w, r, &req) {
		return
	}
	items, err := s.eans.GenerateBulk(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) apiEANValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", http.StatusMethodNotAllowed)
		return
	}
	code := r.URL.Query().Get("code")
	if strings.TrimSpace(code) == "" {
		http.Error(w, "code", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.eans.Check(r.Context(), code))
}

func (s *Server) handleAdminImportXLSX(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxImport)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "archivo demasiado grande o inválido", http.StatusBadRequest)
		return
	}
	file, fh, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
		http.Error(w, "se espera un .xlsx", http.StatusBadRequest)
		return
	}

	res, err := s.imports.ImportXLSX(r.Context(), file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	log.Info().Str("file", fh.Filename).Int("created", res.Created).Int("updated", res.Updated).Int("errors", len(res.Errors)).Msg("importación XLSX")
	writeJSON(w, http.StatusOK, res)
}

type gradeResponse struct {
	Grade *domain.Grade     `json:"grade"`
	Rows  []domain.GradeRow `json:"rows"`
	Meta  *domain.GradeMeta `json:"meta"`
	Items []domain.Variant  `json:"variants"`
}

func gradeView(p *domain.Product) gradeResponse {
	out := gradeResponse{Grade: p.Grade, Rows: p.GradeRows, Meta: p.GradeMeta, Items: p.Variants}
	if out.Rows == nil {
		out.Rows = []domain.GradeRow{}
	}
	if out.Items == nil {
		out.Items = []domain.Variant{}
	}
	return out
}

// readGrade returns the grade payload, unwrapping {"grade": ...}.
// Malformed JSON and non-object payloads are rejected here; everything
// else is left to the normalizer so its issues reach the client.
func (s *Server) readGrade(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "body", http.StatusBadRequest)
		return nil, false
	}
	var wrapper struct {
		Grade json.RawMessage `json:"grade"`
	}
	if json.Unmarshal(body, &wrapper) == nil && len(wrapper.Grade) > 0 {
		body = wrapper.Grade
	}
	if _, _, err := grade.Parse(body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return nil, false
	}
	return json.RawMessage(body), true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		http.Error(w, "json", http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": usecase.ErrInvalidInput.Error(), "messages": validators.Messages(err)})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ge *usecase.GradeError
		de *usecase.DuplicateError
		ve *usecase.ValidationError
	)
	switch {
	case errors.As(err, &ge):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": usecase.ErrInvalidGrade.Error(), "issues": ge.Issues})
	case errors.As(err, &de):
		writeJSON(w, http.StatusConflict, map[string]any{"error": usecase.ErrDuplicateEAN.Error(), "duplicates": nonNil(de.Codes), "duplicate_skus": nonNil(de.SKUs)})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": usecase.ErrInvalidInput.Error(), "messages": ve.Messages})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case errors.Is(err, usecase.ErrEmptyCode),
		errors.Is(err, usecase.ErrMissingHeaders),
		errors.Is(err, ean.ErrTooManyDigits),
		errors.Is(err, ean.ErrInvalidLength),
		errors.Is(err, ean.ErrChecksumMismatch),
		errors.Is(err, grade.ErrCodeOverflow):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Str("request_id", RequestIDFrom(r.Context())).Msg("error interno")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "error interno"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
