package catalog

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mutiara-bangsa/storefront/internal/platform/httpx"
	"github.com/mutiara-bangsa/storefront/internal/shared"
	"github.com/mutiara-bangsa/storefront/internal/view"
)

// Listing view modes.
const (
	ViewTable = "table"
	ViewGrid  = "grid"
)

const multipartOverhead = 1 << 20

// Handler serves the admin catalog pages and the customer catalog.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	maxUpload int64
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, maxUpload int64) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, maxUpload: maxUpload}
}

// MountAdminRoutes registers catalog management routes. The caller applies
// the admin role gate.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.adminDashboard)
	r.Get("/products", h.listProducts)
	r.Get("/products/new", h.showCreateForm)
	r.Post("/products", h.upsertProduct)
	r.Get("/products/{id}/edit", h.showEditForm)
	r.Get("/products/{id}/variants", h.showVariants)
	r.Post("/products/{id}/delete", h.deleteProduct)
	r.Delete("/products/{id}", h.deleteProduct)
}

// MountCustomerRoutes registers the read-only catalog for signed-in customers.
func (h *Handler) MountCustomerRoutes(r chi.Router) {
	r.Get("/", h.customerDashboard)
}

type listingQuery struct {
	Term     string
	Category string
	View     string
}

func parseListingQuery(r *http.Request) listingQuery {
	q := r.URL.Query()
	lq := listingQuery{
		Term:     strings.TrimSpace(q.Get("q")),
		Category: strings.TrimSpace(q.Get("category")),
		View:     q.Get("view"),
	}
	if lq.Category == "" {
		lq.Category = AllCategories
	}
	if lq.View != ViewGrid {
		lq.View = ViewTable
	}
	return lq
}

type productRow struct {
	ProductWithDetails
	CategoryLabel string
	StockInfo     StockSummary
}

func toRows(products []ProductWithDetails, options []CategoryOption) []productRow {
	labels := make(map[string]string, len(options))
	for _, opt := range options {
		labels[opt.ID] = opt.DisplayName
	}
	rows := make([]productRow, 0, len(products))
	for _, p := range products {
		row := productRow{ProductWithDetails: p, StockInfo: p.Stock()}
		switch {
		case p.CategoryID != nil && labels[*p.CategoryID] != "":
			row.CategoryLabel = labels[*p.CategoryID]
		case p.Category != nil:
			row.CategoryLabel = p.Category.Name
		}
		rows = append(rows, row)
	}
	return rows
}

func (h *Handler) loadListing(w http.ResponseWriter, r *http.Request) ([]productRow, []CategoryOption, listingQuery, bool) {
	query := parseListingQuery(r)
	products, err := h.service.GetProducts(r.Context())
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		h.fail(w, r, http.StatusInternalServerError)
		return nil, nil, query, false
	}
	options, err := h.service.GetCategoryOptions(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		h.fail(w, r, http.StatusInternalServerError)
		return nil, nil, query, false
	}
	visible := FilterProducts(products, query.Term, query.Category)
	return toRows(visible, options), options, query, true
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	rows, options, query, ok := h.loadListing(w, r)
	if !ok {
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"products": rows, "categories": options})
		return
	}
	h.render(w, r, http.StatusOK, "pages/products_list.html", "Kelola Produk", map[string]any{
		"Products":   rows,
		"Categories": options,
		"Query":      query,
	})
}

func (h *Handler) customerDashboard(w http.ResponseWriter, r *http.Request) {
	rows, options, query, ok := h.loadListing(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "pages/customer_dashboard.html", "Katalog", map[string]any{
		"Products":   rows,
		"Categories": options,
		"Query":      query,
	})
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetProducts(r.Context())
	if err != nil {
		h.logger.Error("admin dashboard products", slog.Any("error", err))
		h.fail(w, r, http.StatusInternalServerError)
		return
	}
	restock := 0
	for _, p := range products {
		if p.Stock().NeedsRestock {
			restock++
		}
	}
	h.render(w, r, http.StatusOK, "pages/admin_dashboard.html", "Dashboard Admin", map[string]any{
		"ProductCount": len(products),
		"RestockCount": restock,
	})
}

type formView struct {
	ID              string
	Name            string
	Description     string
	CategoryID      string
	CurrentImageURL string
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, formView{}, nil, "")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	product, ok := h.findProduct(w, r)
	if !ok {
		return
	}
	form := formView{
		ID:              product.ID,
		Name:            product.Name,
		Description:     derefString(product.Description),
		CategoryID:      derefString(product.CategoryID),
		CurrentImageURL: derefString(product.ImageURL),
	}
	h.renderForm(w, r, http.StatusOK, form, nil, "")
}

func (h *Handler) showVariants(w http.ResponseWriter, r *http.Request) {
	product, ok := h.findProduct(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "pages/product_variants.html", "Varian Produk", map[string]any{
		"Product": productRow{ProductWithDetails: product, StockInfo: product.Stock()},
	})
}

func (h *Handler) findProduct(w http.ResponseWriter, r *http.Request) (ProductWithDetails, bool) {
	id := chi.URLParam(r, "id")
	products, err := h.service.GetProducts(r.Context())
	if err != nil {
		h.logger.Error("load product", slog.String("id", id), slog.Any("error", err))
		h.fail(w, r, http.StatusInternalServerError)
		return ProductWithDetails{}, false
	}
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	h.fail(w, r, http.StatusNotFound)
	return ProductWithDetails{}, false
}

func (h *Handler) upsertProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUpload + multipartOverhead); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.logger.Warn("parse product form", slog.Any("error", err))
		h.respondUpsert(w, r, formView{}, formParseResult(err, h.maxUpload))
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	form := ProductForm{
		ID:          r.FormValue("id"),
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		CategoryID:  r.FormValue("category_id"),
	}
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		form.Image = uploadFromHeader(file, header)
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		h.logger.Warn("read product image", slog.Any("error", err))
	}

	result := h.service.UpsertProduct(r.Context(), form)
	h.respondUpsert(w, r, formView{
		ID:              form.ID,
		Name:            form.Name,
		Description:     form.Description,
		CategoryID:      form.CategoryID,
		CurrentImageURL: r.FormValue("current_image_url"),
	}, result)
}

// formParseResult reports an oversized body against the image field and any
// other malformed submission as a generic validation failure.
func formParseResult(err error, maxUpload int64) Result {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return Result{Kind: KindValidation, Message: "Validasi gagal", FieldErrors: map[string][]string{
			FieldImage: {imageFieldMessage(errImageTooLarge, maxUpload)},
		}}
	}
	return Result{Kind: KindValidation, Message: "Data formulir tidak dapat dibaca. Silakan coba lagi."}
}

func uploadFromHeader(file multipart.File, header *multipart.FileHeader) *ImageUpload {
	return &ImageUpload{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
}

func (h *Handler) respondUpsert(w http.ResponseWriter, r *http.Request, form formView, result Result) {
	if httpx.WantsJSON(r) {
		httpx.JSON(w, statusForResult(result), result)
		return
	}
	if result.Success {
		shared.AddFlash(r.Context(), shared.FlashSuccess, result.Message)
		http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
		return
	}
	h.renderForm(w, r, statusForResult(result), form, result.FieldErrors, result.Message)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	result := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	if httpx.WantsJSON(r) {
		httpx.JSON(w, statusForResult(result), result)
		return
	}
	kind := shared.FlashSuccess
	if !result.Success {
		kind = shared.FlashError
	}
	shared.AddFlash(r.Context(), kind, result.Message)
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func statusForResult(result Result) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAccessDenied:
		return http.StatusForbidden
	case KindUpload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, form formView, fieldErrors map[string][]string, message string) {
	options, err := h.service.GetCategoryOptions(r.Context())
	if err != nil {
		h.logger.Error("form categories", slog.Any("error", err))
		h.fail(w, r, http.StatusInternalServerError)
		return
	}
	title := "Tambah Produk"
	if form.ID != "" {
		title = "Edit Produk"
	}
	h.render(w, r, status, "pages/product_form.html", title, map[string]any{
		"Form":       form,
		"Errors":     fieldErrors,
		"Message":    message,
		"Categories": options,
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, template, title string, data map[string]any) {
	viewData := view.NewTemplateData(r, h.csrf, title, data)
	if err := h.templates.RenderStatus(w, status, template, viewData); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int) {
	if httpx.WantsJSON(r) {
		httpx.Problem(w, status, http.StatusText(status), "")
		return
	}
	http.Error(w, http.StatusText(status), status)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
