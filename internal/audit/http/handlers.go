package audithttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mutiara-bangsa/storefront/internal/audit"
	"github.com/mutiara-bangsa/storefront/internal/platform/httpx"
	"github.com/mutiara-bangsa/storefront/internal/shared"
	"github.com/mutiara-bangsa/storefront/internal/view"
)

// TimelineService loads catalog activity.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error)
}

// Exporter streams activity rows as CSV.
type Exporter interface {
	WriteCSV(w io.Writer, rows []audit.TimelineRow) error
}

// Handler menampilkan riwayat aktivitas katalog untuk admin.
type Handler struct {
	logger    *slog.Logger
	service   TimelineService
	exporter  Exporter
	templates *view.Engine
	csrf      *shared.CSRFManager
	filters   *filterParser
}

// NewHandler membuat handler riwayat aktivitas.
func NewHandler(logger *slog.Logger, service TimelineService, templates *view.Engine, exporter Exporter, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		exporter:  exporter,
		templates: templates,
		csrf:      csrf,
		filters:   newFilterParser(time.Now),
	}
}

type activityEntry struct {
	At       time.Time `json:"at"`
	Actor    string    `json:"actor"`
	Action   string    `json:"action"`
	Entity   string    `json:"entity"`
	EntityID string    `json:"entity_id"`
	Product  string    `json:"product,omitempty"`
}

type activityPage struct {
	Entries  []activityEntry `json:"entries"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	HasNext  bool            `json:"has_next"`
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	filters, ok := h.parseFilters(w, r)
	if !ok {
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.serverError(w, r, "load activity timeline", err)
		return
	}

	if httpx.WantsJSON(r) {
		page := activityPage{
			Entries:  make([]activityEntry, 0, len(result.Rows)),
			Page:     result.Paging.Page,
			PageSize: result.Paging.PageSize,
			HasNext:  result.Paging.HasNext,
		}
		for _, row := range result.Rows {
			page.Entries = append(page.Entries, activityEntry{
				At:       row.At,
				Actor:    row.Actor,
				Action:   row.Action,
				Entity:   row.Entity,
				EntityID: row.EntityID,
				Product:  row.Summary(),
			})
		}
		httpx.JSON(w, http.StatusOK, page)
		return
	}

	if h.templates == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	data := view.NewTemplateData(r, h.csrf, "Riwayat Aktivitas", audit.ViewModel{
		Filters: audit.FiltersViewModel{
			From:   filters.From,
			To:     filters.To,
			Actor:  filters.Actor,
			Entity: filters.Entity,
			Action: filters.Action,
		},
		Rows:    result.Rows,
		Paging:  result.Paging,
		Actions: audit.KnownActions,
	})
	if err := h.templates.Render(w, "pages/audit_timeline.html", data); err != nil {
		h.serverError(w, r, "render activity timeline", err)
	}
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	if h.service == nil || h.exporter == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	filters, ok := h.parseFilters(w, r)
	if !ok {
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.serverError(w, r, "export activity timeline", err)
		return
	}

	filename := fmt.Sprintf("riwayat-aktivitas-%s_%s.csv", filters.From.Format(dateLayout), filters.To.Format(dateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := h.exporter.WriteCSV(w, rows); err != nil {
		// Headers are already out; the client sees a truncated file.
		h.logger.Warn("write activity csv", slog.Int("rows", len(rows)), slog.Any("error", err))
	}
}

func (h *Handler) parseFilters(w http.ResponseWriter, r *http.Request) (audit.TimelineFilters, bool) {
	filters, err := h.filters.parse(r.URL.Query())
	if err == nil {
		return filters, true
	}
	var ferr *filterError
	if !errors.As(err, &ferr) {
		h.serverError(w, r, "validate activity filters", err)
		return audit.TimelineFilters{}, false
	}
	if httpx.WantsJSON(r) {
		httpx.Problem(w, http.StatusBadRequest, "Filter tidak valid", ferr.Error())
	} else {
		http.Error(w, ferr.Error(), http.StatusBadRequest)
	}
	return audit.TimelineFilters{}, false
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, slog.String("path", r.URL.Path), slog.Any("error", err))
	if httpx.WantsJSON(r) {
		httpx.Problem(w, http.StatusInternalServerError, "Terjadi kesalahan", "Riwayat aktivitas tidak dapat dimuat.")
		return
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
