package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/mutiara-bangsa/storefront/internal/audit/http"
	"github.com/mutiara-bangsa/storefront/internal/auth"
	"github.com/mutiara-bangsa/storefront/internal/catalog"
	"github.com/mutiara-bangsa/storefront/internal/observability"
	"github.com/mutiara-bangsa/storefront/internal/rbac"
	"github.com/mutiara-bangsa/storefront/internal/shared"
	"github.com/mutiara-bangsa/storefront/internal/view"
	"github.com/mutiara-bangsa/storefront/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	CatalogHandler *catalog.Handler
	AuditHandler   *audithttp.Handler
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with storefront defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.RBACMiddleware.LoadPrincipal)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if p := rbac.PrincipalFromContext(r.Context()); p != nil {
			http.Redirect(w, r, p.HomePath(), http.StatusSeeOther)
			return
		}
		renderPage(w, r, params, "pages/landing.html", "Mutiara Bangsa", nil)
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(params.RBACMiddleware.RequireRole(shared.RoleCustomer))
		params.CatalogHandler.MountCustomerRoutes(r)
		r.Get("/cart", placeholder(params, "Keranjang"))
		r.Get("/history", placeholder(params, "Riwayat Pesanan"))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(params.RBACMiddleware.RequireRole(shared.RoleAdmin))
		params.CatalogHandler.MountAdminRoutes(r)
		params.AuditHandler.MountRoutes(r)
		r.Get("/stock", placeholder(params, "Stok Barang"))
		r.Get("/transactions", placeholder(params, "Transaksi"))
		r.Get("/reports", placeholder(params, "Laporan"))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// placeholder renders a "coming soon" page for admin sections not built yet.
func placeholder(params RouterParams, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, r, params, "pages/placeholder.html", title, map[string]any{"Section": title})
	}
}

func renderPage(w http.ResponseWriter, r *http.Request, params RouterParams, name, title string, data any) {
	viewData := view.NewTemplateData(r, params.CSRFManager, title, data)
	if err := params.Templates.Render(w, name, viewData); err != nil {
		params.Logger.Error("render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
