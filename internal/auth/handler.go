package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mutiara-bangsa/storefront/internal/rbac"
	"github.com/mutiara-bangsa/storefront/internal/shared"
	"github.com/mutiara-bangsa/storefront/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerForm struct {
	FullName        string `validate:"required,min=3"`
	Email           string `validate:"required,email"`
	NoTelpon        string `validate:"omitempty,min=8,max=20"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

var fieldMessages = map[string]string{
	"FullName":        "Nama lengkap minimal 3 karakter",
	"Email":           "Email tidak valid",
	"NoTelpon":        "Nomor telepon tidak valid",
	"Password":        "Password minimal 8 karakter",
	"ConfirmPassword": "Password tidak cocok",
}

func (h *Handler) validate(form any) map[string]string {
	errs := make(map[string]string)
	err := h.validator.Struct(form)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fieldErr := range verrs {
			msg, ok := fieldMessages[fieldErr.Field()]
			if !ok {
				msg = fieldErr.Error()
			}
			errs[fieldErr.Field()] = msg
		}
	}
	return errs
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

type registerPageData struct {
	Form   registerForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if p := rbac.PrincipalFromContext(r.Context()); p != nil {
		http.Redirect(w, r, p.HomePath(), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "pages/login.html", "Masuk", loginPageData{})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	errs := h.validate(form)
	if len(errs) == 0 {
		acc, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err == nil && sess != nil {
			h.sessionManager.Renew(sess)
			sess.Delete(shared.CSRFSessionKey)
			sess.SetUser(acc.User.ID)
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: "Selamat datang kembali, " + acc.Profile.FullName})
			http.Redirect(w, r, shared.HomePathForRole(acc.Profile.Role), http.StatusSeeOther)
			return
		}
		if sess == nil {
			h.logger.Error("session missing during login")
		}
		errs["general"] = "Email atau password tidak valid"
	}
	form.Password = ""
	h.render(w, r, http.StatusBadRequest, "pages/login.html", "Masuk", loginPageData{Form: form, Errors: errs})
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	if p := rbac.PrincipalFromContext(r.Context()); p != nil {
		http.Redirect(w, r, p.HomePath(), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "pages/register.html", "Daftar", registerPageData{})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := registerForm{
		FullName:        r.PostFormValue("full_name"),
		Email:           r.PostFormValue("email"),
		NoTelpon:        r.PostFormValue("no_telpon"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	errs := h.validate(form)
	if len(errs) == 0 {
		_, err := h.service.Register(r.Context(), Registration{
			FullName: form.FullName,
			Email:    form.Email,
			NoTelpon: form.NoTelpon,
			Password: form.Password,
		})
		switch {
		case err == nil:
			shared.AddFlash(r.Context(), shared.FlashSuccess, "Pendaftaran berhasil! Silakan login.")
			http.Redirect(w, r, shared.PathLogin, http.StatusSeeOther)
			return
		case errors.Is(err, shared.ErrEmailTaken):
			errs["Email"] = "Email sudah terdaftar"
		default:
			h.logger.Error("register account", slog.Any("error", err))
			errs["general"] = "Terjadi kesalahan saat mendaftar"
		}
	}
	form.Password, form.ConfirmPassword = "", ""
	h.render(w, r, http.StatusBadRequest, "pages/register.html", "Daftar", registerPageData{Form: form, Errors: errs})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, shared.PathLogin, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, template, title string, data any) {
	viewData := view.NewTemplateData(r, h.csrfManager, title, data)
	if err := h.templates.RenderStatus(w, status, template, viewData); err != nil {
		h.logger.Error("render auth page", slog.String("template", template), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleRegisterForTest exposes the registration POST handler for tests.
func (h *Handler) HandleRegisterForTest(w http.ResponseWriter, r *http.Request) {
	h.handleRegister(w, r)
}
