package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mutiara-bangsa/storefront/internal/platform/httpx"
	"github.com/mutiara-bangsa/storefront/internal/shared"
)

// Middleware wires role based authorization helpers for HTTP handlers.
type Middleware struct {
	Principals PrincipalLoader
	Logger     *slog.Logger
}

// LoadPrincipal resolves the session user into a Principal and stores it in
// the request context. Anonymous requests pass through untouched.
func (m Middleware) LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || strings.TrimSpace(sess.User()) == "" || m.Principals == nil {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.Principals.PrincipalByUserID(r.Context(), sess.User())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Profile removed while the session lived on.
				sess.SetUser("")
			} else if m.Logger != nil {
				m.Logger.Error("rbac load principal", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := ContextWithPrincipal(r.Context(), &principal)
		ctx = shared.ContextWithActor(ctx, principal.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole ensures the principal holds one of roles. Anonymous users go
// to the login page; signed-in users with another role go to their own
// dashboard.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				m.unauthenticated(w, r)
				return
			}
			if !principal.HasRole(roles...) {
				if httpx.WantsJSON(r) {
					httpx.RespondError(w, httpx.ErrForbidden)
					return
				}
				http.Redirect(w, r, principal.HomePath(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) unauthenticated(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	http.Redirect(w, r, shared.PathLogin, http.StatusSeeOther)
}
