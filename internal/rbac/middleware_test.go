package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutiara-bangsa/storefront/internal/shared"
)

type stubLoader struct {
	principals map[string]Principal
	err        error
	calls      int
}

func (s *stubLoader) PrincipalByUserID(_ context.Context, userID string) (Principal, error) {
	s.calls++
	if s.err != nil {
		return Principal{}, s.err
	}
	p, ok := s.principals[userID]
	if !ok {
		return Principal{}, ErrNotFound
	}
	return p, nil
}

func requestAs(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	sess := &shared.Session{ID: "sess-1"}
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func newStubLoader() *stubLoader {
	return &stubLoader{principals: map[string]Principal{
		"admin-1": {UserID: "admin-1", FullName: "Bu Sari", Role: shared.RoleAdmin},
		"cust-1":  {UserID: "cust-1", FullName: "Andi", Role: shared.RoleCustomer},
	}}
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	loader := newStubLoader()
	m := Middleware{Principals: loader}
	var seen *Principal
	var actor string
	h := m.LoadPrincipal(m.RequireRole(shared.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
		actor = shared.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestAs("admin-1"))

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "Bu Sari", seen.FullName)
	assert.Equal(t, "admin-1", actor)
	assert.Equal(t, 1, loader.calls)
}

func TestRequireRoleRedirectsCustomerHome(t *testing.T) {
	m := Middleware{Principals: newStubLoader()}
	h := m.LoadPrincipal(m.RequireRole(shared.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestAs("cust-1"))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, shared.PathCustomerDashboard, rr.Header().Get("Location"))
}

func TestRequireRoleRedirectsAnonymousToLogin(t *testing.T) {
	m := Middleware{Principals: newStubLoader()}
	h := m.LoadPrincipal(m.RequireRole(shared.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestAs(""))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, shared.PathLogin, rr.Header().Get("Location"))
}

func TestRequireRoleJSONClients(t *testing.T) {
	m := Middleware{Principals: newStubLoader()}
	h := m.LoadPrincipal(m.RequireRole(shared.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	anon := requestAs("")
	anon.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, anon)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	cust := requestAs("cust-1")
	cust.Header.Set("Accept", "application/json")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, cust)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestLoadPrincipalClearsStaleSession(t *testing.T) {
	m := Middleware{Principals: newStubLoader()}
	req := requestAs("ghost")
	h := m.LoadPrincipal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, PrincipalFromContext(r.Context()))
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, shared.SessionFromContext(req.Context()).User())
}

func TestLoadPrincipalBackendErrorIsAnonymous(t *testing.T) {
	m := Middleware{Principals: &stubLoader{err: errors.New("db down")}}
	req := requestAs("admin-1")
	h := m.LoadPrincipal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, PrincipalFromContext(r.Context()))
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "admin-1", shared.SessionFromContext(req.Context()).User())
}
