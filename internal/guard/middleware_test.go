package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindify/kindify-gateway/internal/domain"
	"github.com/kindify/kindify-gateway/internal/filter"
	"github.com/kindify/kindify-gateway/internal/recovery"
	"github.com/kindify/kindify-gateway/internal/session"
	"github.com/kindify/kindify-gateway/pkg/auth"
)

const (
	testCookie = "kindify_session"
	testSecret = "test-secret-key"
)

func newGuardTestSetup(t *testing.T) (*session.Registry, *Middleware) {
	t.Helper()
	registry := session.NewRegistry(time.Hour, func(string) (*recovery.Machine, *filter.Applier) {
		return recovery.NewMachine(nil, recovery.DefaultLimits()), filter.NewApplier(nil)
	})
	return registry, NewMiddleware(registry, testCookie, testSecret)
}

func signedCookie(t *testing.T, sess *session.Session, email, role string) *http.Cookie {
	t.Helper()
	token, err := auth.NewSessionToken(sess.ID, email, role, testSecret, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: testCookie, Value: token}
}

func protectedHandler(mw *Middleware, areaRole string) http.Handler {
	return mw.Protect(areaRole)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("protected content"))
	}))
}

func TestProtect_NoCookieRedirectsToLogin(t *testing.T) {
	_, mw := newGuardTestSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/donor-dashboard/dashboard", nil)
	rec := httptest.NewRecorder()
	protectedHandler(mw, domain.RoleDonor).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login/donor", rec.Header().Get("Location"))
}

func TestProtect_ForgedCookieRedirects(t *testing.T) {
	registry, mw := newGuardTestSetup(t)
	sess := registry.Create()

	token, err := auth.NewSessionToken(sess.ID, "x@example.com", domain.RoleDonor, "wrong-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/donor-dashboard/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	rec := httptest.NewRecorder()
	protectedHandler(mw, domain.RoleDonor).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login/donor", rec.Header().Get("Location"))
}

func TestProtect_UnknownSessionIDRedirects(t *testing.T) {
	_, mw := newGuardTestSetup(t)

	token, err := auth.NewSessionToken("no-such-session", "x@example.com", domain.RoleDonor, testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/donor-dashboard/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	rec := httptest.NewRecorder()
	protectedHandler(mw, domain.RoleDonor).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestProtect_AuthenticatedMatchingRoleAllowed(t *testing.T) {
	registry, mw := newGuardTestSetup(t)
	sess := registry.Create()
	sess.Store.SetUser(&domain.User{ID: "u-1", Role: domain.RoleDonor, Email: "donor@example.com"})

	req := httptest.NewRequest(http.MethodGet, "/donor-dashboard/dashboard", nil)
	req.AddCookie(signedCookie(t, sess, "donor@example.com", domain.RoleDonor))
	rec := httptest.NewRecorder()
	protectedHandler(mw, domain.RoleDonor).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "protected content", rec.Body.String())
}

func TestProtect_WrongRoleRedirectsToAreaLogin(t *testing.T) {
	registry, mw := newGuardTestSetup(t)
	sess := registry.Create()
	sess.Store.SetUser(&domain.User{ID: "u-1", Role: domain.RoleDonor, Email: "donor@example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ngo-dashboard/dashboard", nil)
	req.AddCookie(signedCookie(t, sess, "donor@example.com", domain.RoleDonor))
	rec := httptest.NewRecorder()
	protectedHandler(mw, domain.RoleNGO).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login/ngo", rec.Header().Get("Location"))
}

func TestProtect_AdminAllowedAnywhere(t *testing.T) {
	registry, mw := newGuardTestSetup(t)
	sess := registry.Create()
	sess.Store.SetUser(&domain.User{ID: "u-1", Role: domain.RoleAdmin, Email: "admin@example.com"})

	for _, area := range []string{domain.RoleDonor, domain.RoleNGO, domain.RoleAdmin} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.AddCookie(signedCookie(t, sess, "admin@example.com", domain.RoleAdmin))
		rec := httptest.NewRecorder()
		protectedHandler(mw, area).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "admin blocked from %s area", area)
	}
}

func TestProtect_LoadingSessionGetsPlaceholder(t *testing.T) {
	registry, mw := newGuardTestSetup(t)
	sess := registry.Create()
	sess.Store.SetUser(&domain.User{ID: "u-1", Role: domain.RoleDonor})
	sess.Store.SetLoading(true)

	req := httptest.NewRequest(http.MethodGet, "/donor-dashboard/dashboard", nil)
	req.AddCookie(signedCookie(t, sess, "donor@example.com", domain.RoleDonor))
	rec := httptest.NewRecorder()
	protectedHandler(mw, domain.RoleDonor).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"loading"}`, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotContains(t, rec.Body.String(), "protected content")
}

func TestProtect_SessionReachesHandlerContext(t *testing.T) {
	registry, mw := newGuardTestSetup(t)
	sess := registry.Create()
	sess.Store.SetUser(&domain.User{ID: "u-1", Role: domain.RoleDonor})

	var got *session.Session
	handler := mw.Protect("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(signedCookie(t, sess, "donor@example.com", domain.RoleDonor))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, sess.ID, got.ID)
}
