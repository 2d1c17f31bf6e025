package guard

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kindify/kindify-gateway/internal/domain"
	"github.com/kindify/kindify-gateway/internal/session"
	"github.com/kindify/kindify-gateway/pkg/auth"
	"github.com/kindify/kindify-gateway/pkg/logger"
)

type sessionContextKey struct{}

// ContextWithSession attaches the resolved session to the request context.
func ContextWithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session placed by the Protect middleware.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok && sess != nil
}

// Middleware adapts the pure guard decision to chi route trees.
type Middleware struct {
	registry   *session.Registry
	cookieName string
	secret     string
}

func NewMiddleware(registry *session.Registry, cookieName, secret string) *Middleware {
	return &Middleware{
		registry:   registry,
		cookieName: cookieName,
		secret:     secret,
	}
}

// Protect gates an area on session state. Unknown sessions get the loading
// placeholder, never the protected handler; unauthenticated ones are
// redirected to the area's login entry point.
func (m *Middleware) Protect(areaRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := m.resolve(r)
			if !ok {
				redirect(w, r, LoginPath(areaRole))
				return
			}

			snapshot := sess.Store.Snapshot()
			userRole := ""
			if snapshot.User != nil {
				userRole = snapshot.User.Role
			}

			switch decision := Evaluate(Resolve(snapshot), userRole, areaRole); decision.Action {
			case ActionAllow:
				ctx := ContextWithSession(r.Context(), sess)
				ctx = context.WithValue(ctx, logger.SessionIDKey, sess.ID)
				next.ServeHTTP(w, r.WithContext(ctx))
			case ActionPlaceholder:
				placeholder(w)
			default:
				redirect(w, r, decision.Target)
			}
		})
	}
}

// resolve parses the signed session cookie and looks the session up in the
// registry. Any failure along the way counts as unauthenticated.
func (m *Middleware) resolve(r *http.Request) (*session.Session, bool) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	claims, err := auth.Parse(cookie.Value, m.secret)
	if err != nil {
		logger.DebugContext(r.Context(), "Rejected session cookie", "error", err)
		return nil, false
	}

	return m.registry.Get(claims.SID)
}

// AreaRole maps a dashboard/home path prefix to its role. Unknown prefixes
// have no role and fall back to the generic login.
func AreaRole(prefix string) string {
	switch prefix {
	case "/donor-dashboard", "/donor-home":
		return domain.RoleDonor
	case "/ngo-dashboard", "/ngo-home":
		return domain.RoleNGO
	case "/admin-dashboard":
		return domain.RoleAdmin
	default:
		return ""
	}
}

func placeholder(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "loading"})
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusFound)
}
