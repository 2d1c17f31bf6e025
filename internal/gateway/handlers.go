// Package gateway exposes the session and access-control layer over HTTP:
// login and signup per role, logout, credential recovery, and the NGO filter
// lifecycle, all scoped to a signed browser session cookie.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kindify/kindify-gateway/internal/api"
	"github.com/kindify/kindify-gateway/internal/domain"
	"github.com/kindify/kindify-gateway/internal/filter"
	"github.com/kindify/kindify-gateway/internal/guard"
	"github.com/kindify/kindify-gateway/internal/notify"
	"github.com/kindify/kindify-gateway/internal/session"
	"github.com/kindify/kindify-gateway/pkg/auth"
	"github.com/kindify/kindify-gateway/pkg/config"
	"github.com/kindify/kindify-gateway/pkg/logger"
)

// Upstream is the slice of the platform API client the handlers call
// directly. Recovery and filter operations go through the per-session
// machines instead.
type Upstream interface {
	Login(ctx context.Context, req domain.LoginRequest, role string) (api.LoginResult, error)
	Signup(ctx context.Context, req domain.SignupRequest, role string) (api.Result, error)
	Profile(ctx context.Context, token string) (api.ProfileResult, error)
	VerifyEmail(ctx context.Context, token string) (api.Result, error)
	Logout(ctx context.Context, token string) (api.Result, error)
}

type Handlers struct {
	upstream Upstream
	sessions *session.Registry
	bus      notify.Bus
	config   *config.Config
}

func New(upstream Upstream, sessions *session.Registry, bus notify.Bus, config *config.Config) *Handlers {
	return &Handlers{
		upstream: upstream,
		sessions: sessions,
		bus:      bus,
		config:   config,
	}
}

// Login handles credential submission for a role-scoped login form. Login
// and profile hydration are two upstream round trips; the user entity only
// lands in the session store once the profile fetch succeeds.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	role := roleParam(r)
	if !domain.IsValidRole(role) {
		writeError(w, http.StatusBadRequest, "Unknown role", "INVALID_INPUT")
		return
	}

	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		// Validation failures never reach the upstream.
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_FAILED")
		return
	}

	sess := h.ensureSession(w, r)
	store := sess.Store
	if !store.TryBegin() {
		writeError(w, http.StatusConflict, "Another sign-in is already in progress", "OPERATION_IN_FLIGHT")
		return
	}
	defer store.End()

	loginRes, err := h.upstream.Login(r.Context(), req, role)
	if settled := api.Normalize(loginRes.Result, err); !settled.Success {
		store.SetError(settled.Message)
		h.bus.Publish(r.Context(), notify.Error(notify.LoginFailed, settled.Message))
		writeError(w, http.StatusUnauthorized, settled.Message, "LOGIN_FAILED")
		return
	}

	profileRes, err := h.upstream.Profile(r.Context(), loginRes.Token)
	settled := api.Normalize(profileRes.Result, err)
	if !settled.Success || profileRes.User == nil {
		store.SetError(settled.Message)
		h.bus.Publish(r.Context(), notify.Error(notify.LoginFailed, settled.Message))
		writeError(w, http.StatusBadGateway, settled.Message, "PROFILE_FAILED")
		return
	}

	sess.SetToken(loginRes.Token)
	store.SetUser(profileRes.User)
	sess.Recovery.Reset()
	h.setSessionCookie(w, sess.ID, profileRes.User.Email, role)
	h.bus.Publish(r.Context(), notify.Success(notify.LoginSucceeded, "Login successful"))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Login successful",
		"user":     profileRes.User,
		"redirect": "/" + role + "-home",
	})
}

// Signup handles account creation for a role.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	role := roleParam(r)
	if !domain.IsValidRole(role) || role == domain.RoleAdmin {
		writeError(w, http.StatusBadRequest, "Unknown role", "INVALID_INPUT")
		return
	}

	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_FAILED")
		return
	}

	res, err := h.upstream.Signup(r.Context(), req, role)
	if settled := api.Normalize(res, err); !settled.Success {
		h.bus.Publish(r.Context(), notify.Error(notify.SignupFailed, settled.Message))
		writeError(w, http.StatusBadRequest, settled.Message, "SIGNUP_FAILED")
		return
	}

	h.bus.Publish(r.Context(), notify.Success(notify.SignupSucceeded, "Account created"))
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Account created. Please check your email to verify your account.",
	})
}

// ForgotPassword drives the credentials → otp transition of the recovery
// machine. Only the email is required on this path.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleDonor
	}
	if !domain.IsValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "Unknown role", "INVALID_INPUT")
		return
	}

	sess := h.ensureSession(w, r)
	outcome := sess.Recovery.RequestCode(r.Context(), req.Email, req.Role)
	if !outcome.OK {
		h.bus.Publish(r.Context(), notify.Error(notify.RecoveryFailed, outcome.Message))
		writeError(w, http.StatusBadRequest, outcome.Message, "FORGOT_PASSWORD_FAILED")
		return
	}

	h.bus.Publish(r.Context(), notify.Success(notify.RecoveryCodeSent, outcome.Message))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": outcome.Message,
		"stage":   string(outcome.Stage),
	})
}

// VerifyOTP drives the otp → done transition. On failure the machine stays
// at the otp stage and the user may resubmit.
func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	sess, ok := h.currentSession(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "No password recovery in progress", "NO_RECOVERY")
		return
	}

	outcome := sess.Recovery.VerifyCode(r.Context(), req.Code, req.NewPassword)
	if !outcome.OK {
		h.bus.Publish(r.Context(), notify.Error(notify.RecoveryFailed, outcome.Message))
		writeError(w, http.StatusBadRequest, outcome.Message, "OTP_VERIFICATION_FAILED")
		return
	}

	h.bus.Publish(r.Context(), notify.Success(notify.RecoveryCompleted, outcome.Message))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": outcome.Message,
		"stage":   string(outcome.Stage),
	})
}

// VerifyEmail relays the email-verification token to the upstream.
func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Missing verification token", "INVALID_INPUT")
		return
	}

	res, err := h.upstream.VerifyEmail(r.Context(), token)
	if settled := api.Normalize(res, err); !settled.Success {
		writeError(w, http.StatusBadRequest, settled.Message, "VERIFICATION_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully",
	})
}

// Logout clears the upstream session, the store, and the registry entry. The
// local teardown happens even when the upstream call fails.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := h.currentSession(r); ok {
		if token := sess.Token(); token != "" {
			if _, err := h.upstream.Logout(r.Context(), token); err != nil {
				logger.WarnContext(r.Context(), "Upstream logout failed", "error", err)
			}
		}
		sess.Store.Clear()
		h.sessions.Remove(sess.ID)
	}

	h.clearSessionCookie(w)
	h.bus.Publish(r.Context(), notify.Success(notify.SessionEnded, "Logged out"))
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Logged out",
		"redirect": "/login",
	})
}

// ApplyFilter runs one apply-filter attempt through the session's applier.
func (h *Handlers) ApplyFilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := guard.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No session", "UNAUTHORIZED")
		return
	}

	var criteria filter.Criteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	outcome := sess.Filter.Apply(r.Context(), criteria)
	switch {
	case outcome.Stale:
		// Superseded by a later apply; that one owns the result set.
		writeJSON(w, http.StatusOK, map[string]interface{}{"stale": true})
	case !outcome.OK:
		h.bus.Publish(r.Context(), notify.Error(notify.FilterFailed, outcome.Message))
		writeError(w, http.StatusBadRequest, outcome.Message, "FILTER_FAILED")
	default:
		h.bus.Publish(r.Context(), notify.Success(notify.FilterApplied, "Filters applied"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data":  outcome.Results,
			"count": len(outcome.Results),
		})
	}
}

// FilterResults reports the applier state the list views render from.
func (h *Handlers) FilterResults(w http.ResponseWriter, r *http.Request) {
	sess, ok := guard.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No session", "UNAUTHORIZED")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       sess.Filter.Results(),
		"loading":    sess.Filter.Loading(),
		"error":      sess.Filter.Err(),
		"panel_open": sess.Filter.Panel().IsOpen(),
	})
}

// SetFilterPanel opens or closes the filter panel explicitly.
func (h *Handlers) SetFilterPanel(w http.ResponseWriter, r *http.Request) {
	sess, ok := guard.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No session", "UNAUTHORIZED")
		return
	}

	var req struct {
		Open bool `json:"open"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	if req.Open {
		sess.Filter.Panel().Open()
	} else {
		sess.Filter.Panel().Close()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"panel_open": sess.Filter.Panel().IsOpen()})
}

// ToggleFilterPanel flips the panel, mirroring the filter button in the UI.
func (h *Handlers) ToggleFilterPanel(w http.ResponseWriter, r *http.Request) {
	sess, ok := guard.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No session", "UNAUTHORIZED")
		return
	}

	sess.Filter.Panel().Toggle()
	writeJSON(w, http.StatusOK, map[string]bool{"panel_open": sess.Filter.Panel().IsOpen()})
}

// Page renders a minimal page descriptor for a route. The dashboards'
// visual composition belongs to the browser bundle; the gateway only
// confirms access and names the page.
func (h *Handlers) Page(area, page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"area": area,
			"page": page,
		}
		if sess, ok := guard.SessionFromContext(r.Context()); ok {
			body["user"] = sess.Store.CurrentUser()
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// Helpers

func roleParam(r *http.Request) string {
	role := chi.URLParam(r, "role")
	if role == "" {
		role = domain.RoleDonor
	}
	return role
}

// currentSession resolves the cookie without creating a session.
func (h *Handlers) currentSession(r *http.Request) (*session.Session, bool) {
	cookie, err := r.Cookie(h.config.Auth.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	claims, err := auth.Parse(cookie.Value, h.config.Auth.JWTSecret)
	if err != nil {
		return nil, false
	}
	return h.sessions.Get(claims.SID)
}

// ensureSession resolves the cookie or starts a fresh session, setting the
// cookie in the latter case.
func (h *Handlers) ensureSession(w http.ResponseWriter, r *http.Request) *session.Session {
	if sess, ok := h.currentSession(r); ok {
		return sess
	}
	sess := h.sessions.Create()
	h.setSessionCookie(w, sess.ID, "", "")
	return sess
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, sid, email, role string) {
	token, err := auth.NewSessionToken(sid, email, role, h.config.Auth.JWTSecret, h.config.Auth.CookieTTL)
	if err != nil {
		logger.Error("Failed to sign session cookie", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.config.Auth.CookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
