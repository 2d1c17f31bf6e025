// stubapi is a development stand-in for the upstream Kindify platform API.
// It speaks the wire contract the gateway consumes (tagged result
// envelopes), keeps everything in memory, and mails recovery codes through
// the configured mailer. It is not the production API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/kindify/kindify-gateway/internal/domain"
	"github.com/kindify/kindify-gateway/internal/mailer"
	"github.com/kindify/kindify-gateway/pkg/config"
	"github.com/kindify/kindify-gateway/pkg/logger"
	mw "github.com/kindify/kindify-gateway/pkg/middleware"
)

type account struct {
	user     domain.User
	password string
}

type stub struct {
	mu       sync.Mutex
	accounts map[string]*account // key: role + ":" + email
	tokens   map[string]string   // upstream token -> account key
	codes    map[string]string   // account key -> active recovery code
	ngos     []domain.NGO
	mail     mailer.Service
}

func newStub(mail mailer.Service) *stub {
	s := &stub{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		codes:    make(map[string]string),
		mail:     mail,
	}
	s.seed()
	return s
}

func (s *stub) seed() {
	seedAccounts := []struct {
		role, email, name, password string
	}{
		{domain.RoleDonor, "donor@example.com", "Dana Donor", "donorpass1"},
		{domain.RoleNGO, "ngo@example.com", "Helping Hands", "ngopass12"},
		{domain.RoleAdmin, "admin@example.com", "Site Admin", "adminpass"},
	}
	for i, a := range seedAccounts {
		key := a.role + ":" + a.email
		s.accounts[key] = &account{
			user: domain.User{
				ID:         fmt.Sprintf("u-%d", i+1),
				Role:       a.role,
				Email:      a.email,
				Name:       a.name,
				IsVerified: true,
			},
			password: a.password,
		}
	}

	s.ngos = []domain.NGO{
		{ID: "n-1", Name: "Clean Water Trust", Country: "india", State: "mizoram", City: "aizawl", Certified: true, Categories: []string{"health", "environment"}},
		{ID: "n-2", Name: "Books For All", Country: "india", State: "manipur", City: "imphal", Certified: false, Categories: []string{"education"}},
		{ID: "n-3", Name: "Shelter First", Country: "nepal", State: "bagmati", City: "kathmandu", Certified: true, Categories: []string{"housing", "health"}},
	}
}

func (s *stub) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid JSON format", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[req.Role+":"+strings.ToLower(req.Email)]
	if !ok || acct.password != req.Password {
		writeEnvelope(w, http.StatusUnauthorized, false, "Invalid email or password", nil)
		return
	}

	token := uuid.NewString()
	s.tokens[token] = req.Role + ":" + strings.ToLower(req.Email)
	writeEnvelope(w, http.StatusOK, true, "", map[string]interface{}{"token": token})
}

func (s *stub) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		domain.SignupRequest
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid JSON format", nil)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, err.Error(), nil)
		return
	}
	if !domain.IsValidRole(req.Role) {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid role", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := req.Role + ":" + req.Email
	if _, exists := s.accounts[key]; exists {
		writeEnvelope(w, http.StatusBadRequest, false, "An account with this email already exists", nil)
		return
	}
	s.accounts[key] = &account{
		user: domain.User{
			ID:    uuid.NewString(),
			Role:  req.Role,
			Email: req.Email,
			Name:  req.Name,
		},
		password: req.Password,
	}

	verifyURL := "http://localhost:8080/verify-email?token=" + uuid.NewString()
	if err := s.mail.SendVerificationEmail(req.Email, req.Name, verifyURL); err != nil {
		logger.Error("Failed to send verification email", "error", err, "email", req.Email)
	}
	writeEnvelope(w, http.StatusCreated, true, "", nil)
}

func (s *stub) profile(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.tokens[token]
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Invalid or expired session", nil)
		return
	}
	acct := s.accounts[key]
	writeEnvelope(w, http.StatusOK, true, "", map[string]interface{}{"user": acct.user})
}

func (s *stub) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid JSON format", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := req.Role + ":" + strings.ToLower(req.Email)
	if _, ok := s.accounts[key]; !ok {
		writeEnvelope(w, http.StatusBadRequest, false, "No account found for this email", nil)
		return
	}

	code := fmt.Sprintf("%06d", time.Now().UnixNano()%900000+100000)
	s.codes[key] = code
	if err := s.mail.SendRecoveryCode(req.Email, code); err != nil {
		logger.Error("Failed to send recovery code", "error", err, "email", req.Email)
	}
	writeEnvelope(w, http.StatusOK, true, "", nil)
}

func (s *stub) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
		Role        string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid JSON format", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := req.Role + ":" + strings.ToLower(req.Email)
	code, ok := s.codes[key]
	if !ok || code != req.Code {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid or expired verification code", nil)
		return
	}
	delete(s.codes, key)
	if req.NewPassword != "" {
		s.accounts[key].password = req.NewPassword
	}
	writeEnvelope(w, http.StatusOK, true, "", nil)
}

func (s *stub) verifyEmail(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") == "" {
		writeEnvelope(w, http.StatusBadRequest, false, "Missing verification token", nil)
		return
	}
	writeEnvelope(w, http.StatusOK, true, "", nil)
}

func (s *stub) logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()

	writeEnvelope(w, http.StatusOK, true, "", nil)
}

func (s *stub) filterNGOs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var categories []string
	if raw := q.Get("category"); raw != "" {
		categories = strings.Split(raw, ",")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]domain.NGO, 0, len(s.ngos))
	for _, ngo := range s.ngos {
		if v := q.Get("country"); v != "" && !strings.EqualFold(v, ngo.Country) {
			continue
		}
		if v := q.Get("state"); v != "" && !strings.EqualFold(v, ngo.State) {
			continue
		}
		if v := q.Get("city"); v != "" && !strings.EqualFold(v, ngo.City) {
			continue
		}
		if v := q.Get("certified"); v != "" && v != fmt.Sprintf("%t", ngo.Certified) {
			continue
		}
		if len(categories) > 0 && !hasAnyCategory(ngo.Categories, categories) {
			continue
		}
		matched = append(matched, ngo)
	}

	writeEnvelope(w, http.StatusOK, true, "", map[string]interface{}{"data": matched})
}

func hasAnyCategory(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(strings.TrimSpace(w), h) {
				return true
			}
		}
	}
	return false
}

func writeEnvelope(w http.ResponseWriter, statusCode int, success bool, message string, extra map[string]interface{}) {
	body := map[string]interface{}{"success": success}
	if message != "" {
		body["message"] = message
	}
	for k, v := range extra {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", "error", err)
	}
	cfg := config.Load()

	var mail mailer.Service
	if cfg.Email.DevMode {
		mail = mailer.NewDevMailer()
	} else {
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	s := newStub(mail)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("stubapi"))
	r.Use(mw.Logging)
	r.Use(mw.Health)

	r.Post("/auth/login", s.login)
	r.Post("/auth/signup", s.signup)
	r.Get("/auth/profile", s.profile)
	r.Post("/auth/forgot-password", s.forgotPassword)
	r.Post("/auth/reset-password", s.resetPassword)
	r.Get("/auth/verify-email", s.verifyEmail)
	r.Post("/auth/logout", s.logout)
	r.Get("/ngos", s.filterNGOs)

	port := os.Getenv("STUB_PORT")
	if port == "" {
		port = "8081"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down stub API...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Stub API shutdown error", "error", err)
		}
	}()

	logger.Info("Starting stub platform API", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Stub API server error", "error", err)
		os.Exit(1)
	}
}
