package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/kindify/kindify-gateway/internal/domain"
	"github.com/kindify/kindify-gateway/internal/guard"
	mw "github.com/kindify/kindify-gateway/pkg/middleware"
)

var dashboardPages = map[string][]string{
	domain.RoleDonor: {
		"dashboard", "setting", "account", "donations",
		"notifications", "followed-ngos", "contact&help",
	},
	domain.RoleNGO: {
		"dashboard", "campaigns", "donations", "impact-reports",
		"messages", "withdrawals", "notifications", "settings", "contact&help",
	},
	domain.RoleAdmin: {
		"dashboard", "ngo-moderation", "users", "reports",
		"notifications", "contact&help",
	},
}

// NewRouter wires the navigation surface: public entry points, the auth and
// recovery endpoints, and the role-scoped guarded areas.
func NewRouter(h *Handlers, gm *guard.Middleware) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("gateway"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(mw.Health)

	// Public pages
	r.Get("/", h.Page("public", "landing"))
	r.Get("/donate", h.Page("public", "donate"))
	r.Get("/login", h.Page("public", "login"))
	r.Get("/login/{role}", h.Page("public", "login"))
	r.Get("/signup", h.Page("public", "signup"))
	r.Get("/signup/{role}", h.Page("public", "signup"))
	r.Get("/verify-email", h.VerifyEmail)

	// Credential endpoints
	r.Post("/login", h.Login)
	r.Post("/login/{role}", h.Login)
	r.Post("/signup", h.Signup)
	r.Post("/signup/{role}", h.Signup)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/verify-otp", h.VerifyOTP)
	r.Post("/logout", h.Logout)

	// Guarded home entries; the area's role requirement derives from its
	// path prefix.
	r.With(gm.Protect(guard.AreaRole("/donor-home"))).Get("/donor-home", h.Page("donor", "home"))
	r.With(gm.Protect(guard.AreaRole("/ngo-home"))).Get("/ngo-home", h.Page("ngo", "home"))

	// Authenticated area without a role requirement: the shared home view
	// and the NGO filter lifecycle it hosts.
	r.Group(func(r chi.Router) {
		r.Use(gm.Protect(""))
		r.Get("/home", h.Page("shared", "home"))
		r.Post("/ngos/filter", h.ApplyFilter)
		r.Get("/ngos/filter/results", h.FilterResults)
		r.Post("/ngos/filter/panel", h.SetFilterPanel)
		r.Post("/ngos/filter/panel/toggle", h.ToggleFilterPanel)
	})

	// Role dashboards
	for role, pages := range dashboardPages {
		role, pages := role, pages
		prefix := "/" + role + "-dashboard"
		r.Route(prefix, func(r chi.Router) {
			r.Use(gm.Protect(guard.AreaRole(prefix)))
			r.Get("/", h.Page(role, "dashboard"))
			for _, page := range pages {
				r.Get("/"+page, h.Page(role, page))
			}
			r.Get("/logout", h.Logout)
		})
	}

	return r
}
