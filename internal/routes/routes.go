package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/opencampus/redressal/internal/auth"
	"github.com/opencampus/redressal/internal/handlers"
	"github.com/opencampus/redressal/internal/middleware"
	"github.com/opencampus/redressal/internal/models"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	adminAuthHandler *handlers.AdminAuthHandler,
	complaintHandler *handlers.ComplaintHandler,
	userHandler *handlers.UserHandler,
	tokenManager *auth.TokenManager,
	resolver auth.IdentityResolver,
) {
	authLimit := middleware.RateLimitByIP(middleware.DefaultAuthRateLimit())
	adminLimit := middleware.RateLimitByIP(middleware.AdminVerificationRateLimit())

	// Public routes
	router.With(authLimit).Post("/auth/signup", authHandler.Signup)
	router.With(authLimit).Post("/auth/login", authHandler.Login)
	router.Get("/auth/availability", authHandler.Availability)

	// Admin verification flow; tighter limits since codes are guessable.
	router.With(adminLimit).Patch("/auth/admin/send-code", adminAuthHandler.SendCode)
	router.With(adminLimit).Patch("/auth/admin/verify-code", adminAuthHandler.VerifyCode)
	router.With(adminLimit).Post("/auth/admin/login", adminAuthHandler.Login)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(tokenManager, resolver))

		r.Get("/auth/me", authHandler.Me)
		r.Put("/auth/profile", authHandler.UpdateProfile)
		r.Post("/auth/change-password", authHandler.ChangePassword)

		// Complaints: the service scopes visibility per role.
		r.Post("/complaints", complaintHandler.Create)
		r.Get("/complaints", complaintHandler.List)
		r.Get("/complaints/{id}", complaintHandler.Get)
		r.Delete("/complaints/{id}", complaintHandler.Delete)
		r.With(auth.RequireRole(models.RoleAdmin)).Patch("/complaints/{id}/assign", complaintHandler.Assign)
		r.With(auth.RequireRole(models.RoleFaculty, models.RoleAdmin)).Patch("/complaints/{id}/status", complaintHandler.UpdateStatus)

		// Admin-only account management
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Get("/users", userHandler.List)
			r.Get("/users/{role}/{id}", userHandler.Get)
			r.Delete("/users/{role}/{id}", userHandler.Delete)
		})
	})
}
