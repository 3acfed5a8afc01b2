package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nextplay-sports/platform-api/internal/auth"
	"github.com/nextplay-sports/platform-api/internal/cache"
	"github.com/nextplay-sports/platform-api/internal/config"
	"github.com/nextplay-sports/platform-api/internal/email"
	"github.com/nextplay-sports/platform-api/internal/entitlements"
	"github.com/nextplay-sports/platform-api/internal/models"
	"github.com/nextplay-sports/platform-api/internal/notify"
	"github.com/nextplay-sports/platform-api/internal/service"
	"github.com/nextplay-sports/platform-api/internal/store"
	"github.com/nextplay-sports/platform-api/internal/utils"
)

type serviceStore struct {
	*store.Store
}

type API struct {
	cfg    *config.Config
	router *chi.Mux
	store  *store.Store
}

func NewAPI(cfg *config.Config, s *store.Store) *API {
	api := &API{cfg: cfg, router: chi.NewRouter(), store: s}
	api.router.Use(middleware.Logger)
	api.routes()
	return api
}

func (a *API) Routes() *chi.Mux {
	return a.router
}

func (a *API) mediaStorage() utils.MediaStorage {
	if a.cfg.R2Endpoint != "" && a.cfg.R2BucketName != "" {
		return utils.NewR2Storage(a.cfg.R2AccessKeyID, a.cfg.R2SecretAccessKey, a.cfg.R2Endpoint, a.cfg.R2BucketName)
	}
	return utils.NewFileStorage(a.cfg.UploadDir)
}

func (a *API) emailService() email.Service {
	if a.cfg.EmailBackend == "sendgrid" && a.cfg.SendgridAPIKey != "" {
		return email.NewSendgridService(a.cfg)
	}
	return email.NewConsoleService()
}

func (a *API) routes() {
	ss := serviceStore{a.store}
	storage := a.mediaStorage()

	// entitlement core: one resolver+gate shared by the UI endpoint and all
	// server-side checks, so both sides gate identically
	tierCache := cache.NewTTL[models.Tier](a.cfg.TierCacheTTL)
	resolver := entitlements.NewResolver(a.store, tierCache)
	gate := entitlements.NewGate(resolver)

	dispatcher := notify.NewDispatcher(a.store, a.emailService())

	usvc := service.NewUserService(a.store)
	msvc := service.NewMembershipService(a.store, a.store, resolver, dispatcher, a.cfg.FrontendBaseURL)
	esvc := service.NewEvaluationService(a.store, a.store, gate, dispatcher, a.cfg.FrontendBaseURL)
	asvc := service.NewApplicationService(a.store, usvc, dispatcher, a.cfg.FrontendBaseURL, a.cfg.SetupTokenTTL, utils.RandomToken)

	authH := NewAuthHandler(a.cfg, usvc, ss)
	userH := NewUserHandler(ss, storage, a.cfg)
	memberH := NewMembershipHandler(msvc, resolver, gate)
	evalH := NewEvaluationHandler(esvc, storage, a.cfg)
	appH := NewApplicationHandler(asvc)
	notifH := NewNotificationHandler(ss)
	adminH := NewAdminHandler(ss, asvc, esvc, msvc)

	r := a.router
	// auth routes
	r.Route("/auth", func(r chi.Router) {
		r.Options("/*", func(w http.ResponseWriter, r *http.Request) {})
		r.Post("/signup", authH.Signup)
		r.Post("/login", authH.Login)
		r.Post("/logout", authH.Logout)
		r.Post("/refresh", authH.Refresh)
		r.Post("/google", authH.GoogleSignIn)
		r.Post("/setup-password", authH.SetupPassword)
	})

	r.Route("/users", func(r chi.Router) {
		r.Options("/*", func(w http.ResponseWriter, r *http.Request) {})
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(a.store))
			r.Get("/", userH.ListUsers)
			r.Get("/me", userH.GetSelfProfile)
			r.Post("/reset-password", userH.ResetOwnPassword)
			r.Get("/{id}", userH.GetUser)
			r.Put("/{id}", userH.UpdateUser)
			r.Post("/{id}/profile-picture", userH.UploadProfilePicture)
		})
	})

	r.Route("/memberships", func(r chi.Router) {
		r.Options("/*", func(w http.ResponseWriter, r *http.Request) {})
		r.With(auth.AuthMiddleware(a.store)).Get("/me", memberH.GetOwnMembership)
	})

	r.Route("/features", func(r chi.Router) {
		r.Options("/*", func(w http.ResponseWriter, r *http.Request) {})
		r.Get("/", memberH.ListFeatures)
		r.With(auth.AuthMiddleware(a.store)).Get("/{key}/access", memberH.CheckFeatureAccess)
	})

	// payment provider webhooks (unauthenticated; provider-signed upstream)
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/payments", memberH.PaymentWebhook)
	})

	r.Route("/evaluations", func(r chi.Router) {
		r.Options("/*", func(w http.ResponseWriter, r *http.Request) {})
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(a.store))
			r.Post("/", evalH.Purchase)
			r.Get("/", evalH.List)
			r.With(auth.RoleMiddleware(models.RoleCoach, models.RoleAdmin)).Get("/queue", evalH.Queue)
			r.Get("/{id}", evalH.Get)
			r.Get("/{id}/report", evalH.ReportURL)
			r.With(auth.RoleMiddleware(models.RoleCoach)).Post("/{id}/claim", evalH.Claim)
			r.With(auth.RoleMiddleware(models.RoleCoach)).Post("/{id}/complete", evalH.Complete)
		})
	})

	// public coach application form
	r.Route("/applications", func(r chi.Router) {
		r.Options("/*", func(w http.ResponseWriter, r *http.Request) {})
		r.Post("/", appH.Submit)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Options("/*", func(w http.ResponseWriter, r *http.Request) {})
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(a.store))
			r.Get("/", notifH.List)
			r.Post("/{id}/dismiss", notifH.Dismiss)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Options("/*", func(w http.ResponseWriter, r *http.Request) {})

		// All admin routes require authentication and admin role
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(a.store))
			r.Use(auth.RoleMiddleware(models.RoleAdmin))

			// Dashboard data - get all data in one call
			r.Get("/dashboard", adminH.GetAdminDashboard)

			// Coach applications
			r.Get("/applications", appH.List)
			r.Post("/applications/{id}/approve", appH.Approve)
			r.Post("/applications/{id}/reject", appH.Reject)

			// User management
			r.Put("/user/{id}", adminH.UpdateUserStatus)
			r.Get("/users", adminH.ListAllUsers)
			r.Post("/relations", adminH.LinkParent)

			// Scheduled job entry points (cron invoker)
			r.Post("/jobs/renewal-reminders", adminH.RunRenewalReminders)
			r.Post("/jobs/expire-memberships", adminH.RunExpireMemberships)
			r.Post("/jobs/staleness-check", adminH.RunStalenessCheck)
			r.Post("/jobs/reconcile-orphans", adminH.RunReconcileOrphans)
			r.Post("/jobs/purge-tokens", adminH.RunPurgeTokens)
		})
	})

	r.Route("/health", func(r chi.Router) {
		r.Options("/*", func(w http.ResponseWriter, r *http.Request) {})
		r.Get("/", HealthHandler(a.store))
	})
}
