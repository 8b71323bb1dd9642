// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	dashboardfeature "github.com/dalemusser/stratacampus/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	faqsfeature "github.com/dalemusser/stratacampus/internal/app/features/faqs"
	flowsfeature "github.com/dalemusser/stratacampus/internal/app/features/flows"
	healthfeature "github.com/dalemusser/stratacampus/internal/app/features/health"
	homefeature "github.com/dalemusser/stratacampus/internal/app/features/home"
	loginfeature "github.com/dalemusser/stratacampus/internal/app/features/login"
	logoutfeature "github.com/dalemusser/stratacampus/internal/app/features/logout"
	noticesfeature "github.com/dalemusser/stratacampus/internal/app/features/notices"
	partnersfeature "github.com/dalemusser/stratacampus/internal/app/features/partners"
	statisticsfeature "github.com/dalemusser/stratacampus/internal/app/features/statistics"
	teachersfeature "github.com/dalemusser/stratacampus/internal/app/features/teachers"
	testimonialsfeature "github.com/dalemusser/stratacampus/internal/app/features/testimonials"
	usersfeature "github.com/dalemusser/stratacampus/internal/app/features/users"
	appresources "github.com/dalemusser/stratacampus/internal/app/resources"
	"github.com/dalemusser/stratacampus/internal/app/store/audit"
	"github.com/dalemusser/stratacampus/internal/app/store/ratelimit"
	userstore "github.com/dalemusser/stratacampus/internal/app/store/users"
	"github.com/dalemusser/stratacampus/internal/app/system/auditlog"
	"github.com/dalemusser/stratacampus/internal/app/system/auth"
	"github.com/dalemusser/stratacampus/internal/app/system/catalogcache"
	"github.com/dalemusser/stratacampus/internal/app/system/flash"
	"github.com/dalemusser/stratacampus/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It creates the session manager, boots
// the template engine, and mounts the public pages, the sign-in routes,
// and the admin panel.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser fetches fresh user data on each request so role
	// changes and disabled accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase, logger))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// The flash stash carries the one-shot toast between the save redirect
	// and the next rendered page.
	flashStash := flash.NewStash(appCfg.SessionKey, secure, logger)
	viewdata.Init(appCfg.SiteName, flashStash)

	errLog := errorsfeature.NewErrorLogger(logger)

	auditStore := audit.New(deps.MongoDatabase)
	auditLogger := auditlog.New(auditStore, logger,
		auditlog.ConfigFromStrings(appCfg.AuditLogAuth, appCfg.AuditLogContent))

	// One shared cache instance: admin saves invalidate it, public pages
	// read through it.
	cache := catalogcache.New()

	r := chi.NewRouter()

	// Global middleware

	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(sessionMgr.LoadSessionUser)

	// CSRF protection. Cookie name is "stratacampus_csrf" to avoid
	// collisions with other services on the same domain.
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("stratacampus_csrf"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			http.Error(w, "CSRF token invalid or missing", http.StatusForbidden)
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	r.Use(csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...))

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// /assets/* serves embedded assets (bundled into the binary)
	r.Handle("/assets/*", appresources.AssetsHandler("/assets"))

	// Public pages
	homeHandler := homefeature.NewHandler(deps.MongoDatabase, errLog, cache, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	var rateLimitStore *ratelimit.Store
	if appCfg.RateLimitEnabled {
		rateLimitStore = ratelimit.New(
			deps.MongoDatabase,
			appCfg.RateLimitLoginAttempts,
			appCfg.RateLimitLoginWindow,
			appCfg.RateLimitLoginLockout,
		)
	}

	loginHandler := loginfeature.NewHandler(
		deps.MongoDatabase,
		sessionMgr,
		errLog,
		auditLogger,
		rateLimitStore,
		logger,
	)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLogger, cache, flashStash, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Admin panel
	dashboardHandler := dashboardfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(sessionMgr.RequireRole("admin", "staff"))
		ar.Mount("/", dashboardfeature.Routes(dashboardHandler, sessionMgr))
	})

	faqsHandler := faqsfeature.NewHandler(deps.MongoDatabase, errLog, auditLogger, flashStash, cache, logger)
	r.Mount("/admin/faqs", faqsfeature.Routes(faqsHandler, sessionMgr))

	flowsHandler := flowsfeature.NewHandler(deps.MongoDatabase, errLog, auditLogger, flashStash, cache, logger)
	r.Mount("/admin/parcours", flowsfeature.Routes(flowsHandler, sessionMgr))

	noticesHandler := noticesfeature.NewHandler(deps.MongoDatabase, errLog, auditLogger, flashStash, cache, logger)
	r.Mount("/admin/annonces", noticesfeature.Routes(noticesHandler, sessionMgr))

	statisticsHandler := statisticsfeature.NewHandler(deps.MongoDatabase, errLog, auditLogger, flashStash, cache, logger)
	r.Mount("/admin/statistiques", statisticsfeature.Routes(statisticsHandler, sessionMgr))

	teachersHandler := teachersfeature.NewHandler(deps.MongoDatabase, errLog, auditLogger, flashStash, cache, logger)
	r.Mount("/admin/enseignants", teachersfeature.Routes(teachersHandler, sessionMgr))

	partnersHandler := partnersfeature.NewHandler(deps.MongoDatabase, errLog, auditLogger, flashStash, cache, logger)
	r.Mount("/admin/partenaires", partnersfeature.Routes(partnersHandler, sessionMgr))

	testimonialsHandler := testimonialsfeature.NewHandler(deps.MongoDatabase, errLog, auditLogger, flashStash, cache, logger)
	r.Mount("/admin/temoignages", testimonialsfeature.Routes(testimonialsHandler, sessionMgr))

	// Staff accounts (admin only)
	usersHandler := usersfeature.NewHandler(deps.MongoDatabase, errLog, auditLogger, flashStash, logger)
	r.Mount("/admin/utilisateurs", usersfeature.Routes(usersHandler, sessionMgr))

	// Audit trail (admin only)
	activityHandler := dashboardfeature.NewActivityHandler(deps.MongoDatabase, logger)
	r.Mount("/admin/activite", dashboardfeature.ActivityRoutes(activityHandler, sessionMgr))

	// 404 catch-all for unmatched routes
	r.NotFound(errorsHandler.NotFound)

	return r, nil
}
