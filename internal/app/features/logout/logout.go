// internal/app/features/logout/logout.go
package logout

import (
	"net/http"

	"github.com/dalemusser/stratacampus/internal/app/system/auditlog"
	"github.com/dalemusser/stratacampus/internal/app/system/auth"
	"github.com/dalemusser/stratacampus/internal/app/system/catalogcache"
	"github.com/dalemusser/stratacampus/internal/app/system/flash"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler provides sign-out handlers.
type Handler struct {
	sessionMgr  *auth.SessionManager
	auditLogger *auditlog.Logger
	cache       *catalogcache.Cache
	flashStash  *flash.Stash
	logger      *zap.Logger
}

// NewHandler creates a new logout Handler.
func NewHandler(
	sessionMgr *auth.SessionManager,
	auditLogger *auditlog.Logger,
	cache *catalogcache.Cache,
	flashStash *flash.Stash,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		sessionMgr:  sessionMgr,
		auditLogger: auditLogger,
		cache:       cache,
		flashStash:  flashStash,
		logger:      logger,
	}
}

// Routes returns a chi.Router with logout routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)
	r.Post("/", h.handleLogout)
	r.Get("/", h.handleLogout) // Allow GET for simple logout links
	return r
}

// handleLogout terminates the session and drops any cached catalog data.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := auth.CurrentUser(r); ok {
		h.auditLogger.Logout(r.Context(), r, user.UserID())
		h.logger.Info("user signed out", zap.String("user_id", user.ID))
	}

	h.sessionMgr.DestroySession(w, r)

	// An editor may have changed content during the session. Purge so the
	// public pages re-read from the database.
	if h.cache != nil {
		h.cache.Purge()
	}

	if h.flashStash != nil {
		h.flashStash.Info(w, r, "Vous êtes déconnecté.")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
