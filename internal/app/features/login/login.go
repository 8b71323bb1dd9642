// internal/app/features/login/login.go
package login

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	"github.com/dalemusser/stratacampus/internal/app/store/ratelimit"
	userstore "github.com/dalemusser/stratacampus/internal/app/store/users"
	"github.com/dalemusser/stratacampus/internal/app/system/auditlog"
	"github.com/dalemusser/stratacampus/internal/app/system/auth"
	"github.com/dalemusser/stratacampus/internal/app/system/authutil"
	"github.com/dalemusser/stratacampus/internal/app/system/normalize"
	"github.com/dalemusser/stratacampus/internal/app/system/viewdata"
	"github.com/dalemusser/stratacampus/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides sign-in handlers.
type Handler struct {
	userStore      *userstore.Store
	rateLimitStore *ratelimit.Store // nil if rate limiting disabled
	sessionMgr     *auth.SessionManager
	errLog         *errorsfeature.ErrorLogger
	auditLogger    *auditlog.Logger
	logger         *zap.Logger
}

// NewHandler creates a new login Handler.
// rateLimitStore can be nil to disable rate limiting.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	rateLimitStore *ratelimit.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		userStore:      userstore.New(db),
		rateLimitStore: rateLimitStore,
		sessionMgr:     sessionMgr,
		errLog:         errLog,
		auditLogger:    auditLogger,
		logger:         logger,
	}
}

// LoginVM is the view model for the sign-in page.
type LoginVM struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
}

// Routes returns a chi.Router with sign-in routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.showLogin)
	r.Post("/", h.handleLogin)

	return r
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, vm LoginVM) {
	vm.Title = "Connexion"
	templates.Render(w, r, "login/index", vm)
}

// showLogin displays the sign-in page.
func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	// Already signed in - go straight to the admin panel
	if user, ok := auth.CurrentUser(r); ok && user.ID != "" {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	h.renderLogin(w, r, LoginVM{
		BaseVM:    viewdata.New(w, r),
		ReturnURL: query.Get(r, "return"),
	})
}

// handleLogin checks the email/password pair and opens a session.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.errLog.Log(r, "failed to parse form", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	password := r.FormValue("password")
	returnURL := r.FormValue("return")

	if email == "" || password == "" {
		h.renderLogin(w, r, LoginVM{
			BaseVM:    viewdata.New(w, r),
			Error:     "Veuillez saisir votre adresse e-mail et votre mot de passe.",
			Email:     email,
			ReturnURL: returnURL,
		})
		return
	}

	// Check rate limit before touching credentials
	if h.rateLimitStore != nil {
		allowed, _, lockedUntil := h.rateLimitStore.CheckAllowed(r.Context(), email)
		if !allowed {
			h.auditLogger.LoginRateLimited(r.Context(), r, email)
			h.renderLogin(w, r, LoginVM{
				BaseVM:    viewdata.New(w, r),
				Error:     lockoutMessage(lockedUntil),
				Email:     email,
				ReturnURL: returnURL,
			})
			return
		}
	}

	user, err := h.userStore.GetByEmail(r.Context(), email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			if h.rateLimitStore != nil {
				h.rateLimitStore.RecordFailure(r.Context(), email)
			}
			h.auditLogger.LoginFailedUserNotFound(r.Context(), r, email)
			h.renderLogin(w, r, LoginVM{
				BaseVM:    viewdata.New(w, r),
				Error:     "Identifiants invalides.",
				Email:     email,
				ReturnURL: returnURL,
			})
			return
		}
		h.errLog.Log(r, "database error during login lookup", err)
		h.renderLogin(w, r, LoginVM{
			BaseVM:    viewdata.New(w, r),
			Error:     "Service temporairement indisponible. Veuillez réessayer.",
			Email:     email,
			ReturnURL: returnURL,
		})
		return
	}

	if normalize.Status(user.Status) == models.StatusDisabled {
		if h.rateLimitStore != nil {
			h.rateLimitStore.RecordFailure(r.Context(), email)
		}
		h.auditLogger.LoginFailedUserDisabled(r.Context(), r, user.ID, email)
		h.renderLogin(w, r, LoginVM{
			BaseVM:    viewdata.New(w, r),
			Error:     "Ce compte est désactivé.",
			Email:     email,
			ReturnURL: returnURL,
		})
		return
	}

	if user.PasswordHash == "" || !authutil.CheckPassword(password, user.PasswordHash) {
		errorMsg := "Identifiants invalides."
		if h.rateLimitStore != nil {
			lockedOut, lockedUntil := h.rateLimitStore.RecordFailure(r.Context(), email)
			if lockedOut {
				h.auditLogger.LoginLockedOut(r.Context(), r, email)
				errorMsg = lockoutMessage(lockedUntil)
			}
		}
		if errorMsg == "Identifiants invalides." {
			h.auditLogger.LoginFailedWrongPassword(r.Context(), r, user.ID, email)
		}
		h.renderLogin(w, r, LoginVM{
			BaseVM:    viewdata.New(w, r),
			Error:     errorMsg,
			Email:     email,
			ReturnURL: returnURL,
		})
		return
	}

	if h.rateLimitStore != nil {
		h.rateLimitStore.ClearOnSuccess(r.Context(), email)
	}

	if err := h.sessionMgr.CreateSession(w, r, user.ID, user.Role, ""); err != nil {
		h.errLog.Log(r, "failed to create session", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.auditLogger.LoginSuccess(r.Context(), r, user.ID, email)
	h.logger.Info("user signed in",
		zap.String("user_id", user.ID.Hex()),
		zap.String("role", user.Role))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/admin"), http.StatusSeeOther)
}

// lockoutMessage formats the remaining lockout time for display.
func lockoutMessage(lockedUntil *time.Time) string {
	msg := "Trop de tentatives de connexion. Veuillez réessayer plus tard."
	if lockedUntil != nil {
		remaining := time.Until(*lockedUntil)
		if remaining > time.Minute {
			msg = fmt.Sprintf("Trop de tentatives de connexion. Veuillez réessayer dans %d minute(s).", int(remaining.Minutes())+1)
		} else if remaining > 0 {
			msg = fmt.Sprintf("Trop de tentatives de connexion. Veuillez réessayer dans %d seconde(s).", int(remaining.Seconds())+1)
		}
	}
	return msg
}
