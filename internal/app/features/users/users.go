// internal/app/features/users/users.go
package users

import (
	"errors"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	userstore "github.com/dalemusser/stratacampus/internal/app/store/users"
	"github.com/dalemusser/stratacampus/internal/app/system/auditlog"
	"github.com/dalemusser/stratacampus/internal/app/system/auth"
	"github.com/dalemusser/stratacampus/internal/app/system/authutil"
	"github.com/dalemusser/stratacampus/internal/app/system/flash"
	"github.com/dalemusser/stratacampus/internal/app/system/inputval"
	"github.com/dalemusser/stratacampus/internal/app/system/normalize"
	"github.com/dalemusser/stratacampus/internal/app/system/viewdata"
	"github.com/dalemusser/stratacampus/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides staff-account management handlers. The whole surface
// is admin-only.
type Handler struct {
	userStore   *userstore.Store
	errLog      *errorsfeature.ErrorLogger
	auditLogger *auditlog.Logger
	flashStash  *flash.Stash
	logger      *zap.Logger
}

// NewHandler creates a new staff-account Handler.
func NewHandler(
	db *mongo.Database,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	flashStash *flash.Stash,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		userStore:   userstore.New(db),
		errLog:      errLog,
		auditLogger: auditLogger,
		flashStash:  flashStash,
		logger:      logger,
	}
}

// Routes returns a chi.Router with staff-account routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole("admin"))

	r.Get("/", h.list)
	r.Get("/new", h.showNew)
	r.Post("/new", h.create)
	r.Get("/{id}/edit", h.showEdit)
	r.Post("/{id}", h.update)
	r.Post("/{id}/disable", h.disable)
	r.Post("/{id}/enable", h.enable)
	r.Post("/{id}/delete", h.delete)

	return r
}

// ListVM is the view model for the staff-account list.
type ListVM struct {
	viewdata.BaseVM
	ActiveSection string
	Users         []models.User
	SelfID        string
}

// FormVM is the view model for the create/edit form.
type FormVM struct {
	viewdata.BaseVM
	ActiveSection string
	IsNew         bool
	IDHex         string
	FullName      string
	FormEmail     string
	FormRole      string
	Roles         []string
	PasswordRules string
	FormError     string
}

// accountForm carries the validated account fields.
type accountForm struct {
	FullName string `validate:"required" label:"Nom complet"`
	Email    string `validate:"required,email" label:"Adresse e-mail"`
	Role     string `validate:"required,oneof=admin staff" label:"Rôle"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.userStore.ListAll(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list users", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	vm := ListVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "utilisateurs",
		Users:         accounts,
	}
	if user, ok := auth.CurrentUser(r); ok {
		vm.SelfID = user.ID
	}
	vm.Title = "Utilisateurs"
	templates.Render(w, r, "users/list", vm)
}

func (h *Handler) showNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, FormVM{IsNew: true, FormRole: models.RoleStaff}, "")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, vm FormVM, formError string) {
	vm.BaseVM = viewdata.New(w, r)
	vm.ActiveSection = "utilisateurs"
	vm.Roles = models.AllRoles()
	vm.PasswordRules = authutil.PasswordRules()
	vm.FormError = formError
	if vm.IsNew {
		vm.Title = "Nouvel utilisateur"
	} else {
		vm.Title = "Modifier l'utilisateur"
	}
	templates.Render(w, r, "users/form", vm)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulaire invalide", http.StatusBadRequest)
		return
	}

	form := accountForm{
		FullName: strings.TrimSpace(r.FormValue("full_name")),
		Email:    normalize.Email(r.FormValue("email")),
		Role:     normalize.Role(r.FormValue("role")),
	}
	password := r.FormValue("password")

	vm := FormVM{
		IsNew:     true,
		FullName:  form.FullName,
		FormEmail: form.Email,
		FormRole:  form.Role,
	}

	if result := inputval.Validate(form); result.HasErrors() {
		h.renderForm(w, r, vm, result.First())
		return
	}
	if err := authutil.ValidatePassword(password); err != nil {
		h.renderForm(w, r, vm, err.Error())
		return
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		h.errLog.Log(r, "failed to hash password", err)
		h.renderForm(w, r, vm, "Échec de l'enregistrement. Veuillez réessayer.")
		return
	}

	created, err := h.userStore.Create(r.Context(), models.User{
		FullName:     form.FullName,
		Email:        form.Email,
		PasswordHash: hash,
		Role:         form.Role,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			h.renderForm(w, r, vm, "Un compte existe déjà avec cette adresse.")
			return
		}
		h.errLog.Log(r, "failed to create user", err)
		h.renderForm(w, r, vm, "Échec de l'enregistrement. Veuillez réessayer.")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.auditLogger.ContentCreated(r.Context(), r, actor.UserID(), "users", created.ID.Hex())
	}

	h.flashStash.Success(w, r, "Utilisateur créé.")
	http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	h.renderForm(w, r, FormVM{
		IDHex:     u.ID.Hex(),
		FullName:  u.FullName,
		FormEmail: u.Email,
		FormRole:  u.Role,
	}, "")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulaire invalide", http.StatusBadRequest)
		return
	}
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	form := accountForm{
		FullName: strings.TrimSpace(r.FormValue("full_name")),
		Email:    normalize.Email(r.FormValue("email")),
		Role:     normalize.Role(r.FormValue("role")),
	}
	vm := FormVM{
		IDHex:     u.ID.Hex(),
		FullName:  form.FullName,
		FormEmail: form.Email,
		FormRole:  form.Role,
	}

	if result := inputval.Validate(form); result.HasErrors() {
		h.renderForm(w, r, vm, result.First())
		return
	}

	// Demoting the last active admin would lock everyone out.
	if u.Role == models.RoleAdmin && form.Role != models.RoleAdmin {
		if locked, err := h.isLastActiveAdmin(r, u); err != nil {
			h.errLog.Log(r, "failed to count admins", err)
			h.renderForm(w, r, vm, "Échec de l'enregistrement. Veuillez réessayer.")
			return
		} else if locked {
			h.renderForm(w, r, vm, "Impossible de rétrograder le dernier administrateur actif.")
			return
		}
	}

	if err := h.userStore.Update(r.Context(), u.ID, form.FullName, form.Email); err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			h.renderForm(w, r, vm, "Un compte existe déjà avec cette adresse.")
			return
		}
		h.errLog.Log(r, "failed to update user", err)
		h.renderForm(w, r, vm, "Échec de l'enregistrement. Veuillez réessayer.")
		return
	}
	if form.Role != u.Role {
		if err := h.userStore.SetRole(r.Context(), u.ID, form.Role); err != nil {
			h.errLog.Log(r, "failed to change role", err)
			h.renderForm(w, r, vm, "Échec de l'enregistrement. Veuillez réessayer.")
			return
		}
	}

	// Optional password reset rides along with the edit form.
	if password := r.FormValue("password"); password != "" {
		if err := authutil.ValidatePassword(password); err != nil {
			h.renderForm(w, r, vm, err.Error())
			return
		}
		hash, err := authutil.HashPassword(password)
		if err != nil {
			h.errLog.Log(r, "failed to hash password", err)
			h.renderForm(w, r, vm, "Échec de l'enregistrement. Veuillez réessayer.")
			return
		}
		if err := h.userStore.UpdatePassword(r.Context(), u.ID, hash); err != nil {
			h.errLog.Log(r, "failed to update password", err)
			h.renderForm(w, r, vm, "Échec de l'enregistrement. Veuillez réessayer.")
			return
		}
		h.auditLogger.PasswordChanged(r.Context(), r, u.ID)
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.auditLogger.ContentUpdated(r.Context(), r, actor.UserID(), "users", u.ID.Hex())
	}

	h.flashStash.Success(w, r, "Utilisateur enregistré.")
	http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
}

func (h *Handler) disable(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	actor, _ := auth.CurrentUser(r)

	if actor != nil && actor.ID == u.ID.Hex() {
		h.flashStash.Error(w, r, "Vous ne pouvez pas désactiver votre propre compte.")
		http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
		return
	}
	if u.Role == models.RoleAdmin {
		if locked, err := h.isLastActiveAdmin(r, u); err != nil {
			h.errLog.Log(r, "failed to count admins", err)
			h.flashStash.Error(w, r, "Échec de l'opération.")
			http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
			return
		} else if locked {
			h.flashStash.Error(w, r, "Impossible de désactiver le dernier administrateur actif.")
			http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
			return
		}
	}

	if err := h.userStore.SetStatus(r.Context(), u.ID, models.StatusDisabled); err != nil {
		h.errLog.Log(r, "failed to disable user", err)
		h.flashStash.Error(w, r, "Échec de l'opération.")
		http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
		return
	}

	if actor != nil {
		h.auditLogger.ContentUpdated(r.Context(), r, actor.UserID(), "users", u.ID.Hex())
	}
	h.flashStash.Success(w, r, "Compte désactivé.")
	http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
}

func (h *Handler) enable(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	if err := h.userStore.SetStatus(r.Context(), u.ID, models.StatusActive); err != nil {
		h.errLog.Log(r, "failed to enable user", err)
		h.flashStash.Error(w, r, "Échec de l'opération.")
		http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.auditLogger.ContentUpdated(r.Context(), r, actor.UserID(), "users", u.ID.Hex())
	}
	h.flashStash.Success(w, r, "Compte réactivé.")
	http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	actor, _ := auth.CurrentUser(r)

	if actor != nil && actor.ID == u.ID.Hex() {
		h.flashStash.Error(w, r, "Vous ne pouvez pas supprimer votre propre compte.")
		http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
		return
	}
	if u.Role == models.RoleAdmin {
		if locked, err := h.isLastActiveAdmin(r, u); err != nil {
			h.errLog.Log(r, "failed to count admins", err)
			h.flashStash.Error(w, r, "Échec de l'opération.")
			http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
			return
		} else if locked {
			h.flashStash.Error(w, r, "Impossible de supprimer le dernier administrateur actif.")
			http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
			return
		}
	}

	if err := h.userStore.Delete(r.Context(), u.ID); err != nil {
		h.errLog.Log(r, "failed to delete user", err)
		h.flashStash.Error(w, r, "Échec de l'opération.")
		http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
		return
	}

	if actor != nil {
		h.auditLogger.ContentDeleted(r.Context(), r, actor.UserID(), "users", u.ID.Hex())
	}
	h.flashStash.Success(w, r, "Compte supprimé.")
	http.Redirect(w, r, "/admin/utilisateurs", http.StatusSeeOther)
}

// loadUser resolves the {id} route parameter, writing the error response
// itself when the account cannot be loaded.
func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	u, err := h.userStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.NotFound(w, r)
			return nil, false
		}
		h.errLog.Log(r, "failed to load user", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return nil, false
	}
	return u, true
}

// isLastActiveAdmin reports whether u is the only enabled admin left.
func (h *Handler) isLastActiveAdmin(r *http.Request, u *models.User) (bool, error) {
	if normalize.Status(u.Status) == models.StatusDisabled {
		return false, nil
	}
	n, err := h.userStore.CountActiveAdmins(r.Context())
	if err != nil {
		return false, err
	}
	return n <= 1, nil
}
