// internal/app/features/partners/partners.go
package partners

import (
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	partnerstore "github.com/dalemusser/stratacampus/internal/app/store/partner"
	"github.com/dalemusser/stratacampus/internal/app/store/storeutil"
	"github.com/dalemusser/stratacampus/internal/app/system/auditlog"
	"github.com/dalemusser/stratacampus/internal/app/system/auth"
	"github.com/dalemusser/stratacampus/internal/app/system/catalogcache"
	"github.com/dalemusser/stratacampus/internal/app/system/flash"
	"github.com/dalemusser/stratacampus/internal/app/system/inputval"
	"github.com/dalemusser/stratacampus/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides partner-organization management handlers.
type Handler struct {
	partnerStore *partnerstore.Store
	errLog       *errorsfeature.ErrorLogger
	auditLogger  *auditlog.Logger
	flashStash   *flash.Stash
	cache        *catalogcache.Cache
	logger       *zap.Logger
}

// NewHandler creates a new partner Handler.
func NewHandler(
	db *mongo.Database,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	flashStash *flash.Stash,
	cache *catalogcache.Cache,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		partnerStore: partnerstore.New(db),
		errLog:       errLog,
		auditLogger:  auditLogger,
		flashStash:   flashStash,
		cache:        cache,
		logger:       logger,
	}
}

// Routes returns a chi.Router with partner admin routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole("admin", "staff"))

	r.Get("/", h.list)
	r.Get("/new", h.showForm)
	r.Post("/new", h.save)
	r.Get("/{id}/edit", h.showForm)
	r.Post("/{id}", h.save)
	r.Get("/{id}/delete", h.showDelete)
	r.Post("/{id}/delete", h.delete)

	return r
}

// ListVM is the view model for the partner admin list.
type ListVM struct {
	viewdata.BaseVM
	ActiveSection string
	Partners      []partnerstore.Partner
}

// FormVM is the view model for the partner create/edit form.
type FormVM struct {
	viewdata.BaseVM
	ActiveSection string
	IsNew         bool
	Partner       partnerstore.Partner
	IDHex         string
	Types         []partnerstore.Type
	FormError     string
}

// partnerForm carries the validated form fields.
type partnerForm struct {
	Name    string `validate:"required" label:"Nom"`
	Website string `validate:"omitempty,httpurl" label:"Site web"`
}

// DeleteVM is the view model for the partner delete confirmation page.
type DeleteVM struct {
	viewdata.BaseVM
	ActiveSection string
	Partner       partnerstore.Partner
	IDHex         string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	partners, err := h.partnerStore.List(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list partners", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	vm := ListVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "partenaires",
		Partners:      partners,
	}
	vm.Title = "Partenaires"
	templates.Render(w, r, "partners/list", vm)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")

	p := partnerstore.Partner{Type: partnerstore.TypeEntreprise}
	if idHex != "" {
		id, err := storeutil.ParseID(idHex)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		found, err := h.partnerStore.GetByID(r.Context(), id)
		if err != nil {
			if storeutil.IsNotFound(err) {
				http.NotFound(w, r)
				return
			}
			h.errLog.Log(r, "failed to load partner", err)
			http.Error(w, "Erreur serveur", http.StatusInternalServerError)
			return
		}
		p = *found
	}

	h.renderForm(w, r, idHex, p, "")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, idHex string, p partnerstore.Partner, formError string) {
	vm := FormVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "partenaires",
		IsNew:         idHex == "",
		Partner:       p,
		IDHex:         idHex,
		Types:         partnerstore.Types(),
		FormError:     formError,
	}
	if vm.IsNew {
		vm.Title = "Nouveau partenaire"
	} else {
		vm.Title = "Modifier le partenaire"
	}
	templates.Render(w, r, "partners/form", vm)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulaire invalide", http.StatusBadRequest)
		return
	}
	idHex := chi.URLParam(r, "id")

	p := partnerstore.Partner{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Type:        partnerstore.Type(r.FormValue("type")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Website:     strings.TrimSpace(r.FormValue("website")),
	}

	form := partnerForm{Name: p.Name, Website: p.Website}
	if result := inputval.Validate(form); result.HasErrors() {
		h.renderForm(w, r, idHex, p, result.First())
		return
	}
	if !p.Type.Valid() {
		h.renderForm(w, r, idHex, p, "Type de partenaire inconnu.")
		return
	}

	id, created, err := h.partnerStore.Save(r.Context(), idHex, p)
	if err != nil {
		h.errLog.Log(r, "failed to save partner", err)
		h.renderForm(w, r, idHex, p, "Échec de l'enregistrement. Veuillez réessayer.")
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		if created {
			h.auditLogger.ContentCreated(r.Context(), r, user.UserID(), partnerstore.Collection, id.Hex())
		} else {
			h.auditLogger.ContentUpdated(r.Context(), r, user.UserID(), partnerstore.Collection, id.Hex())
		}
	}
	h.cache.Invalidate(partnerstore.Collection)

	h.flashStash.Success(w, r, "Partenaire enregistré.")
	http.Redirect(w, r, "/admin/partenaires", http.StatusSeeOther)
}

func (h *Handler) showDelete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	p, err := h.partnerStore.GetByID(r.Context(), id)
	if err != nil {
		if storeutil.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.errLog.Log(r, "failed to load partner", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	vm := DeleteVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "partenaires",
		Partner:       *p,
		IDHex:         idHex,
	}
	vm.Title = "Supprimer le partenaire"
	templates.Render(w, r, "partners/delete", vm)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.partnerStore.Delete(r.Context(), id); err != nil {
		h.errLog.Log(r, "failed to delete partner", err)
		h.flashStash.Error(w, r, "Échec de la suppression.")
		http.Redirect(w, r, "/admin/partenaires", http.StatusSeeOther)
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		h.auditLogger.ContentDeleted(r.Context(), r, user.UserID(), partnerstore.Collection, idHex)
	}
	h.cache.Invalidate(partnerstore.Collection)

	h.flashStash.Success(w, r, "Partenaire supprimé.")
	http.Redirect(w, r, "/admin/partenaires", http.StatusSeeOther)
}
