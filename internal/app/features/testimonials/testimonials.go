// internal/app/features/testimonials/testimonials.go
package testimonials

import (
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	"github.com/dalemusser/stratacampus/internal/app/store/storeutil"
	testimonialstore "github.com/dalemusser/stratacampus/internal/app/store/testimonial"
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

// Handler provides alumni-testimonial management handlers.
type Handler struct {
	testimonialStore *testimonialstore.Store
	errLog           *errorsfeature.ErrorLogger
	auditLogger      *auditlog.Logger
	flashStash       *flash.Stash
	cache            *catalogcache.Cache
	logger           *zap.Logger
}

// NewHandler creates a new testimonial Handler.
func NewHandler(
	db *mongo.Database,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	flashStash *flash.Stash,
	cache *catalogcache.Cache,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		testimonialStore: testimonialstore.New(db),
		errLog:           errLog,
		auditLogger:      auditLogger,
		flashStash:       flashStash,
		cache:            cache,
		logger:           logger,
	}
}

// Routes returns a chi.Router with testimonial admin routes mounted.
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

// ListVM is the view model for the testimonial admin list.
type ListVM struct {
	viewdata.BaseVM
	ActiveSection string
	Testimonials  []testimonialstore.Testimonial
}

// FormVM is the view model for the testimonial create/edit form.
type FormVM struct {
	viewdata.BaseVM
	ActiveSection string
	IsNew         bool
	Testimonial   testimonialstore.Testimonial
	IDHex         string
	FormError     string
}

// testimonialForm carries the validated form fields.
type testimonialForm struct {
	Name string `validate:"required" label:"Nom"`
	Text string `validate:"required" label:"Témoignage"`
}

// DeleteVM is the view model for the testimonial delete confirmation page.
type DeleteVM struct {
	viewdata.BaseVM
	ActiveSection string
	Testimonial   testimonialstore.Testimonial
	IDHex         string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	testimonials, err := h.testimonialStore.List(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list testimonials", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	vm := ListVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "temoignages",
		Testimonials:  testimonials,
	}
	vm.Title = "Témoignages"
	templates.Render(w, r, "testimonials/list", vm)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")

	var tm testimonialstore.Testimonial
	if idHex != "" {
		id, err := storeutil.ParseID(idHex)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		found, err := h.testimonialStore.GetByID(r.Context(), id)
		if err != nil {
			if storeutil.IsNotFound(err) {
				http.NotFound(w, r)
				return
			}
			h.errLog.Log(r, "failed to load testimonial", err)
			http.Error(w, "Erreur serveur", http.StatusInternalServerError)
			return
		}
		tm = *found
	}

	h.renderForm(w, r, idHex, tm, "")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, idHex string, tm testimonialstore.Testimonial, formError string) {
	vm := FormVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "temoignages",
		IsNew:         idHex == "",
		Testimonial:   tm,
		IDHex:         idHex,
		FormError:     formError,
	}
	if vm.IsNew {
		vm.Title = "Nouveau témoignage"
	} else {
		vm.Title = "Modifier le témoignage"
	}
	templates.Render(w, r, "testimonials/form", vm)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulaire invalide", http.StatusBadRequest)
		return
	}
	idHex := chi.URLParam(r, "id")

	tm := testimonialstore.Testimonial{
		Name:  strings.TrimSpace(r.FormValue("name")),
		Promo: strings.TrimSpace(r.FormValue("promo")),
		Role:  strings.TrimSpace(r.FormValue("role")),
		Text:  strings.TrimSpace(r.FormValue("text")),
	}

	form := testimonialForm{Name: tm.Name, Text: tm.Text}
	if result := inputval.Validate(form); result.HasErrors() {
		h.renderForm(w, r, idHex, tm, result.First())
		return
	}

	id, created, err := h.testimonialStore.Save(r.Context(), idHex, tm)
	if err != nil {
		h.errLog.Log(r, "failed to save testimonial", err)
		h.renderForm(w, r, idHex, tm, "Échec de l'enregistrement. Veuillez réessayer.")
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		if created {
			h.auditLogger.ContentCreated(r.Context(), r, user.UserID(), testimonialstore.Collection, id.Hex())
		} else {
			h.auditLogger.ContentUpdated(r.Context(), r, user.UserID(), testimonialstore.Collection, id.Hex())
		}
	}
	h.cache.Invalidate(testimonialstore.Collection)

	h.flashStash.Success(w, r, "Témoignage enregistré.")
	http.Redirect(w, r, "/admin/temoignages", http.StatusSeeOther)
}

func (h *Handler) showDelete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	tm, err := h.testimonialStore.GetByID(r.Context(), id)
	if err != nil {
		if storeutil.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.errLog.Log(r, "failed to load testimonial", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	vm := DeleteVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "temoignages",
		Testimonial:   *tm,
		IDHex:         idHex,
	}
	vm.Title = "Supprimer le témoignage"
	templates.Render(w, r, "testimonials/delete", vm)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.testimonialStore.Delete(r.Context(), id); err != nil {
		h.errLog.Log(r, "failed to delete testimonial", err)
		h.flashStash.Error(w, r, "Échec de la suppression.")
		http.Redirect(w, r, "/admin/temoignages", http.StatusSeeOther)
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		h.auditLogger.ContentDeleted(r.Context(), r, user.UserID(), testimonialstore.Collection, idHex)
	}
	h.cache.Invalidate(testimonialstore.Collection)

	h.flashStash.Success(w, r, "Témoignage supprimé.")
	http.Redirect(w, r, "/admin/temoignages", http.StatusSeeOther)
}
