// internal/app/features/faqs/faqs.go
package faqs

import (
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	faqstore "github.com/dalemusser/stratacampus/internal/app/store/faq"
	"github.com/dalemusser/stratacampus/internal/app/store/storeutil"
	"github.com/dalemusser/stratacampus/internal/app/system/auditlog"
	"github.com/dalemusser/stratacampus/internal/app/system/auth"
	"github.com/dalemusser/stratacampus/internal/app/system/catalogcache"
	"github.com/dalemusser/stratacampus/internal/app/system/flash"
	"github.com/dalemusser/stratacampus/internal/app/system/inputval"
	"github.com/dalemusser/stratacampus/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides FAQ management handlers.
type Handler struct {
	faqStore    *faqstore.Store
	errLog      *errorsfeature.ErrorLogger
	auditLogger *auditlog.Logger
	flashStash  *flash.Stash
	cache       *catalogcache.Cache
	logger      *zap.Logger
}

// NewHandler creates a new FAQ Handler.
func NewHandler(
	db *mongo.Database,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	flashStash *flash.Stash,
	cache *catalogcache.Cache,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		faqStore:    faqstore.New(db),
		errLog:      errLog,
		auditLogger: auditLogger,
		flashStash:  flashStash,
		cache:       cache,
		logger:      logger,
	}
}

// Routes returns a chi.Router with FAQ admin routes mounted.
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

// ListVM is the view model for the FAQ admin list.
type ListVM struct {
	viewdata.BaseVM
	ActiveSection string
	SearchQuery   string
	Entries       []faqstore.Entry
}

// FormVM is the view model for the FAQ create/edit form.
type FormVM struct {
	viewdata.BaseVM
	ActiveSection string
	IsNew         bool
	Entry         faqstore.Entry
	IDHex         string
	StepsText     string
	KeywordsText  string
	Categories    []faqstore.Category
	FormError     string
}

// DeleteVM is the view model for the FAQ delete confirmation page.
type DeleteVM struct {
	viewdata.BaseVM
	ActiveSection string
	Entry         faqstore.Entry
	IDHex         string
}

// faqForm carries the validated form fields.
type faqForm struct {
	Question  string `validate:"required" label:"Question"`
	Category  string `validate:"required" label:"Catégorie"`
	Procedure string `validate:"required" label:"Procédure"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.faqStore.List(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list faqs", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	search := strings.TrimSpace(query.Get(r, "search"))
	if search != "" {
		needle := text.Fold(search)
		filtered := entries[:0]
		for _, e := range entries {
			if strings.Contains(text.Fold(e.Question), needle) ||
				strings.Contains(text.Fold(string(e.Category)), needle) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	vm := ListVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "faqs",
		SearchQuery:   search,
		Entries:       entries,
	}
	vm.Title = "FAQ"
	templates.Render(w, r, "faqs/list", vm)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")

	entry := faqstore.Entry{Category: faqstore.CategoryAdmission}
	if idHex != "" {
		id, err := storeutil.ParseID(idHex)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		found, err := h.faqStore.GetByID(r.Context(), id)
		if err != nil {
			if storeutil.IsNotFound(err) {
				http.NotFound(w, r)
				return
			}
			h.errLog.Log(r, "failed to load faq", err)
			http.Error(w, "Erreur serveur", http.StatusInternalServerError)
			return
		}
		entry = *found
	}

	h.renderForm(w, r, idHex, entry, "")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, idHex string, entry faqstore.Entry, formError string) {
	vm := FormVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "faqs",
		IsNew:         idHex == "",
		Entry:         entry,
		IDHex:         idHex,
		StepsText:     inputval.JoinLines(entry.Steps),
		KeywordsText:  inputval.JoinLines(entry.Keywords),
		Categories:    faqstore.Categories(),
		FormError:     formError,
	}
	if vm.IsNew {
		vm.Title = "Nouvelle FAQ"
	} else {
		vm.Title = "Modifier la FAQ"
	}
	templates.Render(w, r, "faqs/form", vm)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulaire invalide", http.StatusBadRequest)
		return
	}
	idHex := chi.URLParam(r, "id")

	entry := faqstore.Entry{
		Question:  strings.TrimSpace(r.FormValue("question")),
		Category:  faqstore.Category(r.FormValue("category")),
		Procedure: strings.TrimSpace(r.FormValue("procedure")),
		Service:   strings.TrimSpace(r.FormValue("service")),
		Location:  strings.TrimSpace(r.FormValue("location")),
		Timing:    strings.TrimSpace(r.FormValue("timing")),
		Steps:     inputval.Lines(r.FormValue("steps")),
		Keywords:  inputval.Lines(r.FormValue("keywords")),
		Contact:   strings.TrimSpace(r.FormValue("contact")),
	}

	form := faqForm{
		Question:  entry.Question,
		Category:  string(entry.Category),
		Procedure: entry.Procedure,
	}
	if result := inputval.Validate(form); result.HasErrors() {
		h.renderForm(w, r, idHex, entry, result.First())
		return
	}
	if !entry.Category.Valid() {
		h.renderForm(w, r, idHex, entry, "Catégorie inconnue.")
		return
	}

	id, created, err := h.faqStore.Save(r.Context(), idHex, entry)
	if err != nil {
		h.errLog.Log(r, "failed to save faq", err)
		h.renderForm(w, r, idHex, entry, "Échec de l'enregistrement. Veuillez réessayer.")
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		if created {
			h.auditLogger.ContentCreated(r.Context(), r, user.UserID(), faqstore.Collection, id.Hex())
		} else {
			h.auditLogger.ContentUpdated(r.Context(), r, user.UserID(), faqstore.Collection, id.Hex())
		}
	}
	h.cache.Invalidate(faqstore.Collection)

	h.flashStash.Success(w, r, "FAQ enregistrée.")
	http.Redirect(w, r, "/admin/faqs", http.StatusSeeOther)
}

func (h *Handler) showDelete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	entry, err := h.faqStore.GetByID(r.Context(), id)
	if err != nil {
		if storeutil.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.errLog.Log(r, "failed to load faq", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	vm := DeleteVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "faqs",
		Entry:         *entry,
		IDHex:         idHex,
	}
	vm.Title = "Supprimer la FAQ"
	templates.Render(w, r, "faqs/delete", vm)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.faqStore.Delete(r.Context(), id); err != nil {
		h.errLog.Log(r, "failed to delete faq", err)
		h.flashStash.Error(w, r, "Échec de la suppression.")
		http.Redirect(w, r, "/admin/faqs", http.StatusSeeOther)
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		h.auditLogger.ContentDeleted(r.Context(), r, user.UserID(), faqstore.Collection, idHex)
	}
	h.cache.Invalidate(faqstore.Collection)

	h.flashStash.Success(w, r, "FAQ supprimée.")
	http.Redirect(w, r, "/admin/faqs", http.StatusSeeOther)
}
