// internal/app/features/teachers/teachers.go
package teachers

import (
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	"github.com/dalemusser/stratacampus/internal/app/store/storeutil"
	teacherstore "github.com/dalemusser/stratacampus/internal/app/store/teacher"
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

// Handler provides teaching-staff management handlers.
type Handler struct {
	teacherStore *teacherstore.Store
	errLog       *errorsfeature.ErrorLogger
	auditLogger  *auditlog.Logger
	flashStash   *flash.Stash
	cache        *catalogcache.Cache
	logger       *zap.Logger
}

// NewHandler creates a new teaching-staff Handler.
func NewHandler(
	db *mongo.Database,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	flashStash *flash.Stash,
	cache *catalogcache.Cache,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		teacherStore: teacherstore.New(db),
		errLog:       errLog,
		auditLogger:  auditLogger,
		flashStash:   flashStash,
		cache:        cache,
		logger:       logger,
	}
}

// Routes returns a chi.Router with teaching-staff admin routes mounted.
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

// ListVM is the view model for the teaching-staff admin list.
type ListVM struct {
	viewdata.BaseVM
	ActiveSection string
	SearchQuery   string
	Department    string
	Departments   []teacherstore.Department
	Teachers      []teacherstore.Teacher
}

// FormVM is the view model for the teacher create/edit form.
type FormVM struct {
	viewdata.BaseVM
	ActiveSection string
	IsNew         bool
	Teacher       teacherstore.Teacher
	IDHex         string
	Departments   []teacherstore.Department
	FormError     string
}

// teacherForm carries the validated form fields.
type teacherForm struct {
	Name string `validate:"required" label:"Nom"`
}

// DeleteVM is the view model for the teacher delete confirmation page.
type DeleteVM struct {
	viewdata.BaseVM
	ActiveSection string
	Teacher       teacherstore.Teacher
	IDHex         string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.teacherStore.List(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list teachers", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	dept := query.Get(r, "departement")
	if teacherstore.Department(dept).Valid() {
		filtered := teachers[:0]
		for _, t := range teachers {
			if string(t.DepartmentID) == dept {
				filtered = append(filtered, t)
			}
		}
		teachers = filtered
	} else {
		dept = ""
	}

	search := strings.TrimSpace(query.Get(r, "search"))
	if search != "" {
		needle := text.Fold(search)
		filtered := teachers[:0]
		for _, t := range teachers {
			if strings.Contains(text.Fold(t.Name), needle) ||
				strings.Contains(text.Fold(t.Courses), needle) {
				filtered = append(filtered, t)
			}
		}
		teachers = filtered
	}

	vm := ListVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "enseignants",
		SearchQuery:   search,
		Department:    dept,
		Departments:   teacherstore.Departments(),
		Teachers:      teachers,
	}
	vm.Title = "Enseignants"
	templates.Render(w, r, "teachers/list", vm)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")

	t := teacherstore.Teacher{DepartmentID: teacherstore.DeptInfo}
	if idHex != "" {
		id, err := storeutil.ParseID(idHex)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		found, err := h.teacherStore.GetByID(r.Context(), id)
		if err != nil {
			if storeutil.IsNotFound(err) {
				http.NotFound(w, r)
				return
			}
			h.errLog.Log(r, "failed to load teacher", err)
			http.Error(w, "Erreur serveur", http.StatusInternalServerError)
			return
		}
		t = *found
	}

	h.renderForm(w, r, idHex, t, "")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, idHex string, t teacherstore.Teacher, formError string) {
	vm := FormVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "enseignants",
		IsNew:         idHex == "",
		Teacher:       t,
		IDHex:         idHex,
		Departments:   teacherstore.Departments(),
		FormError:     formError,
	}
	if vm.IsNew {
		vm.Title = "Nouvel enseignant"
	} else {
		vm.Title = "Modifier l'enseignant"
	}
	templates.Render(w, r, "teachers/form", vm)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulaire invalide", http.StatusBadRequest)
		return
	}
	idHex := chi.URLParam(r, "id")

	t := teacherstore.Teacher{
		Name:         strings.TrimSpace(r.FormValue("name")),
		Role:         strings.TrimSpace(r.FormValue("role")),
		Courses:      strings.TrimSpace(r.FormValue("courses")),
		DepartmentID: teacherstore.Department(r.FormValue("department")),
		IsDirector:   r.FormValue("is_director") == "on",
	}

	form := teacherForm{Name: t.Name}
	if result := inputval.Validate(form); result.HasErrors() {
		h.renderForm(w, r, idHex, t, result.First())
		return
	}
	if !t.DepartmentID.Valid() {
		h.renderForm(w, r, idHex, t, "Département inconnu.")
		return
	}

	id, created, err := h.teacherStore.Save(r.Context(), idHex, t)
	if err != nil {
		h.errLog.Log(r, "failed to save teacher", err)
		h.renderForm(w, r, idHex, t, "Échec de l'enregistrement. Veuillez réessayer.")
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		if created {
			h.auditLogger.ContentCreated(r.Context(), r, user.UserID(), teacherstore.Collection, id.Hex())
		} else {
			h.auditLogger.ContentUpdated(r.Context(), r, user.UserID(), teacherstore.Collection, id.Hex())
		}
	}
	h.cache.Invalidate(teacherstore.Collection)

	h.flashStash.Success(w, r, "Enseignant enregistré.")
	http.Redirect(w, r, "/admin/enseignants", http.StatusSeeOther)
}

func (h *Handler) showDelete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	t, err := h.teacherStore.GetByID(r.Context(), id)
	if err != nil {
		if storeutil.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.errLog.Log(r, "failed to load teacher", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	vm := DeleteVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "enseignants",
		Teacher:       *t,
		IDHex:         idHex,
	}
	vm.Title = "Supprimer l'enseignant"
	templates.Render(w, r, "teachers/delete", vm)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.teacherStore.Delete(r.Context(), id); err != nil {
		h.errLog.Log(r, "failed to delete teacher", err)
		h.flashStash.Error(w, r, "Échec de la suppression.")
		http.Redirect(w, r, "/admin/enseignants", http.StatusSeeOther)
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		h.auditLogger.ContentDeleted(r.Context(), r, user.UserID(), teacherstore.Collection, idHex)
	}
	h.cache.Invalidate(teacherstore.Collection)

	h.flashStash.Success(w, r, "Enseignant supprimé.")
	http.Redirect(w, r, "/admin/enseignants", http.StatusSeeOther)
}
