// internal/app/features/flows/flows.go
package flows

import (
	"net/http"
	"strconv"
	"strings"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	flowstore "github.com/dalemusser/stratacampus/internal/app/store/flow"
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

// Handler provides process-flow management handlers.
type Handler struct {
	flowStore   *flowstore.Store
	errLog      *errorsfeature.ErrorLogger
	auditLogger *auditlog.Logger
	flashStash  *flash.Stash
	cache       *catalogcache.Cache
	logger      *zap.Logger
}

// NewHandler creates a new process-flow Handler.
func NewHandler(
	db *mongo.Database,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	flashStash *flash.Stash,
	cache *catalogcache.Cache,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		flowStore:   flowstore.New(db),
		errLog:      errLog,
		auditLogger: auditLogger,
		flashStash:  flashStash,
		cache:       cache,
		logger:      logger,
	}
}

// Routes returns a chi.Router with process-flow admin routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole("admin", "staff"))

	r.Get("/", h.list)
	r.Get("/new", h.showForm)
	r.Post("/new", h.submit)
	r.Get("/{id}/edit", h.showForm)
	r.Post("/{id}", h.submit)
	r.Get("/{id}/delete", h.showDelete)
	r.Post("/{id}/delete", h.delete)

	return r
}

// ListVM is the view model for the process-flow admin list.
type ListVM struct {
	viewdata.BaseVM
	ActiveSection string
	Flows         []flowstore.Flow
}

// FormVM is the view model for the process-flow editor. The editor posts
// back to itself for structural step edits; only the save action persists.
type FormVM struct {
	viewdata.BaseVM
	ActiveSection string
	IsNew         bool
	Flow          flowstore.Flow
	IDHex         string
	Icons         []string
	FormError     string
}

// flowForm carries the validated form fields.
type flowForm struct {
	Title string `validate:"required" label:"Titre"`
}

// DeleteVM is the view model for the flow delete confirmation page.
type DeleteVM struct {
	viewdata.BaseVM
	ActiveSection string
	Flow          flowstore.Flow
	IDHex         string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	flows, err := h.flowStore.List(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list flows", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	vm := ListVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "parcours",
		Flows:         flows,
	}
	vm.Title = "Parcours"
	templates.Render(w, r, "flows/list", vm)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")

	var f flowstore.Flow
	if idHex != "" {
		id, err := storeutil.ParseID(idHex)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		found, err := h.flowStore.GetByID(r.Context(), id)
		if err != nil {
			if storeutil.IsNotFound(err) {
				http.NotFound(w, r)
				return
			}
			h.errLog.Log(r, "failed to load flow", err)
			http.Error(w, "Erreur serveur", http.StatusInternalServerError)
			return
		}
		f = *found
	} else {
		// A fresh flow starts with one empty step so the editor is
		// never a bare title field.
		f.Steps.Append()
	}

	h.renderForm(w, r, idHex, f, "")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, idHex string, f flowstore.Flow, formError string) {
	vm := FormVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "parcours",
		IsNew:         idHex == "",
		Flow:          f,
		IDHex:         idHex,
		Icons:         flowstore.Icons(),
		FormError:     formError,
	}
	if vm.IsNew {
		vm.Title = "Nouveau parcours"
	} else {
		vm.Title = "Modifier le parcours"
	}
	templates.Render(w, r, "flows/form", vm)
}

// submit handles every POST from the editor. Structural actions
// (add_step, remove_step:N) rebuild the draft from the form and re-render
// without touching the store; only the save action persists.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulaire invalide", http.StatusBadRequest)
		return
	}
	idHex := chi.URLParam(r, "id")

	draft := draftFromForm(r)
	action := r.FormValue("action")

	switch {
	case action == "add_step":
		draft.Steps.Append()
		h.renderForm(w, r, idHex, draft, "")
		return

	case strings.HasPrefix(action, "remove_step:"):
		idx, err := strconv.Atoi(strings.TrimPrefix(action, "remove_step:"))
		if err == nil {
			draft.Steps.RemoveAt(idx)
		}
		h.renderForm(w, r, idHex, draft, "")
		return
	}

	form := flowForm{Title: draft.Title}
	if result := inputval.Validate(form); result.HasErrors() {
		h.renderForm(w, r, idHex, draft, result.First())
		return
	}
	// A flow with no steps is meaningless; reject before any store call.
	if len(draft.Steps) == 0 {
		h.renderForm(w, r, idHex, draft, "Veuillez ajouter au moins une étape.")
		return
	}
	for i := range draft.Steps {
		if strings.TrimSpace(draft.Steps[i].Label) == "" {
			h.renderForm(w, r, idHex, draft, "Chaque étape doit avoir un libellé.")
			return
		}
	}

	id, created, err := h.flowStore.Save(r.Context(), idHex, draft)
	if err != nil {
		h.errLog.Log(r, "failed to save flow", err)
		h.renderForm(w, r, idHex, draft, "Échec de l'enregistrement. Veuillez réessayer.")
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		if created {
			h.auditLogger.ContentCreated(r.Context(), r, user.UserID(), flowstore.Collection, id.Hex())
		} else {
			h.auditLogger.ContentUpdated(r.Context(), r, user.UserID(), flowstore.Collection, id.Hex())
		}
	}
	h.cache.Invalidate(flowstore.Collection)

	h.flashStash.Success(w, r, "Parcours enregistré.")
	http.Redirect(w, r, "/admin/parcours", http.StatusSeeOther)
}

// draftFromForm rebuilds the in-progress flow from posted fields. Step ids
// come back through hidden inputs so rows keep their identity across
// structural edits.
func draftFromForm(r *http.Request) flowstore.Flow {
	f := flowstore.Flow{
		Title: strings.TrimSpace(r.FormValue("title")),
	}

	count, _ := strconv.Atoi(r.FormValue("step_count"))
	for i := 0; i < count; i++ {
		suffix := "_" + strconv.Itoa(i)
		step := flowstore.Step{
			ID:          r.FormValue("step_id" + suffix),
			Label:       strings.TrimSpace(r.FormValue("step_label" + suffix)),
			Description: strings.TrimSpace(r.FormValue("step_description" + suffix)),
			Service:     strings.TrimSpace(r.FormValue("step_service" + suffix)),
			Icon:        r.FormValue("step_icon" + suffix),
		}
		if step.Icon == "" {
			step.Icon = flowstore.DefaultIcon
		}
		f.Steps = append(f.Steps, step)
	}
	return f
}

func (h *Handler) showDelete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	f, err := h.flowStore.GetByID(r.Context(), id)
	if err != nil {
		if storeutil.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.errLog.Log(r, "failed to load flow", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	vm := DeleteVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "parcours",
		Flow:          *f,
		IDHex:         idHex,
	}
	vm.Title = "Supprimer le parcours"
	templates.Render(w, r, "flows/delete", vm)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.flowStore.Delete(r.Context(), id); err != nil {
		h.errLog.Log(r, "failed to delete flow", err)
		h.flashStash.Error(w, r, "Échec de la suppression.")
		http.Redirect(w, r, "/admin/parcours", http.StatusSeeOther)
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		h.auditLogger.ContentDeleted(r.Context(), r, user.UserID(), flowstore.Collection, idHex)
	}
	h.cache.Invalidate(flowstore.Collection)

	h.flashStash.Success(w, r, "Parcours supprimé.")
	http.Redirect(w, r, "/admin/parcours", http.StatusSeeOther)
}
