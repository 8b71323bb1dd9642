// internal/app/features/notices/notices.go
package notices

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	noticestore "github.com/dalemusser/stratacampus/internal/app/store/notice"
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

// Handler provides notice management handlers.
type Handler struct {
	noticeStore *noticestore.Store
	errLog      *errorsfeature.ErrorLogger
	auditLogger *auditlog.Logger
	flashStash  *flash.Stash
	cache       *catalogcache.Cache
	logger      *zap.Logger
}

// NewHandler creates a new notice Handler.
func NewHandler(
	db *mongo.Database,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	flashStash *flash.Stash,
	cache *catalogcache.Cache,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		noticeStore: noticestore.New(db),
		errLog:      errLog,
		auditLogger: auditLogger,
		flashStash:  flashStash,
		cache:       cache,
		logger:      logger,
	}
}

// Routes returns a chi.Router with notice admin routes mounted.
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

// ListVM is the view model for the notice admin list.
type ListVM struct {
	viewdata.BaseVM
	ActiveSection string
	Notices       []noticestore.Notice
}

// FormVM is the view model for the notice editor. The embedded timetable
// rows post back to the same handler; structural row edits re-render
// without saving.
type FormVM struct {
	viewdata.BaseVM
	ActiveSection string
	IsNew         bool
	Notice        noticestore.Notice
	IDHex         string
	HasTimetable  bool
	Categories    []noticestore.Category
	Levels        []noticestore.Level
	FormError     string
}

// noticeForm carries the validated form fields.
type noticeForm struct {
	Title string `validate:"required" label:"Titre"`
}

// DeleteVM is the view model for the notice delete confirmation page.
type DeleteVM struct {
	viewdata.BaseVM
	ActiveSection string
	Notice        noticestore.Notice
	IDHex         string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	notices, err := h.noticeStore.List(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list notices", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	vm := ListVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "annonces",
		Notices:       notices,
	}
	vm.Title = "Annonces"
	templates.Render(w, r, "notices/list", vm)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")

	n := noticestore.Notice{
		Category: noticestore.CategoryAdministration,
		Date:     time.Now().Format("02/01/2006"),
		IsNew:    true,
	}
	if idHex != "" {
		id, err := storeutil.ParseID(idHex)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		found, err := h.noticeStore.GetByID(r.Context(), id)
		if err != nil {
			if storeutil.IsNotFound(err) {
				http.NotFound(w, r)
				return
			}
			h.errLog.Log(r, "failed to load notice", err)
			http.Error(w, "Erreur serveur", http.StatusInternalServerError)
			return
		}
		n = *found
	}

	h.renderForm(w, r, idHex, n, "")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, idHex string, n noticestore.Notice, formError string) {
	vm := FormVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "annonces",
		IsNew:         idHex == "",
		Notice:        n,
		IDHex:         idHex,
		HasTimetable:  n.Timetable != nil,
		Categories:    noticestore.Categories(),
		Levels:        noticestore.Levels(),
		FormError:     formError,
	}
	if vm.IsNew {
		vm.Title = "Nouvelle annonce"
	} else {
		vm.Title = "Modifier l'annonce"
	}
	templates.Render(w, r, "notices/form", vm)
}

// submit handles every POST from the notice editor. Timetable row actions
// (add_entry, remove_entry:N) rebuild the draft and re-render without
// saving; only the save action persists.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulaire invalide", http.StatusBadRequest)
		return
	}
	idHex := chi.URLParam(r, "id")

	draft := draftFromForm(r)
	action := r.FormValue("action")

	switch {
	case action == "add_entry":
		if draft.Timetable == nil {
			draft.Timetable = &noticestore.Timetable{Level: noticestore.LevelL1}
		}
		draft.Timetable.Entries = append(draft.Timetable.Entries, noticestore.TimetableEntry{})
		h.renderForm(w, r, idHex, draft, "")
		return

	case strings.HasPrefix(action, "remove_entry:"):
		idx, err := strconv.Atoi(strings.TrimPrefix(action, "remove_entry:"))
		if err == nil && draft.Timetable != nil &&
			idx >= 0 && idx < len(draft.Timetable.Entries) {
			draft.Timetable.Entries = append(
				draft.Timetable.Entries[:idx], draft.Timetable.Entries[idx+1:]...)
		}
		h.renderForm(w, r, idHex, draft, "")
		return
	}

	form := noticeForm{Title: draft.Title}
	if result := inputval.Validate(form); result.HasErrors() {
		h.renderForm(w, r, idHex, draft, result.First())
		return
	}
	if !draft.Category.Valid() {
		h.renderForm(w, r, idHex, draft, "Catégorie inconnue.")
		return
	}

	// An overwrite must carry the original creation time forward; only a
	// brand new notice gets stamped by the store.
	if idHex != "" {
		id, err := storeutil.ParseID(idHex)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		existing, err := h.noticeStore.GetByID(r.Context(), id)
		if err != nil {
			if storeutil.IsNotFound(err) {
				http.NotFound(w, r)
				return
			}
			h.errLog.Log(r, "failed to load notice", err)
			http.Error(w, "Erreur serveur", http.StatusInternalServerError)
			return
		}
		draft.CreatedAt = existing.CreatedAt
	}

	id, created, err := h.noticeStore.Save(r.Context(), idHex, draft)
	if err != nil {
		h.errLog.Log(r, "failed to save notice", err)
		h.renderForm(w, r, idHex, draft, "Échec de l'enregistrement. Veuillez réessayer.")
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		if created {
			h.auditLogger.ContentCreated(r.Context(), r, user.UserID(), noticestore.Collection, id.Hex())
		} else {
			h.auditLogger.ContentUpdated(r.Context(), r, user.UserID(), noticestore.Collection, id.Hex())
		}
	}
	h.cache.Invalidate(noticestore.Collection)

	h.flashStash.Success(w, r, "Annonce enregistrée.")
	http.Redirect(w, r, "/admin/annonces", http.StatusSeeOther)
}

// draftFromForm rebuilds the in-progress notice from posted fields. The
// timetable block exists only while its checkbox is on; toggling it off
// drops the rows.
func draftFromForm(r *http.Request) noticestore.Notice {
	n := noticestore.Notice{
		Title:    strings.TrimSpace(r.FormValue("title")),
		Date:     strings.TrimSpace(r.FormValue("date")),
		Category: noticestore.Category(r.FormValue("category")),
		Content:  r.FormValue("content"),
		FileSize: strings.TrimSpace(r.FormValue("file_size")),
		IsNew:    r.FormValue("is_new") == "on",
	}

	if r.FormValue("has_timetable") != "on" {
		return n
	}

	tt := &noticestore.Timetable{
		Level:      noticestore.Level(r.FormValue("tt_level")),
		Note:       strings.TrimSpace(r.FormValue("tt_note")),
		HeadOfDept: strings.TrimSpace(r.FormValue("tt_head")),
		Entries:    []noticestore.TimetableEntry{},
	}
	count, _ := strconv.Atoi(r.FormValue("tt_count"))
	for i := 0; i < count; i++ {
		suffix := "_" + strconv.Itoa(i)
		tt.Entries = append(tt.Entries, noticestore.TimetableEntry{
			Day:     strings.TrimSpace(r.FormValue("tt_day" + suffix)),
			Time:    strings.TrimSpace(r.FormValue("tt_time" + suffix)),
			Ecue:    strings.TrimSpace(r.FormValue("tt_ecue" + suffix)),
			Filiere: strings.TrimSpace(r.FormValue("tt_filiere" + suffix)),
			Room:    strings.TrimSpace(r.FormValue("tt_room" + suffix)),
			Teacher: strings.TrimSpace(r.FormValue("tt_teacher" + suffix)),
		})
	}
	n.Timetable = tt
	return n
}

func (h *Handler) showDelete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	n, err := h.noticeStore.GetByID(r.Context(), id)
	if err != nil {
		if storeutil.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.errLog.Log(r, "failed to load notice", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	vm := DeleteVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "annonces",
		Notice:        *n,
		IDHex:         idHex,
	}
	vm.Title = "Supprimer l'annonce"
	templates.Render(w, r, "notices/delete", vm)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.noticeStore.Delete(r.Context(), id); err != nil {
		h.errLog.Log(r, "failed to delete notice", err)
		h.flashStash.Error(w, r, "Échec de la suppression.")
		http.Redirect(w, r, "/admin/annonces", http.StatusSeeOther)
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		h.auditLogger.ContentDeleted(r.Context(), r, user.UserID(), noticestore.Collection, idHex)
	}
	h.cache.Invalidate(noticestore.Collection)

	h.flashStash.Success(w, r, "Annonce supprimée.")
	http.Redirect(w, r, "/admin/annonces", http.StatusSeeOther)
}
