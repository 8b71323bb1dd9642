// internal/app/features/statistics/statistics.go
package statistics

import (
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	statsstore "github.com/dalemusser/stratacampus/internal/app/store/stats"
	"github.com/dalemusser/stratacampus/internal/app/store/storeutil"
	"github.com/dalemusser/stratacampus/internal/app/system/auditlog"
	"github.com/dalemusser/stratacampus/internal/app/system/auth"
	"github.com/dalemusser/stratacampus/internal/app/system/catalogcache"
	"github.com/dalemusser/stratacampus/internal/app/system/flash"
	"github.com/dalemusser/stratacampus/internal/app/system/inputval"
	"github.com/dalemusser/stratacampus/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides success-statistics management handlers. One surface
// fronts four collections; the active variant travels as a query
// parameter and is validated on every request.
type Handler struct {
	statsStore  *statsstore.Store
	errLog      *errorsfeature.ErrorLogger
	auditLogger *auditlog.Logger
	flashStash  *flash.Stash
	cache       *catalogcache.Cache
	logger      *zap.Logger
}

// NewHandler creates a new statistics Handler.
func NewHandler(
	db *mongo.Database,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	flashStash *flash.Stash,
	cache *catalogcache.Cache,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		statsStore:  statsstore.New(db),
		errLog:      errLog,
		auditLogger: auditLogger,
		flashStash:  flashStash,
		cache:       cache,
		logger:      logger,
	}
}

// Routes returns a chi.Router with statistics admin routes mounted.
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

// ListVM is the view model for the statistics admin list. Only the slice
// matching ActiveVariant is populated.
type ListVM struct {
	viewdata.BaseVM
	ActiveSection string
	ActiveVariant statsstore.Variant
	Variants      []statsstore.Variant
	Globals       []statsstore.Global
	Evolutions    []statsstore.Evolution
	Cycles        []statsstore.Cycle
}

// FormVM is the view model for the per-variant create/edit form.
type FormVM struct {
	viewdata.BaseVM
	ActiveSection string
	ActiveVariant statsstore.Variant
	IsNew         bool
	IDHex         string
	Global        statsstore.Global
	Evolution     statsstore.Evolution
	Cycle         statsstore.Cycle
	FormError     string
}

// DeleteVM is the view model for the delete confirmation page.
type DeleteVM struct {
	viewdata.BaseVM
	ActiveSection string
	ActiveVariant statsstore.Variant
	IDHex         string
	Label         string
}

// globalForm and yearForm carry the validated form fields per variant.
type globalForm struct {
	Label string `validate:"required" label:"Libellé"`
	Value string `validate:"required" label:"Valeur"`
}

type yearForm struct {
	Year string `validate:"required" label:"Année"`
}

func variantOf(r *http.Request) statsstore.Variant {
	return statsstore.ParseVariant(query.Get(r, "variant"))
}

func listURL(v statsstore.Variant) string {
	return "/admin/statistiques?variant=" + string(v)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	v := variantOf(r)

	vm := ListVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "statistiques",
		ActiveVariant: v,
		Variants:      statsstore.Variants(),
	}
	vm.Title = "Statistiques"

	var err error
	switch v {
	case statsstore.VariantGlobal:
		vm.Globals, err = h.statsStore.ListGlobal(r.Context())
	case statsstore.VariantEvolution:
		vm.Evolutions, err = h.statsStore.ListEvolution(r.Context())
	default:
		vm.Cycles, err = h.statsStore.ListCycle(r.Context(), v)
	}
	if err != nil {
		h.errLog.Log(r, "failed to list statistics", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	templates.Render(w, r, "statistics/list", vm)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	v := variantOf(r)
	idHex := chi.URLParam(r, "id")

	vm := FormVM{
		ActiveVariant: v,
		IsNew:         idHex == "",
		IDHex:         idHex,
	}

	if idHex != "" {
		id, err := storeutil.ParseID(idHex)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if err := h.loadInto(r, v, id, &vm); err != nil {
			if storeutil.IsNotFound(err) {
				http.NotFound(w, r)
				return
			}
			h.errLog.Log(r, "failed to load statistic", err)
			http.Error(w, "Erreur serveur", http.StatusInternalServerError)
			return
		}
	}

	h.renderForm(w, r, vm, "")
}

// loadInto fills the form slot matching the variant by scanning the
// variant's list. The collections are small enough that a list scan
// beats adding per-variant getters to the store.
func (h *Handler) loadInto(r *http.Request, v statsstore.Variant, id primitive.ObjectID, vm *FormVM) error {
	hex := id.Hex()
	switch v {
	case statsstore.VariantGlobal:
		items, err := h.statsStore.ListGlobal(r.Context())
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.ID.Hex() == hex {
				vm.Global = it
				return nil
			}
		}
	case statsstore.VariantEvolution:
		items, err := h.statsStore.ListEvolution(r.Context())
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.ID.Hex() == hex {
				vm.Evolution = it
				return nil
			}
		}
	default:
		items, err := h.statsStore.ListCycle(r.Context(), v)
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.ID.Hex() == hex {
				vm.Cycle = it
				return nil
			}
		}
	}
	return &storeutil.Error{
		Kind: storeutil.KindNotFound,
		Op:   "get",
		Coll: statsstore.CollectionFor(v),
		Err:  mongo.ErrNoDocuments,
	}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, vm FormVM, formError string) {
	vm.BaseVM = viewdata.New(w, r)
	vm.ActiveSection = "statistiques"
	vm.FormError = formError
	if vm.IsNew {
		vm.Title = "Nouvelle statistique"
	} else {
		vm.Title = "Modifier la statistique"
	}
	templates.Render(w, r, "statistics/form", vm)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulaire invalide", http.StatusBadRequest)
		return
	}
	v := variantOf(r)
	idHex := chi.URLParam(r, "id")

	vm := FormVM{ActiveVariant: v, IsNew: idHex == "", IDHex: idHex}

	var (
		err     error
		created bool
		savedID primitive.ObjectID
	)
	switch v {
	case statsstore.VariantGlobal:
		g := statsstore.Global{
			Label:      strings.TrimSpace(r.FormValue("label")),
			Value:      strings.TrimSpace(r.FormValue("value")),
			IconName:   strings.TrimSpace(r.FormValue("icon_name")),
			ColorClass: strings.TrimSpace(r.FormValue("color_class")),
			BgClass:    strings.TrimSpace(r.FormValue("bg_class")),
			Order:      inputval.Int(r.FormValue("order")),
		}
		vm.Global = g
		if result := inputval.Validate(globalForm{Label: g.Label, Value: g.Value}); result.HasErrors() {
			h.renderForm(w, r, vm, result.First())
			return
		}
		savedID, created, err = h.statsStore.SaveGlobal(r.Context(), idHex, g)

	case statsstore.VariantEvolution:
		e := statsstore.Evolution{
			Year: strings.TrimSpace(r.FormValue("year")),
			Rate: inputval.Float(r.FormValue("rate")),
		}
		vm.Evolution = e
		if result := inputval.Validate(yearForm{Year: e.Year}); result.HasErrors() {
			h.renderForm(w, r, vm, result.First())
			return
		}
		savedID, created, err = h.statsStore.SaveEvolution(r.Context(), idHex, e)

	default:
		c := statsstore.Cycle{
			Year:     strings.TrimSpace(r.FormValue("year")),
			Inscrits: inputval.Int(r.FormValue("inscrits")),
			Taux:     inputval.Float(r.FormValue("taux")),
		}
		vm.Cycle = c
		if result := inputval.Validate(yearForm{Year: c.Year}); result.HasErrors() {
			h.renderForm(w, r, vm, result.First())
			return
		}
		savedID, created, err = h.statsStore.SaveCycle(r.Context(), v, idHex, c)
	}
	if err != nil {
		h.errLog.Log(r, "failed to save statistic", err)
		h.renderForm(w, r, vm, "Échec de l'enregistrement. Veuillez réessayer.")
		return
	}

	coll := statsstore.CollectionFor(v)
	if user, ok := auth.CurrentUser(r); ok {
		if created {
			h.auditLogger.ContentCreated(r.Context(), r, user.UserID(), coll, savedID.Hex())
		} else {
			h.auditLogger.ContentUpdated(r.Context(), r, user.UserID(), coll, savedID.Hex())
		}
	}
	h.cache.Invalidate(coll)

	h.flashStash.Success(w, r, "Statistique enregistrée.")
	http.Redirect(w, r, listURL(v), http.StatusSeeOther)
}

func (h *Handler) showDelete(w http.ResponseWriter, r *http.Request) {
	v := variantOf(r)
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	form := FormVM{ActiveVariant: v, IDHex: idHex}
	if err := h.loadInto(r, v, id, &form); err != nil {
		if storeutil.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.errLog.Log(r, "failed to load statistic", err)
		http.Error(w, "Erreur serveur", http.StatusInternalServerError)
		return
	}

	label := form.Global.Label
	if label == "" {
		label = form.Evolution.Year
	}
	if label == "" {
		label = form.Cycle.Year
	}

	vm := DeleteVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "statistiques",
		ActiveVariant: v,
		IDHex:         idHex,
		Label:         label,
	}
	vm.Title = "Supprimer la statistique"
	templates.Render(w, r, "statistics/delete", vm)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	v := variantOf(r)
	idHex := chi.URLParam(r, "id")
	id, err := storeutil.ParseID(idHex)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.statsStore.Delete(r.Context(), v, id); err != nil {
		h.errLog.Log(r, "failed to delete statistic", err)
		h.flashStash.Error(w, r, "Échec de la suppression.")
		http.Redirect(w, r, listURL(v), http.StatusSeeOther)
		return
	}

	coll := statsstore.CollectionFor(v)
	if user, ok := auth.CurrentUser(r); ok {
		h.auditLogger.ContentDeleted(r.Context(), r, user.UserID(), coll, idHex)
	}
	h.cache.Invalidate(coll)

	h.flashStash.Success(w, r, "Statistique supprimée.")
	http.Redirect(w, r, listURL(v), http.StatusSeeOther)
}
