// internal/app/features/dashboard/dashboard.go
package dashboard

import (
	"net/http"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	"github.com/dalemusser/stratacampus/internal/app/system/auth"
	"github.com/dalemusser/stratacampus/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides admin dashboard handlers.
type Handler struct {
	db     *mongo.Database
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a new dashboard Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		db:     db,
		errLog: errLog,
		logger: logger,
	}
}

// SectionCount holds a document count for one content section.
type SectionCount struct {
	Label string
	URL   string
	Count int64
}

// DashboardVM is the view model for the admin dashboard.
type DashboardVM struct {
	viewdata.BaseVM
	ActiveSection string
	Sections      []SectionCount
	IsAdmin       bool
}

// Routes returns a chi.Router with dashboard routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.showDashboard)
	return r
}

// sectionCollections maps dashboard cards to their collections, in
// display order.
var sectionCollections = []struct {
	label string
	url   string
	coll  string
}{
	{"FAQ", "/admin/faqs", "faqs"},
	{"Parcours", "/admin/parcours", "flows"},
	{"Annonces", "/admin/annonces", "notices"},
	{"Enseignants", "/admin/enseignants", "teachers"},
	{"Partenaires", "/admin/partenaires", "partners"},
	{"Témoignages", "/admin/temoignages", "testimonials"},
}

// showDashboard displays the admin landing page with per-section counts.
func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	sessionUser, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	sections := make([]SectionCount, 0, len(sectionCollections))
	for _, sc := range sectionCollections {
		count, err := h.db.Collection(sc.coll).CountDocuments(r.Context(), bson.M{})
		if err != nil {
			h.errLog.Log(r, "failed to count "+sc.coll, err)
			count = 0
		}
		sections = append(sections, SectionCount{Label: sc.label, URL: sc.url, Count: count})
	}

	vm := DashboardVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "dashboard",
		Sections:      sections,
		IsAdmin:       sessionUser.Role == "admin",
	}
	vm.Title = "Administration"

	templates.Render(w, r, "dashboard/index", vm)
}
