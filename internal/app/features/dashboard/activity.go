// internal/app/features/dashboard/activity.go
package dashboard

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/stratacampus/internal/app/store/audit"
	userstore "github.com/dalemusser/stratacampus/internal/app/store/users"
	"github.com/dalemusser/stratacampus/internal/app/system/auth"
	"github.com/dalemusser/stratacampus/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ActivityHandler renders the recent audit trail for administrators.
type ActivityHandler struct {
	auditStore *audit.Store
	userStore  *userstore.Store
	logger     *zap.Logger
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(db *mongo.Database, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		auditStore: audit.New(db),
		userStore:  userstore.New(db),
		logger:     logger,
	}
}

// ActivityRoutes returns routes for the activity page.
func ActivityRoutes(h *ActivityHandler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole("admin"))
	r.Get("/", h.listActivity)
	return r
}

// ActivityRowVM represents one audit event in the view.
type ActivityRowVM struct {
	When       string
	Ago        string
	ActorName  string
	EventType  string
	Collection string
	Success    bool
	IP         string
}

// ActivityListVM is the view model for the activity page.
type ActivityListVM struct {
	viewdata.BaseVM
	ActiveSection string
	Category      string
	Rows          []ActivityRowVM
	Page          int64
	HasPrev       bool
	HasNext       bool
	PrevURL       string
	NextURL       string
}

const activityLimit = 50

// listActivity displays the audit trail one page at a time, newest first.
func (h *ActivityHandler) listActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}

	category := r.URL.Query().Get("category")
	filter := audit.QueryFilter{Limit: activityLimit, Page: page}
	if category == audit.CategoryAuth || category == audit.CategoryContent {
		filter.Category = category
	}

	events, err := h.auditStore.Query(ctx, filter)
	if err != nil {
		h.logger.Error("failed to query audit events", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Resolve actor names, caching lookups per request
	names := map[string]string{}
	now := time.Now()
	rows := make([]ActivityRowVM, 0, len(events))
	for _, ev := range events {
		actorName := "—"
		if ev.ActorID != nil {
			key := ev.ActorID.Hex()
			if name, ok := names[key]; ok {
				actorName = name
			} else if user, err := h.userStore.GetByID(ctx, *ev.ActorID); err == nil {
				actorName = user.FullName
				names[key] = actorName
			} else {
				actorName = "Utilisateur supprimé"
				names[key] = actorName
			}
		}

		rows = append(rows, ActivityRowVM{
			When:       ev.CreatedAt.Format("02/01/2006 15:04"),
			Ago:        formatTimeAgo(ev.CreatedAt, now),
			ActorName:  actorName,
			EventType:  ev.EventType,
			Collection: ev.Collection,
			Success:    ev.Success,
			IP:         ev.IP,
		})
	}

	vm := ActivityListVM{
		BaseVM:        viewdata.New(w, r),
		ActiveSection: "dashboard",
		Category:      category,
		Rows:          rows,
		Page:          page,
		HasPrev:       page > 1,
		HasNext:       int64(len(events)) == activityLimit,
		PrevURL:       activityPageURL(category, page-1),
		NextURL:       activityPageURL(category, page+1),
	}
	vm.Title = "Activité récente"
	vm.BackURL = "/admin"

	templates.Render(w, r, "dashboard/activity", vm)
}

func activityPageURL(category string, page int64) string {
	u := "/admin/activite?page=" + strconv.FormatInt(page, 10)
	if category != "" {
		u += "&category=" + category
	}
	return u
}

// formatTimeAgo formats a time as a relative "il y a ..." string.
func formatTimeAgo(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "à l'instant"
	case d < time.Hour:
		return fmt.Sprintf("il y a %d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("il y a %d h", int(d.Hours()))
	default:
		return fmt.Sprintf("il y a %d j", int(d.Hours()/24))
	}
}
