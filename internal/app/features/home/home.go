// internal/app/features/home/home.go
// Package home serves the public site: the landing page and the read-only
// content pages fed by the admin panel. Every page reads through the
// catalog cache so repeated visits do not hit the store.
package home

import (
	"html/template"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	faqstore "github.com/dalemusser/stratacampus/internal/app/store/faq"
	flowstore "github.com/dalemusser/stratacampus/internal/app/store/flow"
	noticestore "github.com/dalemusser/stratacampus/internal/app/store/notice"
	partnerstore "github.com/dalemusser/stratacampus/internal/app/store/partner"
	statsstore "github.com/dalemusser/stratacampus/internal/app/store/stats"
	teacherstore "github.com/dalemusser/stratacampus/internal/app/store/teacher"
	testimonialstore "github.com/dalemusser/stratacampus/internal/app/store/testimonial"
	"github.com/dalemusser/stratacampus/internal/app/system/catalogcache"
	"github.com/dalemusser/stratacampus/internal/app/system/markdown"
	"github.com/dalemusser/stratacampus/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides the public page handlers.
type Handler struct {
	faqStore         *faqstore.Store
	flowStore        *flowstore.Store
	noticeStore      *noticestore.Store
	statsStore       *statsstore.Store
	teacherStore     *teacherstore.Store
	partnerStore     *partnerstore.Store
	testimonialStore *testimonialstore.Store
	errLog           *errorsfeature.ErrorLogger
	cache            *catalogcache.Cache
	logger           *zap.Logger
}

// NewHandler creates a new public-site Handler.
func NewHandler(
	db *mongo.Database,
	errLog *errorsfeature.ErrorLogger,
	cache *catalogcache.Cache,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		faqStore:         faqstore.New(db),
		flowStore:        flowstore.New(db),
		noticeStore:      noticestore.New(db),
		statsStore:       statsstore.New(db),
		teacherStore:     teacherstore.New(db),
		partnerStore:     partnerstore.New(db),
		testimonialStore: testimonialstore.New(db),
		errLog:           errLog,
		cache:            cache,
		logger:           logger,
	}
}

// Routes returns a chi.Router with the public pages mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.index)
	r.Get("/faq", h.faq)
	r.Get("/parcours", h.flows)
	r.Get("/annonces", h.notices)
	r.Get("/statistiques", h.statistics)
	r.Get("/enseignants", h.teachers)
	r.Get("/partenaires", h.partners)
	return r
}

// cachedList returns the cached slice for key, calling load on a miss and
// caching the result. A load error falls through to the empty slice so a
// transient store failure degrades to an empty section, not a 500.
func cachedList[T any](h *Handler, r *http.Request, key string, load func() ([]T, error)) []T {
	if v, ok := h.cache.Get(key); ok {
		if items, ok := v.([]T); ok {
			return items
		}
	}
	items, err := load()
	if err != nil {
		h.errLog.Log(r, "failed to load "+key, err)
		return nil
	}
	h.cache.Put(key, items)
	return items
}

// HomeVM is the view model for the landing page.
type HomeVM struct {
	viewdata.BaseVM
	Indicators   []statsstore.Global
	Notices      []NoticeVM
	Testimonials []testimonialstore.Testimonial
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notices := cachedList(h, r, noticestore.Collection, func() ([]noticestore.Notice, error) {
		return h.noticeStore.List(ctx)
	})
	if len(notices) > 3 {
		notices = notices[:3]
	}

	vm := HomeVM{
		BaseVM: viewdata.New(w, r),
		Indicators: cachedList(h, r, statsstore.CollectionFor(statsstore.VariantGlobal), func() ([]statsstore.Global, error) {
			return h.statsStore.ListGlobal(ctx)
		}),
		Notices: noticeVMs(notices),
		Testimonials: cachedList(h, r, testimonialstore.Collection, func() ([]testimonialstore.Testimonial, error) {
			return h.testimonialStore.List(ctx)
		}),
	}
	vm.Title = "Accueil"
	templates.Render(w, r, "home/index", vm)
}

// FAQVM is the view model for the assistant FAQ page.
type FAQVM struct {
	viewdata.BaseVM
	Search     string
	Categories []FAQCategoryVM
}

// FAQCategoryVM groups the entries of one category.
type FAQCategoryVM struct {
	Category faqstore.Category
	Entries  []faqstore.Entry
}

func (h *Handler) faq(w http.ResponseWriter, r *http.Request) {
	entries := cachedList(h, r, faqstore.Collection, func() ([]faqstore.Entry, error) {
		return h.faqStore.List(r.Context())
	})

	search := query.Get(r, "q")
	if search != "" {
		folded := text.Fold(search)
		var kept []faqstore.Entry
		for _, e := range entries {
			if faqMatches(e, folded) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	vm := FAQVM{
		BaseVM: viewdata.New(w, r),
		Search: search,
	}
	for _, cat := range faqstore.Categories() {
		group := FAQCategoryVM{Category: cat}
		for _, e := range entries {
			if e.Category == cat {
				group.Entries = append(group.Entries, e)
			}
		}
		if len(group.Entries) > 0 {
			vm.Categories = append(vm.Categories, group)
		}
	}
	vm.Title = "FAQ"
	templates.Render(w, r, "home/faq", vm)
}

// faqMatches reports whether the folded needle appears in the entry's
// question, keywords, or service.
func faqMatches(e faqstore.Entry, needle string) bool {
	if strings.Contains(text.Fold(e.Question), needle) ||
		strings.Contains(text.Fold(e.Service), needle) {
		return true
	}
	for _, kw := range e.Keywords {
		if strings.Contains(text.Fold(kw), needle) {
			return true
		}
	}
	return false
}

// FlowsVM is the view model for the guided-process page.
type FlowsVM struct {
	viewdata.BaseVM
	Flows []flowstore.Flow
}

func (h *Handler) flows(w http.ResponseWriter, r *http.Request) {
	vm := FlowsVM{
		BaseVM: viewdata.New(w, r),
		Flows: cachedList(h, r, flowstore.Collection, func() ([]flowstore.Flow, error) {
			return h.flowStore.List(r.Context())
		}),
	}
	vm.Title = "Parcours"
	templates.Render(w, r, "home/flows", vm)
}

// NoticeVM pairs a notice with its rendered content.
type NoticeVM struct {
	noticestore.Notice
	ContentHTML template.HTML
}

func noticeVMs(notices []noticestore.Notice) []NoticeVM {
	out := make([]NoticeVM, 0, len(notices))
	for _, n := range notices {
		out = append(out, NoticeVM{Notice: n, ContentHTML: markdown.Render(n.Content)})
	}
	return out
}

// NoticesVM is the view model for the bulletin-board page.
type NoticesVM struct {
	viewdata.BaseVM
	Notices []NoticeVM
}

func (h *Handler) notices(w http.ResponseWriter, r *http.Request) {
	notices := cachedList(h, r, noticestore.Collection, func() ([]noticestore.Notice, error) {
		return h.noticeStore.List(r.Context())
	})

	vm := NoticesVM{
		BaseVM:  viewdata.New(w, r),
		Notices: noticeVMs(notices),
	}
	vm.Title = "Annonces"
	templates.Render(w, r, "home/notices", vm)
}

// StatsVM is the view model for the statistics page.
type StatsVM struct {
	viewdata.BaseVM
	Indicators []statsstore.Global
	Evolution  []statsstore.Evolution
	DUT        []statsstore.Cycle
	LP         []statsstore.Cycle
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vm := StatsVM{
		BaseVM: viewdata.New(w, r),
		Indicators: cachedList(h, r, statsstore.CollectionFor(statsstore.VariantGlobal), func() ([]statsstore.Global, error) {
			return h.statsStore.ListGlobal(ctx)
		}),
		Evolution: cachedList(h, r, statsstore.CollectionFor(statsstore.VariantEvolution), func() ([]statsstore.Evolution, error) {
			return h.statsStore.ListEvolution(ctx)
		}),
		DUT: cachedList(h, r, statsstore.CollectionFor(statsstore.VariantDUT), func() ([]statsstore.Cycle, error) {
			return h.statsStore.ListCycle(ctx, statsstore.VariantDUT)
		}),
		LP: cachedList(h, r, statsstore.CollectionFor(statsstore.VariantLP), func() ([]statsstore.Cycle, error) {
			return h.statsStore.ListCycle(ctx, statsstore.VariantLP)
		}),
	}
	vm.Title = "Statistiques"
	templates.Render(w, r, "home/stats", vm)
}

// TeachersVM is the view model for the teaching-staff page.
type TeachersVM struct {
	viewdata.BaseVM
	Departments []TeacherDeptVM
}

// TeacherDeptVM groups the teachers of one department, director first.
type TeacherDeptVM struct {
	Department teacherstore.Department
	Teachers   []teacherstore.Teacher
}

func (h *Handler) teachers(w http.ResponseWriter, r *http.Request) {
	all := cachedList(h, r, teacherstore.Collection, func() ([]teacherstore.Teacher, error) {
		return h.teacherStore.List(r.Context())
	})

	vm := TeachersVM{BaseVM: viewdata.New(w, r)}
	for _, dept := range teacherstore.Departments() {
		group := TeacherDeptVM{Department: dept}
		for _, t := range all {
			if t.DepartmentID == dept && t.IsDirector {
				group.Teachers = append(group.Teachers, t)
			}
		}
		for _, t := range all {
			if t.DepartmentID == dept && !t.IsDirector {
				group.Teachers = append(group.Teachers, t)
			}
		}
		if len(group.Teachers) > 0 {
			vm.Departments = append(vm.Departments, group)
		}
	}
	vm.Title = "Enseignants"
	templates.Render(w, r, "home/teachers", vm)
}

// PartnersVM is the view model for the partners page.
type PartnersVM struct {
	viewdata.BaseVM
	Groups []PartnerGroupVM
}

// PartnerGroupVM groups the partners of one type.
type PartnerGroupVM struct {
	Type     partnerstore.Type
	Partners []partnerstore.Partner
}

func (h *Handler) partners(w http.ResponseWriter, r *http.Request) {
	all := cachedList(h, r, partnerstore.Collection, func() ([]partnerstore.Partner, error) {
		return h.partnerStore.List(r.Context())
	})

	vm := PartnersVM{BaseVM: viewdata.New(w, r)}
	for _, typ := range partnerstore.Types() {
		group := PartnerGroupVM{Type: typ}
		for _, p := range all {
			if p.Type == typ {
				group.Partners = append(group.Partners, p)
			}
		}
		if len(group.Partners) > 0 {
			vm.Groups = append(vm.Groups, group)
		}
	}
	vm.Title = "Partenaires"
	templates.Render(w, r, "home/partners", vm)
}
