package home

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	faqstore "github.com/dalemusser/stratacampus/internal/app/store/faq"
	noticestore "github.com/dalemusser/stratacampus/internal/app/store/notice"
	statsstore "github.com/dalemusser/stratacampus/internal/app/store/stats"
	teacherstore "github.com/dalemusser/stratacampus/internal/app/store/teacher"
	testimonialstore "github.com/dalemusser/stratacampus/internal/app/store/testimonial"
	"github.com/dalemusser/stratacampus/internal/app/system/catalogcache"
	"github.com/dalemusser/stratacampus/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(db *mongo.Database) *Handler {
	logger := zap.NewNop()
	return NewHandler(db, errorsfeature.NewErrorLogger(logger), catalogcache.New(), logger)
}

func get(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	Routes(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d, want 200 (body: %s)", target, rec.Code, rec.Body.String())
	}
	return rec
}

func TestIndexShowsTestimonials(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, _, err := testimonialstore.New(db).Save(ctx, "", testimonialstore.Testimonial{
		Name:  "Aya Kouassi",
		Promo: "2019",
		Role:  "Développeuse",
		Text:  "Une formation qui ouvre des portes.",
	}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	rec := get(t, h, "/")
	if !strings.Contains(rec.Body.String(), "Aya Kouassi") {
		t.Error("home page should show the testimonial")
	}
}

func TestFAQSearchFoldsAccents(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := faqstore.New(db)
	if _, _, err := store.Save(ctx, "", faqstore.Entry{
		Question:  "Comment obtenir une dérogation?",
		Category:  faqstore.CategoryAdmission,
		Procedure: "Déposez une demande écrite.",
	}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, _, err := store.Save(ctx, "", faqstore.Entry{
		Question:  "Où trouver les horaires?",
		Category:  faqstore.CategoryContacts,
		Procedure: "Sur le tableau d'affichage.",
	}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	rec := get(t, h, "/faq?q=derogation")
	body := rec.Body.String()
	if !strings.Contains(body, "dérogation") {
		t.Error("search should match without accents")
	}
	if strings.Contains(body, "horaires") {
		t.Error("non-matching entries should be filtered out")
	}
}

func TestNoticesRenderMarkdownAndTimetable(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, _, err := noticestore.New(db).Save(ctx, "", noticestore.Notice{
		Title:    "Rentrée universitaire",
		Date:     "2026-09-15",
		Category: noticestore.CategoryPedagogie,
		Content:  "La rentrée est **confirmée**.",
		Timetable: &noticestore.Timetable{
			Level: noticestore.LevelL1,
			Entries: []noticestore.TimetableEntry{
				{Day: "Lundi", Time: "08h-10h", Ecue: "Algorithmique", Filiere: "INFO", Room: "A12", Teacher: "Dr Konan"},
			},
		},
	}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	rec := get(t, h, "/annonces")
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>confirmée</strong>") {
		t.Error("notice content should be rendered from Markdown")
	}
	if !strings.Contains(body, "Algorithmique") || !strings.Contains(body, "A12") {
		t.Error("timetable entries should be shown")
	}
}

func TestStatisticsShowsAllVariants(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := statsstore.New(db)
	if _, _, err := store.SaveGlobal(ctx, "", statsstore.Global{Label: "Taux d'insertion", Value: "92%"}); err != nil {
		t.Fatalf("SaveGlobal() error: %v", err)
	}
	if _, _, err := store.SaveEvolution(ctx, "", statsstore.Evolution{Year: "2025", Rate: 84.5}); err != nil {
		t.Fatalf("SaveEvolution() error: %v", err)
	}
	if _, _, err := store.SaveCycle(ctx, statsstore.VariantLP, "", statsstore.Cycle{Year: "2025", Inscrits: 120, Taux: 91.0}); err != nil {
		t.Fatalf("SaveCycle() error: %v", err)
	}

	body := get(t, h, "/statistiques").Body.String()
	for _, want := range []string{"Taux d'insertion", "2025", "Licence professionnelle"} {
		if !strings.Contains(body, want) {
			t.Errorf("statistics page should contain %q", want)
		}
	}
}

func TestTeachersGroupedWithDirectorFirst(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := teacherstore.New(db)
	if _, _, err := store.Save(ctx, "", teacherstore.Teacher{
		Name: "Dr Diabaté Sekou", DepartmentID: teacherstore.DeptInfo,
	}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, _, err := store.Save(ctx, "", teacherstore.Teacher{
		Name: "Pr Konan Yao", DepartmentID: teacherstore.DeptInfo, IsDirector: true,
	}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	body := get(t, h, "/enseignants").Body.String()
	director := strings.Index(body, "Pr Konan Yao")
	other := strings.Index(body, "Dr Diabaté Sekou")
	if director == -1 || other == -1 {
		t.Fatal("both teachers should be shown")
	}
	if director > other {
		t.Error("the department head should be listed first")
	}
}

func TestCacheServesSecondRead(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := faqstore.New(db)
	if _, _, err := store.Save(ctx, "", faqstore.Entry{
		Question:  "Première question",
		Category:  faqstore.CategoryAdmission,
		Procedure: "Une procédure.",
	}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	get(t, h, "/faq")

	// A write that bypasses the invalidation path stays invisible while
	// the cached list is fresh.
	if _, _, err := store.Save(ctx, "", faqstore.Entry{
		Question:  "Question fantôme",
		Category:  faqstore.CategoryAdmission,
		Procedure: "Une autre procédure.",
	}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	body := get(t, h, "/faq").Body.String()
	if strings.Contains(body, "Question fantôme") {
		t.Error("second read should come from the cache")
	}

	h.cache.Invalidate(faqstore.Collection)
	body = get(t, h, "/faq").Body.String()
	if !strings.Contains(body, "Question fantôme") {
		t.Error("invalidation should expose the new entry")
	}
}
