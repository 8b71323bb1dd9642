package logout

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/stratacampus/internal/app/system/auditlog"
	"github.com/dalemusser/stratacampus/internal/app/system/auth"
	"github.com/dalemusser/stratacampus/internal/app/system/catalogcache"
	"github.com/dalemusser/stratacampus/internal/app/system/flash"
	"github.com/dalemusser/stratacampus/internal/testutil"
	"go.uber.org/zap"
)

// testAuditLogger routes events to the zap logger only (no database).
func testAuditLogger(logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(nil, logger, auditlog.Config{Auth: auditlog.DestLog, Content: auditlog.DestLog})
}

func newTestHandler(t *testing.T) (*Handler, *catalogcache.Cache, *auth.SessionManager) {
	t.Helper()
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager(
		"test-session-key-for-testing-1234567890",
		"test-session",
		"",
		24*time.Hour,
		false,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	cache := catalogcache.New()
	stash := flash.NewStash("test-flash-key-for-testing-1234567890", false, logger)

	// auditLogger uses a nil store and routes to the zap logger
	handler := NewHandler(sessionMgr, testAuditLogger(logger), cache, stash, logger)

	return handler, cache, sessionMgr
}

func TestLogout_RedirectsToRoot(t *testing.T) {
	h, _, _ := newTestHandler(t)

	user := testutil.AdminUser()
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/logout", user)
	rec := httptest.NewRecorder()

	h.handleLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	location := rec.Header().Get("Location")
	if location != "/" {
		t.Errorf("Location = %q, want %q", location, "/")
	}
}

func TestLogout_GET(t *testing.T) {
	h, _, _ := newTestHandler(t)

	// GET requests should also work (for simple logout links)
	user := testutil.AdminUser()
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/logout", user)
	rec := httptest.NewRecorder()

	h.handleLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestLogout_PurgesCatalogCache(t *testing.T) {
	h, cache, _ := newTestHandler(t)

	cache.Put("faqs", []string{"cached"})
	cache.Put("notices", []string{"cached"})
	if cache.Len() != 2 {
		t.Fatalf("cache.Len() = %d, want 2", cache.Len())
	}

	user := testutil.AdminUser()
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/logout", user)
	rec := httptest.NewRecorder()

	h.handleLogout(rec, req)

	if cache.Len() != 0 {
		t.Errorf("cache.Len() = %d after logout, want 0", cache.Len())
	}
}

func TestLogout_SetsFlash(t *testing.T) {
	h, _, _ := newTestHandler(t)

	user := testutil.AdminUser()
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/logout", user)
	rec := httptest.NewRecorder()

	h.handleLogout(rec, req)

	// A flash cookie must be present so the next page shows the toast
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "stratacampus-flash" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected flash cookie to be set after logout")
	}
}

func TestLogout_NoUserInContext(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()

	h.handleLogout(rec, req)

	// Should still redirect (graceful handling)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	location := rec.Header().Get("Location")
	if location != "/" {
		t.Errorf("Location = %q, want %q", location, "/")
	}
}

func TestLogout_NilCacheAndStash(t *testing.T) {
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager(
		"test-session-key-for-testing-1234567890",
		"test-session",
		"",
		24*time.Hour,
		false,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	h := NewHandler(sessionMgr, testAuditLogger(logger), nil, nil, logger)

	user := testutil.AdminUser()
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/logout", user)
	rec := httptest.NewRecorder()

	// Should not panic with nil cache and stash
	h.handleLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestRoutes(t *testing.T) {
	h, _, sessionMgr := newTestHandler(t)

	router := Routes(h, sessionMgr)
	if router == nil {
		t.Fatal("Routes() returned nil")
	}
}
