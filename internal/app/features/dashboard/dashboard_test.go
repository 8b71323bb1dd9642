package dashboard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/stratacampus/internal/app/features/errors"
	"github.com/dalemusser/stratacampus/internal/app/system/auth"
	"github.com/dalemusser/stratacampus/internal/testutil"
	"go.uber.org/zap"
)

func TestNewHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	h := NewHandler(db, errorsfeature.NewErrorLogger(logger), logger)
	if h == nil {
		t.Fatal("NewHandler() returned nil")
	}
}

func TestRoutes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	h := NewHandler(db, errorsfeature.NewErrorLogger(logger), logger)

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

	router := Routes(h, sessionMgr)
	if router == nil {
		t.Fatal("Routes() returned nil")
	}
}

func TestDashboard_Unauthenticated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	h := NewHandler(db, errorsfeature.NewErrorLogger(logger), logger)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()

	h.showDashboard(rec, req)

	// Should redirect to login
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	location := rec.Header().Get("Location")
	if location != "/login" {
		t.Errorf("Location = %q, want %q", location, "/login")
	}
}

func TestDashboard_AdminView(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	h := NewHandler(db, errorsfeature.NewErrorLogger(logger), logger)

	user := testutil.AdminUser()
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/admin", user)
	rec := httptest.NewRecorder()

	h.showDashboard(rec, req)

	if rec.Code == http.StatusSeeOther && rec.Header().Get("Location") == "/login" {
		t.Error("admin user should not be redirected to login")
	}
}

func TestDashboard_StaffView(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	h := NewHandler(db, errorsfeature.NewErrorLogger(logger), logger)

	user := testutil.StaffUser()
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/admin", user)
	rec := httptest.NewRecorder()

	h.showDashboard(rec, req)

	if rec.Code == http.StatusSeeOther && rec.Header().Get("Location") == "/login" {
		t.Error("staff user should not be redirected to login")
	}
}

func TestActivityHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	h := NewActivityHandler(db, logger)
	if h == nil {
		t.Fatal("NewActivityHandler() returned nil")
	}

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

	if ActivityRoutes(h, sessionMgr) == nil {
		t.Fatal("ActivityRoutes() returned nil")
	}
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"just now", now.Add(-30 * time.Second), "à l'instant"},
		{"minutes", now.Add(-5 * time.Minute), "il y a 5 min"},
		{"hours", now.Add(-3 * time.Hour), "il y a 3 h"},
		{"days", now.Add(-49 * time.Hour), "il y a 2 j"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimeAgo(tt.t, now); got != tt.want {
				t.Errorf("formatTimeAgo() = %q, want %q", got, tt.want)
			}
		})
	}
}
