package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

const testKey = "this-is-a-32-character-long-key!"

// pushAndCarry pushes a message and returns a follow-up request carrying
// the resulting cookies, simulating the redirect round trip.
func pushAndCarry(t *testing.T, s *Stash, push func(http.ResponseWriter, *http.Request, string), text string) *http.Request {
	t.Helper()

	req := httptest.NewRequest("POST", "/admin/faqs/save", nil)
	rec := httptest.NewRecorder()
	push(rec, req, text)

	next := httptest.NewRequest("GET", "/admin/faqs", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	return next
}

func TestStash_PushAndPop(t *testing.T) {
	s := NewStash(testKey, false, zap.NewNop())

	next := pushAndCarry(t, s, s.Success, "FAQ enregistrée")

	rec := httptest.NewRecorder()
	m := s.Pop(rec, next)
	if m == nil {
		t.Fatal("Pop() returned nil, want message")
	}
	if m.Kind != KindSuccess {
		t.Errorf("Kind = %q, want %q", m.Kind, KindSuccess)
	}
	if m.Text != "FAQ enregistrée" {
		t.Errorf("Text = %q, want %q", m.Text, "FAQ enregistrée")
	}
}

func TestStash_PopIsOneShot(t *testing.T) {
	s := NewStash(testKey, false, zap.NewNop())

	next := pushAndCarry(t, s, s.Error, "Échec de l'enregistrement")

	rec := httptest.NewRecorder()
	if m := s.Pop(rec, next); m == nil {
		t.Fatal("first Pop() returned nil")
	}

	// Replay the popped request with the cleared cookie.
	after := httptest.NewRequest("GET", "/admin/faqs", nil)
	for _, c := range rec.Result().Cookies() {
		after.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	if m := s.Pop(rec2, after); m != nil {
		t.Errorf("second Pop() = %+v, want nil", m)
	}
}

func TestStash_PopEmpty(t *testing.T) {
	s := NewStash(testKey, false, zap.NewNop())

	req := httptest.NewRequest("GET", "/admin", nil)
	rec := httptest.NewRecorder()
	if m := s.Pop(rec, req); m != nil {
		t.Errorf("Pop() on empty stash = %+v, want nil", m)
	}
}

func TestStash_NewerMessageReplacesOlder(t *testing.T) {
	s := NewStash(testKey, false, zap.NewNop())

	req := httptest.NewRequest("POST", "/admin/faqs/save", nil)
	rec := httptest.NewRecorder()
	s.Info(rec, req, "first")

	// Second push on a request carrying the first cookie.
	mid := httptest.NewRequest("POST", "/admin/faqs/save", nil)
	for _, c := range rec.Result().Cookies() {
		mid.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	s.Success(rec2, mid, "second")

	next := httptest.NewRequest("GET", "/admin/faqs", nil)
	for _, c := range rec2.Result().Cookies() {
		next.AddCookie(c)
	}
	rec3 := httptest.NewRecorder()
	m := s.Pop(rec3, next)
	if m == nil {
		t.Fatal("Pop() returned nil")
	}
	if m.Text != "second" {
		t.Errorf("Text = %q, want %q (newest wins)", m.Text, "second")
	}
	if m.Kind != KindSuccess {
		t.Errorf("Kind = %q, want %q", m.Kind, KindSuccess)
	}
}

func TestStash_Kinds(t *testing.T) {
	s := NewStash(testKey, false, zap.NewNop())

	tests := []struct {
		name string
		push func(http.ResponseWriter, *http.Request, string)
		kind string
	}{
		{"success", s.Success, KindSuccess},
		{"error", s.Error, KindError},
		{"info", s.Info, KindInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := pushAndCarry(t, s, tt.push, "msg")
			rec := httptest.NewRecorder()
			m := s.Pop(rec, next)
			if m == nil {
				t.Fatal("Pop() returned nil")
			}
			if m.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", m.Kind, tt.kind)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	if Duration != 4*time.Second {
		t.Errorf("Duration = %v, want 4s", Duration)
	}
	m := Message{Kind: KindSuccess, Text: "ok"}
	if m.DurationMS() != 4000 {
		t.Errorf("DurationMS() = %d, want 4000", m.DurationMS())
	}
}
