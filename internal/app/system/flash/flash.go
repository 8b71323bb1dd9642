// internal/app/system/flash/flash.go
// Package flash carries one-shot toast messages across a redirect using a
// short-lived session cookie. A message survives exactly one round trip:
// the handler that performs a save or delete pushes it, and the page
// rendered after the redirect pops and displays it.
package flash

import (
	"encoding/gob"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Duration is how long a toast stays visible before auto-dismissing.
// The dismiss timer lives client side; this constant is handed to the
// templates so the markup and the behavior stay in one place.
const Duration = 4 * time.Second

// Message kinds.
const (
	KindSuccess = "success"
	KindError   = "error"
	KindInfo    = "info"
)

const (
	cookieName = "stratacampus-flash"
	valuesKey  = "message"
)

// Message is a single toast.
type Message struct {
	Kind string
	Text string
}

// DurationMS returns the auto-dismiss duration in milliseconds, for
// embedding in template attributes.
func (m Message) DurationMS() int64 {
	return Duration.Milliseconds()
}

func init() {
	gob.Register(Message{})
}

// Stash stores and retrieves flash messages. Only the newest message is
// kept; pushing a second message before the first is shown replaces it,
// which matches how the toast area renders a single notification.
type Stash struct {
	store  *sessions.CookieStore
	logger *zap.Logger
}

// NewStash creates a flash stash signed with the given key. The cookie
// lives just long enough to survive a redirect.
func NewStash(sessionKey string, secure bool, logger *zap.Logger) *Stash {
	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((5 * time.Minute).Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Stash{store: store, logger: logger}
}

// Success pushes a success toast.
func (s *Stash) Success(w http.ResponseWriter, r *http.Request, text string) {
	s.push(w, r, Message{Kind: KindSuccess, Text: text})
}

// Error pushes an error toast.
func (s *Stash) Error(w http.ResponseWriter, r *http.Request, text string) {
	s.push(w, r, Message{Kind: KindError, Text: text})
}

// Info pushes an info toast.
func (s *Stash) Info(w http.ResponseWriter, r *http.Request, text string) {
	s.push(w, r, Message{Kind: KindInfo, Text: text})
}

func (s *Stash) push(w http.ResponseWriter, r *http.Request, m Message) {
	sess, err := s.store.Get(r, cookieName)
	if err != nil {
		// Stale or tampered cookie; start fresh.
		sess, _ = s.store.New(r, cookieName)
	}
	sess.Values[valuesKey] = m
	if err := sess.Save(r, w); err != nil {
		s.logger.Warn("failed to save flash message", zap.Error(err))
	}
}

// Pop returns the pending message, if any, and clears it so it is shown
// at most once.
func (s *Stash) Pop(w http.ResponseWriter, r *http.Request) *Message {
	sess, err := s.store.Get(r, cookieName)
	if err != nil {
		return nil
	}
	raw, ok := sess.Values[valuesKey]
	if !ok {
		return nil
	}
	delete(sess.Values, valuesKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		s.logger.Warn("failed to clear flash message", zap.Error(err))
	}
	m, ok := raw.(Message)
	if !ok {
		return nil
	}
	return &m
}
