// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dalemusser/stratacampus/internal/app/store/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination controls where a category of events gets written.
//
//	"all" - database and application log
//	"db"  - database only
//	"log" - application log only
//	"off" - discarded
type Destination string

const (
	DestAll Destination = "all"
	DestDB  Destination = "db"
	DestLog Destination = "log"
	DestOff Destination = "off"
)

// Config selects destinations per event category.
type Config struct {
	Auth    Destination
	Content Destination
}

// DefaultConfig logs auth events everywhere and content events to the
// database only.
func DefaultConfig() Config {
	return Config{
		Auth:    DestAll,
		Content: DestDB,
	}
}

func parseDestination(s string) Destination {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return DestAll
	case "db":
		return DestDB
	case "log":
		return DestLog
	case "off":
		return DestOff
	default:
		return DestAll
	}
}

// ConfigFromStrings builds a Config from raw setting values.
func ConfigFromStrings(auth, content string) Config {
	return Config{
		Auth:    parseDestination(auth),
		Content: parseDestination(content),
	}
}

// Logger records audit events to the configured destinations.
type Logger struct {
	store  *audit.Store
	logger *zap.Logger
	cfg    Config
}

// New creates an audit Logger. The store may be nil, in which case
// database destinations fall back to the application log.
func New(store *audit.Store, logger *zap.Logger, cfg Config) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{store: store, logger: logger, cfg: cfg}
}

func (l *Logger) destFor(category string) Destination {
	switch category {
	case audit.CategoryAuth:
		return l.cfg.Auth
	case audit.CategoryContent:
		return l.cfg.Content
	default:
		return DestAll
	}
}

// getClientIP extracts the client IP, preferring proxy headers.
func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (l *Logger) record(ctx context.Context, event audit.Event) {
	dest := l.destFor(event.Category)
	if dest == DestOff {
		return
	}

	toDB := dest == DestAll || dest == DestDB
	toLog := dest == DestAll || dest == DestLog

	if toDB {
		if l.store == nil {
			toLog = true
		} else if err := l.store.Log(ctx, event); err != nil {
			l.logger.Error("audit: failed to persist event",
				zap.String("event_type", event.EventType),
				zap.Error(err))
			toLog = true
		}
	}

	if toLog {
		l.logToZap(event)
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.Collection != "" {
		fields = append(fields, zap.String("collection", event.Collection))
	}
	if event.DocumentID != "" {
		fields = append(fields, zap.String("document_id", event.DocumentID))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.logger.Info("audit: "+event.EventType, fields...)
	} else {
		l.logger.Warn("audit: "+event.EventType, fields...)
	}
}

func authEvent(r *http.Request, eventType string, success bool) audit.Event {
	ev := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		Success:   success,
		IP:        getClientIP(r),
	}
	if r != nil {
		ev.UserAgent = r.UserAgent()
	}
	return ev
}

// LoginSuccess records a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	ev := authEvent(r, audit.EventLoginSuccess, true)
	ev.ActorID = &userID
	ev.Details = map[string]string{"email": email}
	l.record(ctx, ev)
}

// LoginFailedUserNotFound records a sign-in attempt for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	ev := authEvent(r, audit.EventLoginFailedUserNotFound, false)
	ev.FailureReason = "user not found"
	ev.Details = map[string]string{"email": email}
	l.record(ctx, ev)
}

// LoginFailedWrongPassword records a sign-in attempt with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	ev := authEvent(r, audit.EventLoginFailedWrongPassword, false)
	ev.ActorID = &userID
	ev.FailureReason = "wrong password"
	ev.Details = map[string]string{"email": email}
	l.record(ctx, ev)
}

// LoginFailedUserDisabled records a sign-in attempt on a disabled account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	ev := authEvent(r, audit.EventLoginFailedUserDisabled, false)
	ev.ActorID = &userID
	ev.FailureReason = "account disabled"
	ev.Details = map[string]string{"email": email}
	l.record(ctx, ev)
}

// LoginRateLimited records a sign-in attempt delayed by rate limiting.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, email string) {
	ev := authEvent(r, audit.EventLoginRateLimited, false)
	ev.FailureReason = "rate limited"
	ev.Details = map[string]string{"email": email}
	l.record(ctx, ev)
}

// LoginLockedOut records a sign-in attempt on a locked-out email.
func (l *Logger) LoginLockedOut(ctx context.Context, r *http.Request, email string) {
	ev := authEvent(r, audit.EventLoginLockedOut, false)
	ev.FailureReason = "locked out"
	ev.Details = map[string]string{"email": email}
	l.record(ctx, ev)
}

// Logout records a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	ev := authEvent(r, audit.EventLogout, true)
	ev.ActorID = &userID
	l.record(ctx, ev)
}

// PasswordChanged records a password change.
func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	ev := authEvent(r, audit.EventPasswordChanged, true)
	ev.ActorID = &userID
	l.record(ctx, ev)
}

func contentEvent(r *http.Request, eventType, collection, documentID string, actorID primitive.ObjectID) audit.Event {
	ev := audit.Event{
		Category:   audit.CategoryContent,
		EventType:  eventType,
		Success:    true,
		Collection: collection,
		DocumentID: documentID,
		IP:         getClientIP(r),
	}
	if !actorID.IsZero() {
		ev.ActorID = &actorID
	}
	if r != nil {
		ev.UserAgent = r.UserAgent()
	}
	return ev
}

// ContentCreated records the creation of a content document.
func (l *Logger) ContentCreated(ctx context.Context, r *http.Request, actorID primitive.ObjectID, collection, documentID string) {
	l.record(ctx, contentEvent(r, audit.EventContentCreated, collection, documentID, actorID))
}

// ContentUpdated records an update to a content document.
func (l *Logger) ContentUpdated(ctx context.Context, r *http.Request, actorID primitive.ObjectID, collection, documentID string) {
	l.record(ctx, contentEvent(r, audit.EventContentUpdated, collection, documentID, actorID))
}

// ContentDeleted records the deletion of a content document.
func (l *Logger) ContentDeleted(ctx context.Context, r *http.Request, actorID primitive.ObjectID, collection, documentID string) {
	l.record(ctx, contentEvent(r, audit.EventContentDeleted, collection, documentID, actorID))
}
