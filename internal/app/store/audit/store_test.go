package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/stratacampus/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	if store == nil {
		t.Fatal("New() returned nil")
	}
}

func TestStore_EnsureIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Note: SetupTestDB already creates indexes via indexes.EnsureAll
	// This test verifies EnsureIndexes doesn't error on existing indexes
	// (it may conflict with differently-named indexes, which is acceptable)
	err := store.EnsureIndexes(ctx)
	if err != nil {
		if !isIndexConflict(err) {
			t.Fatalf("EnsureIndexes() error = %v", err)
		}
	}
}

// isIndexConflict checks if error is due to index name conflict
func isIndexConflict(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "IndexOptionsConflict") || strings.Contains(s, "already exists with a different name")
}

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actorID := primitive.NewObjectID()
	event := Event{
		Category:  CategoryAuth,
		EventType: EventLoginSuccess,
		ActorID:   &actorID,
		IP:        "192.168.1.1",
		UserAgent: "TestAgent",
		Success:   true,
	}

	err := store.Log(ctx, event)
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	// Verify event was logged
	events, err := store.GetByActor(ctx, actorID, 10)
	if err != nil {
		t.Fatalf("GetByActor() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("Expected 1 event, got %d", len(events))
	}
}

func TestStore_Log_WithID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()
	createdAt := time.Now().Add(-1 * time.Hour)
	event := Event{
		ID:         eventID,
		CreatedAt:  createdAt,
		Category:   CategoryContent,
		EventType:  EventContentCreated,
		Collection: "faqs",
		Success:    true,
	}

	err := store.Log(ctx, event)
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	// Verify the provided ID and CreatedAt were preserved
	events, err := store.Query(ctx, QueryFilter{EventType: EventContentCreated})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].ID != eventID {
		t.Errorf("ID = %v, want %v", events[0].ID, eventID)
	}
}

func TestStore_Query(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	editorID := primitive.NewObjectID()

	// Create test events
	events := []Event{
		{Category: CategoryAuth, EventType: EventLoginSuccess, ActorID: &userID, Success: true},
		{Category: CategoryAuth, EventType: EventLoginFailedWrongPassword, ActorID: &userID, Success: false},
		{Category: CategoryContent, EventType: EventContentUpdated, ActorID: &editorID, Collection: "notices", Success: true},
	}

	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	tests := []struct {
		name      string
		filter    QueryFilter
		wantCount int
	}{
		{"all events", QueryFilter{}, 3},
		{"by actor", QueryFilter{ActorID: &userID}, 2},
		{"by category auth", QueryFilter{Category: CategoryAuth}, 2},
		{"by category content", QueryFilter{Category: CategoryContent}, 1},
		{"by event type", QueryFilter{EventType: EventLoginSuccess}, 1},
		{"by collection", QueryFilter{Collection: "notices"}, 1},
		{"with limit", QueryFilter{Limit: 2}, 2},
		{"second page", QueryFilter{Limit: 2, Page: 2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(result) != tt.wantCount {
				t.Errorf("Query() returned %d events, want %d", len(result), tt.wantCount)
			}
		})
	}
}

func TestStore_Query_TimeRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	past := now.Add(-1 * time.Hour)
	future := now.Add(1 * time.Hour)

	// Log event
	event := Event{
		Category:  CategoryAuth,
		EventType: EventLoginSuccess,
		CreatedAt: now,
		Success:   true,
	}
	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	tests := []struct {
		name      string
		start     *time.Time
		end       *time.Time
		wantCount int
	}{
		{"start before", &past, nil, 1},
		{"start after", &future, nil, 0},
		{"end after", nil, &future, 1},
		{"end before", nil, &past, 0},
		{"range includes", &past, &future, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := store.Query(ctx, QueryFilter{StartTime: tt.start, EndTime: tt.end})
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(result) != tt.wantCount {
				t.Errorf("Query() returned %d events, want %d", len(result), tt.wantCount)
			}
		})
	}
}

func TestStore_CountByFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actorID := primitive.NewObjectID()

	// Create test events
	for i := 0; i < 5; i++ {
		event := Event{
			Category:  CategoryAuth,
			EventType: EventLoginSuccess,
			ActorID:   &actorID,
			Success:   true,
		}
		if err := store.Log(ctx, event); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	count, err := store.CountByFilter(ctx, QueryFilter{ActorID: &actorID})
	if err != nil {
		t.Fatalf("CountByFilter() error = %v", err)
	}
	if count != 5 {
		t.Errorf("CountByFilter() = %d, want 5", count)
	}

	count, err = store.CountByFilter(ctx, QueryFilter{Category: CategoryContent})
	if err != nil {
		t.Fatalf("CountByFilter() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountByFilter() for non-matching = %d, want 0", count)
	}
}

func TestStore_GetByActor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actorID := primitive.NewObjectID()
	otherActorID := primitive.NewObjectID()

	// Create events for actor
	for i := 0; i < 3; i++ {
		event := Event{
			Category:  CategoryAuth,
			EventType: EventLoginSuccess,
			ActorID:   &actorID,
			Success:   true,
		}
		if err := store.Log(ctx, event); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	// Create event for other actor
	otherEvent := Event{
		Category:  CategoryAuth,
		EventType: EventLoginSuccess,
		ActorID:   &otherActorID,
		Success:   true,
	}
	if err := store.Log(ctx, otherEvent); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	events, err := store.GetByActor(ctx, actorID, 10)
	if err != nil {
		t.Fatalf("GetByActor() error = %v", err)
	}
	if len(events) != 3 {
		t.Errorf("GetByActor() returned %d events, want 3", len(events))
	}

	// Verify all events belong to the actor
	for _, e := range events {
		if e.ActorID == nil || *e.ActorID != actorID {
			t.Error("Event does not belong to expected actor")
		}
	}
}

func TestStore_GetRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Create events
	for i := 0; i < 5; i++ {
		event := Event{
			Category:  CategoryAuth,
			EventType: EventLoginSuccess,
			Success:   true,
		}
		if err := store.Log(ctx, event); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	events, err := store.GetRecent(ctx, 3)
	if err != nil {
		t.Fatalf("GetRecent() error = %v", err)
	}
	if len(events) != 3 {
		t.Errorf("GetRecent() returned %d events, want 3", len(events))
	}
}

func TestStore_GetFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actorID := primitive.NewObjectID()
	since := time.Now().Add(-1 * time.Hour)

	// Create failed login events
	failedEvents := []Event{
		{Category: CategoryAuth, EventType: EventLoginFailedWrongPassword, ActorID: &actorID, Success: false},
		{Category: CategoryAuth, EventType: EventLoginFailedUserNotFound, Success: false},
		{Category: CategoryAuth, EventType: EventLoginFailedUserDisabled, ActorID: &actorID, Success: false},
	}

	for _, e := range failedEvents {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	// Create successful login (should not be returned)
	successEvent := Event{
		Category:  CategoryAuth,
		EventType: EventLoginSuccess,
		ActorID:   &actorID,
		Success:   true,
	}
	if err := store.Log(ctx, successEvent); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	events, err := store.GetFailedLogins(ctx, since, 10)
	if err != nil {
		t.Fatalf("GetFailedLogins() error = %v", err)
	}
	if len(events) != 3 {
		t.Errorf("GetFailedLogins() returned %d events, want 3", len(events))
	}

	// Verify all are failed
	for _, e := range events {
		if e.Success {
			t.Error("GetFailedLogins() returned successful event")
		}
	}
}

func TestStore_Log_WithDetails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	event := Event{
		Category:  CategoryAuth,
		EventType: EventLoginFailedUserNotFound,
		Success:   false,
		Details: map[string]string{
			"email": "inconnu@example.org",
		},
	}

	err := store.Log(ctx, event)
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	// Retrieve and verify
	events, err := store.Query(ctx, QueryFilter{EventType: EventLoginFailedUserNotFound})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Details["email"] != "inconnu@example.org" {
		t.Errorf("Details[email] = %v, want inconnu@example.org", events[0].Details["email"])
	}
}

func TestConstants(t *testing.T) {
	if CategoryAuth != "auth" {
		t.Errorf("CategoryAuth = %q, want auth", CategoryAuth)
	}
	if CategoryContent != "content" {
		t.Errorf("CategoryContent = %q, want content", CategoryContent)
	}

	// Verify event types are non-empty
	eventTypes := []string{
		EventLoginSuccess,
		EventLoginFailedUserNotFound,
		EventLoginFailedWrongPassword,
		EventLoginFailedUserDisabled,
		EventLoginRateLimited,
		EventLoginLockedOut,
		EventLogout,
		EventPasswordChanged,
		EventContentCreated,
		EventContentUpdated,
		EventContentDeleted,
	}

	for _, et := range eventTypes {
		if et == "" {
			t.Error("Event type constant is empty")
		}
	}
}
