package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/casebrief/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:        "test-1",
		ActorType: ActorUser,
		ActorID:   "alice",
		Action:    ActionAnswerRecorded,
		SessionID: "sess-1",
		Slot:      "persona",
		Summary:   "Answered persona",
		Detail:    "I run a bakery",
	}

	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.ActorID != "alice" {
		t.Errorf("ActorID = %q, want %q", got.ActorID, "alice")
	}
	if got.Action != ActionAnswerRecorded {
		t.Errorf("Action = %q, want %q", got.Action, ActionAnswerRecorded)
	}
	if got.SessionID != "sess-1" || got.Slot != "persona" {
		t.Errorf("SessionID/Slot = %q/%q", got.SessionID, got.Slot)
	}
	if got.Detail != "I run a bakery" {
		t.Errorf("Detail = %q", got.Detail)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestLogGeneratesUUIDAndDefaultActor(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{ActorID: "casebrief", Action: ActionSessionStarted, SessionID: "s"}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if len(entries[0].ID) != 36 {
		t.Errorf("expected UUID id, got %q", entries[0].ID)
	}
	if entries[0].ActorType != ActorSystem {
		t.Errorf("expected default actor type system, got %q", entries[0].ActorType)
	}
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	entries := []Entry{
		{ActorType: ActorUser, ActorID: "u1", Action: ActionAnswerRecorded, SessionID: "s1", Slot: "problem"},
		{ActorType: ActorSystem, ActorID: "casebrief", Action: ActionQuestionIssued, SessionID: "s1", Slot: "persona"},
		{ActorType: ActorUser, ActorID: "u1", Action: ActionAnswerRecorded, SessionID: "s1", Slot: "persona"},
		{ActorType: ActorSystem, ActorID: "casebrief", Action: ActionDialogueCompleted, SessionID: "s1"},
		{ActorType: ActorUser, ActorID: "u2", Action: ActionAnswerRecorded, SessionID: "s2", Slot: "problem"},
	}
	for _, e := range entries {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
}

func TestQueryBySessionKeepsOrder(t *testing.T) {
	store := setupStore(t)
	seed(t, store)

	got, err := store.Query(context.Background(), QueryFilter{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(got))
	}
	want := []Action{ActionAnswerRecorded, ActionQuestionIssued, ActionAnswerRecorded, ActionDialogueCompleted}
	for i, e := range got {
		if e.Action != want[i] {
			t.Errorf("entry %d: action %q, want %q", i, e.Action, want[i])
		}
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	seed(t, store)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"by actor", QueryFilter{ActorID: "u1"}, 2},
		{"by action", QueryFilter{Action: ActionAnswerRecorded}, 3},
		{"by slot", QueryFilter{Slot: "problem"}, 2},
		{"combined", QueryFilter{SessionID: "s2", Action: ActionAnswerRecorded}, 1},
		{"limit", QueryFilter{Limit: 2}, 2},
		{"limit offset", QueryFilter{Limit: 2, Offset: 4}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(got))
			}
		})
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	seed(t, store)
	ctx := context.Background()

	// Delete entries before far in the future (should delete all).
	deleted, err := store.DeleteBefore(ctx, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 5 {
		t.Errorf("expected 5 deleted, got %d", deleted)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func setupRouter(t *testing.T) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPGetByID(t *testing.T) {
	r, store := setupRouter(t)
	if err := store.Log(context.Background(), Entry{ID: "http-1", ActorID: "u", Action: ActionSlotCompleted, Slot: "persona"}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit/http-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "http-1" || got.Action != ActionSlotCompleted {
		t.Errorf("unexpected entry %+v", got)
	}
}

func TestHTTPGetByIDNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHTTPQueryBySession(t *testing.T) {
	r, store := setupRouter(t)
	seed(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/audit?session_id=s2", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ActorID != "u2" {
		t.Errorf("unexpected entries %+v", got)
	}
}

func TestHTTPQueryEmptyIsArray(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit?session_id=none", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}
