package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_LogAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	other := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)

	events := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &uid, Success: true, Timestamp: base},
		{Category: audit.CategoryAuth, EventType: audit.EventLogout, UserID: &uid, Success: true, Timestamp: base.Add(time.Minute)},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &other, Success: true, Timestamp: base},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	got, err := store.GetByUser(ctx, uid, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].EventType != audit.EventLogout {
		t.Errorf("newest first: got %q, want %q", got[0].EventType, audit.EventLogout)
	}

	byType, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventLoginSuccess})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(byType) != 2 {
		t.Errorf("by type: got %d, want 2", len(byType))
	}
}

func TestStore_DeleteByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventRegistered, UserID: &uid})

	if err := store.DeleteByUser(ctx, uid); err != nil {
		t.Fatalf("DeleteByUser failed: %v", err)
	}
	got, _ := store.GetByUser(ctx, uid, 10)
	if len(got) != 0 {
		t.Errorf("got %d events, want 0", len(got))
	}
}
