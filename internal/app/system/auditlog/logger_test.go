package auditlog_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type recordingStore struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingStore) Log(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	req := httptest.NewRequest("POST", "/auth/login", nil)

	// must not panic
	logger.Log(context.Background(), audit.Event{EventType: "test"})
	logger.LoginSuccess(context.Background(), req, primitive.NewObjectID(), "mario")
	logger.Logout(context.Background(), req, primitive.NewObjectID(), false)
}

func TestLogger_Settings(t *testing.T) {
	tests := []struct {
		setting string
		stored  int
	}{
		{"all", 1},
		{"db", 1},
		{"log", 0},
		{"off", 0},
	}

	for _, tt := range tests {
		t.Run(tt.setting, func(t *testing.T) {
			store := &recordingStore{}
			logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: tt.setting, Project: tt.setting})
			req := httptest.NewRequest("POST", "/auth/login", nil)

			logger.LoginSuccess(context.Background(), req, primitive.NewObjectID(), "mario")

			if len(store.events) != tt.stored {
				t.Errorf("stored: got %d, want %d", len(store.events), tt.stored)
			}
		})
	}
}

func TestLogger_LoginFailed(t *testing.T) {
	store := &recordingStore{}
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")

	logger.LoginFailed(context.Background(), req, nil, "ghost", "user not found")

	if len(store.events) != 1 {
		t.Fatalf("got %d events, want 1", len(store.events))
	}
	e := store.events[0]
	if e.Success {
		t.Error("expected Success=false")
	}
	if e.FailureReason != "user not found" {
		t.Errorf("reason: got %q", e.FailureReason)
	}
	if e.IP != "203.0.113.7" {
		t.Errorf("ip: got %q, want %q", e.IP, "203.0.113.7")
	}
	if e.UserID != nil {
		t.Error("expected nil UserID for unknown user")
	}
}

func TestLogger_CollaboratorAdded(t *testing.T) {
	store := &recordingStore{}
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Project: "all"})
	req := httptest.NewRequest("POST", "/projects/x/add_collaborator", nil)

	actor, project, user := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	logger.CollaboratorAdded(context.Background(), req, actor, project, user)

	e := store.events[0]
	if e.Category != audit.CategoryProject || e.EventType != audit.EventCollaboratorAdded {
		t.Errorf("got %s/%s", e.Category, e.EventType)
	}
	if *e.ActorID != actor || *e.ProjectID != project || *e.UserID != user {
		t.Error("ids not recorded")
	}
}

func TestLogger_WritesToMongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "all"})
	uid := primitive.NewObjectID()
	logger.Registered(ctx, httptest.NewRequest("POST", "/auth/register", nil), uid, "mario")

	events, err := store.GetByUser(ctx, uid, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventRegistered {
		t.Errorf("got %+v", events)
	}
}
