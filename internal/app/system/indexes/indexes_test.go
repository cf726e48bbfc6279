package indexes_test

import (
	"testing"

	"github.com/dalemusser/collabhub/internal/app/system/indexes"
	"github.com/dalemusser/collabhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// SetupTestDB already ran EnsureAll once.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		collection string
		want       []string
	}{
		{"users", []string{"uniq_users_username", "uniq_users_email", "idx_users_usernameci_id"}},
		{"projects", []string{"idx_projects_owner_created", "idx_projects_collaborators_created"}},
		{"tasks", []string{"idx_tasks_project_status", "idx_tasks_project_created", "idx_tasks_author", "idx_tasks_assignee_status"}},
		{"revoked_tokens", []string{"uniq_revoked_tokens_jti", "ttl_revoked_tokens_expires"}},
		{"audit_events", []string{"idx_audit_user_time", "idx_audit_project_time", "idx_audit_category_type_time"}},
	}

	for _, tt := range tests {
		t.Run(tt.collection, func(t *testing.T) {
			cur, err := db.Collection(tt.collection).Indexes().List(ctx)
			if err != nil {
				t.Fatalf("list indexes: %v", err)
			}
			defer cur.Close(ctx)

			names := map[string]bool{}
			for cur.Next(ctx) {
				var idx bson.M
				if err := cur.Decode(&idx); err != nil {
					continue
				}
				if name, ok := idx["name"].(string); ok {
					names[name] = true
				}
			}
			for _, want := range tt.want {
				if !names[want] {
					t.Errorf("missing index %q", want)
				}
			}
		})
	}
}

func TestEnsureAll_UsernameIsUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := db.Collection("users")
	if _, err := users.InsertOne(ctx, bson.M{"username": "mario", "email": "a@example.com"}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := users.InsertOne(ctx, bson.M{"username": "mario", "email": "b@example.com"})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("got %v, want duplicate key error", err)
	}
}
