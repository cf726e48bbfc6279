package projectstore_test

import (
	"errors"
	"testing"
	"time"

	projectstore "github.com/dalemusser/collabhub/internal/app/store/projects"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/collabhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateDedupesCollaborators(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner, c1 := primitive.NewObjectID(), primitive.NewObjectID()
	p, err := store.Create(ctx, models.Project{
		Name:            "Website",
		OwnerID:         owner,
		CollaboratorIDs: []primitive.ObjectID{c1, c1},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.CollaboratorIDs) != 1 || got.CollaboratorIDs[0] != c1 {
		t.Errorf("collaborators: got %v, want [%s]", got.CollaboratorIDs, c1.Hex())
	}
	if got.CreatedAt.IsZero() || !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Errorf("timestamps: created %v updated %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestStore_ListForMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fx.CreateUser(ctx, "alice")
	bob := fx.CreateUser(ctx, "bob")
	carol := fx.CreateUser(ctx, "carol")

	owned, _ := store.Create(ctx, models.Project{Name: "owned", OwnerID: alice.ID})
	time.Sleep(5 * time.Millisecond)
	shared, _ := store.Create(ctx, models.Project{Name: "shared", OwnerID: bob.ID, CollaboratorIDs: []primitive.ObjectID{alice.ID}})
	_, _ = store.Create(ctx, models.Project{Name: "other", OwnerID: carol.ID})

	fx.CreateTask(ctx, owned.ID, alice.ID, "a", models.StatusDone)
	fx.CreateTask(ctx, owned.ID, alice.ID, "b", models.StatusInProgress)
	fx.CreateTask(ctx, owned.ID, alice.ID, "c", models.StatusTodo)
	fx.CreateTask(ctx, owned.ID, alice.ID, "d", models.StatusDone)

	list, err := store.ListForMember(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListForMember failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d projects, want 2", len(list))
	}
	if list[0].ID != shared.ID || list[1].ID != owned.ID {
		t.Errorf("order: got %s, %s; want newest first", list[0].Name, list[1].Name)
	}

	want := models.TaskCounts{Total: 4, Todo: 1, InProgress: 1, Done: 2}
	if list[1].Counts != want {
		t.Errorf("counts: got %+v, want %+v", list[1].Counts, want)
	}
	if list[0].Counts != (models.TaskCounts{}) {
		t.Errorf("empty project counts: got %+v", list[0].Counts)
	}
}

func TestStore_Counts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me, other := primitive.NewObjectID(), primitive.NewObjectID()
	_, _ = store.Create(ctx, models.Project{Name: "mine", OwnerID: me})
	_, _ = store.Create(ctx, models.Project{Name: "mine too", OwnerID: me, CollaboratorIDs: []primitive.ObjectID{me}})
	_, _ = store.Create(ctx, models.Project{Name: "theirs", OwnerID: other, CollaboratorIDs: []primitive.ObjectID{me}})

	owned, err := store.CountOwned(ctx, me)
	if err != nil || owned != 2 {
		t.Errorf("CountOwned: got (%d, %v), want 2", owned, err)
	}
	collab, err := store.CountCollaborating(ctx, me)
	if err != nil || collab != 1 {
		t.Errorf("CountCollaborating: got (%d, %v), want 1", collab, err)
	}
	ids, _ := store.IDsForMember(ctx, me)
	if len(ids) != 3 {
		t.Errorf("IDsForMember: got %d, want 3", len(ids))
	}
}

func TestStore_CollaboratorRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner, u := primitive.NewObjectID(), primitive.NewObjectID()
	p, _ := store.Create(ctx, models.Project{Name: "p", OwnerID: owner})
	now := time.Now().UTC()

	steps := []struct {
		name string
		op   func() (bool, error)
		want bool
	}{
		{"add", func() (bool, error) { return store.AddCollaborator(ctx, p.ID, u, now) }, true},
		{"add again", func() (bool, error) { return store.AddCollaborator(ctx, p.ID, u, now) }, false},
		{"remove", func() (bool, error) { return store.RemoveCollaborator(ctx, p.ID, u, now) }, true},
		{"remove again", func() (bool, error) { return store.RemoveCollaborator(ctx, p.ID, u, now) }, false},
	}
	for _, s := range steps {
		got, err := s.op()
		if err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
		if got != s.want {
			t.Errorf("%s: got %v, want %v", s.name, got, s.want)
		}
	}

	got, _ := store.GetByID(ctx, p.ID)
	if len(got.CollaboratorIDs) != 0 {
		t.Errorf("collaborators after round trip: got %v, want none", got.CollaboratorIDs)
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner, c := primitive.NewObjectID(), primitive.NewObjectID()
	p, _ := store.Create(ctx, models.Project{Name: "old", OwnerID: owner})

	name := "new"
	collabs := []primitive.ObjectID{c}
	got, err := store.Update(ctx, p.ID, projectstore.Update{Name: &name, CollaboratorIDs: &collabs}, time.Now().UTC())
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Name != "new" || !got.IsCollaborator(c) || got.OwnerID != owner {
		t.Errorf("got %+v", got)
	}

	_ = store.PullCollaboratorEverywhere(ctx, c)
	got, _ = store.GetByID(ctx, p.ID)
	if got.IsCollaborator(c) {
		t.Error("collaborator should have been pulled")
	}

	n, err := store.Delete(ctx, p.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete: got (%d, %v)", n, err)
	}
	if _, err := store.GetByID(ctx, p.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("got %v, want ErrNoDocuments", err)
	}
}
