package access_test

import (
	"testing"

	"github.com/dalemusser/collabhub/internal/app/policy/access"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAllowed_ProjectAndTask(t *testing.T) {
	owner := primitive.NewObjectID()
	collab := primitive.NewObjectID()
	author := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	p := models.Project{OwnerID: owner, CollaboratorIDs: []primitive.ObjectID{collab, author}}
	task := models.Task{AuthorID: author}

	tests := []struct {
		name   string
		kind   access.Kind
		action access.Action
		actor  primitive.ObjectID
		want   bool
	}{
		{"owner reads project", access.KindProject, access.Read, owner, true},
		{"collaborator reads project", access.KindProject, access.Read, collab, true},
		{"stranger reads project", access.KindProject, access.Read, stranger, false},
		{"collaborator updates project", access.KindProject, access.Update, collab, false},
		{"owner deletes project", access.KindProject, access.Delete, owner, true},
		{"stranger creates project", access.KindProject, access.Create, stranger, true},
		{"anonymous creates project", access.KindProject, access.Create, primitive.NilObjectID, false},

		{"stranger reads task", access.KindTask, access.Read, stranger, false},
		{"collaborator creates task", access.KindTask, access.Create, collab, true},
		{"stranger creates task", access.KindTask, access.Create, stranger, false},
		{"collaborator updates task", access.KindTask, access.Update, collab, true},
		{"collaborator deletes task", access.KindTask, access.Delete, collab, false},
		{"author deletes task", access.KindTask, access.Delete, author, true},
		{"owner deletes task", access.KindTask, access.Delete, owner, true},
		{"stranger updates task", access.KindTask, access.Update, stranger, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := access.Allowed(tt.kind, tt.action, access.ForTask(tt.actor, p, task))
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllowed_Owned(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	if !access.Allowed(access.KindOwned, access.Read, access.ForOwned(other, owner)) {
		t.Error("any authenticated actor should read")
	}
	if access.Allowed(access.KindOwned, access.Update, access.ForOwned(other, owner)) {
		t.Error("non-owner should not update")
	}
	if !access.Allowed(access.KindOwned, access.Delete, access.ForOwned(owner, owner)) {
		t.Error("owner should delete")
	}
}

func TestAllowed_UnknownKindDenies(t *testing.T) {
	actor := primitive.NewObjectID()
	if access.Allowed(access.Kind("comment"), access.Read, access.ForOwned(actor, actor)) {
		t.Error("unknown kind should deny")
	}
	if access.Allowed(access.KindProject, access.Action("archive"), access.ForOwned(actor, actor)) {
		t.Error("unknown action should deny")
	}
}

func TestMembershipMatchesModel(t *testing.T) {
	owner := primitive.NewObjectID()
	collab := primitive.NewObjectID()
	p := models.Project{OwnerID: owner, CollaboratorIDs: []primitive.ObjectID{collab}}

	for _, u := range []primitive.ObjectID{owner, collab, primitive.NewObjectID()} {
		got := access.Allowed(access.KindProject, access.Read, access.ForProject(u, p))
		if got != p.IsMember(u) {
			t.Errorf("user %s: got %v, want %v", u.Hex(), got, p.IsMember(u))
		}
	}
}
