package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plaintext password of every fixture user.
const FixturePassword = "correct-horse-battery"

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active user whose email is derived from the
// username. The password is FixturePassword.
func (f *Fixtures) CreateUser(ctx context.Context, username string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		UsernameCI:   text.Fold(username),
		Email:        strings.ToLower(username) + "@example.com",
		FirstName:    "Test",
		LastName:     username,
		PasswordHash: string(hash),
		IsActive:     true,
		DateJoined:   now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create user: %v", err)
	}
	return u
}

// CreateProject inserts a project owned by owner with the given
// collaborators.
func (f *Fixtures) CreateProject(ctx context.Context, owner primitive.ObjectID, name string, collaborators ...primitive.ObjectID) models.Project {
	f.t.Helper()

	if collaborators == nil {
		collaborators = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	p := models.Project{
		ID:              primitive.NewObjectID(),
		Name:            name,
		OwnerID:         owner,
		CollaboratorIDs: collaborators,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create project: %v", err)
	}
	return p
}

// CreateTask inserts a task in project authored by author.
func (f *Fixtures) CreateTask(ctx context.Context, project, author primitive.ObjectID, title string, status models.TaskStatus) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	t := models.Task{
		ID:        primitive.NewObjectID(),
		Title:     title,
		ProjectID: project,
		AuthorID:  author,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, t); err != nil {
		f.t.Fatalf("failed to create task: %v", err)
	}
	return t
}

// AssignTask sets the assignee of an existing task.
func (f *Fixtures) AssignTask(ctx context.Context, taskID, assignee primitive.ObjectID) {
	f.t.Helper()

	_, err := f.db.Collection("tasks").UpdateByID(ctx, taskID, bson.M{
		"$set": bson.M{"assignee_id": assignee},
	})
	if err != nil {
		f.t.Fatalf("failed to assign task: %v", err)
	}
}
