// internal/domain/models/project.go
package models

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a unit of collaboration owned by exactly one user.
//
// NOTE:
//   - Owner and collaborator status are independent; the owner may also
//     appear in CollaboratorIDs.
//   - CollaboratorIDs is maintained with $addToSet/$pull so it never
//     holds duplicates.
type Project struct {
	ID              primitive.ObjectID   `bson:"_id" json:"id"`
	Name            string               `bson:"name" json:"name"`
	Description     string               `bson:"description" json:"description"`
	OwnerID         primitive.ObjectID   `bson:"owner_id" json:"owner_id"`
	CollaboratorIDs []primitive.ObjectID `bson:"collaborator_ids" json:"collaborator_ids"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsOwner reports whether userID owns the project.
func (p Project) IsOwner(userID primitive.ObjectID) bool {
	return p.OwnerID == userID
}

// IsCollaborator reports whether userID is in the collaborator set.
func (p Project) IsCollaborator(userID primitive.ObjectID) bool {
	for _, id := range p.CollaboratorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsMember reports whether userID is the owner or a collaborator.
func (p Project) IsMember(userID primitive.ObjectID) bool {
	return p.IsOwner(userID) || p.IsCollaborator(userID)
}

// TaskCounts holds the number of tasks in a project by status.
type TaskCounts struct {
	Total      int64 `bson:"total" json:"total_tasks"`
	Todo       int64 `bson:"todo" json:"todo_tasks"`
	InProgress int64 `bson:"in_progress" json:"in_progress_tasks"`
	Done       int64 `bson:"done" json:"done_tasks"`
}

// Add increments the counter for status by n and bumps Total.
func (c *TaskCounts) Add(status TaskStatus, n int64) {
	switch status {
	case StatusTodo:
		c.Todo += n
	case StatusInProgress:
		c.InProgress += n
	case StatusDone:
		c.Done += n
	}
	c.Total += n
}

// CompletionPercentage is done/total*100 rounded to one decimal place,
// or 0 when there are no tasks. Exact ties round to even (1 of 16 is 6.2).
func (c TaskCounts) CompletionPercentage() float64 {
	if c.Total <= 0 {
		return 0
	}
	pct := float64(c.Done) / float64(c.Total) * 100
	// FormatFloat rounds the exact binary value, half to even.
	v, _ := strconv.ParseFloat(strconv.FormatFloat(pct, 'f', 1, 64), 64)
	return v
}

// ProjectWithCounts is a project annotated with its task counts, as
// returned by the membership listing aggregation.
type ProjectWithCounts struct {
	Project `bson:",inline"`
	Counts  TaskCounts `bson:"counts"`
}
