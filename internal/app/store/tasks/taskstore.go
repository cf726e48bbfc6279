package taskstore

import (
	"context"
	"time"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// Create inserts t. ID and timestamps are filled in when zero.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	t.UpdatedAt = t.CreatedAt
	if t.Status == "" {
		t.Status = models.StatusTodo
	}

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID loads a task by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListForProjects returns every task in any of projectIDs, newest first.
func (s *Store) ListForProjects(ctx context.Context, projectIDs []primitive.ObjectID) ([]models.Task, error) {
	if len(projectIDs) == 0 {
		return []models.Task{}, nil
	}
	return s.find(ctx, bson.M{"project_id": bson.M{"$in": projectIDs}})
}

// ListByProject returns the tasks of one project, newest first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	return s.find(ctx, bson.M{"project_id": projectID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds editable task fields. Nil pointers are left untouched.
// SetDueDate and SetAssignee mark the nullable fields as present; a nil
// value with the flag set clears the field.
type Update struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus

	SetDueDate bool
	DueDate    *time.Time

	SetAssignee bool
	AssigneeID  *primitive.ObjectID
}

// Update applies upd and returns the updated task.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update, now time.Time) (*models.Task, error) {
	set := bson.M{"updated_at": now}
	unset := bson.M{}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.SetDueDate {
		if upd.DueDate == nil {
			unset["due_date"] = ""
		} else {
			set["due_date"] = *upd.DueDate
		}
	}
	if upd.SetAssignee {
		if upd.AssigneeID == nil {
			unset["assignee_id"] = ""
		} else {
			set["assignee_id"] = *upd.AssigneeID
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var t models.Task
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes a single task.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByProjects removes every task belonging to any of projectIDs.
func (s *Store) DeleteByProjects(ctx context.Context, projectIDs []primitive.ObjectID) (int64, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": bson.M{"$in": projectIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByAuthor removes every task authored by userID.
func (s *Store) DeleteByAuthor(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"author_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// UnsetAssignee clears the assignee on every task assigned to userID.
func (s *Store) UnsetAssignee(ctx context.Context, userID primitive.ObjectID, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"assignee_id": userID},
		bson.M{"$unset": bson.M{"assignee_id": ""}, "$set": bson.M{"updated_at": now}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountsByProject returns the status breakdown for one project.
func (s *Store) CountsByProject(ctx context.Context, projectID primitive.ObjectID) (models.TaskCounts, error) {
	return s.countByStatus(ctx, bson.M{"project_id": projectID})
}

// CountsForUser returns the status breakdown over tasks userID is assigned
// to or authored.
func (s *Store) CountsForUser(ctx context.Context, userID primitive.ObjectID) (models.TaskCounts, error) {
	return s.countByStatus(ctx, bson.M{"$or": bson.A{
		bson.M{"assignee_id": userID},
		bson.M{"author_id": userID},
	}})
}

func (s *Store) countByStatus(ctx context.Context, match bson.M) (models.TaskCounts, error) {
	var counts models.TaskCounts
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return counts, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			Status models.TaskStatus `bson:"_id"`
			N      int64             `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return counts, err
		}
		counts.Add(row.Status, row.N)
	}
	return counts, cur.Err()
}

// CountAssigned returns how many tasks are assigned to userID and how many
// of those are done.
func (s *Store) CountAssigned(ctx context.Context, userID primitive.ObjectID) (total, done int64, err error) {
	total, err = s.c.CountDocuments(ctx, bson.M{"assignee_id": userID})
	if err != nil {
		return 0, 0, err
	}
	done, err = s.c.CountDocuments(ctx, bson.M{"assignee_id": userID, "status": models.StatusDone})
	if err != nil {
		return 0, 0, err
	}
	return total, done, nil
}

// CountAuthored counts tasks authored by userID.
func (s *Store) CountAuthored(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"author_id": userID})
}
