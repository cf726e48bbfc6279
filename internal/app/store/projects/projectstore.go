package projectstore

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
	return &Store{c: db.Collection("projects")}
}

// memberFilter matches projects userID owns or collaborates on.
func memberFilter(userID primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"owner_id": userID},
		bson.M{"collaborator_ids": userID},
	}}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// Create inserts p. ID and timestamps are filled in when zero.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	p.UpdatedAt = p.CreatedAt
	p.CollaboratorIDs = dedupe(p.CollaboratorIDs)

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// GetByID loads a project by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

type statusCount struct {
	Status models.TaskStatus `bson:"_id"`
	N      int64             `bson:"n"`
}

type listRow struct {
	models.Project `bson:",inline"`
	StatusCounts   []statusCount `bson:"status_counts"`
}

// ListForMember returns the projects userID owns or collaborates on, newest
// first, each with its task counts. Counts come from a $lookup that groups
// the project's tasks by status inside the same aggregation.
func (s *Store) ListForMember(ctx context.Context, userID primitive.ObjectID) ([]models.ProjectWithCounts, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: memberFilter(userID)}},
		{{Key: "$sort", Value: newestFirst}},
		{{Key: "$lookup", Value: bson.M{
			"from": "tasks",
			"let":  bson.M{"pid": "$_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$project_id", "$$pid"}}}},
				bson.M{"$group": bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}},
			},
			"as": "status_counts",
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ProjectWithCounts{}
	for cur.Next(ctx) {
		var row listRow
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		pc := models.ProjectWithCounts{Project: row.Project}
		for _, sc := range row.StatusCounts {
			pc.Counts.Add(sc.Status, sc.N)
		}
		out = append(out, pc)
	}
	return out, cur.Err()
}

// IDsForMember returns the ids of every project userID is a member of.
func (s *Store) IDsForMember(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.ids(ctx, memberFilter(userID))
}

// IDsOwnedBy returns the ids of every project userID owns.
func (s *Store) IDsOwnedBy(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.ids(ctx, bson.M{"owner_id": userID})
}

func (s *Store) ids(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	ids := []primitive.ObjectID{}
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

// CountOwned counts projects owned by userID.
func (s *Store) CountOwned(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"owner_id": userID})
}

// CountCollaborating counts projects where userID is a collaborator but not
// the owner.
func (s *Store) CountCollaborating(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"collaborator_ids": userID,
		"owner_id":         bson.M{"$ne": userID},
	})
}

// Update holds editable project fields. Nil fields are left untouched;
// a non-nil CollaboratorIDs replaces the whole set.
type Update struct {
	Name            *string
	Description     *string
	CollaboratorIDs *[]primitive.ObjectID
}

// Update applies upd and returns the updated project.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update, now time.Time) (*models.Project, error) {
	set := bson.M{"updated_at": now}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.CollaboratorIDs != nil {
		set["collaborator_ids"] = dedupe(*upd.CollaboratorIDs)
	}

	var p models.Project
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AddCollaborator adds userID to the collaborator set. It reports false
// when the project does not exist or userID is already a collaborator.
func (s *Store) AddCollaborator(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "collaborator_ids": bson.M{"$ne": userID}},
		bson.M{
			"$addToSet": bson.M{"collaborator_ids": userID},
			"$set":      bson.M{"updated_at": now},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// RemoveCollaborator removes userID from the collaborator set. It reports
// false when userID was not a collaborator.
func (s *Store) RemoveCollaborator(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "collaborator_ids": userID},
		bson.M{
			"$pull": bson.M{"collaborator_ids": userID},
			"$set":  bson.M{"updated_at": now},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// PullCollaboratorEverywhere removes userID from every collaborator set.
func (s *Store) PullCollaboratorEverywhere(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"collaborator_ids": userID},
		bson.M{"$pull": bson.M{"collaborator_ids": userID}})
	return err
}

// Delete removes one project document. Its tasks are removed by the caller.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByIDs removes every project in ids.
func (s *Store) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
