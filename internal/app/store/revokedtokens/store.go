// internal/app/store/revokedtokens/store.go
package revokedtokens

import (
	"context"
	"time"

	"github.com/dalemusser/collabhub/internal/app/system/tokens"
	"github.com/dalemusser/collabhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is the refresh-token blacklist. Documents expire through the TTL
// index on expires_at.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("revoked_tokens")}
}

// Revoke records jti. It returns tokens.ErrAlreadyRevoked when the jti is
// already present.
func (s *Store) Revoke(ctx context.Context, jti string, userID primitive.ObjectID, expiresAt time.Time) error {
	doc := models.RevokedToken{
		ID:        primitive.NewObjectID(),
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		RevokedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return tokens.ErrAlreadyRevoked
		}
		return err
	}
	return nil
}

// IsRevoked reports whether jti is on the blacklist.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"jti": jti}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// DeleteByUser removes every entry for userID. Used when an account is
// deleted; its tokens can no longer resolve to a user anyway.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteExpired removes entries whose token expired before now. The TTL
// index does the same, but the TTL monitor runs on its own schedule.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
