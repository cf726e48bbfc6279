// internal/domain/models/revokedtoken.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RevokedToken records a refresh token that may no longer be used.
// Rows are removed by a TTL index once ExpiresAt passes.
type RevokedToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	JTI       string             `bson:"jti"`
	UserID    primitive.ObjectID `bson:"user_id"`
	ExpiresAt time.Time          `bson:"expires_at"`
	RevokedAt time.Time          `bson:"revoked_at"`
}
