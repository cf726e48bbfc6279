// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account. Username is case-sensitive and unique;
// Email is stored lowercased and is unique as well.
//
// NOTE:
//   - PasswordHash is a bcrypt hash and is never serialized.
//   - UsernameCI is a folded copy of Username used by directory searches.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	UsernameCI   string             `bson:"username_ci" json:"-"`
	Email        string             `bson:"email" json:"email"`
	FirstName    string             `bson:"first_name" json:"nome"`
	LastName     string             `bson:"last_name" json:"cognome"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	IsActive     bool               `bson:"is_active" json:"is_active"`

	DateJoined time.Time  `bson:"date_joined" json:"date_joined"`
	LastLogin  *time.Time `bson:"last_login,omitempty" json:"last_login"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
}
