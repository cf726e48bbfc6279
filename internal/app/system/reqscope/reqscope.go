// Package reqscope carries who is acting and when through service calls.
// Handlers build a Scope from the authenticated request; services never read
// the actor or the clock from anywhere else.
package reqscope

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scope identifies the actor of one request and the instant it is handled.
type Scope struct {
	ActorID   primitive.ObjectID
	ActorName string
	Now       time.Time
}

// New returns a Scope with now truncated to millisecond precision, matching
// what MongoDB stores.
func New(actorID primitive.ObjectID, actorName string, now time.Time) Scope {
	return Scope{ActorID: actorID, ActorName: actorName, Now: now.UTC().Truncate(time.Millisecond)}
}
