// internal/app/policy/access/access.go
package access

import (
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind names a guarded resource kind.
type Kind string

const (
	KindProject Kind = "project"
	KindTask    Kind = "task"
	// KindOwned is the generic owner-or-readonly rule.
	KindOwned Kind = "owned"
)

// Action is what the actor wants to do with the resource.
type Action string

const (
	Read   Action = "read"
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
)

// Subject is everything a rule may look at. Owner and Collaborators
// describe the project (or the owned resource); Author is only set for
// tasks.
type Subject struct {
	Actor         primitive.ObjectID
	Owner         primitive.ObjectID
	Collaborators []primitive.ObjectID
	Author        primitive.ObjectID
}

// Rule is a pure predicate over a Subject.
type Rule func(Subject) bool

func authenticated(s Subject) bool { return !s.Actor.IsZero() }

func isOwner(s Subject) bool { return authenticated(s) && s.Actor == s.Owner }

func isAuthor(s Subject) bool { return authenticated(s) && s.Actor == s.Author }

func isCollaborator(s Subject) bool {
	if !authenticated(s) {
		return false
	}
	for _, id := range s.Collaborators {
		if id == s.Actor {
			return true
		}
	}
	return false
}

func isMember(s Subject) bool { return isOwner(s) || isCollaborator(s) }

func either(rules ...Rule) Rule {
	return func(s Subject) bool {
		for _, r := range rules {
			if r(s) {
				return true
			}
		}
		return false
	}
}

// rules is the single dispatch table. A missing entry denies.
var rules = map[Kind]map[Action]Rule{
	KindProject: {
		Read:   isMember,
		Create: authenticated,
		Update: isOwner,
		Delete: isOwner,
	},
	KindTask: {
		Read:   isMember,
		Create: isMember,
		Update: either(isOwner, isAuthor, isCollaborator),
		Delete: either(isOwner, isAuthor),
	},
	KindOwned: {
		Read:   authenticated,
		Create: authenticated,
		Update: isOwner,
		Delete: isOwner,
	},
}

// Allowed reports whether the rule for (kind, action) admits s.
func Allowed(kind Kind, action Action, s Subject) bool {
	byAction, ok := rules[kind]
	if !ok {
		return false
	}
	rule, ok := byAction[action]
	if !ok {
		return false
	}
	return rule(s)
}

// ForProject builds the subject for actor acting on p.
func ForProject(actor primitive.ObjectID, p models.Project) Subject {
	return Subject{Actor: actor, Owner: p.OwnerID, Collaborators: p.CollaboratorIDs}
}

// ForTask builds the subject for actor acting on t, which belongs to p.
// Pass a zero Task when checking creation.
func ForTask(actor primitive.ObjectID, p models.Project, t models.Task) Subject {
	s := ForProject(actor, p)
	s.Author = t.AuthorID
	return s
}

// ForOwned builds the subject for a resource whose only attribute of
// interest is its owner.
func ForOwned(actor, owner primitive.ObjectID) Subject {
	return Subject{Actor: actor, Owner: owner}
}
