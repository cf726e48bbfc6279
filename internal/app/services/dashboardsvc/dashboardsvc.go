// Package dashboardsvc computes the per-requester statistics dashboard.
package dashboardsvc

import (
	"context"

	"github.com/dalemusser/collabhub/internal/app/system/reqscope"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectStore is the subset of the project store the dashboard reads.
type ProjectStore interface {
	ListForMember(ctx context.Context, userID primitive.ObjectID) ([]models.ProjectWithCounts, error)
	CountOwned(ctx context.Context, userID primitive.ObjectID) (int64, error)
	CountCollaborating(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// TaskStore is the subset of the task store the dashboard reads.
type TaskStore interface {
	CountAssigned(ctx context.Context, userID primitive.ObjectID) (total, done int64, err error)
	CountAuthored(ctx context.Context, userID primitive.ObjectID) (int64, error)
	CountsForUser(ctx context.Context, userID primitive.ObjectID) (models.TaskCounts, error)
}

// ProjectBreakdown is one row of the per-project section.
type ProjectBreakdown struct {
	ID      primitive.ObjectID
	Name    string
	Counts  models.TaskCounts
	IsOwner bool
}

// Dashboard is everything shown on the requester's statistics page.
type Dashboard struct {
	OwnedProjects         int64
	CollaborativeProjects int64
	AssignedTasks         int64
	CompletedAssigned     int64
	AuthoredTasks         int64
	Projects              []ProjectBreakdown
	// ByStatus covers tasks assigned to or authored by the requester.
	ByStatus models.TaskCounts
}

type Service struct {
	projects ProjectStore
	tasks    TaskStore
}

func New(projects ProjectStore, tasks TaskStore) *Service {
	return &Service{projects: projects, tasks: tasks}
}

// Build computes the dashboard for sc's actor. Nothing is cached.
func (s *Service) Build(ctx context.Context, sc reqscope.Scope) (Dashboard, error) {
	uid := sc.ActorID
	var d Dashboard
	var err error

	if d.OwnedProjects, err = s.projects.CountOwned(ctx, uid); err != nil {
		return Dashboard{}, err
	}
	if d.CollaborativeProjects, err = s.projects.CountCollaborating(ctx, uid); err != nil {
		return Dashboard{}, err
	}
	if d.AssignedTasks, d.CompletedAssigned, err = s.tasks.CountAssigned(ctx, uid); err != nil {
		return Dashboard{}, err
	}
	if d.AuthoredTasks, err = s.tasks.CountAuthored(ctx, uid); err != nil {
		return Dashboard{}, err
	}
	if d.ByStatus, err = s.tasks.CountsForUser(ctx, uid); err != nil {
		return Dashboard{}, err
	}

	rows, err := s.projects.ListForMember(ctx, uid)
	if err != nil {
		return Dashboard{}, err
	}
	d.Projects = make([]ProjectBreakdown, 0, len(rows))
	for _, row := range rows {
		d.Projects = append(d.Projects, ProjectBreakdown{
			ID:      row.ID,
			Name:    row.Name,
			Counts:  row.Counts,
			IsOwner: row.IsOwner(uid),
		})
	}
	return d, nil
}
