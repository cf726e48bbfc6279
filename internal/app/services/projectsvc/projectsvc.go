// Package projectsvc implements project CRUD, collaborator management and
// per-project statistics on top of the project, task and user stores.
package projectsvc

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/collabhub/internal/app/policy/access"
	projectstore "github.com/dalemusser/collabhub/internal/app/store/projects"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/collabhub/internal/app/system/inputval"
	"github.com/dalemusser/collabhub/internal/app/system/metrics"
	"github.com/dalemusser/collabhub/internal/app/system/reqscope"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NameMaxLen bounds project names.
const NameMaxLen = 200

// ProjectStore is the subset of the project store this service uses.
type ProjectStore interface {
	Create(ctx context.Context, p models.Project) (models.Project, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	ListForMember(ctx context.Context, userID primitive.ObjectID) ([]models.ProjectWithCounts, error)
	Update(ctx context.Context, id primitive.ObjectID, upd projectstore.Update, now time.Time) (*models.Project, error)
	AddCollaborator(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (bool, error)
	RemoveCollaborator(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// TaskStore is the subset of the task store this service uses.
type TaskStore interface {
	CountsByProject(ctx context.Context, projectID primitive.ObjectID) (models.TaskCounts, error)
	DeleteByProjects(ctx context.Context, projectIDs []primitive.ObjectID) (int64, error)
}

// UserStore resolves collaborator ids and owner summaries.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// Transactor runs fn atomically where the database allows it.
type Transactor interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Detail is a project with its task counts and resolved member summaries.
type Detail struct {
	Project       models.Project
	Counts        models.TaskCounts
	Owner         models.User
	Collaborators []models.User
}

// Stats is the per-project statistics view.
type Stats struct {
	Project models.Project
	Counts  models.TaskCounts
}

type Service struct {
	projects ProjectStore
	tasks    TaskStore
	users    UserStore
	tx       Transactor
	logger   *zap.Logger
}

func New(projects ProjectStore, tasks TaskStore, users UserStore, tx Transactor, logger *zap.Logger) *Service {
	return &Service{projects: projects, tasks: tasks, users: users, tx: tx, logger: logger}
}

// Load resolves a project id. Malformed and unknown ids are both NotFound.
func (s *Service) Load(ctx context.Context, rawID string) (*models.Project, error) {
	id, ok := inputval.ParseObjectID(rawID)
	if !ok {
		return nil, apperr.NotFound("Project")
	}
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("Project")
		}
		return nil, err
	}
	return p, nil
}

func authorize(action access.Action, sc reqscope.Scope, p models.Project) error {
	if !access.Allowed(access.KindProject, action, access.ForProject(sc.ActorID, p)) {
		return apperr.ErrForbidden
	}
	return nil
}

func countOp(op string, err error) {
	metrics.CountOp(op, err, errors.Is(err, apperr.ErrForbidden))
}

// List returns every project sc's actor is a member of, newest first.
func (s *Service) List(ctx context.Context, sc reqscope.Scope) ([]Detail, error) {
	rows, err := s.projects.ListForMember(ctx, sc.ActorID)
	if err != nil {
		return nil, err
	}

	var ids []primitive.ObjectID
	for _, row := range rows {
		ids = append(ids, row.OwnerID)
		ids = append(ids, row.CollaboratorIDs...)
	}
	byID, err := s.userMap(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Detail, 0, len(rows))
	for _, row := range rows {
		out = append(out, assemble(row.Project, row.Counts, byID))
	}
	return out, nil
}

// CreateInput is the body of a project create request.
type CreateInput struct {
	Name            string
	Description     string
	CollaboratorIDs []string
}

// Create stores a new project owned by sc's actor. Collaborator ids that
// are malformed or unknown are dropped without error.
func (s *Service) Create(ctx context.Context, sc reqscope.Scope, in CreateInput) (d Detail, err error) {
	defer func() { countOp("project_create", err) }()

	if !access.Allowed(access.KindProject, access.Create, access.Subject{Actor: sc.ActorID}) {
		return Detail{}, apperr.ErrForbidden
	}

	name := htmlsanitize.PlainText(in.Name)
	desc := htmlsanitize.PlainText(in.Description)
	errs := inputval.Errors{}
	if errs.Required("name", name) {
		errs.MaxLen("name", name, NameMaxLen)
	}
	if err := apperr.Validation(errs); err != nil {
		return Detail{}, err
	}

	collabs, err := s.resolveUsers(ctx, in.CollaboratorIDs)
	if err != nil {
		return Detail{}, err
	}

	p, err := s.projects.Create(ctx, models.Project{
		ID:              primitive.NewObjectID(),
		Name:            name,
		Description:     desc,
		OwnerID:         sc.ActorID,
		CollaboratorIDs: collabs,
		CreatedAt:       sc.Now,
	})
	if err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, p, models.TaskCounts{})
}

// Get returns one project to a member.
func (s *Service) Get(ctx context.Context, sc reqscope.Scope, rawID string) (Detail, error) {
	p, err := s.Load(ctx, rawID)
	if err != nil {
		return Detail{}, err
	}
	if err := authorize(access.Read, sc, *p); err != nil {
		return Detail{}, err
	}
	counts, err := s.tasks.CountsByProject(ctx, p.ID)
	if err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, *p, counts)
}

// UpdateInput is the body of a project PATCH. Nil fields are not changed.
type UpdateInput struct {
	Name            *string
	Description     *string
	CollaboratorIDs *[]string
}

// Update edits a project. Only the owner may update; a present
// CollaboratorIDs replaces the collaborator set.
func (s *Service) Update(ctx context.Context, sc reqscope.Scope, rawID string, in UpdateInput) (d Detail, err error) {
	defer func() { countOp("project_update", err) }()

	p, err := s.Load(ctx, rawID)
	if err != nil {
		return Detail{}, err
	}
	if err := authorize(access.Update, sc, *p); err != nil {
		return Detail{}, err
	}

	var upd projectstore.Update
	errs := inputval.Errors{}
	if in.Name != nil {
		name := htmlsanitize.PlainText(*in.Name)
		if errs.Required("name", name) {
			errs.MaxLen("name", name, NameMaxLen)
		}
		upd.Name = &name
	}
	if in.Description != nil {
		desc := htmlsanitize.PlainText(*in.Description)
		upd.Description = &desc
	}
	if err := apperr.Validation(errs); err != nil {
		return Detail{}, err
	}
	if in.CollaboratorIDs != nil {
		collabs, err := s.resolveUsers(ctx, *in.CollaboratorIDs)
		if err != nil {
			return Detail{}, err
		}
		upd.CollaboratorIDs = &collabs
	}

	updated, err := s.projects.Update(ctx, p.ID, upd, sc.Now)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Detail{}, apperr.NotFound("Project")
		}
		return Detail{}, err
	}
	counts, err := s.tasks.CountsByProject(ctx, p.ID)
	if err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, *updated, counts)
}

// Delete removes a project and all its tasks. Only the owner may delete.
func (s *Service) Delete(ctx context.Context, sc reqscope.Scope, rawID string) (p *models.Project, err error) {
	defer func() { countOp("project_delete", err) }()

	p, err = s.Load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if err := authorize(access.Delete, sc, *p); err != nil {
		return nil, err
	}

	err = s.tx.Run(ctx, func(ctx context.Context) error {
		if _, err := s.tasks.DeleteByProjects(ctx, []primitive.ObjectID{p.ID}); err != nil {
			return err
		}
		_, err := s.projects.Delete(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("project deleted",
		zap.String("project_id", p.ID.Hex()),
		zap.String("actor", sc.ActorName))
	return p, nil
}

// AddCollaborator adds the user named by rawUserID to the project.
func (s *Service) AddCollaborator(ctx context.Context, sc reqscope.Scope, rawID, rawUserID string) (p *models.Project, u *models.User, err error) {
	defer func() { countOp("collaborator_add", err) }()

	p, u, err = s.loadForMembershipChange(ctx, sc, rawID, rawUserID)
	if err != nil {
		return nil, nil, err
	}
	if p.IsCollaborator(u.ID) {
		return nil, nil, apperr.Invalid("user_id", "User is already a collaborator.")
	}
	added, err := s.projects.AddCollaborator(ctx, p.ID, u.ID, sc.Now)
	if err != nil {
		return nil, nil, err
	}
	if !added {
		return nil, nil, apperr.Invalid("user_id", "User is already a collaborator.")
	}
	return p, u, nil
}

// RemoveCollaborator removes the user named by rawUserID from the project.
func (s *Service) RemoveCollaborator(ctx context.Context, sc reqscope.Scope, rawID, rawUserID string) (p *models.Project, u *models.User, err error) {
	defer func() { countOp("collaborator_remove", err) }()

	p, u, err = s.loadForMembershipChange(ctx, sc, rawID, rawUserID)
	if err != nil {
		return nil, nil, err
	}
	if !p.IsCollaborator(u.ID) {
		return nil, nil, apperr.Invalid("user_id", "User is not a collaborator.")
	}
	removed, err := s.projects.RemoveCollaborator(ctx, p.ID, u.ID, sc.Now)
	if err != nil {
		return nil, nil, err
	}
	if !removed {
		return nil, nil, apperr.Invalid("user_id", "User is not a collaborator.")
	}
	return p, u, nil
}

// loadForMembershipChange runs the checks shared by add and remove:
// project exists, actor owns it, user_id present and resolvable.
func (s *Service) loadForMembershipChange(ctx context.Context, sc reqscope.Scope, rawID, rawUserID string) (*models.Project, *models.User, error) {
	p, err := s.Load(ctx, rawID)
	if err != nil {
		return nil, nil, err
	}
	if err := authorize(access.Update, sc, *p); err != nil {
		return nil, nil, err
	}
	errs := inputval.Errors{}
	if !errs.Required("user_id", rawUserID) {
		return nil, nil, apperr.Validation(errs)
	}
	uid, ok := inputval.ParseObjectID(rawUserID)
	if !ok {
		return nil, nil, apperr.NotFound("User")
	}
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, apperr.NotFound("User")
		}
		return nil, nil, err
	}
	return p, u, nil
}

// Stats returns the status breakdown of one project to a member.
func (s *Service) Stats(ctx context.Context, sc reqscope.Scope, rawID string) (Stats, error) {
	p, err := s.Load(ctx, rawID)
	if err != nil {
		return Stats{}, err
	}
	if err := authorize(access.Read, sc, *p); err != nil {
		return Stats{}, err
	}
	counts, err := s.tasks.CountsByProject(ctx, p.ID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Project: *p, Counts: counts}, nil
}

// resolveUsers keeps the ids in raw that parse and name an existing user,
// in input order and without duplicates.
func (s *Service) resolveUsers(ctx context.Context, raw []string) ([]primitive.ObjectID, error) {
	var parsed []primitive.ObjectID
	for _, r := range raw {
		if id, ok := inputval.ParseObjectID(r); ok {
			parsed = append(parsed, id)
		}
	}
	found, err := s.userMap(ctx, parsed)
	if err != nil {
		return nil, err
	}
	out := []primitive.ObjectID{}
	seen := map[primitive.ObjectID]bool{}
	for _, id := range parsed {
		if _, ok := found[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Service) userMap(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	byID := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

func (s *Service) detail(ctx context.Context, p models.Project, counts models.TaskCounts) (Detail, error) {
	ids := append([]primitive.ObjectID{p.OwnerID}, p.CollaboratorIDs...)
	byID, err := s.userMap(ctx, ids)
	if err != nil {
		return Detail{}, err
	}
	return assemble(p, counts, byID), nil
}

// assemble resolves member ids to users. Ids with no user are skipped
// (the owner falls back to an id-only summary).
func assemble(p models.Project, counts models.TaskCounts, byID map[primitive.ObjectID]models.User) Detail {
	d := Detail{Project: p, Counts: counts, Collaborators: []models.User{}}
	if owner, ok := byID[p.OwnerID]; ok {
		d.Owner = owner
	} else {
		d.Owner = models.User{ID: p.OwnerID}
	}
	for _, id := range p.CollaboratorIDs {
		if u, ok := byID[id]; ok {
			d.Collaborators = append(d.Collaborators, u)
		}
	}
	return d
}
