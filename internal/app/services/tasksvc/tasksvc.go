// Package tasksvc implements task CRUD scoped to project membership.
package tasksvc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/collabhub/internal/app/policy/access"
	taskstore "github.com/dalemusser/collabhub/internal/app/store/tasks"
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

// TitleMaxLen bounds task titles.
const TitleMaxLen = 200

// ProjectStore is the subset of the project store this service uses.
type ProjectStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	IDsForMember(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// TaskStore is the subset of the task store this service uses.
type TaskStore interface {
	Create(ctx context.Context, t models.Task) (models.Task, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	ListForProjects(ctx context.Context, projectIDs []primitive.ObjectID) ([]models.Task, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error)
	Update(ctx context.Context, id primitive.ObjectID, upd taskstore.Update, now time.Time) (*models.Task, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// UserStore resolves author and assignee summaries.
type UserStore interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// Detail is a task with its author and assignee resolved.
type Detail struct {
	Task     models.Task
	Author   models.User
	Assignee *models.User
}

type Service struct {
	projects ProjectStore
	tasks    TaskStore
	users    UserStore
	logger   *zap.Logger
}

func New(projects ProjectStore, tasks TaskStore, users UserStore, logger *zap.Logger) *Service {
	return &Service{projects: projects, tasks: tasks, users: users, logger: logger}
}

func countOp(op string, err error) {
	metrics.CountOp(op, err, errors.Is(err, apperr.ErrForbidden))
}

// load resolves a task and its project. A task whose project is gone is
// reported as missing.
func (s *Service) load(ctx context.Context, rawID string) (*models.Task, *models.Project, error) {
	id, ok := inputval.ParseObjectID(rawID)
	if !ok {
		return nil, nil, apperr.NotFound("Task")
	}
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, apperr.NotFound("Task")
		}
		return nil, nil, err
	}
	p, err := s.projects.GetByID(ctx, t.ProjectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, apperr.NotFound("Task")
		}
		return nil, nil, err
	}
	return t, p, nil
}

func authorize(action access.Action, sc reqscope.Scope, p models.Project, t models.Task) error {
	if !access.Allowed(access.KindTask, action, access.ForTask(sc.ActorID, p, t)) {
		return apperr.ErrForbidden
	}
	return nil
}

// List returns the tasks of every project the actor is a member of,
// newest first.
func (s *Service) List(ctx context.Context, sc reqscope.Scope) ([]Detail, error) {
	ids, err := s.projects.IDsForMember(ctx, sc.ActorID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListForProjects(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, tasks)
}

// ListByProject returns one project's tasks to a member of it.
func (s *Service) ListByProject(ctx context.Context, sc reqscope.Scope, rawProjectID string) ([]Detail, error) {
	pid, ok := inputval.ParseObjectID(rawProjectID)
	if !ok {
		return nil, apperr.NotFound("Project")
	}
	p, err := s.projects.GetByID(ctx, pid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("Project")
		}
		return nil, err
	}
	if !access.Allowed(access.KindProject, access.Read, access.ForProject(sc.ActorID, *p)) {
		return nil, apperr.ErrForbidden
	}
	tasks, err := s.tasks.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, tasks)
}

// Get returns one task to a member of its project.
func (s *Service) Get(ctx context.Context, sc reqscope.Scope, rawID string) (Detail, error) {
	t, p, err := s.load(ctx, rawID)
	if err != nil {
		return Detail{}, err
	}
	if err := authorize(access.Read, sc, *p, *t); err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, *t)
}

// CreateInput is the body of a task create request. DueDate and
// AssigneeID are optional; an empty string counts as absent.
type CreateInput struct {
	Project     string
	Title       string
	Description string
	Status      string
	DueDate     *string
	AssigneeID  *string
}

// Create stores a new task authored by the actor. The project is resolved
// and membership checked before any other field is looked at.
func (s *Service) Create(ctx context.Context, sc reqscope.Scope, in CreateInput) (d Detail, err error) {
	defer func() { countOp("task_create", err) }()

	errs := inputval.Errors{}
	if !errs.Required("project", in.Project) {
		return Detail{}, apperr.Validation(errs)
	}
	p, err := s.projectForCreate(ctx, in.Project)
	if err != nil {
		return Detail{}, err
	}
	if err := authorize(access.Create, sc, *p, models.Task{}); err != nil {
		return Detail{}, err
	}

	title := htmlsanitize.PlainText(in.Title)
	if errs.Required("title", title) {
		errs.MaxLen("title", title, TitleMaxLen)
	}
	status := models.StatusTodo
	if strings.TrimSpace(in.Status) != "" {
		status = parseStatus(errs, in.Status)
	}
	var due *time.Time
	if in.DueDate != nil && strings.TrimSpace(*in.DueDate) != "" {
		due = parseDue(errs, *in.DueDate)
	}
	var assignee *primitive.ObjectID
	if in.AssigneeID != nil && strings.TrimSpace(*in.AssigneeID) != "" {
		assignee = parseAssignee(errs, *p, *in.AssigneeID)
	}
	if err := apperr.Validation(errs); err != nil {
		return Detail{}, err
	}

	t, err := s.tasks.Create(ctx, models.Task{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: htmlsanitize.PlainText(in.Description),
		ProjectID:   p.ID,
		AssigneeID:  assignee,
		AuthorID:    sc.ActorID,
		Status:      status,
		DueDate:     due,
		CreatedAt:   sc.Now,
	})
	if err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, t)
}

// projectForCreate resolves the submitted project. Anything that does not
// resolve is a permission failure, not a field error.
func (s *Service) projectForCreate(ctx context.Context, raw string) (*models.Project, error) {
	pid, ok := inputval.ParseObjectID(raw)
	if !ok {
		return nil, apperr.ErrForbidden
	}
	p, err := s.projects.GetByID(ctx, pid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrForbidden
		}
		return nil, err
	}
	return p, nil
}

// UpdateInput is the body of a task PATCH. DueDate and AssigneeID accept
// null to clear the field.
type UpdateInput struct {
	Project     *string
	Title       *string
	Description *string
	Status      *string
	DueDate     inputval.Nullable[string]
	AssigneeID  inputval.Nullable[string]
}

// Update edits a task. The project owner, the author and any collaborator
// may update; the project itself cannot be changed.
func (s *Service) Update(ctx context.Context, sc reqscope.Scope, rawID string, in UpdateInput) (d Detail, err error) {
	defer func() { countOp("task_update", err) }()

	t, p, err := s.load(ctx, rawID)
	if err != nil {
		return Detail{}, err
	}
	if err := authorize(access.Update, sc, *p, *t); err != nil {
		return Detail{}, err
	}

	var upd taskstore.Update
	errs := inputval.Errors{}
	if in.Project != nil && strings.TrimSpace(*in.Project) != t.ProjectID.Hex() {
		errs.Add("project", "The project of a task cannot be changed.")
	}
	if in.Title != nil {
		title := htmlsanitize.PlainText(*in.Title)
		if errs.Required("title", title) {
			errs.MaxLen("title", title, TitleMaxLen)
		}
		upd.Title = &title
	}
	if in.Description != nil {
		desc := htmlsanitize.PlainText(*in.Description)
		upd.Description = &desc
	}
	if in.Status != nil {
		st := parseStatus(errs, *in.Status)
		upd.Status = &st
	}
	if in.DueDate.Set {
		upd.SetDueDate = true
		if in.DueDate.Present() && strings.TrimSpace(in.DueDate.Value) != "" {
			upd.DueDate = parseDue(errs, in.DueDate.Value)
		}
	}
	if in.AssigneeID.Set {
		upd.SetAssignee = true
		if in.AssigneeID.Present() && strings.TrimSpace(in.AssigneeID.Value) != "" {
			upd.AssigneeID = parseAssignee(errs, *p, in.AssigneeID.Value)
		}
	}
	if err := apperr.Validation(errs); err != nil {
		return Detail{}, err
	}

	updated, err := s.tasks.Update(ctx, t.ID, upd, sc.Now)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Detail{}, apperr.NotFound("Task")
		}
		return Detail{}, err
	}
	return s.detail(ctx, *updated)
}

// Delete removes a task. Only the project owner or the task author may.
func (s *Service) Delete(ctx context.Context, sc reqscope.Scope, rawID string) (err error) {
	defer func() { countOp("task_delete", err) }()

	t, p, err := s.load(ctx, rawID)
	if err != nil {
		return err
	}
	if err := authorize(access.Delete, sc, *p, *t); err != nil {
		return err
	}
	if _, err := s.tasks.Delete(ctx, t.ID); err != nil {
		return err
	}
	s.logger.Debug("task deleted",
		zap.String("task_id", t.ID.Hex()),
		zap.String("project_id", p.ID.Hex()),
		zap.String("actor", sc.ActorName))
	return nil
}

func parseStatus(errs inputval.Errors, raw string) models.TaskStatus {
	st := models.TaskStatus(strings.TrimSpace(raw))
	if !st.Valid() {
		errs.Add("status", `"`+raw+`" is not a valid choice.`)
	}
	return st
}

// dueLayouts are the accepted due_date formats, tried in order. Values
// without a zone are taken as UTC.
var dueLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseDue(errs inputval.Errors, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range dueLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			ts = ts.UTC().Truncate(time.Millisecond)
			return &ts
		}
	}
	errs.Add("due_date", "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z].")
	return nil
}

// parseAssignee accepts only members of p.
func parseAssignee(errs inputval.Errors, p models.Project, raw string) *primitive.ObjectID {
	id, ok := inputval.ParseObjectID(raw)
	if !ok {
		errs.Add("assignee_id", `Invalid pk "`+raw+`" - object does not exist.`)
		return nil
	}
	if !p.IsMember(id) {
		errs.Add("assignee_id", "The assignee must be a member of the project.")
		return nil
	}
	return &id
}

func (s *Service) detail(ctx context.Context, t models.Task) (Detail, error) {
	out, err := s.details(ctx, []models.Task{t})
	if err != nil {
		return Detail{}, err
	}
	return out[0], nil
}

// details resolves every author and assignee with one user lookup.
func (s *Service) details(ctx context.Context, tasks []models.Task) ([]Detail, error) {
	out := make([]Detail, 0, len(tasks))
	if len(tasks) == 0 {
		return out, nil
	}
	var ids []primitive.ObjectID
	for _, t := range tasks {
		ids = append(ids, t.AuthorID)
		if t.AssigneeID != nil {
			ids = append(ids, *t.AssigneeID)
		}
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	for _, t := range tasks {
		d := Detail{Task: t, Author: models.User{ID: t.AuthorID}}
		if u, ok := byID[t.AuthorID]; ok {
			d.Author = u
		}
		if t.AssigneeID != nil {
			if u, ok := byID[*t.AssigneeID]; ok {
				d.Assignee = &u
			}
		}
		out = append(out, d)
	}
	return out, nil
}
