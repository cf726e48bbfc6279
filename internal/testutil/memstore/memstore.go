// Package memstore provides in-memory versions of the Mongo stores for
// service and handler tests. Behaviour mirrors the real stores closely
// enough for those tests: absence is mongo.ErrNoDocuments, uniqueness
// violations return the store sentinels, and lists use the same order.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/collabhub/internal/app/store/audit"
	projectstore "github.com/dalemusser/collabhub/internal/app/store/projects"
	taskstore "github.com/dalemusser/collabhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/collabhub/internal/app/store/users"
	"github.com/dalemusser/collabhub/internal/app/system/normalize"
	"github.com/dalemusser/collabhub/internal/app/system/paging"
	"github.com/dalemusser/collabhub/internal/app/system/tokens"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DB holds every collection. The typed views share it so cross-collection
// reads (project task counts) see the same data.
type DB struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]models.User
	projects map[primitive.ObjectID]models.Project
	tasks    map[primitive.ObjectID]models.Task
	revoked  map[string]models.RevokedToken
	events   []audit.Event
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		users:    map[primitive.ObjectID]models.User{},
		projects: map[primitive.ObjectID]models.Project{},
		tasks:    map[primitive.ObjectID]models.Task{},
		revoked:  map[string]models.RevokedToken{},
	}
}

func (db *DB) Users() *Users         { return &Users{db: db} }
func (db *DB) Projects() *Projects   { return &Projects{db: db} }
func (db *DB) Tasks() *Tasks         { return &Tasks{db: db} }
func (db *DB) Blacklist() *Blacklist { return &Blacklist{db: db} }
func (db *DB) Events() *Events       { return &Events{db: db} }
func (db *DB) Tx() NoTx              { return NoTx{} }
func (db *DB) ProjectCount() int     { db.mu.Lock(); defer db.mu.Unlock(); return len(db.projects) }
func (db *DB) TaskCount() int        { db.mu.Lock(); defer db.mu.Unlock(); return len(db.tasks) }
func (db *DB) UserCount() int        { db.mu.Lock(); defer db.mu.Unlock(); return len(db.users) }
func (db *DB) RevokedCount() int     { db.mu.Lock(); defer db.mu.Unlock(); return len(db.revoked) }

/*─────────────────────────────────────────────────────────────────────────────*
| Seeding helpers                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// AddUser stores an active user without a password.
func (db *DB) AddUser(username string) models.User {
	u, err := db.Users().Create(context.Background(), models.User{
		Username:  username,
		Email:     strings.ToLower(username) + "@example.com",
		FirstName: "Test",
		LastName:  username,
		IsActive:  true,
	})
	if err != nil {
		panic(err)
	}
	return u
}

// SetActive flips the is_active flag of a stored user.
func (db *DB) SetActive(id primitive.ObjectID, active bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u, ok := db.users[id]; ok {
		u.IsActive = active
		db.users[id] = u
	}
}

// AddProject stores a project owned by owner.
func (db *DB) AddProject(owner primitive.ObjectID, name string, collaborators ...primitive.ObjectID) models.Project {
	p, _ := db.Projects().Create(context.Background(), models.Project{
		Name:            name,
		OwnerID:         owner,
		CollaboratorIDs: collaborators,
	})
	return p
}

// AddTask stores a task in project authored by author.
func (db *DB) AddTask(project, author primitive.ObjectID, title string, status models.TaskStatus) models.Task {
	t, _ := db.Tasks().Create(context.Background(), models.Task{
		Title:     title,
		ProjectID: project,
		AuthorID:  author,
		Status:    status,
	})
	return t
}

// NoTx runs fn directly.
type NoTx struct{}

func (NoTx) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newest[T any](items []T, created func(T) time.Time, id func(T) primitive.ObjectID) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		a, b := id(items[i]), id(items[j])
		return strings.Compare(a.Hex(), b.Hex()) > 0
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Users                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type Users struct{ db *DB }

func (s *Users) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

func (s *Users) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.User{}
	seen := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		if u, ok := s.db.users[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Users) find(match func(models.User) bool) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *Users) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username })
}

func (s *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	email = normalize.Email(email)
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *Users) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := s.GetByUsername(ctx, username)
	return err == nil, nil
}

func (s *Users) EmailExistsForOther(_ context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	email = normalize.Email(email)
	_, err := s.find(func(u models.User) bool { return u.Email == email && u.ID != excludeID })
	return err == nil, nil
}

func (s *Users) Create(_ context.Context, u models.User) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Username = strings.TrimSpace(u.Username)
	u.UsernameCI = text.Fold(u.Username)
	u.Email = normalize.Email(u.Email)
	for _, other := range s.db.users {
		if other.Username == u.Username {
			return models.User{}, userstore.ErrDuplicateUsername
		}
		if other.Email == u.Email {
			return models.User{}, userstore.ErrDuplicateEmail
		}
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC().Truncate(time.Millisecond)
	}
	u.UpdatedAt = u.DateJoined
	s.db.users[u.ID] = u
	return u, nil
}

func (s *Users) UpdateProfile(_ context.Context, id primitive.ObjectID, upd userstore.ProfileUpdate, now time.Time) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if upd.Email != nil {
		email := normalize.Email(*upd.Email)
		for _, other := range s.db.users {
			if other.ID != id && other.Email == email {
				return nil, userstore.ErrDuplicateEmail
			}
		}
		u.Email = email
	}
	if upd.FirstName != nil {
		u.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		u.LastName = strings.TrimSpace(*upd.LastName)
	}
	u.UpdatedAt = now
	s.db.users[id] = u
	return &u, nil
}

func (s *Users) SetLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u, ok := s.db.users[id]; ok {
		u.LastLogin = &at
		s.db.users[id] = u
	}
	return nil
}

func (s *Users) List(_ context.Context, f userstore.ListFilter) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q := text.Fold(strings.TrimSpace(f.Search))
	backward := f.Page.Direction == paging.Backward
	out := []models.User{}
	for _, u := range s.db.users {
		if !u.IsActive || !strings.HasPrefix(u.UsernameCI, q) {
			continue
		}
		if c := f.Page.Cursor; c != nil {
			if !backward && u.ID.Hex() <= c.Hex() {
				continue
			}
			if backward && u.ID.Hex() >= c.Hex() {
				continue
			}
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if backward {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	if limit := int(f.Page.LimitPlusOne()); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Users) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return 0, nil
	}
	delete(s.db.users, id)
	return 1, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Projects                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type Projects struct{ db *DB }

func (s *Projects) Create(_ context.Context, p models.Project) (models.Project, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	p.UpdatedAt = p.CreatedAt
	p.CollaboratorIDs = dedupe(p.CollaboratorIDs)
	s.db.projects[p.ID] = p
	return p, nil
}

func (s *Projects) GetByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.projects[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	p.CollaboratorIDs = append([]primitive.ObjectID{}, p.CollaboratorIDs...)
	return &p, nil
}

func (s *Projects) members(userID primitive.ObjectID) []models.Project {
	var out []models.Project
	for _, p := range s.db.projects {
		if p.IsMember(userID) {
			out = append(out, p)
		}
	}
	newest(out, func(p models.Project) time.Time { return p.CreatedAt }, func(p models.Project) primitive.ObjectID { return p.ID })
	return out
}

func (s *Projects) ListForMember(_ context.Context, userID primitive.ObjectID) ([]models.ProjectWithCounts, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.ProjectWithCounts{}
	for _, p := range s.members(userID) {
		out = append(out, models.ProjectWithCounts{Project: p, Counts: s.db.countsLocked(func(t models.Task) bool { return t.ProjectID == p.ID })})
	}
	return out, nil
}

func (s *Projects) IDsForMember(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ids := []primitive.ObjectID{}
	for _, p := range s.members(userID) {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (s *Projects) IDsOwnedBy(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ids := []primitive.ObjectID{}
	for _, p := range s.db.projects {
		if p.OwnerID == userID {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (s *Projects) CountOwned(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	ids, _ := s.IDsOwnedBy(ctx, userID)
	return int64(len(ids)), nil
}

func (s *Projects) CountCollaborating(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for _, p := range s.db.projects {
		if p.IsCollaborator(userID) && !p.IsOwner(userID) {
			n++
		}
	}
	return n, nil
}

func (s *Projects) Update(_ context.Context, id primitive.ObjectID, upd projectstore.Update, now time.Time) (*models.Project, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.projects[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.CollaboratorIDs != nil {
		p.CollaboratorIDs = dedupe(*upd.CollaboratorIDs)
	}
	p.UpdatedAt = now
	s.db.projects[id] = p
	return &p, nil
}

func (s *Projects) AddCollaborator(_ context.Context, id, userID primitive.ObjectID, now time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.projects[id]
	if !ok || p.IsCollaborator(userID) {
		return false, nil
	}
	p.CollaboratorIDs = append(append([]primitive.ObjectID{}, p.CollaboratorIDs...), userID)
	p.UpdatedAt = now
	s.db.projects[id] = p
	return true, nil
}

func (s *Projects) RemoveCollaborator(_ context.Context, id, userID primitive.ObjectID, now time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.projects[id]
	if !ok || !p.IsCollaborator(userID) {
		return false, nil
	}
	p.CollaboratorIDs = without(p.CollaboratorIDs, userID)
	p.UpdatedAt = now
	s.db.projects[id] = p
	return true, nil
}

func (s *Projects) PullCollaboratorEverywhere(_ context.Context, userID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for id, p := range s.db.projects {
		if p.IsCollaborator(userID) {
			p.CollaboratorIDs = without(p.CollaboratorIDs, userID)
			s.db.projects[id] = p
		}
	}
	return nil
}

func (s *Projects) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.projects[id]; !ok {
		return 0, nil
	}
	delete(s.db.projects, id)
	return 1, nil
}

func (s *Projects) DeleteByIDs(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.db.projects[id]; ok {
			delete(s.db.projects, id)
			n++
		}
	}
	return n, nil
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	out := []primitive.ObjectID{}
	seen := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func without(ids []primitive.ObjectID, drop primitive.ObjectID) []primitive.ObjectID {
	out := []primitive.ObjectID{}
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| Tasks                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type Tasks struct{ db *DB }

func (db *DB) countsLocked(match func(models.Task) bool) models.TaskCounts {
	var c models.TaskCounts
	for _, t := range db.tasks {
		if match(t) {
			c.Add(t.Status, 1)
		}
	}
	return c
}

func (s *Tasks) Create(_ context.Context, t models.Task) (models.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
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
	s.db.tasks[t.ID] = t
	return t, nil
}

func (s *Tasks) GetByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tasks[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &t, nil
}

func (s *Tasks) filter(match func(models.Task) bool) []models.Task {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Task{}
	for _, t := range s.db.tasks {
		if match(t) {
			out = append(out, t)
		}
	}
	newest(out, func(t models.Task) time.Time { return t.CreatedAt }, func(t models.Task) primitive.ObjectID { return t.ID })
	return out
}

func (s *Tasks) ListForProjects(_ context.Context, projectIDs []primitive.ObjectID) ([]models.Task, error) {
	in := map[primitive.ObjectID]bool{}
	for _, id := range projectIDs {
		in[id] = true
	}
	return s.filter(func(t models.Task) bool { return in[t.ProjectID] }), nil
}

func (s *Tasks) ListByProject(_ context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	return s.filter(func(t models.Task) bool { return t.ProjectID == projectID }), nil
}

func (s *Tasks) Update(_ context.Context, id primitive.ObjectID, upd taskstore.Update, now time.Time) (*models.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tasks[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.SetDueDate {
		t.DueDate = upd.DueDate
	}
	if upd.SetAssignee {
		t.AssigneeID = upd.AssigneeID
	}
	t.UpdatedAt = now
	s.db.tasks[id] = t
	return &t, nil
}

func (s *Tasks) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.tasks[id]; !ok {
		return 0, nil
	}
	delete(s.db.tasks, id)
	return 1, nil
}

func (s *Tasks) deleteWhere(match func(models.Task) bool) int64 {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for id, t := range s.db.tasks {
		if match(t) {
			delete(s.db.tasks, id)
			n++
		}
	}
	return n
}

func (s *Tasks) DeleteByProjects(_ context.Context, projectIDs []primitive.ObjectID) (int64, error) {
	in := map[primitive.ObjectID]bool{}
	for _, id := range projectIDs {
		in[id] = true
	}
	return s.deleteWhere(func(t models.Task) bool { return in[t.ProjectID] }), nil
}

func (s *Tasks) DeleteByAuthor(_ context.Context, userID primitive.ObjectID) (int64, error) {
	return s.deleteWhere(func(t models.Task) bool { return t.AuthorID == userID }), nil
}

func (s *Tasks) UnsetAssignee(_ context.Context, userID primitive.ObjectID, now time.Time) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for id, t := range s.db.tasks {
		if t.AssigneeID != nil && *t.AssigneeID == userID {
			t.AssigneeID = nil
			t.UpdatedAt = now
			s.db.tasks[id] = t
			n++
		}
	}
	return n, nil
}

func (s *Tasks) CountsByProject(_ context.Context, projectID primitive.ObjectID) (models.TaskCounts, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.countsLocked(func(t models.Task) bool { return t.ProjectID == projectID }), nil
}

func (s *Tasks) CountsForUser(_ context.Context, userID primitive.ObjectID) (models.TaskCounts, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.countsLocked(func(t models.Task) bool {
		return t.AuthorID == userID || (t.AssigneeID != nil && *t.AssigneeID == userID)
	}), nil
}

func (s *Tasks) CountAssigned(_ context.Context, userID primitive.ObjectID) (total, done int64, err error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c := s.db.countsLocked(func(t models.Task) bool { return t.AssigneeID != nil && *t.AssigneeID == userID })
	return c.Total, c.Done, nil
}

func (s *Tasks) CountAuthored(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.countsLocked(func(t models.Task) bool { return t.AuthorID == userID }).Total, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Revoked tokens                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// Blacklist implements tokens.Blacklist. Setting Err makes Revoke fail.
type Blacklist struct {
	db  *DB
	Err error
}

// NewBlacklist returns a Blacklist backed by its own DB.
func NewBlacklist() *Blacklist {
	return New().Blacklist()
}

func (b *Blacklist) Revoke(_ context.Context, jti string, userID primitive.ObjectID, expiresAt time.Time) error {
	if b.Err != nil {
		return b.Err
	}
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	if _, ok := b.db.revoked[jti]; ok {
		return tokens.ErrAlreadyRevoked
	}
	b.db.revoked[jti] = models.RevokedToken{
		ID:        primitive.NewObjectID(),
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
		RevokedAt: time.Now().UTC(),
	}
	return nil
}

func (b *Blacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	_, ok := b.db.revoked[jti]
	return ok, nil
}

func (b *Blacklist) DeleteByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	var n int64
	for jti, rt := range b.db.revoked {
		if rt.UserID == userID {
			delete(b.db.revoked, jti)
			n++
		}
	}
	return n, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Audit events                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// Events implements auditlog.EventStore and the activity reader.
type Events struct{ db *DB }

func (s *Events) Log(_ context.Context, e audit.Event) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	s.db.events = append(s.db.events, e)
	return nil
}

func (s *Events) GetByUser(_ context.Context, userID primitive.ObjectID, limit int64) ([]audit.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []audit.Event{}
	for i := len(s.db.events) - 1; i >= 0; i-- {
		e := s.db.events[i]
		if e.UserID != nil && *e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit <= 0 {
		limit = 50
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Events) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	kept := s.db.events[:0]
	for _, e := range s.db.events {
		if e.UserID == nil || *e.UserID != userID {
			kept = append(kept, e)
		}
	}
	s.db.events = kept
	return nil
}

// All returns a copy of every logged event in insertion order.
func (s *Events) All() []audit.Event {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]audit.Event{}, s.db.events...)
}
