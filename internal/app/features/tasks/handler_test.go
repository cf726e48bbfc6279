package tasks_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/collabhub/internal/app/features/errors"
	"github.com/dalemusser/collabhub/internal/app/features/tasks"
	"github.com/dalemusser/collabhub/internal/app/services/tasksvc"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/collabhub/internal/testutil"
	"github.com/dalemusser/collabhub/internal/testutil/memstore"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type env struct {
	db     *memstore.DB
	router chi.Router
}

func newEnv() env {
	db := memstore.New()
	logger := zap.NewNop()
	h := tasks.NewHandler(
		tasksvc.New(db.Projects(), db.Tasks(), db.Users(), logger),
		uierrors.NewErrorLogger(logger),
		logger,
	)
	return env{db: db, router: tasks.Routes(h)}
}

func (e env) do(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type taskBody struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Project string  `json:"project"`
	Status  string  `json:"status"`
	DueDate *string `json:"due_date"`
	Author  struct {
		Username string `json:"username"`
	} `json:"author"`
	Assignee *struct {
		Username string `json:"username"`
	} `json:"assignee"`
	IsOverdue bool `json:"is_overdue"`
}

func TestCreate(t *testing.T) {
	e := newEnv()
	owner := e.db.AddUser("owner")
	collab := e.db.AddUser("collab")
	p := e.db.AddProject(owner.ID, "Website", collab.ID)

	req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"project":     p.ID.Hex(),
		"title":       "Write copy",
		"due_date":    "2000-01-01",
		"assignee_id": owner.ID.Hex(),
	}), &collab)
	rec := e.do(req)
	rec.AssertStatus(t, http.StatusCreated)

	var body taskBody
	rec.DecodeJSON(t, &body)
	if body.Status != string(models.StatusTodo) {
		t.Errorf("status: got %q, want todo", body.Status)
	}
	if body.Author.Username != "collab" {
		t.Errorf("author: got %q, want collab", body.Author.Username)
	}
	if body.Assignee == nil || body.Assignee.Username != "owner" {
		t.Errorf("assignee: got %+v, want owner", body.Assignee)
	}
	if !body.IsOverdue {
		t.Error("expected a past due date to be overdue")
	}
}

func TestCreate_Errors(t *testing.T) {
	e := newEnv()
	owner := e.db.AddUser("owner")
	stranger := e.db.AddUser("stranger")
	p := e.db.AddProject(owner.ID, "Website")

	tests := []struct {
		name  string
		actor models.User
		body  map[string]any
		want  int
		field string
	}{
		{"missing project", owner, map[string]any{"title": "x"}, http.StatusBadRequest, "project"},
		{"missing title", owner, map[string]any{"project": p.ID.Hex()}, http.StatusBadRequest, "title"},
		{"bad status", owner, map[string]any{"project": p.ID.Hex(), "title": "x", "status": "later"}, http.StatusBadRequest, "status"},
		{"bad due date", owner, map[string]any{"project": p.ID.Hex(), "title": "x", "due_date": "tomorrow"}, http.StatusBadRequest, "due_date"},
		{"assignee not a member", owner, map[string]any{"project": p.ID.Hex(), "title": "x", "assignee_id": stranger.ID.Hex()}, http.StatusBadRequest, "assignee_id"},
		{"non-member", stranger, map[string]any{"project": p.ID.Hex(), "title": "x"}, http.StatusForbidden, ""},
		{"unknown project", owner, map[string]any{"project": "nope", "title": "x"}, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/", tt.body), &tt.actor))
			rec.AssertStatus(t, tt.want)
			if tt.field != "" {
				rec.AssertContains(t, `"`+tt.field+`"`)
			}
		})
	}
	if n := e.db.TaskCount(); n != 0 {
		t.Errorf("tasks created: got %d, want 0", n)
	}
}

func TestCreate_MalformedBody(t *testing.T) {
	e := newEnv()
	owner := e.db.AddUser("owner")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title": `))
	req.Header.Set("Content-Type", "application/json")
	rec := e.do(testutil.WithUser(req, &owner))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestList_OnlyMemberProjects(t *testing.T) {
	e := newEnv()
	alice := e.db.AddUser("alice")
	bob := e.db.AddUser("bob")
	mine := e.db.AddProject(alice.ID, "Mine")
	theirs := e.db.AddProject(bob.ID, "Theirs")
	e.db.AddTask(mine.ID, alice.ID, "visible", models.StatusTodo)
	e.db.AddTask(theirs.ID, bob.ID, "hidden", models.StatusTodo)

	rec := e.do(testutil.NewAuthenticatedRequest(http.MethodGet, "/", &alice))
	rec.AssertStatus(t, http.StatusOK)

	var body []taskBody
	rec.DecodeJSON(t, &body)
	if len(body) != 1 || body[0].Title != "visible" {
		t.Errorf("got %+v, want only the visible task", body)
	}
}

func TestDetail_Permissions(t *testing.T) {
	e := newEnv()
	owner := e.db.AddUser("owner")
	author := e.db.AddUser("author")
	collab := e.db.AddUser("collab")
	stranger := e.db.AddUser("stranger")
	p := e.db.AddProject(owner.ID, "Website", author.ID, collab.ID)
	task := e.db.AddTask(p.ID, author.ID, "Write copy", models.StatusTodo)
	path := "/" + task.ID.Hex()

	tests := []struct {
		name   string
		method string
		actor  models.User
		body   map[string]any
		want   int
	}{
		{"stranger reads", http.MethodGet, stranger, nil, http.StatusForbidden},
		{"collaborator reads", http.MethodGet, collab, nil, http.StatusOK},
		{"stranger patches", http.MethodPatch, stranger, map[string]any{"title": "x"}, http.StatusForbidden},
		{"collaborator patches", http.MethodPatch, collab, map[string]any{"status": "IN_PROGRESS"}, http.StatusOK},
		{"lowercase status rejected", http.MethodPatch, owner, map[string]any{"status": "in_progress"}, http.StatusBadRequest},
		{"project change rejected", http.MethodPatch, owner, map[string]any{"project": "000000000000000000000000"}, http.StatusBadRequest},
		{"collaborator deletes", http.MethodDelete, collab, nil, http.StatusForbidden},
		{"author deletes", http.MethodDelete, author, nil, http.StatusNoContent},
		{"gone afterwards", http.MethodGet, owner, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != nil {
				req = testutil.NewJSONRequest(t, tt.method, path, tt.body)
			} else {
				req = testutil.NewRequest(tt.method, path)
			}
			rec := e.do(testutil.WithUser(req, &tt.actor))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestUpdate_NullClearsFields(t *testing.T) {
	e := newEnv()
	owner := e.db.AddUser("owner")
	p := e.db.AddProject(owner.ID, "Website")
	task := e.db.AddTask(p.ID, owner.ID, "Write copy", models.StatusTodo)
	path := "/" + task.ID.Hex()

	rec := e.do(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, path, map[string]any{
		"due_date":    "2099-05-01T10:00:00Z",
		"assignee_id": owner.ID.Hex(),
	}), &owner))
	rec.AssertStatus(t, http.StatusOK)
	var set taskBody
	rec.DecodeJSON(t, &set)
	if set.DueDate == nil || !strings.HasPrefix(*set.DueDate, "2099-05-01T10:00:00") {
		t.Errorf("due_date: got %v", set.DueDate)
	}
	if set.Assignee == nil {
		t.Error("expected an assignee")
	}

	rec = e.do(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, path, map[string]any{
		"due_date":    nil,
		"assignee_id": nil,
	}), &owner))
	rec.AssertStatus(t, http.StatusOK)
	var cleared taskBody
	rec.DecodeJSON(t, &cleared)
	if cleared.DueDate != nil || cleared.Assignee != nil {
		t.Errorf("got due_date=%v assignee=%v, want both null", cleared.DueDate, cleared.Assignee)
	}
	if cleared.Title != "Write copy" {
		t.Errorf("title: got %q, want unchanged", cleared.Title)
	}
}
