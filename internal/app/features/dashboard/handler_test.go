package dashboard_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/features/dashboard"
	uierrors "github.com/dalemusser/collabhub/internal/app/features/errors"
	"github.com/dalemusser/collabhub/internal/app/services/dashboardsvc"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/collabhub/internal/testutil"
	"github.com/dalemusser/collabhub/internal/testutil/memstore"
	"go.uber.org/zap"
)

type dashboardBody struct {
	OwnedProjects          int64 `json:"owned_projects"`
	CollaborativeProjects  int64 `json:"collaborative_projects"`
	AssignedTasks          int64 `json:"assigned_tasks"`
	CompletedAssignedTasks int64 `json:"completed_assigned_tasks"`
	AuthoredTasks          int64 `json:"authored_tasks"`
	Projects               []struct {
		Name                 string  `json:"name"`
		IsOwner              bool    `json:"is_owner"`
		CompletionPercentage float64 `json:"completion_percentage"`
	} `json:"projects"`
	TasksByStatus map[string]int64 `json:"tasks_by_status"`
}

func newRouter(db *memstore.DB) http.Handler {
	logger := zap.NewNop()
	h := dashboard.NewHandler(
		dashboardsvc.New(db.Projects(), db.Tasks()),
		uierrors.NewErrorLogger(logger),
		logger,
	)
	return dashboard.Routes(h)
}

func TestServe(t *testing.T) {
	db := memstore.New()
	alice := db.AddUser("alice")
	bob := db.AddUser("bob")
	own := db.AddProject(alice.ID, "Own")
	shared := db.AddProject(bob.ID, "Shared", alice.ID)
	db.AddProject(bob.ID, "Unrelated")
	db.AddTask(own.ID, alice.ID, "a", models.StatusDone)
	db.AddTask(own.ID, alice.ID, "b", models.StatusTodo)
	db.AddTask(shared.ID, bob.ID, "c", models.StatusInProgress)

	rec := testutil.NewRecorder()
	newRouter(db).ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", &alice))
	rec.AssertStatus(t, http.StatusOK)

	var body dashboardBody
	rec.DecodeJSON(t, &body)
	if body.OwnedProjects != 1 || body.CollaborativeProjects != 1 {
		t.Errorf("projects: got owned=%d collaborative=%d, want 1/1", body.OwnedProjects, body.CollaborativeProjects)
	}
	if body.AuthoredTasks != 2 {
		t.Errorf("authored_tasks: got %d, want 2", body.AuthoredTasks)
	}
	if len(body.Projects) != 2 {
		t.Fatalf("got %d project rows, want 2", len(body.Projects))
	}
	for _, p := range body.Projects {
		if p.Name == "Own" && (!p.IsOwner || p.CompletionPercentage != 50.0) {
			t.Errorf("Own row: got %+v", p)
		}
		if p.Name == "Shared" && p.IsOwner {
			t.Error("Shared row should not be owned")
		}
	}
	for _, k := range []string{"TODO", "IN_PROGRESS", "DONE"} {
		if _, ok := body.TasksByStatus[k]; !ok {
			t.Errorf("tasks_by_status missing %q", k)
		}
	}
}

func TestServe_RequiresAuthentication(t *testing.T) {
	rec := testutil.NewRecorder()
	newRouter(memstore.New()).ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, uierrors.MsgUnauthenticated)
}
