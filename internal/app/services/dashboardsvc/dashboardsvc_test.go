package dashboardsvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/collabhub/internal/app/services/dashboardsvc"
	taskstore "github.com/dalemusser/collabhub/internal/app/store/tasks"
	"github.com/dalemusser/collabhub/internal/app/system/reqscope"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/collabhub/internal/testutil/memstore"
)

func TestBuild(t *testing.T) {
	db := memstore.New()
	me := db.AddUser("me")
	other := db.AddUser("other")

	mine := db.AddProject(me.ID, "Mine")
	shared := db.AddProject(other.ID, "Shared", me.ID)
	db.AddProject(other.ID, "Elsewhere")

	db.AddTask(mine.ID, me.ID, "authored todo", models.StatusTodo)
	done := db.AddTask(shared.ID, other.ID, "assigned done", models.StatusDone)
	wip := db.AddTask(shared.ID, other.ID, "assigned wip", models.StatusInProgress)
	db.AddTask(shared.ID, other.ID, "unrelated", models.StatusDone)
	for _, task := range []models.Task{done, wip} {
		a := me.ID
		upd := taskstore.Update{SetAssignee: true, AssigneeID: &a}
		if _, err := db.Tasks().Update(context.Background(), task.ID, upd, time.Now()); err != nil {
			t.Fatal(err)
		}
	}

	svc := dashboardsvc.New(db.Projects(), db.Tasks())
	d, err := svc.Build(context.Background(), reqscope.New(me.ID, me.Username, time.Now()))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	checks := []struct {
		name      string
		got, want int64
	}{
		{"owned projects", d.OwnedProjects, 1},
		{"collaborative projects", d.CollaborativeProjects, 1},
		{"assigned tasks", d.AssignedTasks, 2},
		{"completed assigned", d.CompletedAssigned, 1},
		{"authored tasks", d.AuthoredTasks, 1},
		{"by status total", d.ByStatus.Total, 3},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, c.got, c.want)
		}
	}

	if len(d.Projects) != 2 {
		t.Fatalf("projects: got %d, want 2", len(d.Projects))
	}
	for _, p := range d.Projects {
		switch p.ID {
		case mine.ID:
			if !p.IsOwner || p.Counts.Total != 1 {
				t.Errorf("mine: got %+v", p)
			}
		case shared.ID:
			if p.IsOwner || p.Counts.Total != 3 || p.Counts.Done != 2 {
				t.Errorf("shared: got %+v", p)
			}
		default:
			t.Errorf("unexpected project %s", p.Name)
		}
	}
}

func TestBuild_Empty(t *testing.T) {
	db := memstore.New()
	me := db.AddUser("me")

	d, err := dashboardsvc.New(db.Projects(), db.Tasks()).Build(context.Background(), reqscope.New(me.ID, me.Username, time.Now()))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if d.Projects == nil || len(d.Projects) != 0 {
		t.Errorf("projects: got %v, want empty non-nil slice", d.Projects)
	}
	if d.ByStatus.CompletionPercentage() != 0 {
		t.Errorf("completion: got %v, want 0", d.ByStatus.CompletionPercentage())
	}
}
