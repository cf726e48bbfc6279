// internal/app/features/shared/apiview/apiview.go
package apiview

import (
	"time"

	"github.com/dalemusser/collabhub/internal/app/services/dashboardsvc"
	"github.com/dalemusser/collabhub/internal/app/services/projectsvc"
	"github.com/dalemusser/collabhub/internal/app/services/tasksvc"
	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/domain/models"
)

// User is the public summary of an account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Nome     string `json:"nome"`
	Cognome  string `json:"cognome"`
}

func UserSummary(u models.User) User {
	return User{
		ID:       u.ID.Hex(),
		Username: u.Username,
		Email:    u.Email,
		Nome:     u.FirstName,
		Cognome:  u.LastName,
	}
}

func UserSummaries(users []models.User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary(u))
	}
	return out
}

// Profile is the requester's own account.
type Profile struct {
	User
	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login"`
}

func ProfileOf(u models.User) Profile {
	return Profile{User: UserSummary(u), DateJoined: u.DateJoined, LastLogin: u.LastLogin}
}

// Counts is the status breakdown embedded in project and stats views.
type Counts struct {
	CompletionPercentage float64 `json:"completion_percentage"`
	TotalTasks           int64   `json:"total_tasks"`
	DoneTasks            int64   `json:"done_tasks"`
	InProgressTasks      int64   `json:"in_progress_tasks"`
	TodoTasks            int64   `json:"todo_tasks"`
}

func CountsOf(c models.TaskCounts) Counts {
	return Counts{
		CompletionPercentage: c.CompletionPercentage(),
		TotalTasks:           c.Total,
		DoneTasks:            c.Done,
		InProgressTasks:      c.InProgress,
		TodoTasks:            c.Todo,
	}
}

type Project struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Owner         User   `json:"owner"`
	Collaborators []User `json:"collaborators"`
	Counts
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ProjectOf(d projectsvc.Detail) Project {
	return Project{
		ID:            d.Project.ID.Hex(),
		Name:          d.Project.Name,
		Description:   d.Project.Description,
		Owner:         UserSummary(d.Owner),
		Collaborators: UserSummaries(d.Collaborators),
		Counts:        CountsOf(d.Counts),
		CreatedAt:     d.Project.CreatedAt,
		UpdatedAt:     d.Project.UpdatedAt,
	}
}

func Projects(ds []projectsvc.Detail) []Project {
	out := make([]Project, 0, len(ds))
	for _, d := range ds {
		out = append(out, ProjectOf(d))
	}
	return out
}

// ProjectStats is the body of GET /projects/{id}/stats.
type ProjectStats struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Counts
}

func ProjectStatsOf(s projectsvc.Stats) ProjectStats {
	return ProjectStats{ID: s.Project.ID.Hex(), Name: s.Project.Name, Counts: CountsOf(s.Counts)}
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Project     string     `json:"project"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	Author      User       `json:"author"`
	Assignee    *User      `json:"assignee"`
	IsOverdue   bool       `json:"is_overdue"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskOf renders d; now decides is_overdue.
func TaskOf(d tasksvc.Detail, now time.Time) Task {
	t := Task{
		ID:          d.Task.ID.Hex(),
		Title:       d.Task.Title,
		Description: d.Task.Description,
		Project:     d.Task.ProjectID.Hex(),
		Status:      string(d.Task.Status),
		DueDate:     d.Task.DueDate,
		Author:      UserSummary(d.Author),
		IsOverdue:   d.Task.IsOverdue(now),
		CreatedAt:   d.Task.CreatedAt,
		UpdatedAt:   d.Task.UpdatedAt,
	}
	if d.Assignee != nil {
		a := UserSummary(*d.Assignee)
		t.Assignee = &a
	}
	return t
}

func Tasks(ds []tasksvc.Detail, now time.Time) []Task {
	out := make([]Task, 0, len(ds))
	for _, d := range ds {
		out = append(out, TaskOf(d, now))
	}
	return out
}

// DashboardProject is one row of the dashboard's per-project section.
type DashboardProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Counts
	IsOwner bool `json:"is_owner"`
}

type Dashboard struct {
	OwnedProjects          int64              `json:"owned_projects"`
	CollaborativeProjects  int64              `json:"collaborative_projects"`
	AssignedTasks          int64              `json:"assigned_tasks"`
	CompletedAssignedTasks int64              `json:"completed_assigned_tasks"`
	AuthoredTasks          int64              `json:"authored_tasks"`
	Projects               []DashboardProject `json:"projects"`
	TasksByStatus          map[string]int64   `json:"tasks_by_status"`
}

func DashboardOf(d dashboardsvc.Dashboard) Dashboard {
	out := Dashboard{
		OwnedProjects:          d.OwnedProjects,
		CollaborativeProjects:  d.CollaborativeProjects,
		AssignedTasks:          d.AssignedTasks,
		CompletedAssignedTasks: d.CompletedAssigned,
		AuthoredTasks:          d.AuthoredTasks,
		Projects:               make([]DashboardProject, 0, len(d.Projects)),
		TasksByStatus: map[string]int64{
			string(models.StatusTodo):       d.ByStatus.Todo,
			string(models.StatusInProgress): d.ByStatus.InProgress,
			string(models.StatusDone):       d.ByStatus.Done,
		},
	}
	for _, p := range d.Projects {
		out.Projects = append(out.Projects, DashboardProject{
			ID:      p.ID.Hex(),
			Name:    p.Name,
			Counts:  CountsOf(p.Counts),
			IsOwner: p.IsOwner,
		})
	}
	return out
}

// Event is one row of the requester's activity log.
type Event struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ProjectID     string            `json:"project_id,omitempty"`
	IP            string            `json:"ip"`
	UserAgent     string            `json:"user_agent,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

func Events(events []audit.Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		ev := Event{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			IP:            e.IP,
			UserAgent:     e.UserAgent,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.ProjectID != nil {
			ev.ProjectID = e.ProjectID.Hex()
		}
		out = append(out, ev)
	}
	return out
}
