// internal/app/features/projects/handler.go
package projects

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/collabhub/internal/app/features/errors"
	"github.com/dalemusser/collabhub/internal/app/features/shared/apiview"
	"github.com/dalemusser/collabhub/internal/app/services/projectsvc"
	"github.com/dalemusser/collabhub/internal/app/services/tasksvc"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/jsonresp"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Projects *projectsvc.Service
	Tasks    *tasksvc.Service
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(projects *projectsvc.Service, tasks *tasksvc.Service, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Projects: projects, Tasks: tasks, AuditLog: audit, ErrLog: errLog, Log: logger}
}

type createRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	CollaboratorIDs []string `json:"collaborator_ids"`
}

type updateRequest struct {
	Name            *string   `json:"name"`
	Description     *string   `json:"description"`
	CollaboratorIDs *[]string `json:"collaborator_ids"`
}

type collaboratorRequest struct {
	UserID string `json:"user_id"`
}

// List handles GET /projects/.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ds, err := h.Projects.List(ctx, auth.Scope(r))
	if err != nil {
		h.ErrLog.Respond(w, r, "list projects", err)
		return
	}
	jsonresp.Write(w, http.StatusOK, apiview.Projects(ds))
}

// Create handles POST /projects/. The requester becomes the owner.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "create project", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Projects.Create(ctx, auth.Scope(r), projectsvc.CreateInput{
		Name:            req.Name,
		Description:     req.Description,
		CollaboratorIDs: req.CollaboratorIDs,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "create project", err)
		return
	}
	jsonresp.Write(w, http.StatusCreated, apiview.ProjectOf(d))
}

// Show handles GET /projects/{id}/.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Projects.Get(ctx, auth.Scope(r), chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, "get project", err)
		return
	}
	jsonresp.Write(w, http.StatusOK, apiview.ProjectOf(d))
}

// Update handles PATCH /projects/{id}/.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "update project", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Projects.Update(ctx, auth.Scope(r), chi.URLParam(r, "id"), projectsvc.UpdateInput{
		Name:            req.Name,
		Description:     req.Description,
		CollaboratorIDs: req.CollaboratorIDs,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "update project", err)
		return
	}
	jsonresp.Write(w, http.StatusOK, apiview.ProjectOf(d))
}

// Delete handles DELETE /projects/{id}/; the project's tasks go with it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete project")
	defer cancel()

	sc := auth.Scope(r)
	p, err := h.Projects.Delete(ctx, sc, chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, "delete project", err)
		return
	}
	h.AuditLog.ProjectDeleted(r.Context(), r, sc.ActorID, p.ID)
	w.WriteHeader(http.StatusNoContent)
}

// AddCollaborator handles POST /projects/{id}/add_collaborator.
func (h *Handler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	var req collaboratorRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "add collaborator", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sc := auth.Scope(r)
	p, u, err := h.Projects.AddCollaborator(ctx, sc, chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		h.ErrLog.Respond(w, r, "add collaborator", err)
		return
	}
	h.AuditLog.CollaboratorAdded(r.Context(), r, sc.ActorID, p.ID, u.ID)
	jsonresp.Write(w, http.StatusOK, map[string]string{
		"message": "Collaborator " + u.Username + " added successfully.",
	})
}

// RemoveCollaborator handles POST /projects/{id}/remove_collaborator.
func (h *Handler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	var req collaboratorRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "remove collaborator", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sc := auth.Scope(r)
	p, u, err := h.Projects.RemoveCollaborator(ctx, sc, chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		h.ErrLog.Respond(w, r, "remove collaborator", err)
		return
	}
	h.AuditLog.CollaboratorRemoved(r.Context(), r, sc.ActorID, p.ID, u.ID)
	jsonresp.Write(w, http.StatusOK, map[string]string{
		"message": "Collaborator " + u.Username + " removed successfully.",
	})
}

// Stats handles GET /projects/{id}/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.Projects.Stats(ctx, auth.Scope(r), chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, "project stats", err)
		return
	}
	jsonresp.Write(w, http.StatusOK, apiview.ProjectStatsOf(st))
}

// ProjectTasks handles GET /projects/{id}/tasks.
func (h *Handler) ProjectTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sc := auth.Scope(r)
	ds, err := h.Tasks.ListByProject(ctx, sc, chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, "project tasks", err)
		return
	}
	jsonresp.Write(w, http.StatusOK, apiview.Tasks(ds, sc.Now))
}
