// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/collabhub/internal/app/features/errors"
	"github.com/dalemusser/collabhub/internal/app/features/shared/apiview"
	"github.com/dalemusser/collabhub/internal/app/services/tasksvc"
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/inputval"
	"github.com/dalemusser/collabhub/internal/app/system/jsonresp"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Tasks  *tasksvc.Service
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(tasks *tasksvc.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Tasks: tasks, ErrLog: errLog, Log: logger}
}

type createRequest struct {
	Project     string  `json:"project"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	DueDate     *string `json:"due_date"`
	AssigneeID  *string `json:"assignee_id"`
}

type updateRequest struct {
	Project     *string                   `json:"project"`
	Title       *string                   `json:"title"`
	Description *string                   `json:"description"`
	Status      *string                   `json:"status"`
	DueDate     inputval.Nullable[string] `json:"due_date"`
	AssigneeID  inputval.Nullable[string] `json:"assignee_id"`
}

// List handles GET /tasks/: tasks of every project the requester belongs to.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sc := auth.Scope(r)
	ds, err := h.Tasks.List(ctx, sc)
	if err != nil {
		h.ErrLog.Respond(w, r, "list tasks", err)
		return
	}
	jsonresp.Write(w, http.StatusOK, apiview.Tasks(ds, sc.Now))
}

// Create handles POST /tasks/.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "create task", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sc := auth.Scope(r)
	d, err := h.Tasks.Create(ctx, sc, tasksvc.CreateInput{
		Project:     req.Project,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "create task", err)
		return
	}
	jsonresp.Write(w, http.StatusCreated, apiview.TaskOf(d, sc.Now))
}

// Show handles GET /tasks/{id}/.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sc := auth.Scope(r)
	d, err := h.Tasks.Get(ctx, sc, chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, "get task", err)
		return
	}
	jsonresp.Write(w, http.StatusOK, apiview.TaskOf(d, sc.Now))
}

// Update handles PATCH /tasks/{id}/.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "update task", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sc := auth.Scope(r)
	d, err := h.Tasks.Update(ctx, sc, chi.URLParam(r, "id"), tasksvc.UpdateInput{
		Project:     req.Project,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "update task", err)
		return
	}
	jsonresp.Write(w, http.StatusOK, apiview.TaskOf(d, sc.Now))
}

// Delete handles DELETE /tasks/{id}/.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Tasks.Delete(ctx, auth.Scope(r), chi.URLParam(r, "id")); err != nil {
		h.ErrLog.Respond(w, r, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
