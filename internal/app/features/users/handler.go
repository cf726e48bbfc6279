// internal/app/features/users/handler.go
package users

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/collabhub/internal/app/features/errors"
	"github.com/dalemusser/collabhub/internal/app/features/shared/apiview"
	"github.com/dalemusser/collabhub/internal/app/policy/access"
	userstore "github.com/dalemusser/collabhub/internal/app/store/users"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/inputval"
	"github.com/dalemusser/collabhub/internal/app/system/jsonresp"
	"github.com/dalemusser/collabhub/internal/app/system/paging"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Directory is the read side of the user store.
type Directory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context, f userstore.ListFilter) ([]models.User, error)
}

// Handler serves the read-only user directory. Owners use it to find
// the ids they pass to add_collaborator.
type Handler struct {
	Users  Directory
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(users Directory, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, ErrLog: errLog, Log: logger}
}

type listResponse struct {
	Results  []apiview.User `json:"results"`
	Next     string         `json:"next,omitempty"`
	Previous string         `json:"previous,omitempty"`
}

// List handles GET /users/?search=&after=&before=&limit=.
//
// Keyset pagination over _id: "next" is passed back as ?after= and
// "previous" as ?before=. Each is present only when that page exists.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	before := query.Get(r, "before")
	after := query.Get(r, "after")
	cfg, err := paging.ConfigureKeyset(before, after, paging.ParseLimit(r))
	var ce *paging.CursorError
	if errors.As(err, &ce) {
		h.ErrLog.Respond(w, r, "list users", apperr.Invalid(ce.Param, "Invalid cursor."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Users.List(ctx, userstore.ListFilter{
		Search: query.Search(r, "search"),
		Page:   cfg,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "list users", err)
		return
	}
	if cfg.Direction == paging.Backward {
		paging.Reverse(list)
	}
	page := paging.TrimPage(&list, cfg)

	resp := listResponse{Results: apiview.UserSummaries(list)}
	resp.Previous, resp.Next = paging.BuildCursors(list, page, func(u models.User) primitive.ObjectID { return u.ID })
	jsonresp.Write(w, http.StatusOK, resp)
}

// Get handles GET /users/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := inputval.ParseObjectID(chi.URLParam(r, "id"))
	if !ok {
		h.ErrLog.Respond(w, r, "get user", apperr.NotFound("User"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !u.IsActive) {
		h.ErrLog.Respond(w, r, "get user", apperr.NotFound("User"))
		return
	}
	if err != nil {
		h.ErrLog.Respond(w, r, "get user", err)
		return
	}
	if !access.Allowed(access.KindOwned, access.Read, access.ForOwned(auth.Scope(r).ActorID, u.ID)) {
		h.ErrLog.Respond(w, r, "get user", apperr.ErrForbidden)
		return
	}
	jsonresp.Write(w, http.StatusOK, apiview.UserSummary(*u))
}
