// internal/app/features/account/profile.go
package account

import (
	"context"
	"net/http"

	"github.com/dalemusser/collabhub/internal/app/features/shared/apiview"
	"github.com/dalemusser/collabhub/internal/app/services/accountsvc"
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/jsonresp"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
)

// ServeProfile handles GET /auth/profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Accounts.Profile(ctx, auth.Scope(r))
	if err != nil {
		h.ErrLog.Respond(w, r, "profile", err)
		return
	}
	jsonresp.Write(w, http.StatusOK, apiview.ProfileOf(*u))
}

type profileRequest struct {
	Nome    *string `json:"nome"`
	Cognome *string `json:"cognome"`
	Email   *string `json:"email"`
}

// UpdateProfile handles PATCH /auth/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "update profile", err)
		return
	}
	sc := auth.Scope(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Accounts.UpdateProfile(ctx, sc, accountsvc.ProfileInput{
		FirstName: req.Nome,
		LastName:  req.Cognome,
		Email:     req.Email,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "update profile", err)
		return
	}
	h.AuditLog.ProfileUpdated(r.Context(), r, sc.ActorID)
	jsonresp.Write(w, http.StatusOK, apiview.ProfileOf(*u))
}

// DeleteProfile handles DELETE /auth/profile: the account and everything
// it owns is removed.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete account")
	defer cancel()

	u, err := h.Accounts.DeleteAccount(ctx, auth.Scope(r))
	if err != nil {
		h.ErrLog.Respond(w, r, "delete account", err)
		return
	}
	h.AuditLog.AccountDeleted(r.Context(), r, u.ID, u.Username)
	w.WriteHeader(http.StatusNoContent)
}

// ServeActivity handles GET /auth/activity?limit=N.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	events, err := h.Accounts.Activity(ctx, auth.Scope(r), parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		h.ErrLog.Respond(w, r, "activity", err)
		return
	}
	jsonresp.Write(w, http.StatusOK, apiview.Events(events))
}
