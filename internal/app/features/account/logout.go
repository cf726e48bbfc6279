// internal/app/features/account/logout.go
package account

import (
	"context"
	"net/http"

	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/jsonresp"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
)

// Logout handles POST /auth/logout. A supplied refresh token is revoked;
// without one the call still succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "logout", err)
		return
	}
	sc := auth.Scope(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	revoked, err := h.Accounts.Logout(ctx, sc, req.Refresh)
	if err != nil {
		h.AuditLog.LogoutFailed(r.Context(), r, sc.ActorID, err.Error())
		h.ErrLog.Respond(w, r, "logout", err)
		return
	}

	h.AuditLog.Logout(r.Context(), r, sc.ActorID, revoked)
	jsonresp.Write(w, http.StatusOK, map[string]string{"message": "Logout successful."})
}
