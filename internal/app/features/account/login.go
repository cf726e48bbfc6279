// internal/app/features/account/login.go
package account

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/collabhub/internal/app/features/shared/apiview"
	"github.com/dalemusser/collabhub/internal/app/services/accountsvc"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/jsonresp"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
//
// The credential is tried as a username, then as an email. Every
// rejection is the same 401; rate limited callers get 429.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "login", err)
		return
	}

	if ok, reason := h.Limiter.Check(r, req.Username); !ok {
		h.AuditLog.LoginRateLimited(r.Context(), r, req.Username)
		jsonresp.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sess, err := h.Accounts.Login(ctx, time.Now().UTC().Truncate(time.Millisecond), req.Username, req.Password)
	if err != nil {
		var lf *accountsvc.LoginFailure
		if errors.As(err, &lf) {
			h.AuditLog.LoginFailed(r.Context(), r, lf.UserID, req.Username, lf.Reason)
			h.Log.Info("login failed", zap.String("reason", lf.Reason))
		}
		h.ErrLog.Respond(w, r, "login", err)
		return
	}

	h.Limiter.ResetCredential(req.Username)
	h.AuditLog.LoginSuccess(r.Context(), r, sess.User.ID, sess.User.Username)
	jsonresp.Write(w, http.StatusOK, sessionResponse{
		Message: "Login successful.",
		User:    apiview.UserSummary(sess.User),
		Tokens:  sess.Tokens,
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Refresh handles POST /auth/token/refresh. The presented refresh token is
// revoked and a new pair returned.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, "token refresh", err)
		return
	}
	if req.Refresh == "" {
		h.ErrLog.Respond(w, r, "token refresh", apperr.Invalid("refresh", "This field is required."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sess, err := h.Accounts.Refresh(ctx, req.Refresh)
	if err != nil {
		h.ErrLog.Respond(w, r, "token refresh", err)
		return
	}

	h.AuditLog.TokenRefreshed(r.Context(), r, sess.User.ID)
	jsonresp.Write(w, http.StatusOK, sess.Tokens)
}
