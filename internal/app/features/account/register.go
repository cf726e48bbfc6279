// internal/app/features/account/register.go
package account

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/collabhub/internal/app/features/shared/apiview"
	"github.com/dalemusser/collabhub/internal/app/services/accountsvc"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/jsonresp"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/app/system/tokens"
)

// secretFields are never echoed back in received_data.
var secretFields = []string{"password", "password_confirm"}

type sessionResponse struct {
	Message string       `json:"message"`
	User    apiview.User `json:"user"`
	Tokens  tokens.Pair  `json:"tokens"`
}

// Register handles POST /auth/register.
//
// 201 {message, user, tokens}; 400 {errors, received_data} with the
// password fields removed from received_data.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{}
	if err := jsonresp.Decode(r, &payload); err != nil {
		h.ErrLog.Respond(w, r, "register", err)
		return
	}

	in := accountsvc.RegisterInput{
		Username:        str(payload, "username"),
		Email:           str(payload, "email"),
		Password:        str(payload, "password"),
		PasswordConfirm: str(payload, "password_confirm"),
		FirstName:       str(payload, "nome"),
		LastName:        str(payload, "cognome"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sess, err := h.Accounts.Register(ctx, time.Now().UTC().Truncate(time.Millisecond), in)
	if err != nil {
		if ve, ok := apperr.AsValidation(err); ok {
			for _, f := range secretFields {
				delete(payload, f)
			}
			jsonresp.Write(w, http.StatusBadRequest, map[string]any{
				"errors":        ve.Fields,
				"received_data": payload,
			})
			return
		}
		h.ErrLog.Respond(w, r, "register", err)
		return
	}

	h.AuditLog.Registered(r.Context(), r, sess.User.ID, sess.User.Username)
	jsonresp.Write(w, http.StatusCreated, sessionResponse{
		Message: "User registered successfully.",
		User:    apiview.UserSummary(sess.User),
		Tokens:  sess.Tokens,
	})
}

// str returns payload[key] when it is a string.
func str(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}
