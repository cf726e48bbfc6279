package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/collabhub/internal/app/system/jsonresp"
	"github.com/dalemusser/collabhub/internal/app/system/reqscope"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/app/system/tokens"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// NotAuthenticated is the body of every 401 written by RequireSignedIn.
const NotAuthenticated = "Authentication credentials were not provided."

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

// Scope builds the request scope for the signed-in user. It must only be
// called behind RequireSignedIn.
func Scope(r *http.Request) reqscope.Scope {
	u, ok := CurrentUser(r)
	if !ok {
		return reqscope.New(primitive.NilObjectID, "", time.Now().UTC())
	}
	return reqscope.New(u.ID, u.Username, time.Now().UTC())
}

// WithTestUser injects u into the request context. Handler tests use it to
// bypass token verification.
func WithTestUser(r *http.Request, u *models.User) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Bearer token middleware                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// UserLoader resolves the subject of a verified access token.
type UserLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Middleware authenticates requests carrying an access token.
type Middleware struct {
	tokens *tokens.Service
	users  UserLoader
	logger *zap.Logger
}

// NewMiddleware constructs the bearer token middleware.
func NewMiddleware(ts *tokens.Service, users UserLoader, logger *zap.Logger) *Middleware {
	return &Middleware{tokens: ts, users: users, logger: logger}
}

// LoadTokenUser injects the user into context when the request carries a
// valid access token for an active account. Anything else leaves the
// request anonymous; RequireSignedIn decides what to do with it.
func (m *Middleware) LoadTokenUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := BearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokens.VerifyAccess(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		uid, err := claims.UserID()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		u, err := m.users.GetByID(ctx, uid)
		cancel()
		if err != nil {
			if !errors.Is(err, mongo.ErrNoDocuments) {
				m.logger.Error("load token user", zap.Error(err), zap.String("user_id", uid.Hex()))
				jsonresp.Error(w, http.StatusInternalServerError, "A server error occurred.")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		if !u.IsActive {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadTokenUser).
// Anonymous callers get a 401 with a WWW-Authenticate challenge.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		jsonresp.Error(w, http.StatusUnauthorized, NotAuthenticated)
	})
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
