// Package accountsvc implements registration, login, logout, token
// refresh and the requester's own profile, including account deletion.
package accountsvc

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/collabhub/internal/app/store/audit"
	userstore "github.com/dalemusser/collabhub/internal/app/store/users"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/collabhub/internal/app/system/inputval"
	"github.com/dalemusser/collabhub/internal/app/system/normalize"
	"github.com/dalemusser/collabhub/internal/app/system/passwords"
	"github.com/dalemusser/collabhub/internal/app/system/reqscope"
	"github.com/dalemusser/collabhub/internal/app/system/tokens"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NameMaxLen bounds nome and cognome.
const NameMaxLen = 150

// Activity limits.
const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 100
)

// ErrLogoutFailed is the single message returned for any logout failure.
var ErrLogoutFailed = apperr.BadRequest("Invalid or expired refresh token.")

// UserStore is the subset of the user store this service uses.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd userstore.ProfileUpdate, now time.Time) (*models.User, error)
	SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// ProjectStore is used by the account deletion cascade.
type ProjectStore interface {
	IDsOwnedBy(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	PullCollaboratorEverywhere(ctx context.Context, userID primitive.ObjectID) error
}

// TaskStore is used by the account deletion cascade.
type TaskStore interface {
	UnsetAssignee(ctx context.Context, userID primitive.ObjectID, now time.Time) (int64, error)
	DeleteByAuthor(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DeleteByProjects(ctx context.Context, projectIDs []primitive.ObjectID) (int64, error)
}

// RevokedTokenStore drops a deleted user's blacklist rows.
type RevokedTokenStore interface {
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// EventStore reads and removes a user's audit events.
type EventStore interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]audit.Event, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

// Transactor runs fn atomically where the database allows it.
type Transactor interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps groups the collaborators of Service.
type Deps struct {
	Users    UserStore
	Projects ProjectStore
	Tasks    TaskStore
	Revoked  RevokedTokenStore
	Events   EventStore
	Tokens   *tokens.Service
	Tx       Transactor
	Logger   *zap.Logger
}

type Service struct {
	d Deps
}

func New(d Deps) *Service {
	return &Service{d: d}
}

// Session is what register and login return: the user and a fresh pair.
type Session struct {
	User   models.User
	Tokens tokens.Pair
}

/*─────────────────────────────────────────────────────────────────────────────*
| Register                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// RegisterInput is the registration body.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

// Register validates in, creates the account and issues a token pair.
func (s *Service) Register(ctx context.Context, now time.Time, in RegisterInput) (Session, error) {
	username := strings.TrimSpace(in.Username)
	email := normalize.Email(in.Email)
	first := htmlsanitize.PlainText(in.FirstName)
	last := htmlsanitize.PlainText(in.LastName)

	errs := inputval.Errors{}
	if errs.Required("username", username) {
		switch {
		case !inputval.IsValidUsername(username):
			errs.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
		default:
			taken, err := s.d.Users.UsernameExists(ctx, username)
			if err != nil {
				return Session{}, err
			}
			if taken {
				errs.Add("username", "A user with that username already exists.")
			}
		}
	}
	if errs.Required("email", email) {
		if !inputval.IsValidEmail(email) {
			errs.Add("email", "Enter a valid email address.")
		} else {
			taken, err := s.d.Users.EmailExistsForOther(ctx, email, primitive.NilObjectID)
			if err != nil {
				return Session{}, err
			}
			if taken {
				errs.Add("email", "A user with this email already exists.")
			}
		}
	}
	if errs.Required("password", in.Password) {
		for _, msg := range passwords.Validate(in.Password, username, email) {
			errs.Add("password", msg)
		}
	}
	if errs.Required("password_confirm", in.PasswordConfirm) && in.Password != in.PasswordConfirm {
		errs.Add("password_confirm", "The two password fields didn't match.")
	}
	if errs.Required("nome", first) {
		errs.MaxLen("nome", first, NameMaxLen)
	}
	if errs.Required("cognome", last) {
		errs.MaxLen("cognome", last, NameMaxLen)
	}
	if err := apperr.Validation(errs); err != nil {
		return Session{}, err
	}

	hash, err := passwords.Hash(in.Password)
	if err != nil {
		return Session{}, err
	}
	u, err := s.d.Users.Create(ctx, models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		Email:        email,
		FirstName:    first,
		LastName:     last,
		PasswordHash: hash,
		IsActive:     true,
		DateJoined:   now,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateUsername):
		return Session{}, apperr.Invalid("username", "A user with that username already exists.")
	case errors.Is(err, userstore.ErrDuplicateEmail):
		return Session{}, apperr.Invalid("email", "A user with this email already exists.")
	case err != nil:
		return Session{}, err
	}

	pair, err := s.d.Tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Tokens: pair}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Login / logout / refresh                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// LoginFailure is returned for every rejected login. Clients only ever see
// ErrInvalidCredentials; UserID and Reason feed the audit log.
type LoginFailure struct {
	UserID *primitive.ObjectID
	Reason string
}

func (e *LoginFailure) Error() string { return apperr.ErrInvalidCredentials.Error() }

func (e *LoginFailure) Unwrap() error { return apperr.ErrInvalidCredentials }

// Login authenticates credential (a username, or failing that an email)
// and password, records last_login and issues a token pair.
func (s *Service) Login(ctx context.Context, now time.Time, credential, password string) (Session, error) {
	credential = strings.TrimSpace(credential)
	errs := inputval.Errors{}
	errs.Required("username", credential)
	errs.Required("password", password)
	if err := apperr.Validation(errs); err != nil {
		return Session{}, err
	}

	u, err := s.lookup(ctx, credential)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Compare anyway so unknown users cost the same as wrong passwords.
			passwords.Matches(dummyHash(), password)
			return Session{}, &LoginFailure{Reason: "user not found"}
		}
		return Session{}, err
	}
	if !passwords.Matches(u.PasswordHash, password) {
		return Session{}, &LoginFailure{UserID: &u.ID, Reason: "wrong password"}
	}
	if !u.IsActive {
		return Session{}, &LoginFailure{UserID: &u.ID, Reason: "inactive account"}
	}

	if err := s.d.Users.SetLastLogin(ctx, u.ID, now); err != nil {
		return Session{}, err
	}
	u.LastLogin = &now

	pair, err := s.d.Tokens.Issue(*u)
	if err != nil {
		return Session{}, err
	}
	return Session{User: *u, Tokens: pair}, nil
}

// dummyHash is compared against when the credential matches no user.
var dummyHash = sync.OnceValue(func() string {
	h, _ := passwords.Hash("collabhub-unknown-user")
	return h
})

func (s *Service) lookup(ctx context.Context, credential string) (*models.User, error) {
	u, err := s.d.Users.GetByUsername(ctx, credential)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if !strings.Contains(credential, "@") {
		return nil, err
	}
	return s.d.Users.GetByEmail(ctx, credential)
}

// Logout revokes refresh when one is given. It reports whether a token
// was revoked. Every failure collapses to ErrLogoutFailed.
func (s *Service) Logout(ctx context.Context, sc reqscope.Scope, refresh string) (bool, error) {
	refresh = strings.TrimSpace(refresh)
	if refresh == "" {
		return false, nil
	}
	claims, err := s.d.Tokens.VerifyRefresh(ctx, refresh)
	if err != nil {
		return false, s.logoutFailed(sc, err)
	}
	if uid, _ := claims.UserID(); uid != sc.ActorID {
		return false, s.logoutFailed(sc, errors.New("refresh token belongs to another user"))
	}
	if _, err := s.d.Tokens.Revoke(ctx, refresh); err != nil {
		return false, s.logoutFailed(sc, err)
	}
	return true, nil
}

func (s *Service) logoutFailed(sc reqscope.Scope, cause error) error {
	s.d.Logger.Info("logout revoke failed",
		zap.String("user_id", sc.ActorID.Hex()),
		zap.Error(cause))
	return ErrLogoutFailed
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued for its (still active) owner.
func (s *Service) Refresh(ctx context.Context, raw string) (Session, error) {
	claims, err := s.d.Tokens.VerifyRefresh(ctx, strings.TrimSpace(raw))
	if err != nil {
		if errors.Is(err, tokens.ErrInvalid) || errors.Is(err, tokens.ErrRevoked) {
			return Session{}, apperr.ErrInvalidToken
		}
		return Session{}, err
	}
	uid, err := claims.UserID()
	if err != nil {
		return Session{}, apperr.ErrInvalidToken
	}
	u, err := s.d.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Session{}, apperr.ErrInvalidToken
		}
		return Session{}, err
	}
	if !u.IsActive {
		return Session{}, apperr.ErrInvalidToken
	}
	if _, err := s.d.Tokens.Revoke(ctx, raw); err != nil {
		if errors.Is(err, tokens.ErrInvalid) || errors.Is(err, tokens.ErrRevoked) {
			return Session{}, apperr.ErrInvalidToken
		}
		return Session{}, err
	}
	pair, err := s.d.Tokens.Issue(*u)
	if err != nil {
		return Session{}, err
	}
	return Session{User: *u, Tokens: pair}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Profile                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Profile returns the requester's own account.
func (s *Service) Profile(ctx context.Context, sc reqscope.Scope) (*models.User, error) {
	u, err := s.d.Users.GetByID(ctx, sc.ActorID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("User")
		}
		return nil, err
	}
	return u, nil
}

// ProfileInput is the body of a profile PATCH. Nil fields are unchanged.
type ProfileInput struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// UpdateProfile edits nome, cognome and email of the requester. The
// target is always sc.ActorID, so there is no other owner to check.
func (s *Service) UpdateProfile(ctx context.Context, sc reqscope.Scope, in ProfileInput) (*models.User, error) {
	var upd userstore.ProfileUpdate
	errs := inputval.Errors{}
	if in.FirstName != nil {
		v := htmlsanitize.PlainText(*in.FirstName)
		if errs.Required("nome", v) {
			errs.MaxLen("nome", v, NameMaxLen)
		}
		upd.FirstName = &v
	}
	if in.LastName != nil {
		v := htmlsanitize.PlainText(*in.LastName)
		if errs.Required("cognome", v) {
			errs.MaxLen("cognome", v, NameMaxLen)
		}
		upd.LastName = &v
	}
	if in.Email != nil {
		v := normalize.Email(*in.Email)
		if errs.Required("email", v) {
			if !inputval.IsValidEmail(v) {
				errs.Add("email", "Enter a valid email address.")
			} else {
				taken, err := s.d.Users.EmailExistsForOther(ctx, v, sc.ActorID)
				if err != nil {
					return nil, err
				}
				if taken {
					errs.Add("email", "A user with this email already exists.")
				}
			}
		}
		upd.Email = &v
	}
	if err := apperr.Validation(errs); err != nil {
		return nil, err
	}

	u, err := s.d.Users.UpdateProfile(ctx, sc.ActorID, upd, sc.Now)
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		return nil, apperr.Invalid("email", "A user with this email already exists.")
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, apperr.NotFound("User")
	case err != nil:
		return nil, err
	}
	return u, nil
}

// DeleteAccount removes the requester and everything that depends on
// them: assignments are cleared, authored tasks and owned projects (with
// their tasks) are deleted, and the user leaves every collaborator set.
func (s *Service) DeleteAccount(ctx context.Context, sc reqscope.Scope) (*models.User, error) {
	u, err := s.Profile(ctx, sc)
	if err != nil {
		return nil, err
	}
	err = s.d.Tx.Run(ctx, func(ctx context.Context) error {
		if _, err := s.d.Tasks.UnsetAssignee(ctx, u.ID, sc.Now); err != nil {
			return err
		}
		if _, err := s.d.Tasks.DeleteByAuthor(ctx, u.ID); err != nil {
			return err
		}
		owned, err := s.d.Projects.IDsOwnedBy(ctx, u.ID)
		if err != nil {
			return err
		}
		if _, err := s.d.Tasks.DeleteByProjects(ctx, owned); err != nil {
			return err
		}
		if _, err := s.d.Projects.DeleteByIDs(ctx, owned); err != nil {
			return err
		}
		if err := s.d.Projects.PullCollaboratorEverywhere(ctx, u.ID); err != nil {
			return err
		}
		if _, err := s.d.Revoked.DeleteByUser(ctx, u.ID); err != nil {
			return err
		}
		if err := s.d.Events.DeleteByUser(ctx, u.ID); err != nil {
			return err
		}
		n, err := s.d.Users.Delete(ctx, u.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound("User")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.d.Logger.Info("account deleted", zap.String("user_id", u.ID.Hex()), zap.String("username", u.Username))
	return u, nil
}

// Activity returns the requester's own audit events, newest first.
func (s *Service) Activity(ctx context.Context, sc reqscope.Scope, limit int64) ([]audit.Event, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	return s.d.Events.GetByUser(ctx, sc.ActorID, limit)
}
