// Package tokens issues and verifies the HS256 access/refresh JWT pair and
// revokes refresh tokens through a blacklist.
package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrInvalid covers malformed, expired, wrongly signed and wrong-kind tokens.
	ErrInvalid = errors.New("token is invalid or expired")
	// ErrRevoked is returned for a refresh token on the blacklist.
	ErrRevoked = errors.New("token has been revoked")
	// ErrAlreadyRevoked is returned by a Blacklist when the jti is present.
	ErrAlreadyRevoked = errors.New("token already revoked")
)

// Claims are the JWT claims of both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Type     Kind   `json:"typ"`
	Username string `json:"username,omitempty"`
}

// UserID parses the subject as an ObjectID.
func (c *Claims) UserID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Subject)
}

// Pair is the token pair returned to clients.
type Pair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// Blacklist stores revoked refresh token ids.
type Blacklist interface {
	Revoke(ctx context.Context, jti string, userID primitive.ObjectID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Config configures signing and lifetimes.
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service issues, verifies and revokes tokens. It is safe for concurrent use.
type Service struct {
	cfg       Config
	blacklist Blacklist
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(cfg Config, blacklist Blacklist) *Service {
	return &Service{cfg: cfg, blacklist: blacklist, now: time.Now}
}

// WithClock returns a copy of s that reads time from now. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Issue signs a fresh access/refresh pair for u.
func (s *Service) Issue(u models.User) (Pair, error) {
	if len(s.cfg.Secret) == 0 {
		return Pair{}, errors.New("no signing secret configured")
	}
	now := s.now().UTC()
	access, err := s.sign(u, KindAccess, now, s.cfg.AccessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.sign(u, KindRefresh, now, s.cfg.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Refresh: refresh, Access: access}, nil
}

func (s *Service) sign(u models.User, kind Kind, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID.Hex(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type:     kind,
		Username: u.Username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
}

func (s *Service) parse(raw string, want Kind) (*Claims, error) {
	if raw == "" || len(s.cfg.Secret) == 0 {
		return nil, ErrInvalid
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.cfg.Secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != want || claims.ID == "" {
		return nil, ErrInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalid
	}
	return claims, nil
}

// VerifyAccess validates an access token. Access tokens are not checked
// against the blacklist; they expire quickly.
func (s *Service) VerifyAccess(raw string) (*Claims, error) {
	return s.parse(raw, KindAccess)
}

// VerifyRefresh validates a refresh token and rejects revoked ones.
func (s *Service) VerifyRefresh(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.parse(raw, KindRefresh)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke blacklists a refresh token until it would have expired. Revoking
// the same token twice returns ErrRevoked.
func (s *Service) Revoke(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.parse(raw, KindRefresh)
	if err != nil {
		return nil, err
	}
	uid, _ := claims.UserID()
	if err := s.blacklist.Revoke(ctx, claims.ID, uid, claims.ExpiresAt.Time); err != nil {
		if errors.Is(err, ErrAlreadyRevoked) {
			return nil, ErrRevoked
		}
		return nil, err
	}
	return claims, nil
}
