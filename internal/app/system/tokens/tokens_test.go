package tokens_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/collabhub/internal/app/system/tokens"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/collabhub/internal/testutil/memstore"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newService(t *testing.T) (*tokens.Service, *memstore.Blacklist) {
	t.Helper()
	bl := memstore.NewBlacklist()
	svc := tokens.NewService(tokens.Config{
		Secret:     []byte("test-secret-0123456789abcdef0123456789"),
		Issuer:     "collabhub-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}, bl)
	return svc, bl
}

func testUser() models.User {
	return models.User{ID: primitive.NewObjectID(), Username: "mario"}
}

func TestIssueAndVerify(t *testing.T) {
	svc, _ := newService(t)
	u := testUser()

	pair, err := svc.Issue(u)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := svc.VerifyAccess(pair.Access)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if claims.Subject != u.ID.Hex() {
		t.Errorf("subject: got %q, want %q", claims.Subject, u.ID.Hex())
	}
	if claims.Username != "mario" {
		t.Errorf("username: got %q, want %q", claims.Username, "mario")
	}
	if claims.ID == "" {
		t.Error("expected a jti")
	}

	if _, err := svc.VerifyRefresh(context.Background(), pair.Refresh); err != nil {
		t.Errorf("VerifyRefresh failed: %v", err)
	}
}

func TestVerify_WrongKind(t *testing.T) {
	svc, _ := newService(t)
	pair, _ := svc.Issue(testUser())

	if _, err := svc.VerifyAccess(pair.Refresh); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("refresh as access: got %v, want %v", err, tokens.ErrInvalid)
	}
	if _, err := svc.VerifyRefresh(context.Background(), pair.Access); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("access as refresh: got %v, want %v", err, tokens.ErrInvalid)
	}
}

func TestVerify_Expired(t *testing.T) {
	svc, _ := newService(t)
	pair, _ := svc.Issue(testUser())

	later := svc.WithClock(func() time.Time { return time.Now().Add(time.Hour) })
	if _, err := later.VerifyAccess(pair.Access); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("got %v, want %v", err, tokens.ErrInvalid)
	}
}

func TestVerify_Tampered(t *testing.T) {
	svc, _ := newService(t)
	pair, _ := svc.Issue(testUser())

	parts := strings.Split(pair.Access, ".")
	parts[2] = strings.Repeat("A", len(parts[2]))
	if _, err := svc.VerifyAccess(strings.Join(parts, ".")); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("got %v, want %v", err, tokens.ErrInvalid)
	}

	if _, err := svc.VerifyAccess("not-a-jwt"); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("garbage: got %v, want %v", err, tokens.ErrInvalid)
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	svc, _ := newService(t)
	u := testUser()

	claims := tokens.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Subject:   u.ID.Hex(),
			Issuer:    "collabhub-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Type: tokens.KindAccess,
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := svc.VerifyAccess(raw); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("got %v, want %v", err, tokens.ErrInvalid)
	}
}

func TestRevoke(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	pair, _ := svc.Issue(testUser())

	if _, err := svc.Revoke(ctx, pair.Refresh); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := svc.VerifyRefresh(ctx, pair.Refresh); !errors.Is(err, tokens.ErrRevoked) {
		t.Errorf("VerifyRefresh after revoke: got %v, want %v", err, tokens.ErrRevoked)
	}
	if _, err := svc.Revoke(ctx, pair.Refresh); !errors.Is(err, tokens.ErrRevoked) {
		t.Errorf("second Revoke: got %v, want %v", err, tokens.ErrRevoked)
	}

	// The access token is unaffected.
	if _, err := svc.VerifyAccess(pair.Access); err != nil {
		t.Errorf("VerifyAccess after revoke: %v", err)
	}
}

func TestRevoke_Garbage(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Revoke(context.Background(), "garbage"); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("got %v, want %v", err, tokens.ErrInvalid)
	}
}

func TestIssue_NoSecret(t *testing.T) {
	svc := tokens.NewService(tokens.Config{AccessTTL: time.Minute, RefreshTTL: time.Hour}, memstore.NewBlacklist())
	if _, err := svc.Issue(testUser()); err == nil {
		t.Error("expected error without a secret")
	}
}
