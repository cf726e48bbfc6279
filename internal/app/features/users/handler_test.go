package users_test

import (
	"fmt"
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/collabhub/internal/app/features/errors"
	"github.com/dalemusser/collabhub/internal/app/features/users"
	"github.com/dalemusser/collabhub/internal/app/system/paging"
	"github.com/dalemusser/collabhub/internal/testutil"
	"github.com/dalemusser/collabhub/internal/testutil/memstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type listBody struct {
	Results []struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"results"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
}

func newRouter(db *memstore.DB) http.Handler {
	logger := zap.NewNop()
	return users.Routes(users.NewHandler(db.Users(), uierrors.NewErrorLogger(logger), logger))
}

func TestList_SearchAndPaging(t *testing.T) {
	db := memstore.New()
	me := db.AddUser("me")
	db.AddUser("mario")
	db.AddUser("Marta")
	db.AddUser("luigi")
	gone := db.AddUser("marco")
	db.SetActive(gone.ID, false)
	router := newRouter(db)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?search=mar", &me))
	rec.AssertStatus(t, http.StatusOK)
	var found listBody
	rec.DecodeJSON(t, &found)
	if len(found.Results) != 2 {
		t.Errorf("search: got %d results, want 2 (inactive users hidden)", len(found.Results))
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?limit=2", &me))
	rec.AssertStatus(t, http.StatusOK)
	var page1 listBody
	rec.DecodeJSON(t, &page1)
	if len(page1.Results) != 2 || page1.Next == "" || page1.Previous != "" {
		t.Fatalf("page 1: got %d results next=%q previous=%q", len(page1.Results), page1.Next, page1.Previous)
	}

	// four active users: the second page is exactly full and is the last one.
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?limit=2&after="+page1.Next, &me))
	rec.AssertStatus(t, http.StatusOK)
	var page2 listBody
	rec.DecodeJSON(t, &page2)
	if len(page2.Results) != 2 {
		t.Fatalf("page 2: got %d results, want 2", len(page2.Results))
	}
	if page2.Results[0].ID == page1.Results[1].ID {
		t.Error("page 2 should start after the cursor")
	}
	if page2.Next != "" {
		t.Errorf("page 2: got next=%q, want none on the last page", page2.Next)
	}
	if page2.Previous == "" {
		t.Fatal("page 2: want a previous cursor")
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?limit=2&before="+page2.Previous, &me))
	rec.AssertStatus(t, http.StatusOK)
	var back listBody
	rec.DecodeJSON(t, &back)
	if len(back.Results) != 2 || back.Results[0].ID != page1.Results[0].ID || back.Results[1].ID != page1.Results[1].ID {
		t.Errorf("paging back: got %+v, want page 1", back.Results)
	}
	if back.Previous != "" || back.Next == "" {
		t.Errorf("paging back: got previous=%q next=%q, want next only", back.Previous, back.Next)
	}
}

func TestList_LimitIsCapped(t *testing.T) {
	db := memstore.New()
	me := db.AddUser("me")
	for i := 0; i < paging.MaxPageSize+5; i++ {
		db.AddUser(fmt.Sprintf("user%03d", i))
	}

	rec := testutil.NewRecorder()
	newRouter(db).ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?limit=500", &me))
	rec.AssertStatus(t, http.StatusOK)
	var body listBody
	rec.DecodeJSON(t, &body)
	if len(body.Results) != paging.MaxPageSize {
		t.Errorf("got %d results, want %d", len(body.Results), paging.MaxPageSize)
	}
	if body.Next == "" {
		t.Error("want a next cursor when more users remain")
	}
}

func TestList_InvalidCursor(t *testing.T) {
	db := memstore.New()
	me := db.AddUser("me")

	rec := testutil.NewRecorder()
	newRouter(db).ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?after=zzz", &me))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, `"after"`)
}

func TestGet(t *testing.T) {
	db := memstore.New()
	me := db.AddUser("me")
	other := db.AddUser("other")
	inactive := db.AddUser("inactive")
	db.SetActive(inactive.ID, false)
	router := newRouter(db)

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"active user", other.ID.Hex(), http.StatusOK},
		{"inactive user", inactive.ID.Hex(), http.StatusNotFound},
		{"unknown id", primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"malformed id", "abc", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/"+tt.id, &me))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestRequiresAuthentication(t *testing.T) {
	rec := testutil.NewRecorder()
	newRouter(memstore.New()).ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestGet_AnonymousActorDenied(t *testing.T) {
	db := memstore.New()
	other := db.AddUser("other")
	logger := zap.NewNop()
	h := users.NewHandler(db.Users(), uierrors.NewErrorLogger(logger), logger)

	req := testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/"+other.ID.Hex()), "id", other.ID.Hex())
	rec := testutil.NewRecorder()
	h.Get(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}
