package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/system/metrics"
	"github.com/go-chi/chi/v5"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.RequestTotal.WithLabelValues("GET", "/projects/{id}", "418")
	before := promtest.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/"+id, nil))
	}

	if got := promtest.ToFloat64(counter) - before; got != 2 {
		t.Errorf("got %v increments, want 2", got)
	}
}

func TestCountOp(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		denied  bool
		outcome string
	}{
		{"success", nil, false, metrics.OutcomeSuccess},
		{"failure", errors.New("x"), false, metrics.OutcomeFailure},
		{"denied", nil, true, metrics.OutcomeDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := metrics.Operations.WithLabelValues("test_op", tt.outcome)
			before := promtest.ToFloat64(c)
			metrics.CountOp("test_op", tt.err, tt.denied)
			if got := promtest.ToFloat64(c) - before; got != 1 {
				t.Errorf("got %v, want 1", got)
			}
		})
	}
}

func TestHandler_Exposes(t *testing.T) {
	metrics.CountOp("exposed_op", nil, false)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "collabhub_operations_total") {
		t.Error("expected collabhub_operations_total in exposition")
	}
}
