// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"

	uierrors "github.com/dalemusser/collabhub/internal/app/features/errors"
	"github.com/dalemusser/collabhub/internal/app/features/shared/apiview"
	"github.com/dalemusser/collabhub/internal/app/services/dashboardsvc"
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/jsonresp"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Dashboard *dashboardsvc.Service
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
}

func NewHandler(svc *dashboardsvc.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Dashboard: svc, ErrLog: errLog, Log: logger}
}

// Serve handles GET /statistiche/. Every number is computed per request.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "dashboard")
	defer cancel()

	sc := auth.Scope(r)
	d, err := h.Dashboard.Build(ctx, sc)
	if err != nil {
		h.ErrLog.Respond(w, r, "dashboard", err)
		return
	}

	h.Log.Debug("dashboard served", zap.String("user", sc.ActorName))
	jsonresp.Write(w, http.StatusOK, apiview.DashboardOf(d))
}
