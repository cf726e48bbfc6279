// internal/app/features/account/handler.go
package account

import (
	"strconv"

	uierrors "github.com/dalemusser/collabhub/internal/app/features/errors"
	"github.com/dalemusser/collabhub/internal/app/services/accountsvc"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Handler serves the /auth endpoints: registration, login, logout, token
// refresh, and the requester's own profile and activity.
type Handler struct {
	Accounts *accountsvc.Service
	Limiter  *ratelimit.LoginLimiter
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(
	accounts *accountsvc.Service,
	limiter *ratelimit.LoginLimiter,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Accounts: accounts,
		Limiter:  limiter,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

// parseLimit reads ?limit=; anything unparsable means "use the default".
func parseLimit(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
