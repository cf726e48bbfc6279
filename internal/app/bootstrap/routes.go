// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	accountfeature "github.com/dalemusser/collabhub/internal/app/features/account"
	dashboardfeature "github.com/dalemusser/collabhub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/collabhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/collabhub/internal/app/features/health"
	projectsfeature "github.com/dalemusser/collabhub/internal/app/features/projects"
	tasksfeature "github.com/dalemusser/collabhub/internal/app/features/tasks"
	usersfeature "github.com/dalemusser/collabhub/internal/app/features/users"
	"github.com/dalemusser/collabhub/internal/app/services/accountsvc"
	"github.com/dalemusser/collabhub/internal/app/services/dashboardsvc"
	"github.com/dalemusser/collabhub/internal/app/services/projectsvc"
	"github.com/dalemusser/collabhub/internal/app/services/tasksvc"
	auditstore "github.com/dalemusser/collabhub/internal/app/store/audit"
	projectstore "github.com/dalemusser/collabhub/internal/app/store/projects"
	"github.com/dalemusser/collabhub/internal/app/store/revokedtokens"
	taskstore "github.com/dalemusser/collabhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/collabhub/internal/app/store/users"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/metrics"
	"github.com/dalemusser/collabhub/internal/app/system/ratelimit"
	"github.com/dalemusser/collabhub/internal/app/system/tokens"
	"github.com/dalemusser/collabhub/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Stores are built once over the shared
// database handle; services and feature handlers are built over the stores.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Stores
	users := userstore.New(db)
	projects := projectstore.New(db)
	tasks := taskstore.New(db)
	revoked := revokedtokens.New(db)
	events := auditstore.New(db)
	tx := txn.NewRunner(db)

	ts := tokens.NewService(tokens.Config{
		Secret:     []byte(appCfg.JWTSecret),
		Issuer:     appCfg.JWTIssuer,
		AccessTTL:  appCfg.AccessTokenTTL,
		RefreshTTL: appCfg.RefreshTokenTTL,
	}, revoked)

	// Services
	accountSvc := accountsvc.New(accountsvc.Deps{
		Users:    users,
		Projects: projects,
		Tasks:    tasks,
		Revoked:  revoked,
		Events:   events,
		Tokens:   ts,
		Tx:       tx,
		Logger:   logger,
	})
	projectSvc := projectsvc.New(projects, tasks, users, tx, logger)
	taskSvc := tasksvc.New(projects, tasks, users, logger)
	dashboardSvc := dashboardsvc.New(projects, tasks)

	auditLogger := auditlog.New(events, logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Project: appCfg.AuditLogProject,
	})
	limiter := ratelimit.NewLoginLimiter(appCfg.LoginIPPerMinute, appCfg.LoginCredentialPerMinute)

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if appCfg.MetricsEnabled {
		r.Use(metrics.Middleware)
	}

	// Global auth middleware: loads the token's user into context when a
	// valid bearer token is present. Each feature decides whether to
	// require one.
	r.Use(auth.NewMiddleware(ts, users, logger).LoadTokenUser)

	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	// Authentication and the requester's own account
	accountHandler := accountfeature.NewHandler(accountSvc, limiter, auditLogger, errLog, logger)
	r.Mount("/auth", accountfeature.Routes(accountHandler))

	projectsHandler := projectsfeature.NewHandler(projectSvc, taskSvc, auditLogger, errLog, logger)
	r.Mount("/projects", projectsfeature.Routes(projectsHandler))

	tasksHandler := tasksfeature.NewHandler(taskSvc, errLog, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler))

	dashboardHandler := dashboardfeature.NewHandler(dashboardSvc, errLog, logger)
	r.Mount("/statistiche", dashboardfeature.Routes(dashboardHandler))

	usersHandler := usersfeature.NewHandler(users, errLog, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler))

	return r, nil
}
