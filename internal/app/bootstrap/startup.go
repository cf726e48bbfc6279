// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/collabhub/internal/app/store/revokedtokens"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// tokenCleanup is started by Startup and stopped by Shutdown.
var tokenCleanup *workers.TokenCleanup

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short: appCfg.TimeoutShort,
		Long:  appCfg.TimeoutLong,
	})
	cur := timeouts.Current()
	logger.Info("collabhub starting",
		zap.Duration("timeout_short", cur.Short),
		zap.Duration("timeout_long", cur.Long),
		zap.Duration("access_token_ttl", appCfg.AccessTokenTTL),
		zap.Duration("refresh_token_ttl", appCfg.RefreshTokenTTL),
		zap.Bool("metrics_enabled", appCfg.MetricsEnabled))

	if appCfg.TokenCleanupInterval > 0 && deps.MongoDatabase != nil {
		tokenCleanup = workers.NewTokenCleanup(revokedtokens.New(deps.MongoDatabase), logger, appCfg.TokenCleanupInterval)
		tokenCleanup.Start()
	}
	return nil
}
