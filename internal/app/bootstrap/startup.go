// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/topichub/internal/app/store/oauthstate"
	"github.com/dalemusser/topichub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// stateCleanup is started in Startup and stopped in Shutdown.
var stateCleanup *workers.StateCleanup

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	stateCleanup = workers.NewStateCleanup(
		oauthstate.New(deps.MongoDatabase), logger, 15*time.Minute)
	stateCleanup.Start()
	return nil
}
