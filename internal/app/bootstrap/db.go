// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/topichub/internal/app/store/emailverify"
	"github.com/dalemusser/topichub/internal/app/store/oauthstate"
	"github.com/dalemusser/topichub/internal/app/store/passwordreset"
	"github.com/dalemusser/topichub/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// EnsureSchema creates indexes for all collections at startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	if err := indexes.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	if err := emailverify.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure email verification indexes: %w", err)
	}
	if err := oauthstate.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure oauth state indexes: %w", err)
	}
	if err := passwordreset.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure password reset indexes: %w", err)
	}

	logger.Info("database schema ensured", zap.String("database", db.Name()))
	return nil
}
