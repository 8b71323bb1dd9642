// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/stratacampus/internal/app/resources"
	userstore "github.com/dalemusser/stratacampus/internal/app/store/users"
	"github.com/dalemusser/stratacampus/internal/app/system/authutil"
	"github.com/dalemusser/stratacampus/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are
// complete, but before the HTTP handler is built and requests are served.
//
// The context will be cancelled if the process is asked to shut down while
// Startup is running; honor it in any long-running work.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	// Indexes are created in EnsureSchema via indexes.EnsureAll().

	if appCfg.SeedAdminEmail != "" {
		if err := ensureAdminUser(ctx, deps, appCfg, logger); err != nil {
			logger.Error("failed to seed admin user", zap.Error(err))
			return err
		}
	}

	return nil
}

// ensureAdminUser makes sure an active admin account exists for the
// configured email. An existing account is promoted and re-enabled; a
// missing one is created with the configured password.
func ensureAdminUser(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	store := userstore.New(deps.MongoDatabase)

	existing, err := store.GetByEmail(ctx, appCfg.SeedAdminEmail)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			if err := store.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
				return err
			}
			logger.Info("promoted existing user to admin",
				zap.String("email", existing.Email),
				zap.String("user_id", existing.ID.Hex()),
				zap.String("previous_role", existing.Role))
		}
		if existing.Status == models.StatusDisabled {
			if err := store.SetStatus(ctx, existing.ID, models.StatusActive); err != nil {
				return err
			}
			logger.Info("re-enabled admin account",
				zap.String("user_id", existing.ID.Hex()))
		}
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	if err := authutil.ValidatePassword(appCfg.SeedAdminPassword); err != nil {
		return err
	}
	hash, err := authutil.HashPassword(appCfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	created, err := store.Create(ctx, models.User{
		FullName:     appCfg.SeedAdminName,
		Email:        appCfg.SeedAdminEmail,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return err
	}

	logger.Info("created admin user",
		zap.String("email", created.Email),
		zap.String("user_id", created.ID.Hex()))
	return nil
}
