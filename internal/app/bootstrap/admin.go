// internal/app/bootstrap/admin.go
package bootstrap

import (
	"context"
	"errors"

	userstore "github.com/dalemusser/accredithub/internal/app/store/users"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ensureAdmin makes sure the configured admin account exists. Registration
// never creates admins, so this is how the first one is provisioned. An
// existing account with that email is promoted; its password is left alone.
func ensureAdmin(ctx context.Context, db *mongo.Database, email, name, password string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	users := userstore.New(db)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Position == authz.Admin && u.Status == userstore.StatusActive {
			return nil
		}
		if err := users.Promote(ctx, u.ID); err != nil {
			return err
		}
		logger.Info("promoted existing user to admin", zap.String("email", email))
		return nil
	case !errors.Is(err, userstore.ErrNotFound):
		return err
	}

	if password == "" {
		logger.Warn("admin account created without a password; it cannot sign in until one is set",
			zap.String("email", email))
	}
	if name == "" {
		name = "Administrator"
	}
	if _, err := users.Create(ctx, models.User{
		Name:     name,
		Email:    email,
		Position: authz.Admin,
	}, password); err != nil {
		return err
	}
	logger.Info("created admin account", zap.String("email", email))
	return nil
}
