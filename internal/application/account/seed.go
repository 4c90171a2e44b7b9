package account

import (
	"context"
	"errors"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SeedAdmin ensures a privileged account with the given email exists.
// An existing account is left untouched, whatever its role.
func SeedAdmin(ctx context.Context, repo account.Repository, email, password string, logger *zap.Logger) error {
	exists, err := repo.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("Admin account already present", zap.String("email", account.NormalizeEmail(email)))
		return nil
	}

	admin, err := account.NewAccount(email, password, account.RolePrivileged)
	if err != nil {
		return err
	}
	if err := repo.Create(ctx, admin); err != nil {
		// lost a race with another instance seeding the same account
		if errors.Is(err, shared.ErrDuplicateIdentity) {
			return nil
		}
		return err
	}

	logger.Info("Default admin account created",
		zap.Int64("account_id", admin.ID),
		zap.String("email", admin.Email))
	return nil
}
