package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/domain/shared"
	"github.com/aigate/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAccountRepository implements account.Repository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// Create persists a new account and assigns its ID
func (r *GormAccountRepository) Create(ctx context.Context, a *account.Account) error {
	model := models.AccountModelFromDomain(a)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicateIdentity
		}
		return err
	}
	a.ID = model.ID
	a.CreatedAt = model.CreatedAt
	return nil
}

// FindByEmail finds an account by its normalized email
func (r *GormAccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	if email == "" {
		return nil, shared.ErrNotFound
	}
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", account.NormalizeEmail(email)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds an account by ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id int64) (*account.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByEmail reports whether an account with the email exists
func (r *GormAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("email = ?", account.NormalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a standard account and its usage record in one transaction
func (r *GormAccountRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.AccountModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if err := model.ToDomain().CanDelete(); err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.UsageModel{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.AccountModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

type accountUsageRow struct {
	ID        int64        `gorm:"column:id"`
	Email     string       `gorm:"column:email"`
	Role      account.Role `gorm:"column:role"`
	CreatedAt time.Time    `gorm:"column:created_at"`
	APICalls  int64        `gorm:"column:api_calls"`
}

// ListWithUsage returns every account joined with its usage, newest first.
// Accounts without a usage record report zero calls.
func (r *GormAccountRepository) ListWithUsage(ctx context.Context) ([]account.Summary, error) {
	var rows []accountUsageRow
	if err := r.db.WithContext(ctx).
		Table("users AS u").
		Select("u.id, u.email, u.role, u.created_at, COALESCE(a.api_calls, 0) AS api_calls").
		Joins("LEFT JOIN user_api_usage AS a ON a.user_id = u.id").
		Order("u.created_at DESC, u.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	summaries := make([]account.Summary, len(rows))
	for i, row := range rows {
		summaries[i] = account.Summary{
			ID:        row.ID,
			Email:     row.Email,
			Role:      row.Role,
			CreatedAt: row.CreatedAt,
			APICalls:  row.APICalls,
		}
	}
	return summaries, nil
}

// isUniqueViolation detects unique constraint failures across postgres and sqlite
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
