package persistence

import (
	"context"
	"time"

	"github.com/aigate/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUsageLedger implements account.UsageLedger on the user_api_usage table.
// Every write is a single upsert statement so concurrent callers never lose updates.
type GormUsageLedger struct {
	db *gorm.DB
}

// NewGormUsageLedger creates a new GormUsageLedger
func NewGormUsageLedger(db *gorm.DB) *GormUsageLedger {
	return &GormUsageLedger{db: db}
}

var usageConflictColumns = []clause.Column{{Name: "user_id"}}

// Get returns the call count, inserting a zero record when absent
func (r *GormUsageLedger) Get(ctx context.Context, accountID int64) (int64, error) {
	now := time.Now()
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: usageConflictColumns, DoNothing: true}).
		Create(&models.UsageModel{UserID: accountID, CreatedAt: now, UpdatedAt: now}).Error; err != nil {
		return 0, err
	}

	var model models.UsageModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", accountID).
		First(&model).Error; err != nil {
		return 0, err
	}
	return model.APICalls, nil
}

// Increment inserts the record at 1 or adds 1 to the stored count atomically
func (r *GormUsageLedger) Increment(ctx context.Context, accountID int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: usageConflictColumns,
			DoUpdates: clause.Assignments(map[string]any{
				"api_calls":  gorm.Expr("user_api_usage.api_calls + 1"),
				"updated_at": now,
			}),
		}).
		Create(&models.UsageModel{UserID: accountID, APICalls: 1, CreatedAt: now, UpdatedAt: now}).Error
}

// Reset sets the count to zero, creating the record if absent
func (r *GormUsageLedger) Reset(ctx context.Context, accountID int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: usageConflictColumns,
			DoUpdates: clause.Assignments(map[string]any{
				"api_calls":  0,
				"updated_at": now,
			}),
		}).
		Create(&models.UsageModel{UserID: accountID, CreatedAt: now, UpdatedAt: now}).Error
}
