package persistence

import (
	"context"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEndpointTally implements account.EndpointTally on the endpoint_stats table
type GormEndpointTally struct {
	db *gorm.DB
}

// NewGormEndpointTally creates a new GormEndpointTally
func NewGormEndpointTally(db *gorm.DB) *GormEndpointTally {
	return &GormEndpointTally{db: db}
}

// Record upserts the (method, path) row and adds one to its count
func (r *GormEndpointTally) Record(ctx context.Context, method, path string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "method"}, {Name: "endpoint"}},
			DoUpdates: clause.Assignments(map[string]any{
				"count": gorm.Expr("endpoint_stats.count + 1"),
			}),
		}).
		Create(&models.EndpointStatModel{Method: method, Endpoint: path, Count: 1}).Error
}

// List returns all tallies ordered by count descending
func (r *GormEndpointTally) List(ctx context.Context) ([]account.EndpointStat, error) {
	var rows []models.EndpointStatModel
	if err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "count"}, Desc: true}).
		Order("method").
		Order("endpoint").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	stats := make([]account.EndpointStat, len(rows))
	for i := range rows {
		stats[i] = rows[i].ToDomain()
	}
	return stats, nil
}
