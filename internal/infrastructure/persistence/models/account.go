package models

import (
	"time"

	"github.com/aigate/backend/internal/domain/account"
)

// AccountModel is the persistence model for the Account entity
type AccountModel struct {
	ID           int64        `gorm:"primaryKey;autoIncrement"`
	Email        string       `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email"`
	PasswordHash string       `gorm:"column:password_hash;type:varchar(255);not null"`
	Role         account.Role `gorm:"type:varchar(20);not null;default:'user'"`
	CreatedAt    time.Time    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *account.Account {
	return &account.Account{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		CreatedAt:    m.CreatedAt,
	}
}

// AccountModelFromDomain creates a persistence model from a domain Account
func AccountModelFromDomain(a *account.Account) *AccountModel {
	return &AccountModel{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
		CreatedAt:    a.CreatedAt,
	}
}

// UsageModel is the per-account call counter, one row per account
type UsageModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_user_api_usage_user_id"`
	APICalls  int64     `gorm:"column:api_calls;not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UsageModel) TableName() string {
	return "user_api_usage"
}

// EndpointStatModel is the request tally for one (method, endpoint) pair
type EndpointStatModel struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Method   string `gorm:"type:varchar(10);not null;uniqueIndex:idx_endpoint_stats_method_endpoint"`
	Endpoint string `gorm:"type:text;not null;uniqueIndex:idx_endpoint_stats_method_endpoint"`
	Count    int64  `gorm:"column:count;not null;default:0"`
}

// TableName returns the table name for GORM
func (EndpointStatModel) TableName() string {
	return "endpoint_stats"
}

// ToDomain converts the tally row to a domain EndpointStat
func (m *EndpointStatModel) ToDomain() account.EndpointStat {
	return account.EndpointStat{
		Method:   m.Method,
		Endpoint: m.Endpoint,
		Count:    m.Count,
	}
}

// All returns every model managed by the schema, in dependency order
func All() []any {
	return []any{
		&AccountModel{},
		&UsageModel{},
		&EndpointStatModel{},
	}
}
