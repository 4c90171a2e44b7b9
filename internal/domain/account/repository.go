package account

import (
	"context"
)

// Repository is the identity store
type Repository interface {
	// Create persists a new account and sets its ID. Returns DuplicateIdentity if the email exists.
	Create(ctx context.Context, account *Account) error
	// FindByEmail returns NotFound if no account has the email
	FindByEmail(ctx context.Context, email string) (*Account, error)
	// FindByID returns NotFound if no account has the id
	FindByID(ctx context.Context, id int64) (*Account, error)
	// Delete removes a standard account and its usage record.
	// Returns ForbiddenOperation for privileged accounts and NotFound for unknown ids.
	Delete(ctx context.Context, id int64) error
	// ListWithUsage returns every account joined with its usage, newest first
	ListWithUsage(ctx context.Context) ([]Summary, error)
	// ExistsByEmail reports whether an account with the email exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// UsageLedger tracks per-account generation calls
type UsageLedger interface {
	// Get returns the current count, creating a zero record if none exists
	Get(ctx context.Context, accountID int64) (int64, error)
	// Increment atomically adds one, inserting the record at 1 if absent
	Increment(ctx context.Context, accountID int64) error
	// Reset sets the count to exactly zero
	Reset(ctx context.Context, accountID int64) error
}

// EndpointStat is the request tally for one (method, path) pair
type EndpointStat struct {
	Method   string
	Endpoint string
	Count    int64
}

// EndpointTally records inbound requests per (method, path)
type EndpointTally interface {
	// Record atomically increments the tally for method and path
	Record(ctx context.Context, method, path string) error
	// List returns all tallies ordered by count descending
	List(ctx context.Context) ([]EndpointStat, error)
}
