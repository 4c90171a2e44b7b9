package account

import (
	"time"

	"github.com/aigate/backend/internal/domain/account"
)

// RegisterInput contains the input for account registration
type RegisterInput struct {
	Email    string
	Password string
}

// LoginInput contains the input for login
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by a successful registration or login.
// CookieMaxAge is how long the transport should keep the session credential.
type AuthResult struct {
	Token        string
	ExpiresAt    time.Time
	CookieMaxAge time.Duration
	User         UserInfo
}

// UserInfo is the public view of an account; the password hash is never included
type UserInfo struct {
	ID        int64
	Email     string
	Role      account.Role
	CreatedAt time.Time
	APICalls  int64
}

// UsageInfo is the quota summary shown on dashboards.
// RemainingCalls is the string "unlimited" for privileged accounts.
type UsageInfo struct {
	APICalls       int64
	Limit          int64
	RemainingCalls any
	LimitReached   bool
}

// DashboardResult contains the current account and its usage
type DashboardResult struct {
	User  UserInfo
	Usage UsageInfo
}

// UserStatistics aggregates usage across all accounts.
// AverageAPICallsPerUser is formatted with two decimals.
type UserStatistics struct {
	TotalUsers             int64
	TotalAPICalls          int64
	ActiveUsers            int64
	AverageAPICallsPerUser string
}

// UserListResult contains every account with aggregate statistics
type UserListResult struct {
	Users      []UserInfo
	Statistics UserStatistics
}

// UsageSummary is the global usage report
type UsageSummary struct {
	TotalAPICalls  int64
	UsersAtLimit   int64
	UsersWithUsage int64
	FreeAPILimit   int64
	TotalUsers     int64
}

// UserDetailResult is a single account with its quota state
type UserDetailResult struct {
	User           UserInfo
	LimitReached   bool
	RemainingCalls any
}

// ResetUsageResult confirms an administrative usage reset
type ResetUsageResult struct {
	Message string
	UserID  int64
}

// EndpointStat is one row of the request tally
type EndpointStat struct {
	Method   string
	Endpoint string
	Count    int64
}

func toUserInfo(a *account.Account, apiCalls int64) UserInfo {
	return UserInfo{
		ID:        a.ID,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		APICalls:  apiCalls,
	}
}

func summaryToUserInfo(s account.Summary) UserInfo {
	return UserInfo{
		ID:        s.ID,
		Email:     s.Email,
		Role:      s.Role,
		CreatedAt: s.CreatedAt,
		APICalls:  s.APICalls,
	}
}
