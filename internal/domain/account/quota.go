package account

import "fmt"

// DefaultFreeLimit is the number of free generation calls for a standard account
const DefaultFreeLimit int64 = 20

// QuotaPolicy evaluates usage against the free-tier limit.
// The limit is advisory: exceeding it never blocks a call.
type QuotaPolicy struct {
	FreeLimit int64
}

// NewQuotaPolicy returns a policy, falling back to DefaultFreeLimit for non-positive limits
func NewQuotaPolicy(limit int64) QuotaPolicy {
	if limit <= 0 {
		limit = DefaultFreeLimit
	}
	return QuotaPolicy{FreeLimit: limit}
}

// QuotaStatus is the usage summary shown on dashboards and admin views
type QuotaStatus struct {
	APICalls     int64
	Limit        int64
	Remaining    int64
	Unlimited    bool
	LimitReached bool
}

// RemainingValue returns "unlimited" for privileged accounts, else the remaining count
func (s QuotaStatus) RemainingValue() any {
	if s.Unlimited {
		return "unlimited"
	}
	return s.Remaining
}

// Evaluate computes the quota status for a role and usage count
func (p QuotaPolicy) Evaluate(role Role, used int64) QuotaStatus {
	status := QuotaStatus{
		APICalls: used,
		Limit:    p.FreeLimit,
	}
	if role.IsPrivileged() {
		status.Unlimited = true
		return status
	}
	status.Remaining = max(0, p.FreeLimit-used)
	status.LimitReached = used >= p.FreeLimit
	return status
}

// QuotaWarning is the out-of-band frame emitted ahead of generated content
type QuotaWarning struct {
	Warning      string `json:"warning"`
	LimitReached bool   `json:"limit_reached"`
	APICalls     int64  `json:"api_calls"`
	Limit        int64  `json:"limit"`
}

// Warning returns the warning for a call about to be made, or nil when none applies.
// Privileged accounts never receive a warning.
func (p QuotaPolicy) Warning(role Role, used int64) *QuotaWarning {
	if role.IsPrivileged() {
		return nil
	}
	switch {
	case used >= p.FreeLimit:
		return &QuotaWarning{
			Warning: fmt.Sprintf("You have reached your free API call limit of %d. "+
				"Requests will still be processed, but please consider upgrading for continued service.", p.FreeLimit),
			LimitReached: true,
			APICalls:     used,
			Limit:        p.FreeLimit,
		}
	case used == p.FreeLimit-1:
		return &QuotaWarning{
			Warning:  "This is your last free API call.",
			APICalls: used,
			Limit:    p.FreeLimit,
		}
	default:
		return nil
	}
}
