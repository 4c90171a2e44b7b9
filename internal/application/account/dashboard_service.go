package account

import (
	"context"
	"errors"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DashboardService builds the per-account usage view
type DashboardService struct {
	accountRepo account.Repository
	usageLedger account.UsageLedger
	policy      account.QuotaPolicy
	logger      *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	accountRepo account.Repository,
	usageLedger account.UsageLedger,
	policy account.QuotaPolicy,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		accountRepo: accountRepo,
		usageLedger: usageLedger,
		policy:      policy,
		logger:      logger,
	}
}

// Get returns the account and its quota status
func (s *DashboardService) Get(ctx context.Context, accountID int64) (*DashboardResult, error) {
	acct, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "User not found.")
		}
		s.logger.Error("Failed to load account for dashboard", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to load dashboard.", err)
	}

	calls, err := s.usageLedger.Get(ctx, accountID)
	if err != nil {
		s.logger.Error("Failed to load usage for dashboard", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to load dashboard.", err)
	}

	status := s.policy.Evaluate(acct.Role, calls)
	return &DashboardResult{
		User: toUserInfo(acct, calls),
		Usage: UsageInfo{
			APICalls:       status.APICalls,
			Limit:          status.Limit,
			RemainingCalls: status.RemainingValue(),
			LimitReached:   status.LimitReached,
		},
	}, nil
}
