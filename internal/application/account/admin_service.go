package account

import (
	"context"
	"errors"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/domain/shared"
	"github.com/aigate/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdminService provides the privileged reporting and reset operations
type AdminService struct {
	accountRepo account.Repository
	usageLedger account.UsageLedger
	tally       account.EndpointTally
	policy      account.QuotaPolicy
	logger      *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	accountRepo account.Repository,
	usageLedger account.UsageLedger,
	tally account.EndpointTally,
	policy account.QuotaPolicy,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		accountRepo: accountRepo,
		usageLedger: usageLedger,
		tally:       tally,
		policy:      policy,
		logger:      logger,
	}
}

// ListUsers returns every account, newest first, with aggregate statistics
func (s *AdminService) ListUsers(ctx context.Context) (*UserListResult, error) {
	summaries, err := s.listSummaries(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]UserInfo, len(summaries))
	var total, active int64
	for i, sum := range summaries {
		users[i] = summaryToUserInfo(sum)
		total += sum.APICalls
		if sum.APICalls > 0 {
			active++
		}
	}

	average := decimal.Zero
	if len(summaries) > 0 {
		average = decimal.NewFromInt(total).Div(decimal.NewFromInt(int64(len(summaries))))
	}

	return &UserListResult{
		Users: users,
		Statistics: UserStatistics{
			TotalUsers:             int64(len(summaries)),
			TotalAPICalls:          total,
			ActiveUsers:            active,
			AverageAPICallsPerUser: average.StringFixed(2),
		},
	}, nil
}

// UsageSummary reports global usage against the free limit
func (s *AdminService) UsageSummary(ctx context.Context) (*UsageSummary, error) {
	summaries, err := s.listSummaries(ctx)
	if err != nil {
		return nil, err
	}

	result := &UsageSummary{
		FreeAPILimit: s.policy.FreeLimit,
		TotalUsers:   int64(len(summaries)),
	}
	for _, sum := range summaries {
		result.TotalAPICalls += sum.APICalls
		if sum.APICalls > 0 {
			result.UsersWithUsage++
		}
		if s.policy.Evaluate(sum.Role, sum.APICalls).LimitReached {
			result.UsersAtLimit++
		}
	}
	return result, nil
}

// AccountsAtLimit returns the users-at-limit and total-users figures for metrics collection
func (s *AdminService) AccountsAtLimit(ctx context.Context) (int64, int64, error) {
	summary, err := s.UsageSummary(ctx)
	if err != nil {
		return 0, 0, err
	}
	return summary.UsersAtLimit, summary.TotalUsers, nil
}

// UserDetail returns a single account with its quota state
func (s *AdminService) UserDetail(ctx context.Context, accountID int64) (*UserDetailResult, error) {
	acct, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	calls, err := s.usageLedger.Get(ctx, accountID)
	if err != nil {
		s.logger.Error("Failed to load usage", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to load user.", err)
	}

	status := s.policy.Evaluate(acct.Role, calls)
	return &UserDetailResult{
		User:           toUserInfo(acct, calls),
		LimitReached:   status.LimitReached,
		RemainingCalls: status.RemainingValue(),
	}, nil
}

// ResetUsage sets a standard account's call count to zero
func (s *AdminService) ResetUsage(ctx context.Context, accountID int64) (*ResetUsageResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "admin", "reset_usage", telemetry.SpanAttrAccountID, accountID)
	defer span.End()

	acct, err := s.findAccount(ctx, accountID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := acct.CanResetUsage(); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Usage reset refused for privileged account", zap.Int64("account_id", accountID))
		return nil, err
	}

	previous, err := s.usageLedger.Get(ctx, accountID)
	if err != nil {
		s.logger.Warn("Failed to read usage before reset", zap.Int64("account_id", accountID), zap.Error(err))
	} else {
		telemetry.AddEvent(span, "usage_reset", telemetry.SpanAttrAPICalls, previous)
	}

	if err := s.usageLedger.Reset(ctx, accountID); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to reset usage", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to reset API calls.", err)
	}

	s.logger.Info("Usage reset", zap.Int64("account_id", accountID), zap.Int64("previous_api_calls", previous))
	return &ResetUsageResult{
		Message: "API calls reset successfully.",
		UserID:  accountID,
	}, nil
}

// EndpointStats returns the request tally ordered by count descending
func (s *AdminService) EndpointStats(ctx context.Context) ([]EndpointStat, error) {
	stats, err := s.tally.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list endpoint stats", zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to load endpoint statistics.", err)
	}

	result := make([]EndpointStat, len(stats))
	for i, st := range stats {
		result[i] = EndpointStat{Method: st.Method, Endpoint: st.Endpoint, Count: st.Count}
	}
	return result, nil
}

func (s *AdminService) listSummaries(ctx context.Context) ([]account.Summary, error) {
	summaries, err := s.accountRepo.ListWithUsage(ctx)
	if err != nil {
		s.logger.Error("Failed to list accounts", zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to load users.", err)
	}
	return summaries, nil
}

func (s *AdminService) findAccount(ctx context.Context, accountID int64) (*account.Account, error) {
	acct, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "User not found.")
		}
		s.logger.Error("Failed to load account", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to load user.", err)
	}
	return acct, nil
}
