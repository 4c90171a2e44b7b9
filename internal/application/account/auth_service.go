package account

import (
	"context"
	"errors"
	"time"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/domain/shared"
	"github.com/aigate/backend/internal/infrastructure/auth"
	"github.com/aigate/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	RegisterCookieMaxAge time.Duration
	LoginCookieMaxAge    time.Duration
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		RegisterCookieMaxAge: 2 * time.Hour,
		LoginCookieMaxAge:    7 * 24 * time.Hour,
	}
}

// AuthService handles registration, login and self-service account operations
type AuthService struct {
	accountRepo    account.Repository
	usageLedger    account.UsageLedger
	sessionService *auth.SessionService
	config         AuthServiceConfig
	logger         *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	accountRepo account.Repository,
	usageLedger account.UsageLedger,
	sessionService *auth.SessionService,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		accountRepo:    accountRepo,
		usageLedger:    usageLedger,
		sessionService: sessionService,
		config:         config,
		logger:         logger,
	}
}

// Register creates a standard account and issues a session credential
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "register")
	defer span.End()

	acct, err := account.NewAccount(input.Email, input.Password, account.RoleStandard)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acct); err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, shared.ErrDuplicateIdentity) {
			s.logger.Info("Registration with existing email", zap.String("email", acct.Email))
			return nil, shared.ErrDuplicateIdentity
		}
		s.logger.Error("Failed to create account", zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to register user.", err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAccountID, acct.ID)

	result, err := s.issue(acct, 0, s.config.RegisterCookieMaxAge)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account registered",
		zap.Int64("account_id", acct.ID),
		zap.String("email", acct.Email))
	return result, nil
}

// Login verifies the password and issues a session credential.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := account.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Email and password are required.")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "login")
	defer span.End()

	acct, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown email", zap.String("email", email))
			return nil, shared.ErrInvalidCredentials
		}
		s.logger.Error("Failed to load account during login", zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to log in.", err)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, acct.ID,
		telemetry.SpanAttrRole, string(acct.Role),
	)
	if !acct.VerifyPassword(input.Password) {
		telemetry.AddEvent(span, "password_mismatch")
		s.logger.Warn("Invalid password attempt", zap.Int64("account_id", acct.ID))
		return nil, shared.ErrInvalidCredentials
	}

	calls := s.apiCalls(ctx, acct)
	result, err := s.issue(acct, calls, s.config.LoginCookieMaxAge)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account logged in", zap.Int64("account_id", acct.ID))
	return result, nil
}

// Me returns the account behind the current session
func (s *AuthService) Me(ctx context.Context, accountID int64) (*UserInfo, error) {
	acct, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "User not found.")
		}
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to load user.", err)
	}
	info := toUserInfo(acct, s.apiCalls(ctx, acct))
	return &info, nil
}

// DeleteAccount removes the caller's own account and usage record.
// Privileged accounts cannot delete themselves.
func (s *AuthService) DeleteAccount(ctx context.Context, accountID int64) error {
	if err := s.accountRepo.Delete(ctx, accountID); err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			s.logger.Warn("Account deletion refused",
				zap.Int64("account_id", accountID),
				zap.String("code", domainErr.Code))
			return err
		}
		s.logger.Error("Failed to delete account", zap.Int64("account_id", accountID), zap.Error(err))
		return shared.WrapDomainError(shared.CodeServerError, "Failed to delete account.", err)
	}

	s.logger.Info("Account deleted", zap.Int64("account_id", accountID))
	return nil
}

// Logout is a no-op for stateless credentials; the transport clears the cookie
func (s *AuthService) Logout(ctx context.Context, accountID int64) {
	s.logger.Info("Account logged out", zap.Int64("account_id", accountID))
}

func (s *AuthService) issue(acct *account.Account, apiCalls int64, maxAge time.Duration) (*AuthResult, error) {
	token, expiresAt, err := s.sessionService.Issue(auth.Identity{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      acct.Role,
	})
	if err != nil {
		s.logger.Error("Failed to issue session credential", zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to issue session.", err)
	}
	return &AuthResult{
		Token:        token,
		ExpiresAt:    expiresAt,
		CookieMaxAge: maxAge,
		User:         toUserInfo(acct, apiCalls),
	}, nil
}

// apiCalls reads the usage count for display; a ledger failure reports zero
func (s *AuthService) apiCalls(ctx context.Context, acct *account.Account) int64 {
	calls, err := s.usageLedger.Get(ctx, acct.ID)
	if err != nil {
		s.logger.Warn("Failed to read usage", zap.Int64("account_id", acct.ID), zap.Error(err))
		return 0
	}
	return calls
}
