package account

import (
	"regexp"
	"strings"
	"time"

	"github.com/aigate/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Role is the authorization level carried by an account and its session credential
type Role string

const (
	RoleStandard   Role = "user"
	RolePrivileged Role = "admin"
)

// Password constraints
const (
	bcryptCost        = 10
	MinPasswordLength = 3
	maxPasswordLength = 72 // bcrypt input limit
	maxEmailLength    = 255
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsPrivileged reports whether the role is exempt from quota and protected from deletion
func (r Role) IsPrivileged() bool {
	return r == RolePrivileged
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleStandard || r == RolePrivileged
}

// Account is a registered identity. The password hash is never exposed by read models.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Summary is an account joined with its usage counter
type Summary struct {
	ID        int64
	Email     string
	Role      Role
	CreatedAt time.Time
	APICalls  int64
}

// NewAccount validates the identity and password and hashes the password with bcrypt
func NewAccount(email, password string, role Role) (*Account, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid role")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to hash password", err)
	}

	return &Account{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	}, nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (a *Account) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
	return err == nil
}

// IsPrivileged reports whether the account has the privileged role
func (a *Account) IsPrivileged() bool {
	return a.Role.IsPrivileged()
}

// CanDelete returns ForbiddenOperation for privileged accounts
func (a *Account) CanDelete() error {
	if a.IsPrivileged() {
		return shared.NewDomainError(shared.CodeForbiddenOperation, "Admin accounts cannot be deleted.")
	}
	return nil
}

// CanResetUsage returns ForbiddenOperation for privileged accounts, which have no quota
func (a *Account) CanResetUsage() error {
	if a.IsPrivileged() {
		return shared.NewDomainError(shared.CodeForbiddenOperation, "Admin accounts have no API usage to reset.")
	}
	return nil
}

// NormalizeEmail trims, NFC-normalizes and lowercases an identity
func NormalizeEmail(email string) string {
	email = norm.NFC.String(strings.TrimSpace(email))
	return cases.Lower(language.Und).String(email)
}

// ValidateEmail checks the (normalized) identity format
func ValidateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Email is required")
	}
	if len(email) > maxEmailLength {
		return shared.NewDomainError(shared.CodeInvalidInput, "Email cannot exceed 255 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Invalid email format.")
	}
	return nil
}

// ValidatePassword checks registration password rules
func ValidatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Password is required")
	}
	if len(password) < MinPasswordLength {
		return shared.NewDomainError(shared.CodeInvalidInput, "Password must be at least 3 characters.")
	}
	if len(password) > maxPasswordLength {
		return shared.NewDomainError(shared.CodeInvalidInput, "Password cannot exceed 72 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
