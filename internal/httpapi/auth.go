package httpapi

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"stockroom/internal/domain"
	"stockroom/internal/logger"
	"stockroom/internal/service"
)

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errInactiveAccount    = errors.New("account is inactive")
)

const (
	minUsernameLength = 4
	minPasswordLength = 6
)

// UserStore persists login accounts. Passwords are stored as bcrypt hashes.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

// AuthManager checks credentials against a UserStore and issues access
// tokens. Accounts are cached in memory and reloaded before every login and
// staff operation, so accounts created by another instance are picked up.
type AuthManager struct {
	tokens tokenSigner
	store  UserStore
	now    func() time.Time
	log    zerolog.Logger

	mu       sync.RWMutex
	accounts map[string]domain.UserAccount
}

func NewAuthManager(ctx context.Context, secret string, tokenTTL time.Duration, userStore UserStore) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	a := &AuthManager{
		tokens:   newTokenSigner(secret, tokenTTL),
		store:    userStore,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.WithComponent("auth"),
		accounts: make(map[string]domain.UserAccount),
	}
	a.reload(ctx)
	return a
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	a.reload(ctx)
	account, ok := a.lookup(req.Username)
	if !ok || !verifyPassword(account.Password, req.Password) {
		return domain.LoginResponse{}, errInvalidCredentials
	}
	if !account.Active {
		return domain.LoginResponse{}, errInactiveAccount
	}

	actor := domain.Actor{Username: normalizeUsername(account.Username), Role: account.Role}
	token, expiresAt, err := a.tokens.issue(actor, a.now())
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return domain.LoginResponse{
		AccessToken: token,
		Role:        actor.Role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(raw string) (domain.Actor, error) {
	return a.tokens.verify(raw)
}

// CreateStaff adds an active staff account. Bad input is reported per field;
// a taken username is a conflict.
func (a *AuthManager) CreateStaff(ctx context.Context, req domain.StaffCreateRequest) (domain.StaffUser, error) {
	username := normalizeUsername(req.Username)
	fields := make(map[string]string)
	switch {
	case len(username) < minUsernameLength:
		fields["username"] = fmt.Sprintf("Minimum length is %d", minUsernameLength)
	case strings.ContainsAny(username, " \t\r\n"):
		fields["username"] = "Must not contain spaces"
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		fields["password"] = fmt.Sprintf("Minimum length is %d", minPasswordLength)
	}
	if len(fields) > 0 {
		return domain.StaffUser{}, &service.ValidationError{Fields: fields}
	}

	a.reload(ctx)
	if _, exists := a.lookup(username); exists {
		return domain.StaffUser{}, fmt.Errorf("username %s already exists: %w", username, service.ErrConflict)
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return domain.StaffUser{}, fmt.Errorf("hash password: %w", err)
	}
	account := domain.UserAccount{
		Username:  username,
		Password:  hashed,
		Role:      domain.RoleStaff,
		Active:    true,
		CreatedAt: a.now(),
	}
	if a.store != nil {
		if err := a.store.CreateUser(ctx, account); err != nil {
			return domain.StaffUser{}, err
		}
	}

	a.mu.Lock()
	a.accounts[username] = account
	a.mu.Unlock()
	return staffView(account), nil
}

// ListStaff returns the staff accounts sorted by username.
func (a *AuthManager) ListStaff(ctx context.Context) []domain.StaffUser {
	a.reload(ctx)

	a.mu.RLock()
	staff := make([]domain.StaffUser, 0, len(a.accounts))
	for _, account := range a.accounts {
		if account.Role == domain.RoleStaff {
			staff = append(staff, staffView(account))
		}
	}
	a.mu.RUnlock()

	slices.SortFunc(staff, func(x, y domain.StaffUser) int {
		return strings.Compare(x.Username, y.Username)
	})
	return staff
}

func (a *AuthManager) lookup(username string) (domain.UserAccount, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	account, ok := a.accounts[normalizeUsername(username)]
	return account, ok
}

// reload replaces the account cache with the store's contents. Plain-text
// passwords left over from older seeds are hashed and written back.
func (a *AuthManager) reload(ctx context.Context) {
	if a.store == nil {
		return
	}
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("user store unavailable, keeping cached accounts")
		return
	}

	loaded := make(map[string]domain.UserAccount, len(users))
	for _, user := range users {
		key := normalizeUsername(user.Username)
		if key == "" {
			continue
		}
		if !isPasswordHash(user.Password) {
			hashed, err := hashPassword(user.Password)
			if err != nil {
				continue
			}
			if err := a.store.UpdateUserPassword(ctx, user.Username, hashed); err != nil {
				a.log.Warn().Err(err).Str("username", key).Msg("failed to upgrade plain password")
			}
			user.Password = hashed
		}
		loaded[key] = user
	}

	a.mu.Lock()
	a.accounts = loaded
	a.mu.Unlock()
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func staffView(account domain.UserAccount) domain.StaffUser {
	return domain.StaffUser{
		Username:  normalizeUsername(account.Username),
		Role:      account.Role,
		Active:    account.Active,
		CreatedAt: account.CreatedAt,
	}
}

func verifyPassword(hash string, input string) bool {
	if strings.TrimSpace(input) == "" || !isPasswordHash(hash) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func isPasswordHash(value string) bool {
	_, err := bcrypt.Cost([]byte(value))
	return err == nil
}
