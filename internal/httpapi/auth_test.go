package httpapi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"stockroom/internal/domain"
	"stockroom/internal/service"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func plainAdminStore() *userStoreStub {
	return &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  "admin123",
				Role:      domain.RoleAdmin,
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := plainAdminStore()
	ctx := context.Background()

	manager := NewAuthManager(ctx, "test-secret", time.Hour, store)
	if _, err := manager.Login(ctx, domain.LoginRequest{Username: "admin", Password: "admin123"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", users[0].Password)
	}
	if store.updates == 0 {
		t.Fatalf("expected the upgraded hash to be written back")
	}
}

func TestCreateStaffStoresPasswordHash(t *testing.T) {
	store := plainAdminStore()
	ctx := context.Background()

	manager := NewAuthManager(ctx, "test-secret", time.Hour, store)
	staff, err := manager.CreateStaff(ctx, domain.StaffCreateRequest{
		Username: "  Clerk01 ",
		Password: "pass1234",
	})
	if err != nil {
		t.Fatalf("create staff failed: %v", err)
	}
	if staff.Username != "clerk01" || staff.Role != domain.RoleStaff {
		t.Fatalf("unexpected staff %+v", staff)
	}

	saved, ok := store.users["clerk01"]
	if !ok {
		t.Fatalf("expected staff to be saved")
	}
	if !strings.HasPrefix(saved.Password, "$2") {
		t.Fatalf("expected bcrypt hash prefix, got %s", saved.Password)
	}

	resp, err := manager.Login(ctx, domain.LoginRequest{Username: "clerk01", Password: "pass1234"})
	if err != nil {
		t.Fatalf("login with new staff account failed: %v", err)
	}
	if resp.Role != domain.RoleStaff {
		t.Fatalf("expected staff role, got %s", resp.Role)
	}

	listed := manager.ListStaff(ctx)
	if len(listed) != 1 || listed[0].Username != "clerk01" {
		t.Fatalf("expected only the staff account to be listed, got %+v", listed)
	}
}

func TestCreateStaffValidatesInput(t *testing.T) {
	ctx := context.Background()
	manager := NewAuthManager(ctx, "test-secret", time.Hour, plainAdminStore())

	cases := []struct {
		req   domain.StaffCreateRequest
		field string
	}{
		{domain.StaffCreateRequest{Username: "abc", Password: "pass1234"}, "username"},
		{domain.StaffCreateRequest{Username: "two words", Password: "pass1234"}, "username"},
		{domain.StaffCreateRequest{Username: "clerk02", Password: "123"}, "password"},
	}
	for _, tc := range cases {
		_, err := manager.CreateStaff(ctx, tc.req)
		var verr *service.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error for %+v, got %v", tc.req, err)
		}
		if _, ok := verr.Fields[tc.field]; !ok {
			t.Fatalf("expected %s to be flagged for %+v, got %v", tc.field, tc.req, verr.Fields)
		}
	}

	_, err := manager.CreateStaff(ctx, domain.StaffCreateRequest{Username: "Admin", Password: "pass1234"})
	if !errors.Is(err, service.ErrConflict) {
		t.Fatalf("expected conflict for taken username, got %v", err)
	}
}

func TestParseTokenRejectsUnknownRole(t *testing.T) {
	signer := newTokenSigner("test-secret", time.Hour)
	token, _, err := signer.issue(domain.Actor{Username: "till01", Role: "cashier"}, time.Now().UTC())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := signer.verify(token); !errors.Is(err, errInvalidToken) {
		t.Fatalf("expected unknown role to be rejected, got %v", err)
	}
}

func TestParseTokenRejectsExpiredToken(t *testing.T) {
	signer := newTokenSigner("test-secret", time.Minute)
	token, _, err := signer.issue(domain.Actor{Username: "admin", Role: domain.RoleAdmin}, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := signer.verify(token); !errors.Is(err, errInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestInactiveAccountCannotLogin(t *testing.T) {
	store := plainAdminStore()
	admin := store.users["admin"]
	admin.Active = false
	store.users["admin"] = admin
	ctx := context.Background()

	manager := NewAuthManager(ctx, "test-secret", time.Hour, store)
	if _, err := manager.Login(ctx, domain.LoginRequest{Username: "admin", Password: "admin123"}); err != errInactiveAccount {
		t.Fatalf("expected inactive account error, got %v", err)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	ctx := context.Background()
	issuer := NewAuthManager(ctx, "secret-one", time.Hour, plainAdminStore())
	verifier := NewAuthManager(ctx, "secret-two", time.Hour, plainAdminStore())

	resp, err := issuer.Login(ctx, domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
	actor, err := issuer.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != domain.RoleAdmin {
		t.Fatalf("unexpected actor %+v", actor)
	}
}
