package service

import (
	"context"
	"fmt"
	"strings"

	"stockroom/internal/domain"
	"stockroom/internal/store"
)

// The methods below persist login accounts in the users collection. Passwords
// arrive already hashed.

func (s *Service) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	return s.users.All(ctx)
}

func (s *Service) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return fieldError("username", "This field is required")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	users, err := s.users.All(ctx)
	if err != nil {
		return err
	}
	for _, existing := range users {
		if existing.Username == user.Username {
			return fmt.Errorf("user %s already exists: %w", user.Username, ErrConflict)
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}

	if err := s.users.Replace(ctx, append(users, user)); err != nil {
		return err
	}
	s.mutated(s.users.Name(), "create")
	return nil
}

func (s *Service) UpdateUserPassword(ctx context.Context, username string, password string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	users, err := s.users.All(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].Username != username {
			continue
		}
		users[i].Password = password
		if err := s.users.Replace(ctx, users); err != nil {
			return err
		}
		s.mutated(s.users.Name(), "update")
		return nil
	}
	return fmt.Errorf("user %s: %w", username, store.ErrNotFound)
}
