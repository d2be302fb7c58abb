package service

import (
	"context"
	"strings"

	"stockroom/internal/domain"
	"stockroom/internal/store"
)

// Settings returns the single application settings document.
func (s *Service) Settings(ctx context.Context) (domain.Settings, error) {
	all, err := s.settings.All(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if len(all) == 0 {
		return store.DefaultSettings(), nil
	}
	return all[0], nil
}

func (s *Service) UpdateSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Settings{}, err
	}
	settings.Business.CompanyName = strings.TrimSpace(settings.Business.CompanyName)
	settings.Business.Email = strings.ToLower(strings.TrimSpace(settings.Business.Email))
	if err := validateStruct(settings); err != nil {
		return domain.Settings{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.settings.Replace(ctx, []domain.Settings{settings}); err != nil {
		return domain.Settings{}, err
	}
	s.mutated(s.settings.Name(), "update")
	s.logAudit(ctx, "update_settings", "settings", "app", "")
	return settings, nil
}
