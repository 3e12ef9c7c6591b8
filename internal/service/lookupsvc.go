package service

import (
	"context"
	"strings"

	"contractdesk/internal/domain"
)

type LookupStore interface {
	List(ctx context.Context) ([]domain.LookupRow, error)
	Get(ctx context.Context, id int64) (domain.LookupRow, error)
	Create(ctx context.Context, name string) (domain.LookupRow, error)
	Rename(ctx context.Context, id int64, name string) (domain.LookupRow, error)
	Delete(ctx context.Context, id int64) error
}

// LookupService fronts one id+name table (categories or statuses).
type LookupService struct {
	Store LookupStore
}

func (s *LookupService) List(ctx context.Context) ([]domain.LookupRow, error) {
	return s.Store.List(ctx)
}

func (s *LookupService) Get(ctx context.Context, id int64) (domain.LookupRow, error) {
	return s.Store.Get(ctx, id)
}

func (s *LookupService) Create(ctx context.Context, name string) (domain.LookupRow, error) {
	name, err := cleanLookupName(name)
	if err != nil {
		return domain.LookupRow{}, err
	}
	return s.Store.Create(ctx, name)
}

func (s *LookupService) Rename(ctx context.Context, id int64, name string) (domain.LookupRow, error) {
	name, err := cleanLookupName(name)
	if err != nil {
		return domain.LookupRow{}, err
	}
	return s.Store.Rename(ctx, id, name)
}

func (s *LookupService) Delete(ctx context.Context, id int64) error {
	return s.Store.Delete(ctx, id)
}

func cleanLookupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError(map[string]string{"name": "required"})
	}
	if len(name) > 120 {
		return "", domain.NewValidationError(map[string]string{"name": "must be at most 120 characters"})
	}
	return name, nil
}
