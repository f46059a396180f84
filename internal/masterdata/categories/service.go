package categories

import (
	"context"
	"errors"
	"strings"

	internalShared "github.com/stockroom/stockroom/internal/shared"
)

const (
	msgNameTaken = "The name has already been taken."
	msgInUse     = "Cannot delete category with existing products"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Category, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Category, error) {
	name := strings.TrimSpace(cmd.Name)
	if err := s.ensureUniqueName(ctx, name, 0); err != nil {
		return Category{}, err
	}
	category, err := s.repo.Create(ctx, Category{Name: name, Description: cmd.Description})
	if errors.Is(err, ErrNameTaken) {
		return Category{}, internalShared.FieldError("name", msgNameTaken)
	}
	return category, err
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (Category, error) {
	if _, err := s.repo.Get(ctx, cmd.ID); err != nil {
		return Category{}, err
	}
	name := strings.TrimSpace(cmd.Name)
	if err := s.ensureUniqueName(ctx, name, cmd.ID); err != nil {
		return Category{}, err
	}
	category, err := s.repo.Update(ctx, Category{ID: cmd.ID, Name: name, Description: cmd.Description})
	if errors.Is(err, ErrNameTaken) {
		return Category{}, internalShared.FieldError("name", msgNameTaken)
	}
	return category, err
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrInUse) {
		return internalShared.WrapViolation(err, msgInUse)
	}
	return err
}

func (s *Service) ensureUniqueName(ctx context.Context, name string, excludeID int64) error {
	taken, err := s.repo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return internalShared.FieldError("name", msgNameTaken)
	}
	return nil
}
