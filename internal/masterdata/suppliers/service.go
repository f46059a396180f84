package suppliers

import (
	"context"
	"errors"
	"strings"

	internalShared "github.com/stockroom/stockroom/internal/shared"
)

const (
	msgEmailTaken = "This email is already registered"
	msgInUse      = "Cannot delete supplier with existing products or orders"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Supplier, error) {
	if filter.Status != StatusActive && filter.Status != StatusInactive {
		filter.Status = ""
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, cmd SaveCommand) (Supplier, error) {
	supplier := Supplier{Status: StatusActive}
	apply(&supplier, cmd)
	if err := s.ensureUniqueEmail(ctx, supplier.Email, 0); err != nil {
		return Supplier{}, err
	}
	created, err := s.repo.Create(ctx, supplier)
	if errors.Is(err, ErrEmailTaken) {
		return Supplier{}, internalShared.FieldError("email", msgEmailTaken)
	}
	return created, err
}

func (s *Service) Update(ctx context.Context, cmd SaveCommand) (Supplier, error) {
	supplier, err := s.repo.Get(ctx, cmd.ID)
	if err != nil {
		return Supplier{}, err
	}
	apply(&supplier, cmd)
	if err := s.ensureUniqueEmail(ctx, supplier.Email, supplier.ID); err != nil {
		return Supplier{}, err
	}
	updated, err := s.repo.Update(ctx, supplier)
	if errors.Is(err, ErrEmailTaken) {
		return Supplier{}, internalShared.FieldError("email", msgEmailTaken)
	}
	return updated, err
}

func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (Supplier, error) {
	return s.repo.UpdateStatus(ctx, cmd.ID, cmd.Status)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrInUse) {
		return internalShared.WrapViolation(err, msgInUse)
	}
	return err
}

func (s *Service) ensureUniqueEmail(ctx context.Context, email string, excludeID int64) error {
	taken, err := s.repo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return internalShared.FieldError("email", msgEmailTaken)
	}
	return nil
}

func apply(s *Supplier, cmd SaveCommand) {
	s.Name = strings.TrimSpace(cmd.Name)
	s.Email = strings.TrimSpace(cmd.Email)
	s.Phone = strings.TrimSpace(cmd.Phone)
	s.Address = strings.TrimSpace(cmd.Address)
	s.City = strings.TrimSpace(cmd.City)
	s.Country = strings.TrimSpace(cmd.Country)
	if cmd.Status != nil && *cmd.Status != "" {
		s.Status = *cmd.Status
	}
	if cmd.Rating != nil {
		s.Rating = *cmd.Rating
	}
}
