package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"warungmadura/internal/auth"
	"warungmadura/internal/domain"
	"warungmadura/internal/repository"
)

// ProfileUpdate редактируемые поля профиля
type ProfileUpdate struct {
	FullName string `json:"full_name" validate:"max=120"`
	Phone    string `json:"phone" validate:"max=30"`
	Address  string `json:"address" validate:"max=500"`
}

type ProfileService struct {
	profiles repository.ProfileRepository
}

func NewProfileService(profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// GetProfile пустой профиль, если пользователь его ещё не заполнял
func (s *ProfileService) GetProfile(ctx context.Context, sess auth.Session) (*domain.Profile, error) {
	p, err := s.profiles.Get(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.Profile{ID: sess.UserID}, nil
	}
	return p, err
}

func (s *ProfileService) UpdateProfile(ctx context.Context, sess auth.Session, in ProfileUpdate) (*domain.Profile, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p := domain.Profile{ID: sess.UserID, FullName: in.FullName, Phone: in.Phone, Address: in.Address}
	if err := s.profiles.Upsert(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
