package services

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/repositories"
)

const initialEmberBalance = 50

type UserService struct {
	log   *slog.Logger
	users repositories.IUserRepository
}

func NewUserService(log *slog.Logger, users repositories.IUserRepository) *UserService {
	return &UserService{log: log, users: users}
}

func (s *UserService) Create(username, favTrigger, avatarURL string, sensoryTolerance int, triggers []string) (domain.User, error) {
	user := domain.User{
		ID:               uuid.NewString(),
		Username:         username,
		FavTrigger:       favTrigger,
		AvatarURL:        avatarURL,
		SensoryTolerance: sensoryTolerance,
		TriggerInventory: triggers,
		EmberBalance:     initialEmberBalance,
		CreatedAt:        time.Now(),
	}
	if err := s.users.Save(user); err != nil {
		return domain.User{}, err
	}
	s.log.Info("user created", slog.String("id", user.ID), slog.String("username", username))
	return user, nil
}

// List returns the public directory.
func (s *UserService) List() ([]domain.User, error) {
	users, err := s.users.List()
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u domain.User, _ int) domain.User {
		return u.PublicView()
	}), nil
}

// Get returns the public view: avatar and embedding stay hidden until
// an explicit reveal.
func (s *UserService) Get(id string) (domain.User, error) {
	user, err := s.users.Get(id)
	if err != nil {
		return domain.User{}, err
	}
	return user.PublicView(), nil
}

// Reveal hands out the one field the public view hides.
func (s *UserService) Reveal(id string) (string, error) {
	user, err := s.users.Get(id)
	if err != nil {
		return "", err
	}
	return user.AvatarURL, nil
}

func (s *UserService) RecordFocus(id string, minutes int) error {
	return s.users.AddFocusMinutes(id, minutes)
}
