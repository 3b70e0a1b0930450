package service

import (
	"errors"
	"strings"

	"github.com/Dylan-Floyd/effe81/internal/apperr"
	"github.com/Dylan-Floyd/effe81/internal/models"
	"github.com/Dylan-Floyd/effe81/internal/repository"
	"gorm.io/gorm"
)

type UserService struct {
	userRepo repository.UserRepositoryInterface
	registry PresenceRegistry
}

func NewUserService(userRepo repository.UserRepositoryInterface, registry PresenceRegistry) *UserService {
	return &UserService{userRepo: userRepo, registry: registry}
}

func (s *UserService) GetUserByID(userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to look up user", err)
	}
	return user, nil
}

// GetProfile returns the public shape of a user with the online flag read
// from the presence registry at observation time.
func (s *UserService) GetProfile(userID uint) (models.UserResponse, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return models.UserResponse{}, err
	}
	return user.ToResponse(s.registry.IsOnline(userID)), nil
}

// SearchUsers powers the new-conversation search box. The caller is excluded
// from results; online flags come from the presence registry.
func (s *UserService) SearchUsers(query string, selfID uint, limit int) ([]models.UserResponse, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return []models.UserResponse{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	users, err := s.userRepo.SearchUsers(query, selfID, limit)
	if err != nil {
		return nil, apperr.Internal("failed to search users", err)
	}

	responses := make([]models.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse(s.registry.IsOnline(users[i].ID))
	}
	return responses, nil
}
