package service

import (
	"errors"
	"os"
	"time"

	"github.com/Dylan-Floyd/effe81/internal/apperr"
	"github.com/Dylan-Floyd/effe81/internal/models"
	"github.com/Dylan-Floyd/effe81/internal/repository"
	"github.com/Dylan-Floyd/effe81/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	userRepo repository.UserRepositoryInterface
}

func NewAuthService(userRepo repository.UserRepositoryInterface) *AuthService {
	return &AuthService{userRepo: userRepo}
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	PhotoURL string `json:"photo_url"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

func (s *AuthService) Register(input RegisterInput) (*AuthResponse, error) {
	input.Username = validation.NormalizeUsername(input.Username)
	input.Email = validation.NormalizeEmail(input.Email)

	if !validation.ValidateUsername(input.Username) {
		return nil, apperr.InvalidArg("invalid username")
	}
	if !validation.ValidateEmail(input.Email) {
		return nil, apperr.InvalidArg("invalid email")
	}
	if !validation.ValidatePassword(input.Password) {
		return nil, apperr.InvalidArg("password too short")
	}

	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, apperr.Conflict("email already exists")
	}
	if _, err := s.userRepo.FindByUsername(input.Username); err == nil {
		return nil, apperr.Conflict("username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		PhotoURL:     input.PhotoURL,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, apperr.Internal("failed to create user", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, apperr.Internal("failed to sign token", err)
	}

	return &AuthResponse{Token: token, User: user.ToResponse(false)}, nil
}

func (s *AuthService) Login(input LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.FindByUsername(validation.NormalizeUsername(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthenticated("invalid credentials")
		}
		return nil, apperr.Internal("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperr.Unauthenticated("invalid credentials")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, apperr.Internal("failed to sign token", err)
	}

	return &AuthResponse{Token: token, User: user.ToResponse(false)}, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
