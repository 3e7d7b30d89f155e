package auth

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
	"github.com/leadrail/lead-api/pkg/auth"
	apperrors "github.com/leadrail/lead-api/pkg/errors"
)

type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type Service struct {
	users repository.UserRepository
	jwt   *auth.JWTService
}

func NewService(users repository.UserRepository, jwt *auth.JWTService) *Service {
	return &Service{users: users, jwt: jwt}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Unauthorized(err)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Name, user.Role.String())
	if err != nil {
		return nil, err
	}

	return &LoginResponse{Token: token, User: user}, nil
}
