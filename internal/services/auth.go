package services

import (
	"context"

	"medtrack/internal/apperrors"
	"medtrack/internal/auth"
	"medtrack/internal/dto"
	"medtrack/internal/models"
)

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID uint, role string) (string, error)
}

type AuthService struct {
	users  *UserService
	tokens TokenIssuer
}

// Login verifies credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("Account is deactivated")
	}

	token, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal(err, "failed to generate token")
	}
	return &dto.LoginResponse{
		Token: token,
		Role:  string(user.Role),
		Name:  user.Name,
		Email: user.Email,
	}, nil
}

// Register is the bootstrap door: the new account is always an ADMIN.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*models.User, error) {
	req.LocationIDs = nil
	req.IsActive = nil
	return s.users.create(ctx, req, models.RoleAdmin)
}
