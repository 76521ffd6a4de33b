package connect

import (
	"context"

	"github.com/osa030/vibeflow/internal/app/auth"
)

// AuthService implements the vibeflow.v1.AuthService RPC.
type AuthService struct {
	auth *auth.Provider
}

// NewAuthService creates a new AuthService.
func NewAuthService(provider *auth.Provider) *AuthService {
	return &AuthService{auth: provider}
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*UserResponse, error) {
	u, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: toUserInfo(u)}, nil
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error) {
	u, err := s.auth.Register(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: toUserInfo(u)}, nil
}

func (s *AuthService) Logout(ctx context.Context, req *Empty) (*Empty, error) {
	if err := s.auth.Logout(ctx); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

// CurrentUser returns an empty response when nobody is signed in.
func (s *AuthService) CurrentUser(ctx context.Context, req *Empty) (*UserResponse, error) {
	return &UserResponse{User: toUserInfo(s.auth.CurrentUser())}, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*Empty, error) {
	if err := s.auth.ResetPassword(ctx, req.Email); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}
