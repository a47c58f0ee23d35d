package handler

import (
	"context"
	"time"

	"tourguide/internal/model"
	"tourguide/internal/service"
)

type stubAuthService struct {
	signup      func(model.SignupRequest) (*model.User, error)
	signin      func(model.SigninRequest) (*service.SigninResult, error)
	currentUser func(int) (*model.User, error)
	revoked     map[string]time.Time
}

func (s *stubAuthService) Signup(_ context.Context, req model.SignupRequest) (*model.User, error) {
	return s.signup(req)
}

func (s *stubAuthService) Signin(_ context.Context, req model.SigninRequest) (*service.SigninResult, error) {
	return s.signin(req)
}

func (s *stubAuthService) Signout(_ context.Context, tokenID string, expiresAt time.Time) error {
	if s.revoked == nil {
		s.revoked = make(map[string]time.Time)
	}
	s.revoked[tokenID] = expiresAt
	return nil
}

func (s *stubAuthService) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := s.revoked[tokenID]
	return ok, nil
}

func (s *stubAuthService) CurrentUser(_ context.Context, userID int) (*model.User, error) {
	return s.currentUser(userID)
}

type stubProfileService struct {
	get            func(service.Caller, int) (*model.User, error)
	update         func(service.Caller, int, model.UpdateProfileRequest) (*model.User, error)
	changePassword func(service.Caller, model.ChangePasswordRequest) error
}

func (s *stubProfileService) GetProfile(_ context.Context, caller service.Caller, id int) (*model.User, error) {
	return s.get(caller, id)
}

func (s *stubProfileService) UpdateProfile(_ context.Context, caller service.Caller, id int, req model.UpdateProfileRequest) (*model.User, error) {
	return s.update(caller, id, req)
}

func (s *stubProfileService) ChangePassword(_ context.Context, caller service.Caller, req model.ChangePasswordRequest) error {
	return s.changePassword(caller, req)
}

type stubAdminService struct {
	list func(model.UserListFilters) (*model.UserPage, error)
}

func (s *stubAdminService) ListUsers(_ context.Context, f model.UserListFilters) (*model.UserPage, error) {
	return s.list(f)
}
