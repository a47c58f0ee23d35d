package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tourguide/internal/model"
	"tourguide/internal/repository"
	"tourguide/internal/utils"
)

// Caller is the authenticated identity performing an operation.
type Caller struct {
	UserID int
	Email  string
	Role   string
}

func (c Caller) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

// ProfileService reads and mutates a user's own account
type ProfileService interface {
	GetProfile(ctx context.Context, caller Caller, targetID int) (*model.User, error)
	UpdateProfile(ctx context.Context, caller Caller, targetID int, req model.UpdateProfileRequest) (*model.User, error)
	ChangePassword(ctx context.Context, caller Caller, req model.ChangePasswordRequest) error
}

type profileService struct {
	userRepo repository.UserRepository
}

func NewProfileService(userRepo repository.UserRepository) ProfileService {
	return &profileService{userRepo: userRepo}
}

// resolveTarget applies the ownership rule: a zero target means the caller,
// any other user is reachable only by an Admin.
func resolveTarget(caller Caller, targetID int) (int, error) {
	if targetID == 0 {
		return caller.UserID, nil
	}
	if targetID != caller.UserID && !caller.IsAdmin() {
		return 0, ErrForbidden
	}
	return targetID, nil
}

func (s *profileService) GetProfile(ctx context.Context, caller Caller, targetID int) (*model.User, error) {
	id, err := resolveTarget(caller, targetID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile replaces full name, email and phone number
func (s *profileService) UpdateProfile(ctx context.Context, caller Caller, targetID int, req model.UpdateProfileRequest) (*model.User, error) {
	id, err := resolveTarget(caller, targetID)
	if err != nil {
		return nil, err
	}

	if anyBlank(req.FullName, req.Email, req.PhoneNumber) {
		return nil, invalid(msgAllFieldsRequired)
	}
	fullName := strings.TrimSpace(req.FullName)
	email := NormalizeEmail(req.Email)
	phone := strings.TrimSpace(req.PhoneNumber)
	if err := checkFullName(fullName); err != nil {
		return nil, err
	}
	if !ValidEmail(email) {
		return nil, invalid(msgInvalidEmail)
	}
	if !ValidPhone(phone) {
		return nil, invalid(msgInvalidPhone)
	}

	taken, err := s.userRepo.EmailTakenByOther(ctx, email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	user, err := s.userRepo.UpdateProfile(ctx, id, fullName, email, phone)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ChangePassword verifies the current password before anything else about
// the new one is checked, so a wrong current password always yields
// ErrCurrentPasswordIncorrect.
func (s *profileService) ChangePassword(ctx context.Context, caller Caller, req model.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return invalid(msgAllFieldsRequired)
	}
	if req.ID != nil && *req.ID != caller.UserID {
		return ErrForbidden
	}

	user, err := s.userRepo.FindByID(ctx, caller.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	// The stored email is authoritative; the token may predate a profile update.
	if req.Email != "" && NormalizeEmail(req.Email) != NormalizeEmail(user.Email) {
		return ErrForbidden
	}
	if !utils.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return ErrCurrentPasswordIncorrect
	}
	if err := checkPassword(req.NewPassword, "New password"); err != nil {
		return err
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
