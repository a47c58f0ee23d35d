package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tourguide/internal/model"
	"tourguide/internal/repository"
	"tourguide/internal/store"
	"tourguide/internal/utils"

	"go.uber.org/zap"
)

// SigninResult is a verified account plus the token that identifies it.
type SigninResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// AuthService provides authentication related services
type AuthService interface {
	Signup(ctx context.Context, req model.SignupRequest) (*model.User, error)
	Signin(ctx context.Context, req model.SigninRequest) (*SigninResult, error)
	Signout(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	CurrentUser(ctx context.Context, userID int) (*model.User, error)
}

type authService struct {
	userRepo          repository.UserRepository
	jwtUtil           *utils.JWTUtil
	denylist          store.TokenDenylist
	throttle          store.LoginThrottle
	initialAdminEmail string
	logger            *zap.Logger
}

// NewAuthService creates a new AuthService. initialAdminEmail is the only
// address allowed to self-register as Admin; empty disables Admin signup.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtUtil *utils.JWTUtil,
	denylist store.TokenDenylist,
	throttle store.LoginThrottle,
	initialAdminEmail string,
	logger *zap.Logger,
) AuthService {
	return &authService{
		userRepo:          userRepo,
		jwtUtil:           jwtUtil,
		denylist:          denylist,
		throttle:          throttle,
		initialAdminEmail: NormalizeEmail(initialAdminEmail),
		logger:            logger,
	}
}

// Signup creates a new account
func (s *authService) Signup(ctx context.Context, req model.SignupRequest) (*model.User, error) {
	if anyBlank(req.FullName, req.Email, req.Password, req.PhoneNumber, req.Role) {
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
	if err := checkPassword(req.Password, "Password"); err != nil {
		return nil, err
	}
	if !ValidPhone(phone) {
		return nil, invalid(msgInvalidPhone)
	}
	role, ok := model.NormalizeRole(req.Role)
	if !ok {
		return nil, invalid(msgInvalidRole)
	}
	if role == model.RoleAdmin && (s.initialAdminEmail == "" || email != s.initialAdminEmail) {
		return nil, ErrForbidden
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailRegistered
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hashedPassword,
		PhoneNumber:  phone,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailRegistered
		}
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}

	if role == model.RoleAdmin {
		s.logger.Info("initial admin registered", zap.Int("user_id", user.ID))
	}
	return user, nil
}

// Signin verifies credentials and issues a token. Unknown email, wrong
// password and role mismatch all fail with ErrInvalidCredentials.
func (s *authService) Signin(ctx context.Context, req model.SigninRequest) (*SigninResult, error) {
	if anyBlank(req.Email, req.Password) {
		return nil, invalid(msgAllFieldsRequired)
	}
	email := NormalizeEmail(req.Email)
	if !ValidEmail(email) {
		return nil, invalid(msgInvalidEmail)
	}
	var wantRole string
	if strings.TrimSpace(req.Role) != "" {
		role, ok := model.NormalizeRole(req.Role)
		if !ok {
			return nil, invalid(msgInvalidRole)
		}
		wantRole = role
	}

	locked, err := s.throttle.Locked(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check sign-in throttle: %w", err)
	}
	if locked {
		return nil, ErrTooManyAttempts
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, s.failSignin(ctx, email)
	}
	role, ok := model.NormalizeRole(user.Role)
	if !ok || (wantRole != "" && wantRole != role) {
		return nil, s.failSignin(ctx, email)
	}

	if err := s.throttle.Reset(ctx, email); err != nil {
		s.logger.Warn("failed to reset sign-in throttle", zap.Error(err))
	}

	user.Role = role
	token, claims, err := s.jwtUtil.GenerateToken(user.ID, user.Email, role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &SigninResult{User: user, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *authService) failSignin(ctx context.Context, email string) error {
	if err := s.throttle.RegisterFailure(ctx, email); err != nil {
		s.logger.Warn("failed to record sign-in failure", zap.Error(err))
	}
	return ErrInvalidCredentials
}

// Signout revokes a token until it expires
func (s *authService) Signout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if err := s.denylist.Revoke(ctx, tokenID, expiresAt); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

func (s *authService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.denylist.IsRevoked(ctx, tokenID)
}

// CurrentUser re-reads the account behind a token
func (s *authService) CurrentUser(ctx context.Context, userID int) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
