package service

import (
	"context"
	"math"
	"strings"

	"tourguide/internal/model"
	"tourguide/internal/repository"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*limit inside a 32-bit OFFSET.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// AdminService backs the Admin-only user listing
type AdminService interface {
	ListUsers(ctx context.Context, filters model.UserListFilters) (*model.UserPage, error)
}

type adminService struct {
	userRepo repository.UserRepository
}

func NewAdminService(userRepo repository.UserRepository) AdminService {
	return &adminService{userRepo: userRepo}
}

// normalizeFilters applies defaults and bounds. Role "all" or empty lists every role.
func normalizeFilters(f model.UserListFilters) (model.UserListFilters, error) {
	role := strings.TrimSpace(f.Role)
	if role == "" || strings.EqualFold(role, "all") {
		f.Role = ""
	} else {
		canonical, ok := model.NormalizeRole(role)
		if !ok {
			return f, invalid("Invalid role filter")
		}
		f.Role = canonical
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Sort = strings.ToLower(strings.TrimSpace(f.Sort))
	if strings.EqualFold(f.Order, "desc") {
		f.Order = "DESC"
	} else {
		f.Order = "ASC"
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f, nil
}

func (s *adminService) ListUsers(ctx context.Context, filters model.UserListFilters) (*model.UserPage, error) {
	f, err := normalizeFilters(filters)
	if err != nil {
		return nil, err
	}

	users, total, err := s.userRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	profiles := make([]model.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}

	limit := int64(f.Limit)
	return &model.UserPage{
		Users:      profiles,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}
