package model

import (
	"strings"
	"time"
)

const (
	RoleAdmin   = "Admin"
	RoleGuide   = "Guide"
	RoleTourist = "Tourist"
)

// Roles lists every role a user can hold, in canonical casing.
var Roles = []string{RoleAdmin, RoleGuide, RoleTourist}

// NormalizeRole maps any casing of a known role to its canonical form.
func NormalizeRole(role string) (string, bool) {
	trimmed := strings.TrimSpace(role)
	for _, r := range Roles {
		if strings.EqualFold(trimmed, r) {
			return r, true
		}
	}
	return "", false
}

// User represents an account in the credential store
type User struct {
	ID           int       `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialized
	PhoneNumber  string    `json:"phone_number"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the public view of a user: everything except the password hash.
type Profile struct {
	ID          int       `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Profile strips the password hash and normalizes the role casing.
func (u *User) Profile() Profile {
	role, ok := NormalizeRole(u.Role)
	if !ok {
		role = u.Role
	}
	return Profile{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        role,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// SignupRequest is the payload of POST /api/signup
type SignupRequest struct {
	FullName    string `json:"fullName" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Role        string `json:"role" binding:"required"`
}

// SigninRequest is the payload of POST /api/signin. Role is optional.
type SigninRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role,omitempty"`
}

type UpdateProfileRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
}

// ChangePasswordRequest identifies the target by ID or Email; both are optional
// and default to the authenticated user.
type ChangePasswordRequest struct {
	ID              *int   `json:"id,omitempty"`
	Email           string `json:"email,omitempty"`
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// UserListFilters contains the admin listing parameters
type UserListFilters struct {
	Role   string // canonical role, empty for all
	Search string
	Sort   string
	Order  string
	Page   int
	Limit  int
}

// UserPage is one page of the admin user listing
type UserPage struct {
	Users      []Profile `json:"users"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int64     `json:"totalPages"`
}
