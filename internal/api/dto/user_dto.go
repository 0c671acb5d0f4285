package dto

import (
	"time"

	"github.com/tickitpro/ticket-service/internal/domain"
)

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	FirstName    string  `json:"firstName" validate:"required,max=100"`
	LastName     string  `json:"lastName" validate:"required,max=100"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	Role         string  `json:"role" validate:"required"`
	DepartmentID *string `json:"departmentId,omitempty"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EditUserRequest carries a partial update. Absent fields stay nil; blank
// values are treated as no-change downstream, so only length bounds are
// validated here.
type EditUserRequest struct {
	FirstName    *string `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName     *string `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Email        *string `json:"email,omitempty"`
	Password     *string `json:"password,omitempty"`
	Role         *string `json:"role,omitempty"`
	DepartmentID *string `json:"departmentId,omitempty"`
}

// PasswordResetRequest starts the reset flow.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest completes the reset flow.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ChangePasswordRequest rotates a password for an authenticated user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// UserResponse is the external user representation. It never carries
// password material.
type UserResponse struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	DepartmentID *string   `json:"departmentId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewUserResponse maps a profile onto the wire shape.
func NewUserResponse(profile domain.UserProfile) UserResponse {
	return UserResponse{
		ID:           profile.ID,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Email:        profile.Email,
		Role:         string(profile.Role),
		DepartmentID: profile.DepartmentID,
		CreatedAt:    profile.CreatedAt,
		UpdatedAt:    profile.UpdatedAt,
	}
}

// NewUserListResponse maps a profile slice onto the wire shape.
func NewUserListResponse(profiles []domain.UserProfile) []UserResponse {
	result := make([]UserResponse, 0, len(profiles))
	for _, profile := range profiles {
		result = append(result, NewUserResponse(profile))
	}
	return result
}

// AuthResponse bundles an access token with the account it belongs to.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}
